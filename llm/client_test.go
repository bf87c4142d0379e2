package llm

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted yields a fixed list of events, then an optional error.
type scripted struct {
	name   string
	events []StreamEvent
	err    error
	calls  int
	onNext func(i int)
}

func (s *scripted) Name() string  { return s.name }
func (s *scripted) Model() string { return "scripted" }

func (s *scripted) Stream(_ context.Context, _ CompletionRequest) iter.Seq2[StreamEvent, error] {
	s.calls++
	return func(yield func(StreamEvent, error) bool) {
		for i, ev := range s.events {
			if s.onNext != nil {
				s.onNext(i)
			}
			if !yield(ev, nil) {
				return
			}
		}
		if s.err != nil {
			yield(StreamEvent{}, s.err)
		}
	}
}

func tok(s string) StreamEvent  { return StreamEvent{Kind: EventToken, Text: s} }
func args(s string) StreamEvent { return StreamEvent{Kind: EventToolArgs, Text: s} }

func TestCompleteAccumulatesInOrder(t *testing.T) {
	p := &scripted{name: "s", events: []StreamEvent{tok("Hel"), args(`{"a"`), tok("lo"), args(`:1}`)}}
	var seen []string
	out, err := NewClient(p).Complete(context.Background(), []ChatMessage{UserMessage("x")},
		WithOnToken(func(s string) { seen = append(seen, "t:"+s) }),
		WithOnToolArgs(func(s string) { seen = append(seen, "a:"+s) }),
	)
	require.NoError(t, err)
	assert.Equal(t, Completion{Text: "Hello", ToolArgs: `{"a":1}`}, out)
	assert.Equal(t, []string{"t:Hel", `a:{"a"`, "t:lo", "a::1}"}, seen)
}

func TestCompleteEmptyStream(t *testing.T) {
	out, err := NewClient(&scripted{name: "s"}).Complete(context.Background(), []ChatMessage{UserMessage("x")})
	require.NoError(t, err)
	assert.Equal(t, Completion{}, out)
}

func TestCompleteRejectsEmptyMessages(t *testing.T) {
	_, err := NewClient(&scripted{name: "s"}).Complete(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyMessages)
}

func TestCompleteTransportErrorIsFatal(t *testing.T) {
	boom := errors.New("connection reset")
	p := &scripted{name: "s", events: []StreamEvent{tok("partial")}, err: boom}
	out, err := NewClient(p).Complete(context.Background(), []ChatMessage{UserMessage("x")}, WithLabel("plan"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsCanceled(err))
	assert.Equal(t, "partial", out.Text)
}

func TestCompleteNoCallbacksAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := &scripted{name: "s", events: []StreamEvent{tok("a"), tok("b"), tok("c")}}
	p.onNext = func(i int) {
		if i == 2 {
			cancel()
		}
	}

	var seen []string
	out, err := NewClient(p).Complete(ctx, []ChatMessage{UserMessage("x")},
		WithOnToken(func(s string) { seen = append(seen, s) }))
	require.Error(t, err)
	assert.True(t, IsCanceled(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"a", "b"}, seen)
	assert.Equal(t, "ab", out.Text)
}

func TestFallbackProviderSwitchesBeforeFirstEvent(t *testing.T) {
	primary := &scripted{name: "primary", err: errors.New("dial tcp: refused")}
	secondary := &scripted{name: "mock", events: []StreamEvent{tok("from mock")}}

	out, err := NewClient(NewFallbackProvider(primary, secondary, nil)).
		Complete(context.Background(), []ChatMessage{UserMessage("x")})
	require.NoError(t, err)
	assert.Equal(t, "from mock", out.Text)
	assert.Equal(t, 1, secondary.calls)
}

func TestFallbackProviderKeepsErrorAfterOutput(t *testing.T) {
	boom := errors.New("stream broke")
	primary := &scripted{name: "primary", events: []StreamEvent{tok("half")}, err: boom}
	secondary := &scripted{name: "mock", events: []StreamEvent{tok("from mock")}}

	out, err := NewClient(NewFallbackProvider(primary, secondary, nil)).
		Complete(context.Background(), []ChatMessage{UserMessage("x")})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "half", out.Text)
	assert.Equal(t, 0, secondary.calls)
}
