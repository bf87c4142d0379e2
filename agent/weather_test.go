package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinex/seekr/internal/llmtest"
	"github.com/richinex/seekr/llm"
)

func TestWeatherAgent(t *testing.T) {
	p := llmtest.ByLabel(map[string]llmtest.Reply{
		"extract_location": llmtest.Tool(`{"location": "New York"}`),
		"get_weather":      llmtest.Tool(`{"temperature": 21.5, "condition": "sunny", "humidity": 40, "wind_speed": 12}`),
		"format_weather":   llmtest.Text("It is sunny and 21.5°C in New York."),
	})

	got, err := NewWeatherAgent(llm.NewClient(p), nil).Process(context.Background(), "weather in New York?", "en")
	require.NoError(t, err)
	assert.Equal(t, AgentResult{
		Answer:     "It is sunny and 21.5°C in New York.",
		Sources:    []Source{{Title: "Weather data for New York", URL: "https://weather.example.com/New%20York"}},
		Confidence: WeatherConfidence,
	}, got)

	reqs := p.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, "extract_location", reqs[0].ToolChoice)
	assert.Equal(t, "Extract the location from this query: weather in New York?", reqs[0].Messages[1].Content)
	assert.Equal(t, "get_weather", reqs[1].ToolChoice)
	assert.Equal(t, "Get weather for location: New York", reqs[1].Messages[1].Content)
	assert.Contains(t, reqs[2].Messages[1].Content, "natural response in English:\n{\n  \"temperature\": 21.5")
	assert.Empty(t, reqs[2].Tools)
}

func TestWeatherAgentErrors(t *testing.T) {
	boom := errors.New("unreachable")
	tests := []struct {
		name    string
		replies map[string]llmtest.Reply
		want    error
	}{
		{"empty location", map[string]llmtest.Reply{"extract_location": llmtest.Tool(`{"location": " "}`)}, ErrNoLocation},
		{"garbled location", map[string]llmtest.Reply{"extract_location": llmtest.Tool(`{"loc`)}, ErrNoLocation},
		{"missing weather field", map[string]llmtest.Reply{
			"extract_location": llmtest.Tool(`{"location": "Oslo"}`),
			"get_weather":      llmtest.Tool(`{"temperature": 3, "condition": "snow"}`),
		}, ErrNoWeather},
		{"transport", map[string]llmtest.Reply{"extract_location": llmtest.Fail(boom)}, boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := llmtest.ByLabel(tt.replies)
			_, err := NewWeatherAgent(llm.NewClient(p), nil).Process(context.Background(), "weather?", "en")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
