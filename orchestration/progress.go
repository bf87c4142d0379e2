package orchestration

import (
	"errors"
	"fmt"

	"github.com/richinex/seekr/agent"
)

// ErrInvalidTransition is returned when a step would move backwards, stay
// put, or become a second loading step.
var ErrInvalidTransition = errors.New("invalid step transition")

// ProgressFunc receives a fresh copy of the plan after every transition.
// It is called synchronously on the pipeline's goroutine.
type ProgressFunc func(steps []agent.PlanStep)

// InitialSteps are the three pipeline steps, all pending.
func InitialSteps(language string) []agent.PlanStep {
	l := agent.LanguageName(language)
	return []agent.PlanStep{
		{
			ID:            stepPlan,
			Description:   "Planning response in " + l,
			RequiredTools: []string{},
			Status:        agent.StepPending,
		},
		{
			ID:             stepSearch,
			Description:    "Searching for relevant information in " + l,
			RequiresSearch: true,
			RequiredTools:  []string{"web_search"},
			Status:         agent.StepPending,
		},
		{
			ID:            stepConsolidate,
			Description:   "Consolidating information and generating response in " + l,
			RequiredTools: []string{},
			Status:        agent.StepPending,
		},
	}
}

const (
	stepPlan = iota + 1
	stepSearch
	stepConsolidate
)

// progress tracks step statuses for one run. Uses a map for O(1) lookup
// and a slice for maintaining plan order.
type progress struct {
	steps []agent.PlanStep
	index map[int]int
}

func newProgress(steps []agent.PlanStep) *progress {
	p := &progress{
		steps: agent.CloneSteps(steps),
		index: make(map[int]int, len(steps)),
	}
	for i, s := range p.steps {
		p.index[s.ID] = i
	}
	return p
}

// set moves step id to status. Statuses only move forward and at most one
// step is loading at a time.
func (p *progress) set(id int, status agent.StepStatus) error {
	i, ok := p.index[id]
	if !ok {
		return fmt.Errorf("%w: unknown step %d", ErrInvalidTransition, id)
	}
	current := p.steps[i].Status
	if !current.Before(status) {
		return fmt.Errorf("%w: step %d %s -> %s", ErrInvalidTransition, id, current, status)
	}
	if status == agent.StepLoading {
		for _, s := range p.steps {
			if s.Status == agent.StepLoading {
				return fmt.Errorf("%w: step %d is already loading", ErrInvalidTransition, s.ID)
			}
		}
	}
	p.steps[i].Status = status
	return nil
}

// advance completes done and starts next.
func (p *progress) advance(done, next int) error {
	if err := p.set(done, agent.StepComplete); err != nil {
		return err
	}
	return p.set(next, agent.StepLoading)
}

func (p *progress) snapshot() []agent.PlanStep {
	return agent.CloneSteps(p.steps)
}
