package checkout

import (
	"fmt"
	"slices"
	"strings"
)

// Flow is the ordered list of checkout steps an order walks through.
type Flow struct {
	baseURL string
	steps   []string
}

func NewFlow(baseURL string, steps []string) *Flow {
	return &Flow{
		baseURL: strings.TrimRight(baseURL, "/"),
		steps:   steps,
	}
}

// Next returns the step after current. The last step and unknown steps are
// returned unchanged.
func (f *Flow) Next(current string) string {
	i := slices.Index(f.steps, current)
	if i < 0 || i == len(f.steps)-1 {
		return current
	}
	return f.steps[i+1]
}

// Previous returns the step before current. The first step and unknown
// steps are returned unchanged.
func (f *Flow) Previous(current string) string {
	i := slices.Index(f.steps, current)
	if i <= 0 {
		return current
	}
	return f.steps[i-1]
}

func (f *Flow) StepURL(orderID uint, step string) string {
	return fmt.Sprintf("%s/checkout/%d/%s", f.baseURL, orderID, step)
}
