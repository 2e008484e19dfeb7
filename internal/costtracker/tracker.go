// Package costtracker accumulates per-model token usage and cost across a
// session, enforces a configured cost limit, and rolls up sub-agent costs
// into the parent. The pricing-table shape and safe-math guards are
// grounded in the nexus status package's cost estimator.
package costtracker

import (
	"fmt"
	"math"
	"sync"

	"github.com/bmadforge/runtime/internal/event"
	"github.com/bmadforge/runtime/pkg/types"
)

// CostLimitExceededError is raised by Enforce when accumulated cost has
// reached or passed the configured limit.
type CostLimitExceededError struct {
	SessionID string
	Current   float64
	Limit     float64
}

func (e *CostLimitExceededError) Error() string {
	return fmt.Sprintf("cost limit exceeded: %.4f >= %.4f", e.Current, e.Limit)
}

// PricingLookup resolves input/output price per 1,000 tokens for a model
// name. It is satisfied by *provider.AnthropicProvider and friends.
type PricingLookup interface {
	PricePer1K(model string) (inputPer1k, outputPer1k float64, ok bool)
}

// DefaultWarningThresholds are fractions of the limit at which a CostWarning
// event fires, once each, per session.
var DefaultWarningThresholds = []float64{0.5, 0.75, 0.9}

type modelTotals struct {
	inputTokens  int
	outputTokens int
}

// Tracker accumulates usage for one session.
type Tracker struct {
	mu sync.Mutex

	sessionID string
	limit     float64
	pricing   PricingLookup

	totals       map[string]*modelTotals
	apiCalls     int
	childCosts   []types.ChildSessionCost
	crossed      map[float64]bool
}

// New creates a Tracker for sessionID, enforcing limit (0 = unlimited)
// priced via pricing.
func New(sessionID string, limit float64, pricing PricingLookup) *Tracker {
	return &Tracker{
		sessionID: sessionID,
		limit:     limit,
		pricing:   pricing,
		totals:    make(map[string]*modelTotals),
		crossed:   make(map[float64]bool),
	}
}

// RecordUsage accumulates one provider turn's token usage under model.
func (t *Tracker) RecordUsage(usage types.Usage, model string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	m, ok := t.totals[model]
	if !ok {
		m = &modelTotals{}
		t.totals[model] = m
	}
	m.inputTokens += usage.InputTokens
	m.outputTokens += usage.OutputTokens
	t.apiCalls++
}

// AddChildCost credits a completed sub-agent session's cost and token
// totals into this tracker's aggregates. Recording happens unconditionally;
// Enforce (called by the caller immediately after, per §4.6) is a
// post-condition check on the now-updated state, not a gate on recording.
func (t *Tracker) AddChildCost(c types.ChildSessionCost) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.childCosts = append(t.childCosts, c)
	t.apiCalls += c.APICalls
}

// costLocked computes total cost; caller must hold t.mu.
func (t *Tracker) costLocked() float64 {
	var total float64
	for model, m := range t.totals {
		inPer1k, outPer1k := 0.0, 0.0
		if t.pricing != nil {
			if in, out, ok := t.pricing.PricePer1K(model); ok {
				inPer1k, outPer1k = in, out
			}
		}
		total += safeCost(m.inputTokens, inPer1k) + safeCost(m.outputTokens, outPer1k)
	}
	for _, c := range t.childCosts {
		total += c.TotalCost
	}
	return total
}

func safeCost(tokens int, pricePer1k float64) float64 {
	if math.IsNaN(pricePer1k) || math.IsInf(pricePer1k, 0) || pricePer1k < 0 {
		return 0
	}
	cost := (float64(tokens) / 1000) * pricePer1k
	if math.IsNaN(cost) || math.IsInf(cost, 0) {
		return 0
	}
	return cost
}

// TotalCost returns the current accumulated cost (own usage + children).
func (t *Tracker) TotalCost() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.costLocked()
}

// Enforce raises CostLimitExceededError if total cost has reached limit; a
// zero limit means unlimited and never raises. It also fires CostWarning
// events the first time each threshold in DefaultWarningThresholds is
// crossed.
func (t *Tracker) Enforce() error {
	t.mu.Lock()
	total := t.costLocked()
	limit := t.limit
	if limit > 0 {
		for _, frac := range DefaultWarningThresholds {
			threshold := frac * limit
			if total >= threshold && !t.crossed[frac] {
				t.crossed[frac] = true
				event.Publish(event.Event{
					Type: event.CostWarning,
					Data: event.CostWarningData{SessionID: t.sessionID, Threshold: frac, Current: total, Limit: limit},
				})
			}
		}
	}
	t.mu.Unlock()

	if limit > 0 && total >= limit {
		event.Publish(event.Event{
			Type: event.CostLimitExceeded,
			Data: event.CostLimitExceededData{SessionID: t.sessionID, Current: total, Limit: limit},
		})
		return &CostLimitExceededError{SessionID: t.sessionID, Current: total, Limit: limit}
	}
	return nil
}

// RemainingBudget returns limit - totalCost, or 0 when unlimited (a child
// started with an unlimited parent inherits no limit of its own, per §4.6).
func (t *Tracker) RemainingBudget() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.limit <= 0 {
		return 0
	}
	remaining := t.limit - t.costLocked()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Report builds the CostReport surfaced in a SessionResult.
func (t *Tracker) Report() types.CostReport {
	t.mu.Lock()
	defer t.mu.Unlock()

	var breakdown []types.ModelCost
	var totalIn, totalOut int
	for model, m := range t.totals {
		inPer1k, outPer1k := 0.0, 0.0
		if t.pricing != nil {
			if in, out, ok := t.pricing.PricePer1K(model); ok {
				inPer1k, outPer1k = in, out
			}
		}
		cost := safeCost(m.inputTokens, inPer1k) + safeCost(m.outputTokens, outPer1k)
		breakdown = append(breakdown, types.ModelCost{Model: model, InputTokens: m.inputTokens, OutputTokens: m.outputTokens, Cost: cost})
		totalIn += m.inputTokens
		totalOut += m.outputTokens
	}

	children := make([]types.ChildSessionCost, len(t.childCosts))
	copy(children, t.childCosts)
	for _, c := range t.childCosts {
		totalIn += c.InputTokens
		totalOut += c.OutputTokens
	}

	return types.CostReport{
		TotalCost:     t.costLocked(),
		Currency:      "USD",
		InputTokens:   totalIn,
		OutputTokens:  totalOut,
		APICalls:      t.apiCalls,
		Breakdown:     breakdown,
		ChildSessions: children,
	}
}
