package backtest

import (
	"context"
	"fmt"

	"github.com/kpiteira/ktrdr-sub000/internal/domain"
)

// ScriptedDecisionProvider replays a predefined signal sequence, one
// decision per call. Used by tests and the CLI's dry-run mode; it also
// records the position snapshots it was handed for verification.
type ScriptedDecisionProvider struct {
	signals   []domain.Signal
	calls     int
	snapshots []domain.Position
}

// NewScriptedDecisionProvider creates a provider that emits the given
// signals in order and Hold once the script is exhausted.
func NewScriptedDecisionProvider(signals []domain.Signal) *ScriptedDecisionProvider {
	return &ScriptedDecisionProvider{signals: signals}
}

// Decide returns the next scripted signal.
func (p *ScriptedDecisionProvider) Decide(_ context.Context, _ map[string]float64, position domain.Position) (domain.Decision, error) {
	p.snapshots = append(p.snapshots, position)

	signal := domain.SignalHold
	if p.calls < len(p.signals) {
		signal = p.signals[p.calls]
	}
	p.calls++

	return domain.Decision{
		Signal:     signal,
		Confidence: 1.0,
		Metadata:   map[string]string{"provider": "scripted", "step": fmt.Sprintf("%d", p.calls-1)},
	}, nil
}

// Calls returns the number of decisions requested so far.
func (p *ScriptedDecisionProvider) Calls() int {
	return p.calls
}

// Snapshots returns the position snapshots observed per call.
func (p *ScriptedDecisionProvider) Snapshots() []domain.Position {
	return p.snapshots
}

// Ensure ScriptedDecisionProvider implements DecisionProvider
var _ DecisionProvider = (*ScriptedDecisionProvider)(nil)
