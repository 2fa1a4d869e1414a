package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRule struct {
	name string
	res  Result
	err  error
}

func (r stubRule) Name() string { return r.name }

func (r stubRule) Evaluate(context.Context, RuleView, []Change) (Result, error) {
	return r.res, r.err
}

func TestRulesEngineAggregatesResults(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(stubRule{name: "first", res: Result{Violations: []Violation{{Rule: "first", Severity: SeverityWarn}}}})
	engine.Register(stubRule{name: "second", res: Result{Violations: []Violation{{Rule: "second", Severity: SeverityBlock}}}})

	assert.Equal(t, []string{"first", "second"}, engine.Rules())
	res, err := engine.Evaluate(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, res.Violations, 2)
	assert.True(t, res.HasBlocking())
}

func TestRulesEngineStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	engine := NewRulesEngine()
	engine.Register(stubRule{name: "broken", err: boom})
	engine.Register(stubRule{name: "never", res: Result{Violations: []Violation{{Rule: "never"}}}})

	res, err := engine.Evaluate(context.Background(), nil, nil)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, res.Violations)
}
