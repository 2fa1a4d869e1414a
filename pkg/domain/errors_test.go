package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKindsSurviveWrapping(t *testing.T) {
	validation := fmt.Errorf("register: %w", ValidationError{Field: "age", Message: "must be between 18 and 100"})
	assert.True(t, IsValidation(validation))
	assert.False(t, IsNotFound(validation))
	assert.Equal(t, "register: invalid age: must be between 18 and 100", validation.Error())

	notFound := fmt.Errorf("submit: %w", NotFoundError{Entity: EntityPolicyholder, ID: "p1"})
	assert.True(t, IsNotFound(notFound))
	assert.Contains(t, notFound.Error(), "policyholder p1 not found")

	cause := errors.New("bad date")
	imp := fmt.Errorf("load: %w", &ImportError{Source: "claims.csv", Line: 4, Err: cause})
	assert.True(t, IsImport(imp))
	assert.ErrorIs(t, imp, cause)
	assert.Equal(t, "load: import claims.csv line 4: bad date", imp.Error())

	blocked := RuleViolationError{Result: Result{Violations: []Violation{
		{Rule: "r", Severity: SeverityWarn, Message: "ignored"},
		{Rule: "r", Severity: SeverityBlock, Message: "nope"},
	}}}
	assert.True(t, IsRuleViolation(fmt.Errorf("tx: %w", blocked)))
	assert.Equal(t, "transaction blocked by rules: nope", blocked.Error())
}

func TestImportErrorWithoutLine(t *testing.T) {
	err := &ImportError{Source: "data.json", Err: errors.New("unexpected EOF")}
	assert.Equal(t, "import data.json: unexpected EOF", err.Error())
}
