package core

import "claimcore/pkg/domain"

// NewDefaultRulesEngine returns a rules engine with the built-in claim rules registered.
func NewDefaultRulesEngine() *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(ClaimStatusTransitionRule())
	engine.Register(ClaimPolicyholderReferenceRule())
	return engine
}
