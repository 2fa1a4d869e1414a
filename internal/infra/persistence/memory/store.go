// Package memory provides an in-memory implementation of the core persistence
// store used for tests, ephemeral environments and as the working set of the
// snapshotting backends.
package memory

import (
	"claimcore/pkg/domain"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Compile-time contract assertions ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Policyholder aliases domain.Policyholder for in-memory persistence operations.
	Policyholder = domain.Policyholder
	// Claim aliases domain.Claim.
	Claim = domain.Claim
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	policyholders map[string]Policyholder
	claims        map[string]Claim
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Policyholders map[string]Policyholder `json:"policyholders"`
	Claims        map[string]Claim        `json:"claims"`
}

func newMemoryState() memoryState {
	return memoryState{
		policyholders: make(map[string]Policyholder),
		claims:        make(map[string]Claim),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		Policyholders: make(map[string]Policyholder, len(state.policyholders)),
		Claims:        make(map[string]Claim, len(state.claims)),
	}
	for k, v := range state.policyholders {
		s.Policyholders[k] = v
	}
	for k, v := range state.claims {
		s.Claims[k] = v
	}
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Policyholders {
		if v.ID == "" {
			v.ID = k
		}
		state.policyholders[v.ID] = v
	}
	for k, v := range s.Claims {
		if v.ID == "" {
			v.ID = k
		}
		v.Date = v.Date.UTC()
		state.claims[v.ID] = v
	}
	return state
}

func (s memoryState) clone() memoryState {
	return memoryStateFromSnapshot(snapshotFromMemoryState(s))
}

// sortedPolicyholders returns holders ordered by ID.
func sortedPolicyholders(in map[string]Policyholder) []Policyholder {
	out := make([]Policyholder, 0, len(in))
	for _, p := range in {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// sortedClaims returns claims ordered by date, then ID. Reports rely on this
// order for deterministic tie-breaking.
func sortedClaims(in map[string]Claim) []Claim {
	out := make([]Claim, 0, len(in))
	for _, c := range in {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu      sync.RWMutex
	state   memoryState
	engine  *RulesEngine
	nowFn   func() time.Time
	persist PersistFunc
}

// PersistFunc writes a snapshot of the state a transaction is about to commit.
// An error aborts the commit and leaves the previous state in place.
type PersistFunc func(ctx context.Context, snapshot Snapshot) error

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used to stamp new claims.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// WithPersist installs fn as the durable write step of every commit.
func WithPersist(fn PersistFunc) Option {
	return func(s *Store) {
		s.persist = fn
	}
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine, opts ...Option) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	s := &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) newID() string {
	return uuid.NewString()
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot)
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// transaction represents a mutation set applied to a cloned store state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

// transactionView exposes a read-only snapshot of the transactional state to rules.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListPolicyholders returns all policyholders ordered by ID.
func (v transactionView) ListPolicyholders() []Policyholder {
	return sortedPolicyholders(v.state.policyholders)
}

// ListClaims returns all claims ordered by date, then ID.
func (v transactionView) ListClaims() []Claim {
	return sortedClaims(v.state.claims)
}

// FindPolicyholder retrieves a policyholder from the view.
func (v transactionView) FindPolicyholder(id string) (Policyholder, bool) {
	p, ok := v.state.policyholders[id]
	return p, ok
}

// FindClaim retrieves a claim from the view.
func (v transactionView) FindClaim(id string) (Claim, bool) {
	c, ok := v.state.claims[id]
	return c, ok
}

// RunInTransaction executes fn within a transactional copy of the store state.
// The copy replaces committed state only when fn succeeds, no rule blocks and
// the persist step, if any, writes it.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	if s.persist != nil {
		if err := s.persist(ctx, snapshotFromMemoryState(tx.state)); err != nil {
			return result, err
		}
	}
	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindPolicyholder exposes policyholder lookup within the transaction scope.
func (tx *transaction) FindPolicyholder(id string) (Policyholder, bool) {
	p, ok := tx.state.policyholders[id]
	return p, ok
}

// FindClaim exposes claim lookup within the transaction scope.
func (tx *transaction) FindClaim(id string) (Claim, bool) {
	c, ok := tx.state.claims[id]
	return c, ok
}

// CreatePolicyholder stores a new policyholder within the transaction.
func (tx *transaction) CreatePolicyholder(p Policyholder) (Policyholder, error) {
	if p.ID == "" {
		p.ID = tx.store.newID()
	}
	if _, exists := tx.state.policyholders[p.ID]; exists {
		return Policyholder{}, fmt.Errorf("policyholder %q already exists", p.ID)
	}
	tx.state.policyholders[p.ID] = p
	tx.recordChange(Change{Entity: domain.EntityPolicyholder, Action: domain.ActionCreate, After: p})
	return p, nil
}

// PutPolicyholder inserts or replaces a policyholder, keeping its ID.
func (tx *transaction) PutPolicyholder(p Policyholder) (Policyholder, error) {
	if p.ID == "" {
		return Policyholder{}, fmt.Errorf("policyholder id required")
	}
	change := Change{Entity: domain.EntityPolicyholder, Action: domain.ActionImport, After: p}
	if before, ok := tx.state.policyholders[p.ID]; ok {
		change.Before = before
	}
	tx.state.policyholders[p.ID] = p
	tx.recordChange(change)
	return p, nil
}

// CreateClaim stores a new claim, stamping the transaction time when no date is set.
func (tx *transaction) CreateClaim(c Claim) (Claim, error) {
	if c.ID == "" {
		c.ID = tx.store.newID()
	}
	if _, exists := tx.state.claims[c.ID]; exists {
		return Claim{}, fmt.Errorf("claim %q already exists", c.ID)
	}
	if c.Date.IsZero() {
		c.Date = tx.now
	}
	c.Date = c.Date.UTC()
	tx.state.claims[c.ID] = c
	tx.recordChange(Change{Entity: domain.EntityClaim, Action: domain.ActionCreate, After: c})
	return c, nil
}

// PutClaim inserts or replaces a claim; the later write wins.
func (tx *transaction) PutClaim(c Claim) (Claim, error) {
	if c.ID == "" {
		return Claim{}, fmt.Errorf("claim id required")
	}
	if c.Date.IsZero() {
		c.Date = tx.now
	}
	c.Date = c.Date.UTC()
	change := Change{Entity: domain.EntityClaim, Action: domain.ActionImport, After: c}
	if before, ok := tx.state.claims[c.ID]; ok {
		change.Before = before
	}
	tx.state.claims[c.ID] = c
	tx.recordChange(change)
	return c, nil
}

// UpdateClaim mutates a claim using the provided mutator function.
func (tx *transaction) UpdateClaim(id string, mutator func(*Claim) error) (Claim, error) {
	current, ok := tx.state.claims[id]
	if !ok {
		return Claim{}, domain.NotFoundError{Entity: domain.EntityClaim, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return Claim{}, err
	}
	current.ID = id
	tx.state.claims[id] = current
	tx.recordChange(Change{Entity: domain.EntityClaim, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// Read helpers ---------------------------------------------------------------

// GetPolicyholder retrieves a policyholder by ID from committed state.
func (s *Store) GetPolicyholder(id string) (Policyholder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.policyholders[id]
	return p, ok
}

// GetClaim retrieves a claim by ID from committed state.
func (s *Store) GetClaim(id string) (Claim, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.state.claims[id]
	return c, ok
}

// ListPolicyholders returns all policyholders from committed state.
func (s *Store) ListPolicyholders() []Policyholder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedPolicyholders(s.state.policyholders)
}

// ListClaims returns all claims from committed state.
func (s *Store) ListClaims() []Claim {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedClaims(s.state.claims)
}
