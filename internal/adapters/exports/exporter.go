// Package exports renders report snapshots to JSON or CSV artifacts in the
// blob store on a background worker.
package exports

import (
	"bytes"
	"claimcore/internal/blob"
	"claimcore/internal/core"
	"claimcore/pkg/domain"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Status describes the lifecycle stage of an export request.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Format is an artifact encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Report names an exportable report.
type Report string

const (
	ReportHighRisk           Report = "high_risk"
	ReportPendingClaims      Report = "pending_claims"
	ReportMonthlyClaims      Report = "monthly_claims"
	ReportClaimsByPolicyType Report = "claims_by_policy_type"
	ReportAvgClaimAmount     Report = "avg_claim_amount"
	ReportSummary            Report = "summary"
)

// Reports lists every exportable report.
func Reports() []Report {
	return []Report{ReportHighRisk, ReportPendingClaims, ReportMonthlyClaims, ReportClaimsByPolicyType, ReportAvgClaimAmount, ReportSummary}
}

func (r Report) valid() bool {
	for _, known := range Reports() {
		if r == known {
			return true
		}
	}
	return false
}

// ErrQueueFull is returned when the worker cannot accept more requests.
var ErrQueueFull = errors.New("export queue full")

// Record tracks an export request and its stored artifacts.
type Record struct {
	ID          string      `json:"id"`
	Report      Report      `json:"report"`
	Formats     []Format    `json:"formats"`
	Status      Status      `json:"status"`
	Error       string      `json:"error,omitempty"`
	Artifacts   []blob.Info `json:"artifacts,omitempty"`
	RequestedBy string      `json:"requested_by,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// Input is an enqueue request.
type Input struct {
	Report      Report
	Formats     []Format
	RequestedBy string
}

// Scheduler queues export requests and exposes their status.
type Scheduler interface {
	EnqueueExport(ctx context.Context, input Input) (Record, error)
	GetExport(id string) (Record, bool)
}

// ReportSource computes the reports being exported. *core.Service satisfies it.
type ReportSource interface {
	HighRiskPolicyholders(ctx context.Context) ([]core.RiskEntry, error)
	PendingClaims(ctx context.Context) ([]core.ClaimSummary, error)
	MonthlyClaims(ctx context.Context) (map[string]int, error)
	ClaimsByPolicyType(ctx context.Context) (map[core.PolicyType]int, error)
	AvgClaimAmountByPolicyType(ctx context.Context) (map[core.PolicyType]float64, error)
	Summary(ctx context.Context) (core.ReportSummary, error)
}

// Option configures a Worker.
type Option func(*Worker)

// WithLogger sets the worker logger.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithPrefix sets the blob key prefix for artifacts (default "exports").
func WithPrefix(prefix string) Option {
	return func(w *Worker) { w.prefix = strings.Trim(prefix, "/") }
}

// WithQueueSize sets the pending request capacity (default 32).
func WithQueueSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.queue = make(chan string, n)
		}
	}
}

// WithRetention caps how many finished records GetExport can still return
// (default 256). The oldest finished records are evicted first.
func WithRetention(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.retain = n
		}
	}
}

// Worker executes exports asynchronously.
type Worker struct {
	source ReportSource
	store  blob.Store
	logger *zap.Logger
	prefix string

	queue    chan string
	mu       sync.RWMutex
	jobs     map[string]*Record
	finished []string
	retain   int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker constructs an export worker. Call Start to begin processing.
func NewWorker(source ReportSource, store blob.Store, opts ...Option) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		source: source,
		store:  store,
		logger: zap.NewNop(),
		prefix: "exports",
		queue:  make(chan string, 32),
		jobs:   make(map[string]*Record),
		retain: 256,
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins processing export requests.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for completion.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case id := <-w.queue:
			w.process(id)
		}
	}
}

// EnqueueExport validates and schedules an export. Unknown reports or
// formats return a domain.ValidationError.
func (w *Worker) EnqueueExport(_ context.Context, input Input) (Record, error) {
	if !input.Report.valid() {
		return Record{}, domain.ValidationError{Field: "report", Message: fmt.Sprintf("unknown report %q", input.Report)}
	}
	formats := input.Formats
	if len(formats) == 0 {
		formats = []Format{FormatJSON, FormatCSV}
		if input.Report == ReportSummary {
			formats = []Format{FormatJSON}
		}
	}
	uniq := make([]Format, 0, len(formats))
	seen := make(map[Format]struct{})
	for _, format := range formats {
		if _, dup := seen[format]; dup {
			continue
		}
		switch {
		case format == FormatJSON:
		case format == FormatCSV && input.Report != ReportSummary:
		default:
			return Record{}, domain.ValidationError{Field: "formats", Message: fmt.Sprintf("format %s not supported for %s", format, input.Report)}
		}
		uniq = append(uniq, format)
		seen[format] = struct{}{}
	}

	now := time.Now().UTC()
	record := Record{
		ID:          uuid.NewString(),
		Report:      input.Report,
		Formats:     uniq,
		Status:      StatusQueued,
		RequestedBy: input.RequestedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	w.jobs[record.ID] = &record
	queued := record.copy()
	w.mu.Unlock()

	select {
	case w.queue <- record.ID:
	default:
		w.mu.Lock()
		delete(w.jobs, record.ID)
		w.mu.Unlock()
		return Record{}, ErrQueueFull
	}
	w.logger.Info("export queued", zap.String("export_id", record.ID), zap.String("report", string(record.Report)))
	return queued, nil
}

// GetExport returns a copy of the export record.
func (w *Worker) GetExport(id string) (Record, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	record, ok := w.jobs[id]
	if !ok {
		return Record{}, false
	}
	return record.copy(), true
}

func (w *Worker) process(id string) {
	w.mu.RLock()
	record, ok := w.jobs[id]
	var report Report
	var formats []Format
	if ok {
		report, formats = record.Report, append([]Format(nil), record.Formats...)
	}
	w.mu.RUnlock()
	if !ok {
		return
	}

	w.update(id, func(r *Record) { r.Status = StatusRunning })
	value, table, err := w.compute(report)
	if err != nil {
		w.fail(id, fmt.Sprintf("compute %s: %v", report, err))
		return
	}

	artifacts := make([]blob.Info, 0, len(formats))
	for _, format := range formats {
		payload, contentType, err := materialize(format, value, table)
		if err != nil {
			w.fail(id, err.Error())
			return
		}
		key := path.Join(w.prefix, id, string(report)+"."+string(format))
		info, err := w.store.Put(w.ctx, key, bytes.NewReader(payload), blob.PutOptions{
			ContentType: contentType,
			Metadata:    map[string]string{"report": string(report), "export_id": id},
		})
		if err != nil {
			w.fail(id, fmt.Sprintf("store artifact failed: %v", err))
			return
		}
		artifacts = append(artifacts, info)
	}

	now := time.Now().UTC()
	w.update(id, func(r *Record) {
		r.Status = StatusSucceeded
		r.Error = ""
		r.Artifacts = artifacts
		r.CompletedAt = &now
	})
	w.retire(id)
	w.logger.Info("export succeeded", zap.String("export_id", id), zap.Int("artifacts", len(artifacts)))
}

func (w *Worker) update(id string, fn func(*Record)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if record, ok := w.jobs[id]; ok {
		fn(record)
		record.UpdatedAt = time.Now().UTC()
	}
}

func (w *Worker) fail(id, reason string) {
	now := time.Now().UTC()
	w.update(id, func(r *Record) {
		r.Status = StatusFailed
		r.Error = reason
		r.CompletedAt = &now
	})
	w.retire(id)
	w.logger.Warn("export failed", zap.String("export_id", id), zap.String("error", reason))
}

// retire marks id finished and evicts the oldest finished records past the
// retention cap. Queued and running records are never evicted.
func (w *Worker) retire(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.finished = append(w.finished, id)
	for len(w.finished) > w.retain {
		delete(w.jobs, w.finished[0])
		w.finished = w.finished[1:]
	}
}

// table is the tabular form of a report used for CSV output.
type table struct {
	columns []string
	rows    [][]string
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func (w *Worker) compute(report Report) (any, table, error) {
	ctx := w.ctx
	switch report {
	case ReportHighRisk:
		entries, err := w.source.HighRiskPolicyholders(ctx)
		t := table{columns: []string{"id", "name", "claim_count", "claim_ratio", "rejected_count"}}
		for _, e := range entries {
			t.rows = append(t.rows, []string{e.ID, e.Name, strconv.Itoa(e.ClaimCount), formatFloat(e.ClaimRatio), strconv.Itoa(e.RejectedCount)})
		}
		return entries, t, err
	case ReportPendingClaims:
		pending, err := w.source.PendingClaims(ctx)
		t := table{columns: []string{"claim_id", "policyholder_name", "amount", "reason"}}
		for _, c := range pending {
			t.rows = append(t.rows, []string{c.ClaimID, c.PolicyholderName, formatFloat(c.Amount), c.Reason})
		}
		return pending, t, err
	case ReportMonthlyClaims:
		counts, err := w.source.MonthlyClaims(ctx)
		t := table{columns: []string{"month", "claims"}}
		months := make([]string, 0, len(counts))
		for m := range counts {
			months = append(months, m)
		}
		sort.Strings(months)
		for _, m := range months {
			t.rows = append(t.rows, []string{m, strconv.Itoa(counts[m])})
		}
		return counts, t, err
	case ReportClaimsByPolicyType:
		counts, err := w.source.ClaimsByPolicyType(ctx)
		t := table{columns: []string{"policy_type", "claims"}}
		for _, pt := range domain.PolicyTypes() {
			t.rows = append(t.rows, []string{string(pt), strconv.Itoa(counts[pt])})
		}
		return counts, t, err
	case ReportAvgClaimAmount:
		avgs, err := w.source.AvgClaimAmountByPolicyType(ctx)
		t := table{columns: []string{"policy_type", "avg_claim_amount"}}
		for _, pt := range domain.PolicyTypes() {
			t.rows = append(t.rows, []string{string(pt), formatFloat(avgs[pt])})
		}
		return avgs, t, err
	case ReportSummary:
		summary, err := w.source.Summary(ctx)
		return summary, table{}, err
	default:
		return nil, table{}, fmt.Errorf("unknown report %s", report)
	}
}

func materialize(format Format, value any, t table) ([]byte, string, error) {
	switch format {
	case FormatJSON:
		payload, err := json.Marshal(value)
		if err != nil {
			return nil, "", fmt.Errorf("marshal json: %w", err)
		}
		return payload, "application/json", nil
	case FormatCSV:
		buf := &bytes.Buffer{}
		writer := csv.NewWriter(buf)
		if err := writer.Write(t.columns); err != nil {
			return nil, "", err
		}
		if err := writer.WriteAll(t.rows); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "text/csv", nil
	default:
		return nil, "", fmt.Errorf("unsupported export format %s", format)
	}
}

func (r Record) copy() Record {
	dup := r
	dup.Formats = append([]Format(nil), r.Formats...)
	if len(r.Artifacts) > 0 {
		dup.Artifacts = append([]blob.Info(nil), r.Artifacts...)
	}
	if r.CompletedAt != nil {
		at := *r.CompletedAt
		dup.CompletedAt = &at
	}
	return dup
}
