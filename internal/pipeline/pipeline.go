// Package pipeline drives the search, verify, push acquisition run: paged
// contact search, bounded per-contact fan-out to the verification and CRM
// providers, and aggregation into a single report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/pkg/apollo"
	"github.com/sells-group/leadgen-cli/pkg/hunter"
)

// DefaultConcurrency bounds the per-contact fan-out when config supplies
// nothing.
const DefaultConcurrency = 5

// Config carries the run-scoped tuning for a pipeline. The retry policy is
// shared by all three provider stages.
type Config struct {
	Retry       resilience.Policy
	Concurrency int
}

// Options selects which stages a run performs.
type Options struct {
	Verify bool
	Push   bool

	// PushRequiresVerified gates the push stage on a verification that
	// succeeded and classified the address as deliverable. Off by default:
	// push is attempted even when verification failed or was skipped.
	PushRequiresVerified bool
}

// Pipeline coordinates the three provider clients for a run.
type Pipeline struct {
	cfg      Config
	search   apollo.Client
	verifier hunter.Client
	crm      Sink
}

// New creates a Pipeline. verifier and crm may be nil when the corresponding
// stage will never be requested.
func New(cfg Config, search apollo.Client, verifier hunter.Client, crm Sink) *Pipeline {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Pipeline{
		cfg:      cfg,
		search:   search,
		verifier: verifier,
		crm:      crm,
	}
}

// Run executes one acquisition run. It returns a report whenever search
// produced at least one contact; stage-level failures are recorded per
// contact, never escalated. A terminal search failure with zero contacts is
// the only provider condition that fails the whole run.
func (p *Pipeline) Run(ctx context.Context, query model.Query, opts Options) (*model.RunReport, error) {
	query = query.Normalize()
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if opts.Verify && p.verifier == nil {
		return nil, eris.New("pipeline: verify requested but no verification client configured")
	}
	if opts.Push && p.crm == nil {
		return nil, eris.New("pipeline: push requested but no CRM client configured")
	}

	log := zap.L().With(zap.Int("total_records", query.TotalRecords), zap.Int("page_size", query.PageSize))
	log.Info("pipeline: run starting",
		zap.Bool("verify", opts.Verify),
		zap.Bool("push", opts.Push),
	)

	started := time.Now()
	report := &model.RunReport{
		RunID:     uuid.NewString(),
		Query:     query,
		StartedAt: started,
	}

	contacts, searchErr := p.gather(ctx, query)
	if searchErr != nil {
		if len(contacts) == 0 {
			return nil, &SearchFailedError{Err: searchErr}
		}
		// Partial-result policy: with at least one contact gathered the run
		// proceeds and the report is flagged, not failed.
		report.Partial = true
		report.SearchError = searchErr.Error()
		log.Warn("pipeline: search aborted early, continuing with partial set",
			zap.Int("gathered", len(contacts)),
			zap.Error(searchErr),
		)
	}

	results := make([]model.ContactResult, len(contacts))
	for i, c := range contacts {
		results[i] = model.ContactResult{Contact: c, Search: model.Succeeded()}
	}

	if opts.Verify || opts.Push {
		p.enrich(ctx, results, opts)
	} else {
		for i := range results {
			results[i].Verify = model.Skipped(model.SkipNotRequested)
			results[i].Push = model.Skipped(model.SkipNotRequested)
		}
	}

	report.Contacts = results
	report.Tally()
	report.DurationMS = time.Since(started).Milliseconds()

	log.Info("pipeline: run complete",
		zap.String("run_id", report.RunID),
		zap.Int("returned", report.Counts.Returned),
		zap.Int("verified_ok", report.Counts.VerifiedOK),
		zap.Int("pushed_ok", report.Counts.PushedOK),
		zap.Bool("partial", report.Partial),
		zap.Int64("duration_ms", report.DurationMS),
	)
	return report, nil
}

// policyFor clones the shared retry policy with a logging hook naming the
// provider and operation.
func (p *Pipeline) policyFor(provider, operation string) resilience.Policy {
	pol := p.cfg.Retry
	pol.OnRetry = resilience.LogRetries(provider, operation)
	return pol
}

// outcomeReason renders a stage error into the reason recorded on the
// report, prefixing terminal rejections with their kind.
func outcomeReason(err error) string {
	if kind, ok := resilience.RejectionKind(err); ok {
		return fmt.Sprintf("%s: %s", kind, err.Error())
	}
	if resilience.IsTransient(err) {
		return "transient failure, retry budget exhausted: " + err.Error()
	}
	return err.Error()
}

// SearchFailedError is the run-level error for a terminal search failure
// that produced zero contacts.
type SearchFailedError struct {
	Err error
}

func (e *SearchFailedError) Error() string {
	return "search failed: " + e.Err.Error()
}

func (e *SearchFailedError) Unwrap() error { return e.Err }

// IsSearchFailed reports whether err is a run-level search failure.
func IsSearchFailed(err error) bool {
	var sfe *SearchFailedError
	return errors.As(err, &sfe)
}
