package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/pkg/hunter"
)

// enrich fans the contact set out to the verify and push stages with a
// bounded worker pool. Each goroutine owns exactly one result slot, so
// report order stays discovery order and no contact is touched by two
// workers. Stage failures are contact-scoped; nothing here aborts the group.
func (p *Pipeline) enrich(ctx context.Context, results []model.ContactResult, opts Options) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)

	for i := range results {
		g.Go(func() error {
			cr := &results[i]
			cr.Verify = p.runVerify(gctx, cr, opts)
			cr.Push = p.runPush(gctx, cr, opts)
			return nil
		})
	}
	_ = g.Wait()
}

func (p *Pipeline) runVerify(ctx context.Context, cr *model.ContactResult, opts Options) model.StageOutcome {
	if !opts.Verify {
		return model.Skipped(model.SkipNotRequested)
	}
	if cr.Contact.Email == "" {
		return model.Skipped(model.SkipNoEmail)
	}
	if ctx.Err() != nil {
		return model.Cancelled()
	}

	policy := p.policyFor("hunter", "verify_email")
	v, err := resilience.ExecuteValue(ctx, policy, func(ctx context.Context) (*hunter.Verification, error) {
		return p.verifier.VerifyEmail(ctx, cr.Contact.Email)
	})
	if err != nil {
		if ctx.Err() != nil {
			return model.Cancelled()
		}
		return model.Failed(outcomeReason(err))
	}

	cr.Contact.Verification = &model.Verification{
		Result:    v.Result,
		Score:     v.Score,
		SMTPCheck: v.SMTPCheck,
	}
	return model.Succeeded()
}

func (p *Pipeline) runPush(ctx context.Context, cr *model.ContactResult, opts Options) model.StageOutcome {
	if !opts.Push {
		return model.Skipped(model.SkipNotRequested)
	}
	if cr.Contact.Email == "" {
		// Both CRM sinks key the upsert on email.
		return model.Skipped(model.SkipNoEmail)
	}
	if opts.PushRequiresVerified {
		if cr.Verify.Status != model.StageSucceeded || cr.Contact.Verification == nil || !cr.Contact.Verification.Deliverable() {
			return model.Skipped(model.SkipNotVerified)
		}
	}
	if ctx.Err() != nil {
		return model.Cancelled()
	}

	policy := p.policyFor(p.crm.Name(), "upsert_contact")
	ack, err := resilience.ExecuteValue(ctx, policy, func(ctx context.Context) (model.PushAck, error) {
		return p.crm.Push(ctx, cr.Contact)
	})
	if err != nil {
		if ctx.Err() != nil {
			return model.Cancelled()
		}
		return model.Failed(outcomeReason(err))
	}

	cr.Contact.Push = &ack
	return model.Succeeded()
}
