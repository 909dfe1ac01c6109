// Package recommend asks a language model for an album recommendation and
// keeps asking, within a fixed budget, until the reply is well-formed and not
// a recent duplicate.
package recommend

import (
	"context"
	"errors"
	"log/slog"

	"github.com/deusflow/albumfeed/internal/history"
	"github.com/deusflow/albumfeed/internal/llm"
	"github.com/deusflow/albumfeed/internal/metrics"
	"github.com/deusflow/albumfeed/internal/retry"
)

// AttemptBudget is the maximum number of model requests per Generate call.
const AttemptBudget = 3

// Options are the generation parameters sent with every request.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// Generator produces one recommendation per Generate call within AttemptBudget.
type Generator struct {
	client  llm.Client
	opts    Options
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewGenerator wires a Generator. log and m may be nil.
func NewGenerator(client llm.Client, opts Options, log *slog.Logger, m *metrics.Metrics) *Generator {
	if log == nil {
		log = slog.Default()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Generator{client: client, opts: opts, log: log, metrics: m}
}

// Generate returns the first recommendation that parses and whose title is
// not in recent. Transport failures are tolerated on all but the last
// attempt; on the last attempt they are returned as *TransportError.
// Otherwise an exhausted budget yields *ExhaustedError.
func (g *Generator) Generate(ctx context.Context, recent history.TitleSet) (*Recommendation, error) {
	req := llm.Request{
		Model:       g.opts.Model,
		Messages:    buildMessages(recent),
		MaxTokens:   g.opts.MaxTokens,
		Temperature: g.opts.Temperature,
		TopP:        g.opts.TopP,
	}

	var accepted *Recommendation

	err := retry.WithRetry(ctx, retry.RetryConfig{
		MaxAttempts: AttemptBudget,
		OnFailure:   g.logRejected,
	}, func(attempt int) error {
		g.metrics.IncrementModelRequests()
		g.log.Debug("requesting recommendation", "attempt", attempt, "model", req.Model, "recent", len(recent))

		reply, err := g.client.Complete(ctx, req)
		if errors.Is(err, llm.ErrEmptyReply) {
			g.metrics.IncrementMalformedReplies()
			return &MalformedError{Reason: "empty reply", Err: err}
		}
		if err != nil {
			g.metrics.IncrementTransportFailures()
			return &TransportError{Kind: llm.Classify(err), Err: err}
		}

		rec, err := ParseRecommendation(reply)
		if err != nil {
			g.metrics.IncrementMalformedReplies()
			g.log.Debug("unparseable reply", "attempt", attempt, "reply", reply)
			return err
		}

		if recent.Contains(rec.Title()) {
			g.metrics.IncrementDuplicatesRejected()
			return &DuplicateError{Title: rec.Title()}
		}

		accepted = rec
		return nil
	})
	if err == nil {
		g.log.Info("recommendation accepted", "title", accepted.Title())
		return accepted, nil
	}

	var (
		transportErr *TransportError
		malformedErr *MalformedError
		duplicateErr *DuplicateError
	)
	switch {
	case errors.As(err, &transportErr):
		return nil, transportErr
	case errors.As(err, &duplicateErr):
		return nil, &ExhaustedError{Attempts: AttemptBudget, Cause: CauseDuplicate, Last: duplicateErr}
	case errors.As(err, &malformedErr):
		return nil, &ExhaustedError{Attempts: AttemptBudget, Cause: CauseMalformed, Last: malformedErr}
	default:
		return nil, err
	}
}

func (g *Generator) logRejected(attempt int, err error) {
	var (
		transportErr *TransportError
		duplicateErr *DuplicateError
	)
	switch {
	case errors.As(err, &transportErr):
		g.log.Warn("model request failed, retrying",
			"attempt", attempt, "of", AttemptBudget,
			"kind", transportErr.Kind.String(), "hint", transportErr.Kind.Hint(), "error", transportErr.Err)
	case errors.As(err, &duplicateErr):
		g.log.Warn("duplicate detected, retrying", "attempt", attempt, "of", AttemptBudget, "title", duplicateErr.Title)
	default:
		g.log.Warn("malformed reply, retrying", "attempt", attempt, "of", AttemptBudget, "error", err)
	}
}
