package chat

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"codeberg.org/qemxa/server/internal/history"
	"codeberg.org/qemxa/server/internal/llm"
	"codeberg.org/qemxa/server/internal/logger"
	"codeberg.org/qemxa/server/internal/quota"
	"codeberg.org/qemxa/server/internal/tiers"
)

const defaultPersistTimeout = 10 * time.Second

type Options struct {
	GenerationTimeout time.Duration // zero disables the limit
	PersistTimeout    time.Duration
	Now               func() time.Time
}

// runs one user turn against a chat: it shows the optimistic prefix,
// calls the generator, then commits the reply or restores the baseline.
type Reconciler struct {
	generator Generator
	store     HistoryStore
	publisher Publisher
	guard     InflightGuard

	generationTimeout time.Duration
	persistTimeout    time.Duration
	now               func() time.Time
}

func NewReconciler(generator Generator, store HistoryStore, publisher Publisher, guard InflightGuard, opts Options) *Reconciler {
	if publisher == nil {
		publisher = nopPublisher{}
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = defaultPersistTimeout
	}

	return &Reconciler{
		generator:         generator,
		store:             store,
		publisher:         publisher,
		guard:             guard,
		generationTimeout: opts.GenerationTimeout,
		persistTimeout:    opts.PersistTimeout,
		now:               opts.Now,
	}
}

// performs one attempt. errors returned here mean nothing was published
// and nothing changed; a failed generation comes back as a rolled back
// Outcome instead.
func (r *Reconciler) PerformTurn(ctx context.Context, req TurnRequest) (*Outcome, error) {
	return r.Exclusive(ctx, req.Key, func() (*Outcome, error) {
		return r.performLocked(ctx, req)
	})
}

// runs fn while holding the in-flight slot of key. a second caller gets
// ErrBusy until fn returns.
func (r *Reconciler) Exclusive(ctx context.Context, key SessionKey, fn func() (*Outcome, error)) (*Outcome, error) {
	slot := key.String()

	token, acquired, err := r.guard.Acquire(ctx, slot)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire turn guard: %w", err)
	}

	if !acquired {
		return nil, ErrBusy
	}

	defer func() {
		if err := r.guard.Release(context.WithoutCancel(ctx), slot, token); err != nil {
			logger.ForSession(key.VIN, key.UserID).Error("failed to release turn guard", "error", err)
		}
	}()

	return fn()
}

// the turn itself. callers hold the in-flight slot for req.Key.
func (r *Reconciler) performLocked(ctx context.Context, req TurnRequest) (*Outcome, error) {
	now := r.now()
	today := quota.Today(now)
	baseline := history.Clone(req.Baseline)

	switch req.Mutation.Kind {
	case MutationDelete:
		next, err := history.DeletePaired(baseline, req.Mutation.TargetID)
		if err != nil {
			return nil, err
		}

		return r.commitLocal(ctx, req, next), nil

	case MutationReset:
		return r.commitLocal(ctx, req, history.ResetToWelcome(req.Vehicle, now)), nil
	}

	policy := req.Tier.Policy()

	if quota.Exhausted(policy, req.Usage, today) {
		return nil, ErrQuotaExhausted
	}

	prefix, err := derivePrefix(baseline, req.Mutation, policy, now)
	if err != nil {
		return nil, err
	}

	r.publisher.Publish(req.Key, prefix, StatePending)

	reply, err := r.generate(ctx, req, prefix)
	if err != nil {
		r.publisher.Publish(req.Key, baseline, StateRolledBack)

		logger.ForSession(req.Key.VIN, req.Key.UserID).Warn("turn rolled back",
			"mutation", req.Mutation.Kind,
			"error", err,
		)

		return &Outcome{
			State:   StateRolledBack,
			History: baseline,
			Usage:   req.Usage,
			Err:     &GenerationError{Err: err},
		}, nil
	}

	answer := history.NewTurn(history.RoleAssistant, reply.Text, r.now())
	answer.Sources = reply.Sources

	final := history.Append(prefix, answer)
	r.publisher.Publish(req.Key, final, StateCommitted)

	return &Outcome{
		State:      StateCommitted,
		History:    final,
		Usage:      quota.Advance(req.Usage, today),
		PersistErr: r.persist(ctx, req.Key, final),
	}, nil
}

// commits a mutation that needs no generation. quota is untouched.
func (r *Reconciler) commitLocal(ctx context.Context, req TurnRequest, next history.History) *Outcome {
	r.publisher.Publish(req.Key, next, StateCommitted)

	return &Outcome{
		State:      StateCommitted,
		History:    next,
		Usage:      req.Usage,
		PersistErr: r.persist(ctx, req.Key, next),
	}
}

func (r *Reconciler) generate(ctx context.Context, req TurnRequest, prefix history.History) (*llm.Reply, error) {
	if r.generationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.generationTimeout)
		defer cancel()
	}

	reply, err := r.generator.Generate(ctx, llm.GenerateRequest{
		Vehicle:   req.Vehicle,
		History:   prefix,
		UseSearch: req.UseSearch,
		Partners:  req.Partners,
	})
	if err != nil {
		return nil, err
	}

	if reply == nil || strings.TrimSpace(reply.Text) == "" {
		return nil, fmt.Errorf("generator returned an empty reply")
	}

	return reply, nil
}

// saves a committed history. a failure is logged and returned for
// reporting; the commit stands.
func (r *Reconciler) persist(ctx context.Context, key SessionKey, h history.History) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.persistTimeout)
	defer cancel()

	if err := r.store.SaveHistory(ctx, key, h); err != nil {
		logger.ForSession(key.VIN, key.UserID).Error("failed to persist chat", "error", err)
		return fmt.Errorf("failed to persist chat: %w", err)
	}

	return nil
}

// builds the history the generator sees for a send, edit or regenerate
func derivePrefix(baseline history.History, m Mutation, policy tiers.Policy, now time.Time) (history.History, error) {
	switch m.Kind {
	case MutationSend:
		if err := validateContent(m.Content, m.ImageURL, policy); err != nil {
			return nil, err
		}

		turn := history.NewTurn(history.RoleUser, m.Content, now)
		turn.ImageURL = m.ImageURL

		return history.Append(baseline, turn), nil

	case MutationEdit:
		// an edit keeps the turn's image, so image-only turns stay valid
		hasImage := false
		if idx := baseline.Index(m.TargetID); idx >= 0 {
			hasImage = baseline[idx].ImageURL != ""
		}

		if strings.TrimSpace(m.Content) == "" && !hasImage {
			return nil, ErrEmptyMessage
		}

		if err := validateLength(m.Content, policy); err != nil {
			return nil, err
		}

		return history.TruncateAfterEdit(baseline, m.TargetID, m.Content)

	case MutationRegenerate:
		return history.TruncateForRegenerate(baseline, m.TargetID)

	default:
		return nil, fmt.Errorf("%w: unknown mutation %q", history.ErrInvalidOperation, m.Kind)
	}
}

func validateContent(content, imageURL string, policy tiers.Policy) error {
	if strings.TrimSpace(content) == "" && imageURL == "" {
		return ErrEmptyMessage
	}

	if err := validateLength(content, policy); err != nil {
		return err
	}

	if imageURL != "" && !policy.ImageDiagnosis {
		return fmt.Errorf("%w: image diagnosis", ErrFeatureUnavailable)
	}

	return nil
}

func validateLength(content string, policy tiers.Policy) error {
	if n := utf8.RuneCountInString(content); n > policy.QueryCharLimit {
		return fmt.Errorf("%w: %d > %d", ErrMessageTooLong, n, policy.QueryCharLimit)
	}

	return nil
}
