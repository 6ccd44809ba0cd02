package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"codeberg.org/qemxa/server/internal/history"
	"codeberg.org/qemxa/server/internal/llm"
	"codeberg.org/qemxa/server/internal/logger"
	"codeberg.org/qemxa/server/internal/quota"
)

// ties the reconciler to persistence: it loads the baseline, the tier and
// the usage counter for every turn and saves the advanced counter after.
type Service struct {
	gateway    Gateway
	reconciler *Reconciler
	now        func() time.Time

	// committed histories whose save failed, served as baseline until a
	// later save succeeds
	mu       sync.Mutex
	unsynced map[string]history.History
}

func NewService(gateway Gateway, reconciler *Reconciler) *Service {
	return &Service{
		gateway:    gateway,
		reconciler: reconciler,
		now:        reconciler.now,
		unsynced:   make(map[string]history.History),
	}
}

// returns the chat for key, creating it with a greeting on first open
func (s *Service) Open(ctx context.Context, key SessionKey) (*Session, error) {
	vehicle, err := s.gateway.GetVehicle(ctx, key)
	if err != nil {
		return nil, err
	}

	return s.load(ctx, key, *vehicle)
}

func (s *Service) load(ctx context.Context, key SessionKey, vehicle history.VehicleInfo) (*Session, error) {
	sess, err := s.gateway.LoadSession(ctx, key)

	switch {
	case errors.Is(err, ErrSessionNotFound):
		sess = &Session{
			VIN:     key.VIN,
			UserID:  key.UserID,
			History: history.ResetToWelcome(vehicle, s.now()),
		}

		if err := s.gateway.SaveHistory(ctx, key, sess.History); err != nil {
			return nil, fmt.Errorf("failed to create chat: %w", err)
		}

		logger.Info("chat created", "vin", key.VIN, "user_id", key.UserID)
	case err != nil:
		return nil, fmt.Errorf("failed to load chat: %w", err)
	}

	if h, ok := s.lookupUnsynced(key); ok {
		sess.History = h
	}

	return sess, nil
}

func (s *Service) Send(ctx context.Context, key SessionKey, content, imageURL string, useSearch bool) (*Outcome, error) {
	return s.Perform(ctx, key, SendMessage(content, imageURL), useSearch)
}

func (s *Service) Edit(ctx context.Context, key SessionKey, messageID, content string, useSearch bool) (*Outcome, error) {
	return s.Perform(ctx, key, EditMessage(messageID, content), useSearch)
}

func (s *Service) Regenerate(ctx context.Context, key SessionKey, messageID string, useSearch bool) (*Outcome, error) {
	return s.Perform(ctx, key, RegenerateReply(messageID), useSearch)
}

func (s *Service) Delete(ctx context.Context, key SessionKey, messageID string) (*Outcome, error) {
	return s.Perform(ctx, key, DeleteMessage(messageID), false)
}

func (s *Service) Reset(ctx context.Context, key SessionKey) (*Outcome, error) {
	return s.Perform(ctx, key, ResetChat(), false)
}

// runs one mutation end to end. the baseline, tier and usage are read
// while holding the chat's in-flight slot, so each turn starts from the
// previous commit.
func (s *Service) Perform(ctx context.Context, key SessionKey, m Mutation, useSearch bool) (*Outcome, error) {
	return s.reconciler.Exclusive(ctx, key, func() (*Outcome, error) {
		return s.perform(ctx, key, m, useSearch)
	})
}

func (s *Service) perform(ctx context.Context, key SessionKey, m Mutation, useSearch bool) (*Outcome, error) {
	vehicle, err := s.gateway.GetVehicle(ctx, key)
	if err != nil {
		return nil, err
	}

	sess, err := s.load(ctx, key, *vehicle)
	if err != nil {
		return nil, err
	}

	profile, err := s.gateway.GetProfile(ctx, key.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	var partners []llm.PartnerSummary
	if m.Generates() {
		partners, err = s.gateway.ListPartners(ctx, key.UserID)
		if err != nil {
			// the assistant can still answer without partner context
			logger.ForSession(key.VIN, key.UserID).Error("failed to load partners", "error", err)
			partners = nil
		}
	}

	out, err := s.reconciler.performLocked(ctx, TurnRequest{
		Key:       key,
		Baseline:  sess.History,
		Mutation:  m,
		Tier:      profile.Tier,
		Usage:     profile.DailyUsage,
		Vehicle:   *vehicle,
		Partners:  partners,
		UseSearch: useSearch,
	})
	if err != nil {
		return nil, err
	}

	if out.State != StateCommitted {
		return out, nil
	}

	s.trackSync(key, out)

	if out.Usage != profile.DailyUsage {
		usageCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.reconciler.persistTimeout)
		defer cancel()

		if err := s.gateway.SaveUsage(usageCtx, key.UserID, out.Usage); err != nil {
			logger.ForSession(key.VIN, key.UserID).Error("failed to persist daily usage", "error", err)
			out.PersistErr = errors.Join(out.PersistErr, fmt.Errorf("failed to persist usage: %w", err))
		}
	}

	return out, nil
}

// returns the user's tier and today's message usage
func (s *Service) Usage(ctx context.Context, userID string) (*UsageSummary, error) {
	profile, err := s.gateway.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	today := quota.Today(s.now())
	policy := profile.Tier.Policy()

	used := 0
	if profile.DailyUsage.Date == today {
		used = profile.DailyUsage.Count
	}

	return &UsageSummary{
		Tier:      profile.Tier,
		Date:      today,
		Used:      used,
		Limit:     policy.QueryLimit,
		Remaining: quota.Display(policy, profile.DailyUsage, today),
		Policy:    policy,
	}, nil
}

func (s *Service) trackSync(key SessionKey, out *Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if out.PersistErr != nil {
		s.unsynced[key.String()] = history.Clone(out.History)
		return
	}

	delete(s.unsynced, key.String())
}

func (s *Service) lookupUnsynced(key SessionKey) (history.History, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.unsynced[key.String()]

	return history.Clone(h), ok
}
