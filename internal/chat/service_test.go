package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"codeberg.org/qemxa/server/internal/history"
	"codeberg.org/qemxa/server/internal/llm"
	"codeberg.org/qemxa/server/internal/quota"
	"codeberg.org/qemxa/server/internal/tiers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(gen Generator, gw *fakeGateway) *Service {
	return NewService(gw, NewReconciler(gen, gw, nil, NewMemoryGuard(time.Minute), Options{Now: fixedNow}))
}

func TestService_OpenCreatesWelcome(t *testing.T) {
	gw := newFakeGateway()
	svc := newTestService(&mockGenerator{}, gw)

	sess, err := svc.Open(context.Background(), testKey)
	require.NoError(t, err)

	require.Len(t, sess.History, 1)
	assert.Contains(t, sess.History[0].Content, "Toyota Prius")
	assert.Equal(t, 1, gw.saves)

	again, err := svc.Open(context.Background(), testKey)
	require.NoError(t, err)
	assert.True(t, history.Equal(sess.History, again.History))
	assert.Equal(t, 1, gw.saves)
}

func TestService_OpenUnknownVehicle(t *testing.T) {
	svc := newTestService(&mockGenerator{}, newFakeGateway())

	_, err := svc.Open(context.Background(), SessionKey{VIN: "NOPE", UserID: "user-1"})
	assert.ErrorIs(t, err, ErrVehicleNotFound)
}

func TestService_SendPersistsUsage(t *testing.T) {
	gw := newFakeGateway()
	gw.profiles["user-1"] = &Profile{ID: "user-1", Tier: tiers.Free, DailyUsage: quota.UsageCounter{Date: testToday, Count: 4}}
	gw.partners = []llm.PartnerSummary{{Name: "AutoFix", Type: "service"}}
	gen := &mockGenerator{}
	svc := newTestService(gen, gw)

	out, err := svc.Send(context.Background(), testKey, "brakes squeal", "", false)
	require.NoError(t, err)

	assert.Equal(t, StateCommitted, out.State)
	assert.Equal(t, quota.UsageCounter{Date: testToday, Count: 5}, gw.profiles["user-1"].DailyUsage)
	assert.Equal(t, gw.partners, gen.calls[0].Partners)

	// fifth message used the last slot
	_, err = svc.Send(context.Background(), testKey, "still squeals", "", false)
	assert.ErrorIs(t, err, ErrQuotaExhausted)

	usage, err := svc.Usage(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 5, usage.Used)
	assert.Equal(t, 0, usage.Remaining)
	assert.Equal(t, tiers.Free, usage.Tier)
}

func TestService_TierReadPerTurn(t *testing.T) {
	gw := newFakeGateway()
	gw.profiles["user-1"] = &Profile{ID: "user-1", Tier: tiers.Free, DailyUsage: quota.UsageCounter{Date: testToday, Count: 5}}
	svc := newTestService(&mockGenerator{}, gw)

	_, err := svc.Send(context.Background(), testKey, "hi", "", false)
	require.ErrorIs(t, err, ErrQuotaExhausted)

	// upgrade arrives out of band
	gw.profiles["user-1"].Tier = tiers.Premium

	out, err := svc.Send(context.Background(), testKey, "hi", "", false)
	require.NoError(t, err)
	assert.Equal(t, 6, out.Usage.Count)
}

func TestService_RollbackLeavesUsage(t *testing.T) {
	gw := newFakeGateway()
	gen := &mockGenerator{
		generateFunc: func(context.Context, llm.GenerateRequest) (*llm.Reply, error) {
			return nil, errors.New("boom")
		},
	}
	svc := newTestService(gen, gw)

	out, err := svc.Send(context.Background(), testKey, "hi", "", false)
	require.NoError(t, err)

	assert.Equal(t, StateRolledBack, out.State)
	assert.Len(t, out.History, 1)
	assert.Zero(t, gw.profiles["user-1"].DailyUsage.Count)
}

func TestService_DeleteDoesNotLoadPartners(t *testing.T) {
	gw := newFakeGateway()
	gw.partnersErr = errors.New("must not be called")
	svc := newTestService(&mockGenerator{}, gw)

	sess, err := svc.Open(context.Background(), testKey)
	require.NoError(t, err)

	out, err := svc.Delete(context.Background(), testKey, sess.History[0].ID)
	require.NoError(t, err)
	assert.Empty(t, out.History)
}

func TestService_PartnerFailureStillAnswers(t *testing.T) {
	gw := newFakeGateway()
	gw.partnersErr = errors.New("partners table missing")
	svc := newTestService(&mockGenerator{}, gw)

	out, err := svc.Send(context.Background(), testKey, "hi", "", false)
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, out.State)
}

func TestService_UnsyncedHistoryIsBaseline(t *testing.T) {
	gw := newFakeGateway()
	svc := newTestService(&mockGenerator{}, gw)

	_, err := svc.Open(context.Background(), testKey)
	require.NoError(t, err)

	gw.saveErr = errors.New("connection reset")

	out, err := svc.Send(context.Background(), testKey, "first", "", false)
	require.NoError(t, err)
	require.Error(t, out.PersistErr)
	require.Len(t, out.History, 3)

	// the store still holds only the welcome, the next turn builds on the commit
	gw.saveErr = nil

	out, err = svc.Send(context.Background(), testKey, "second", "", false)
	require.NoError(t, err)
	require.NoError(t, out.PersistErr)
	assert.Equal(t, []string{out.History[0].Content, "first", "reply to first", "second", "reply to second"}, contents(out.History))

	sess, err := gw.LoadSession(context.Background(), testKey)
	require.NoError(t, err)
	assert.Len(t, sess.History, 5)
}

func TestService_UsagePersistFailureReported(t *testing.T) {
	gw := newFakeGateway()
	gw.usageErr = errors.New("profiles unavailable")
	svc := newTestService(&mockGenerator{}, gw)

	out, err := svc.Send(context.Background(), testKey, "hi", "", false)
	require.NoError(t, err)

	assert.Equal(t, StateCommitted, out.State)
	assert.ErrorContains(t, out.PersistErr, "profiles unavailable")
}

func TestService_ResetAndRegenerate(t *testing.T) {
	gw := newFakeGateway()
	svc := newTestService(&mockGenerator{}, gw)

	out, err := svc.Send(context.Background(), testKey, "noise", "", false)
	require.NoError(t, err)

	out, err = svc.Regenerate(context.Background(), testKey, out.History[2].ID, true)
	require.NoError(t, err)
	assert.Len(t, out.History, 3)

	out, err = svc.Edit(context.Background(), testKey, out.History[1].ID, "louder noise", false)
	require.NoError(t, err)
	assert.Equal(t, "louder noise", out.History[1].Content)

	out, err = svc.Reset(context.Background(), testKey)
	require.NoError(t, err)
	assert.Len(t, out.History, 1)
	assert.Equal(t, 3, gw.profiles["user-1"].DailyUsage.Count)
}

// blocks the first GetProfile until opened, so a turn can be held after it
// has read the chat
type gatedGateway struct {
	*fakeGateway

	once    sync.Once
	entered chan struct{}
	open    chan struct{}
}

func newGatedGateway(gw *fakeGateway) *gatedGateway {
	return &gatedGateway{
		fakeGateway: gw,
		entered:     make(chan struct{}),
		open:        make(chan struct{}),
	}
}

func (g *gatedGateway) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	g.once.Do(func() {
		close(g.entered)
		<-g.open
	})

	return g.fakeGateway.GetProfile(ctx, userID)
}

func seedChat(gw *fakeGateway, h history.History) {
	gw.sessions[testKey.String()] = &Session{VIN: testKey.VIN, UserID: testKey.UserID, History: h}
}

func TestService_ConcurrentDeleteWaitsForTurn(t *testing.T) {
	base := newFakeGateway()
	seedChat(base, sampleBaseline())
	gw := newGatedGateway(base)
	svc := NewService(gw, NewReconciler(&mockGenerator{}, gw, nil, NewMemoryGuard(time.Minute), Options{Now: fixedNow}))

	var wg sync.WaitGroup
	var sent *Outcome
	var sendErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		sent, sendErr = svc.Send(context.Background(), testKey, "new question", "", false)
	}()

	<-gw.entered

	// the send has read the chat and holds the slot
	_, err := svc.Delete(context.Background(), testKey, "u2")
	assert.ErrorIs(t, err, ErrBusy)

	close(gw.open)
	wg.Wait()
	require.NoError(t, sendErr)
	require.Equal(t, StateCommitted, sent.State)

	out, err := svc.Delete(context.Background(), testKey, "u2")
	require.NoError(t, err)
	assert.NotContains(t, contents(out.History), "oil is fine")
	assert.NotContains(t, contents(out.History), "check plugs")
	assert.Contains(t, contents(out.History), "new question")

	// the next turn builds on the delete
	out, err = svc.Send(context.Background(), testKey, "anything else?", "", false)
	require.NoError(t, err)
	assert.NotContains(t, contents(out.History), "oil is fine")

	stored, err := base.LoadSession(context.Background(), testKey)
	require.NoError(t, err)
	assert.Equal(t, contents(out.History), contents(stored.History))
}

func TestService_ConcurrentSendCannotExceedQuota(t *testing.T) {
	base := newFakeGateway()
	base.profiles["user-1"] = &Profile{ID: "user-1", Tier: tiers.Free, DailyUsage: quota.UsageCounter{Date: testToday, Count: 4}}
	gw := newGatedGateway(base)
	gen := &mockGenerator{}
	svc := NewService(gw, NewReconciler(gen, gw, nil, NewMemoryGuard(time.Minute), Options{Now: fixedNow}))

	var wg sync.WaitGroup
	var firstErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = svc.Send(context.Background(), testKey, "first", "", false)
	}()

	<-gw.entered

	_, err := svc.Send(context.Background(), testKey, "second", "", false)
	assert.ErrorIs(t, err, ErrBusy)

	close(gw.open)
	wg.Wait()
	require.NoError(t, firstErr)

	_, err = svc.Send(context.Background(), testKey, "second", "", false)
	assert.ErrorIs(t, err, ErrQuotaExhausted)

	assert.Equal(t, 1, gen.callCount())
	assert.Equal(t, quota.UsageCounter{Date: testToday, Count: 5}, base.profiles["user-1"].DailyUsage)
}
