package chat

import (
	"context"
	"encoding/json"

	"codeberg.org/qemxa/server/internal/history"
	"codeberg.org/qemxa/server/internal/llm"
	"codeberg.org/qemxa/server/internal/quota"
	"codeberg.org/qemxa/server/internal/tiers"
)

// identifies one chat: a vehicle and its owner
type SessionKey struct {
	VIN    string
	UserID string
}

func (k SessionKey) String() string {
	return k.VIN + "|" + k.UserID
}

type Session struct {
	VIN            string          `json:"vin"`
	UserID         string          `json:"user_id"`
	History        history.History `json:"messages"`
	ServiceHistory json.RawMessage `json:"serviceHistory,omitempty"`
}

func (s *Session) Key() SessionKey {
	return SessionKey{VIN: s.VIN, UserID: s.UserID}
}

// visible state of a chat while a turn runs
type State string

const (
	StateIdle       State = "idle"
	StatePending    State = "pending"
	StateCommitted  State = "committed"
	StateRolledBack State = "rolled_back"
)

type MutationKind string

const (
	MutationSend       MutationKind = "send"
	MutationEdit       MutationKind = "edit"
	MutationRegenerate MutationKind = "regenerate"
	MutationDelete     MutationKind = "delete"
	MutationReset      MutationKind = "reset"
)

// a user-initiated change to a chat
type Mutation struct {
	Kind     MutationKind
	TargetID string
	Content  string
	ImageURL string
}

func SendMessage(content, imageURL string) Mutation {
	return Mutation{Kind: MutationSend, Content: content, ImageURL: imageURL}
}

func EditMessage(id, content string) Mutation {
	return Mutation{Kind: MutationEdit, TargetID: id, Content: content}
}

func RegenerateReply(id string) Mutation {
	return Mutation{Kind: MutationRegenerate, TargetID: id}
}

func DeleteMessage(id string) Mutation {
	return Mutation{Kind: MutationDelete, TargetID: id}
}

func ResetChat() Mutation {
	return Mutation{Kind: MutationReset}
}

// reports whether the mutation calls the generator
func (m Mutation) Generates() bool {
	return m.Kind == MutationSend || m.Kind == MutationEdit || m.Kind == MutationRegenerate
}

// everything the reconciler needs for one attempt. Tier and Usage must be
// read fresh from persistence for every request.
type TurnRequest struct {
	Key       SessionKey
	Baseline  history.History
	Mutation  Mutation
	Tier      tiers.Tier
	Usage     quota.UsageCounter
	Vehicle   history.VehicleInfo
	Partners  []llm.PartnerSummary
	UseSearch bool
}

// result of a turn. a failed generation is reported through Err with
// State set to StateRolledBack and History equal to the baseline.
type Outcome struct {
	State      State              `json:"state"`
	History    history.History    `json:"messages"`
	Usage      quota.UsageCounter `json:"usage"`
	Err        error              `json:"-"`
	PersistErr error              `json:"-"`
}

// account data the chat needs on every turn
type Profile struct {
	ID               string
	Tier             tiers.Tier
	DailyUsage       quota.UsageCounter
	StripeCustomerID string
}

// daily usage as shown to the user
type UsageSummary struct {
	Tier      tiers.Tier   `json:"tier"`
	Date      string       `json:"date"`
	Used      int          `json:"used"`
	Limit     int          `json:"limit"`
	Remaining int          `json:"remaining"`
	Policy    tiers.Policy `json:"policy"`
}

// produces assistant replies
type Generator interface {
	Generate(ctx context.Context, req llm.GenerateRequest) (*llm.Reply, error)
}

// receives every visible history change. implementations must not block.
type Publisher interface {
	Publish(key SessionKey, h history.History, state State)
}

// persists a chat's message list, creating the row when missing
type HistoryStore interface {
	SaveHistory(ctx context.Context, key SessionKey, h history.History) error
}

// the source of truth for chats, profiles, vehicles and partners
type Gateway interface {
	HistoryStore
	LoadSession(ctx context.Context, key SessionKey) (*Session, error)
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	SaveUsage(ctx context.Context, userID string, usage quota.UsageCounter) error
	GetVehicle(ctx context.Context, key SessionKey) (*history.VehicleInfo, error)
	ListPartners(ctx context.Context, userID string) ([]llm.PartnerSummary, error)
}

// rejects a second in-flight turn for the same session. Release frees the
// slot only when token is the one Acquire handed out.
type InflightGuard interface {
	Acquire(ctx context.Context, key string) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(SessionKey, history.History, State) {}
