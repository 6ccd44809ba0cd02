// Package history implements the pure operations on a chat's ordered
// message list. Every operation returns a new slice and leaves its input
// untouched.
package history

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// creates a turn with a fresh id
func NewTurn(role Role, content string, now time.Time) Turn {
	return Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: now.UTC(),
	}
}

// returns a deep copy of h
func Clone(h History) History {
	if h == nil {
		return nil
	}

	out := make(History, len(h))
	for i, t := range h {
		out[i] = t
		out[i].Sources = slices.Clone(t.Sources)
	}

	return out
}

// reports whether a and b hold the same turns in the same order
func Equal(a, b History) bool {
	return slices.EqualFunc(a, b, func(x, y Turn) bool {
		return x.ID == y.ID &&
			x.Role == y.Role &&
			x.Content == y.Content &&
			x.ImageURL == y.ImageURL &&
			x.CreatedAt.Equal(y.CreatedAt) &&
			slices.Equal(x.Sources, y.Sources)
	})
}

// returns the index of the turn with id, or -1
func (h History) Index(id string) int {
	return slices.IndexFunc(h, func(t Turn) bool { return t.ID == id })
}

// returns h with t added at the end
func Append(h History, t Turn) History {
	out := make(History, 0, len(h)+1)
	out = append(out, Clone(h)...)

	return append(out, t)
}

// removes the turn with id. a user turn directly followed by an assistant
// turn is removed together with that reply.
func DeletePaired(h History, id string) (History, error) {
	idx := h.Index(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	end := idx + 1
	if h[idx].Role == RoleUser && end < len(h) && h[end].Role == RoleAssistant {
		end++
	}

	out := make(History, 0, len(h)-(end-idx))
	out = append(out, Clone(h[:idx])...)

	return append(out, Clone(h[end:])...), nil
}

// returns the prefix ending at the user turn id with its content replaced.
// everything after the edited turn is dropped.
func TruncateAfterEdit(h History, id, content string) (History, error) {
	idx := h.Index(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: message %s not in history", ErrInvalidOperation, id)
	}

	if h[idx].Role != RoleUser {
		return nil, fmt.Errorf("%w: only user messages can be edited", ErrInvalidOperation)
	}

	out := Clone(h[:idx+1])
	out[idx].Content = content

	return out, nil
}

// returns the history before the assistant turn id, which must directly
// follow a user turn
func TruncateForRegenerate(h History, id string) (History, error) {
	idx := h.Index(id)

	switch {
	case idx < 0:
		return nil, fmt.Errorf("%w: message %s not in history", ErrInvalidOperation, id)
	case h[idx].Role != RoleAssistant:
		return nil, fmt.Errorf("%w: only assistant replies can be regenerated", ErrInvalidOperation)
	case idx == 0 || h[idx-1].Role != RoleUser:
		return nil, fmt.Errorf("%w: reply has no preceding user message", ErrInvalidOperation)
	}

	return Clone(h[:idx]), nil
}

// returns a fresh history holding only the greeting for v
func ResetToWelcome(v VehicleInfo, now time.Time) History {
	return History{NewTurn(RoleAssistant, Welcome(v), now)}
}

// the assistant greeting for a new or cleared chat
func Welcome(v VehicleInfo) string {
	return fmt.Sprintf(
		"გამარჯობა! მე ვარ QEMXA, თქვენი პერსონალური AI დიაგნოსტიკის ასისტენტი. "+
			"მე დაგეხმარებით თქვენი %d %s %s-ის პრობლემის გარკვევაში. \n\nროგორ შემიძლია დაგეხმაროთ დღეს?",
		v.Year, v.Brand, v.Model,
	)
}
