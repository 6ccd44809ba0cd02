package history

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "ai"
)

// web citation attached to an assistant turn
type GroundingSource struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// one message in a chat. ids are opaque and never reused.
type Turn struct {
	ID        string            `json:"id"`
	Role      Role              `json:"role"`
	Content   string            `json:"content"`
	ImageURL  string            `json:"imageUrl,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	Sources   []GroundingSource `json:"groundingSources,omitempty"`
}

// ordered turns of one chat session
type History []Turn

// the vehicle a chat is about
type VehicleInfo struct {
	VIN   string `json:"vin"`
	Brand string `json:"brand"`
	Model string `json:"model"`
	Year  int    `json:"year"`
}
