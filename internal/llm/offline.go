package llm

import (
	"context"
	"fmt"
	"strings"

	"codeberg.org/qemxa/server/internal/history"
)

const offlineModel = "offline"

// deterministic generator for local development. it answers in the same
// three-section structure the hosted models are instructed to use.
type OfflineGenerator struct{}

func NewOfflineGenerator() *OfflineGenerator {
	return &OfflineGenerator{}
}

func (g *OfflineGenerator) Model() string {
	return offlineModel
}

func (g *OfflineGenerator) Generate(ctx context.Context, req GenerateRequest) (*Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	last := req.History[len(req.History)-1]
	if last.Role != history.RoleUser {
		return nil, fmt.Errorf("last message must be from the user")
	}

	var b strings.Builder

	fmt.Fprintf(&b, "**პრობლემის შეჯამება:** %s\n", summarize(last.Content))
	fmt.Fprintf(&b, "**სავარაუდო დიაგნოზი:** %d %s %s - საჭიროა დამატებითი შემოწმება.\n",
		req.Vehicle.Year, req.Vehicle.Brand, req.Vehicle.Model)
	b.WriteString("**რეკომენდაციები:** მიმართეთ სერვის ცენტრს.")

	if len(req.Partners) > 0 {
		fmt.Fprintf(&b, " შეგიძლიათ მიმართოთ ჩვენს პარტნიორს: %s.", req.Partners[0].Name)
	}

	reply := &Reply{Text: b.String()}

	if req.UseSearch {
		reply.Sources = []history.GroundingSource{{
			URI:   "https://www.google.com/search?q=" + strings.ReplaceAll(req.Vehicle.Brand+"+"+req.Vehicle.Model, " ", "+"),
			Title: req.Vehicle.Brand + " " + req.Vehicle.Model,
		}}
	}

	return reply, nil
}

func summarize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "სურათი"
	}

	r := []rune(s)
	if len(r) > 120 {
		return string(r[:120]) + "..."
	}

	return s
}
