package llm

import (
	"context"
	"fmt"
	"strings"

	"codeberg.org/qemxa/server/internal/history"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// rate limiter for Gemini API calls (10 requests/second with burst capacity of 5)
var geminiRateLimiter = rate.NewLimiter(10, 5)

type GeminiGenerator struct {
	config Config
	client *genai.Client
}

func NewGeminiGenerator(ctx context.Context, config Config) (*GeminiGenerator, error) {
	if config.Model == "" {
		config.Model = defaultGeminiModel
	}

	cc := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}

	if config.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiGenerator{config: config, client: client}, nil
}

func (g *GeminiGenerator) Model() string {
	return g.config.Model
}

func (g *GeminiGenerator) Generate(ctx context.Context, req GenerateRequest) (*Reply, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(BuildSystemInstruction(req.Vehicle, req.Partners), genai.RoleUser),
		Temperature:       genai.Ptr(g.config.Temperature),
	}

	if g.config.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(g.config.MaxTokens) //nolint:gosec // bounded by config
	}

	if req.UseSearch {
		genConfig.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	if err := geminiRateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.config.Model, toGeminiContents(req.History), genConfig)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("no content in response")
	}

	reply := &Reply{
		Text:    text,
		Sources: groundingSources(resp),
	}

	if resp.UsageMetadata != nil {
		reply.Usage = Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}

	return reply, nil
}

// maps chat turns to Gemini contents. assistant turns use the model role.
func toGeminiContents(h history.History) []*genai.Content {
	contents := make([]*genai.Content, 0, len(h))

	for _, turn := range h {
		parts := make([]*genai.Part, 0, 2)

		if turn.Content != "" {
			parts = append(parts, genai.NewPartFromText(turn.Content))
		}

		if img, ok := parseImageDataURL(turn.ImageURL); ok {
			parts = append(parts, genai.NewPartFromBytes(img.Data, img.MimeType))
		}

		if len(parts) == 0 {
			continue
		}

		role := genai.Role(genai.RoleUser)
		if turn.Role == history.RoleAssistant {
			role = genai.RoleModel
		}

		contents = append(contents, genai.NewContentFromParts(parts, role))
	}

	return contents
}

// extracts web citations from the first candidate's grounding metadata
func groundingSources(resp *genai.GenerateContentResponse) []history.GroundingSource {
	if len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}

	var sources []history.GroundingSource

	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}

		sources = append(sources, history.GroundingSource{URI: chunk.Web.URI, Title: chunk.Web.Title})
	}

	return filterSources(sources)
}
