package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codeberg.org/qemxa/server/internal/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// 1x1 transparent PNG
const pngDataURL = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

var prius = history.VehicleInfo{VIN: "JTDKB20U", Brand: "Toyota", Model: "Prius", Year: 2010}

func chat(turns ...history.Turn) history.History {
	return history.History(turns)
}

func userTurn(content string) history.Turn {
	return history.Turn{ID: content, Role: history.RoleUser, Content: content, CreatedAt: time.Now()}
}

func aiTurn(content string) history.Turn {
	return history.Turn{ID: content, Role: history.RoleAssistant, Content: content, CreatedAt: time.Now()}
}

func TestBuildSystemInstruction(t *testing.T) {
	prompt := BuildSystemInstruction(prius, nil)

	assert.Contains(t, prompt, "QEMXA")
	assert.Contains(t, prompt, "2010 Toyota Prius")
	assert.NotContains(t, prompt, "ხელმისაწვდომი პარტნიორები")
}

func TestBuildSystemInstruction_Partners(t *testing.T) {
	prompt := BuildSystemInstruction(prius, []PartnerSummary{
		{Name: "AutoFix", Type: "service", Description: "hybrid specialists"},
		{Name: "PartsGE", Type: "parts", Description: "OEM parts"},
	})

	assert.Contains(t, prompt, "- AutoFix (სერვისი): hybrid specialists")
	assert.Contains(t, prompt, "- PartsGE (ნაწილები): OEM parts")
}

func TestParseImageDataURL(t *testing.T) {
	img, ok := parseImageDataURL(pngDataURL)
	require.True(t, ok)
	assert.Equal(t, "image/png", img.MimeType)
	assert.NotEmpty(t, img.Data)

	tests := []string{
		"",
		"https://example.com/a.png",
		"data:text/plain;base64,aGVsbG8=",
		"data:image/png;base64,@@@",
	}

	for _, url := range tests {
		_, ok := parseImageDataURL(url)
		assert.False(t, ok, url)
	}
}

func TestFilterSources(t *testing.T) {
	out := filterSources([]history.GroundingSource{
		{URI: "https://a", Title: "A"},
		{Title: "no uri"},
	})

	assert.Equal(t, []history.GroundingSource{{URI: "https://a", Title: "A"}}, out)
}

func TestToGeminiContents(t *testing.T) {
	withImage := userTurn("what is this light")
	withImage.ImageURL = pngDataURL

	contents := toGeminiContents(chat(aiTurn("hello"), withImage))
	require.Len(t, contents, 2)

	assert.Equal(t, string(genai.RoleModel), contents[0].Role)
	assert.Equal(t, "user", contents[1].Role)
	require.Len(t, contents[1].Parts, 2)
	assert.Equal(t, "what is this light", contents[1].Parts[0].Text)
	require.NotNil(t, contents[1].Parts[1].InlineData)
	assert.Equal(t, "image/png", contents[1].Parts[1].InlineData.MIMEType)
}

func TestGroundingSources(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			GroundingMetadata: &genai.GroundingMetadata{
				GroundingChunks: []*genai.GroundingChunk{
					{Web: &genai.GroundingChunkWeb{URI: "https://toyota.com", Title: "Toyota"}},
					{Web: &genai.GroundingChunkWeb{Title: "missing uri"}},
					{},
				},
			},
		}},
	}

	assert.Equal(t, []history.GroundingSource{{URI: "https://toyota.com", Title: "Toyota"}}, groundingSources(resp))
	assert.Nil(t, groundingSources(&genai.GenerateContentResponse{}))
}

func TestToAnthropicMessages(t *testing.T) {
	withImage := userTurn("look")
	withImage.ImageURL = pngDataURL

	messages := toAnthropicMessages(chat(aiTurn("welcome"), userTurn("a"), withImage, aiTurn("b")))

	// welcome dropped, consecutive user turns merged
	require.Len(t, messages, 2)
	assert.Equal(t, "user", messages[0].Role)
	require.Len(t, messages[0].Content, 3)
	assert.Equal(t, "image", messages[0].Content[1].Type)
	assert.Equal(t, "image/png", messages[0].Content[1].Source.MediaType)
	assert.Equal(t, "assistant", messages[1].Role)
}

func TestAnthropicGenerator_Generate(t *testing.T) {
	var got messagesRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"  check the battery  "}],"usage":{"input_tokens":12,"output_tokens":4}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	gen := NewAnthropicGenerator(Config{APIKey: "test-key", Model: "claude-test", BaseURL: srv.URL})

	reply, err := gen.Generate(context.Background(), GenerateRequest{
		Vehicle: prius,
		History: chat(aiTurn("welcome"), userTurn("car won't start")),
	})
	require.NoError(t, err)

	assert.Equal(t, "check the battery", reply.Text)
	assert.Equal(t, 12, reply.Usage.InputTokens)
	assert.Empty(t, reply.Sources)
	assert.Equal(t, "claude-test", got.Model)
	assert.Contains(t, got.System, "2010 Toyota Prius")
	require.Len(t, got.Messages, 1)
}

func TestAnthropicGenerator_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	gen := NewAnthropicGenerator(Config{APIKey: "k", BaseURL: srv.URL})

	_, err := gen.Generate(context.Background(), GenerateRequest{Vehicle: prius, History: chat(userTurn("hi"))})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestOfflineGenerator(t *testing.T) {
	gen := NewOfflineGenerator()

	reply, err := gen.Generate(context.Background(), GenerateRequest{
		Vehicle:   prius,
		History:   chat(aiTurn("welcome"), userTurn("strange noise")),
		UseSearch: true,
		Partners:  []PartnerSummary{{Name: "AutoFix", Type: "service"}},
	})
	require.NoError(t, err)

	assert.Contains(t, reply.Text, "strange noise")
	assert.Contains(t, reply.Text, "AutoFix")
	require.Len(t, reply.Sources, 1)

	_, err = gen.Generate(context.Background(), GenerateRequest{Vehicle: prius, History: chat(aiTurn("welcome"))})
	assert.Error(t, err)

	_, err = gen.Generate(context.Background(), GenerateRequest{Vehicle: prius})
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("GENERATOR_PROVIDER", "offline")
	t.Setenv("GENERATOR_MODEL", "")
	t.Setenv("GENERATOR_MAX_TOKENS", "512")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ProviderOffline, cfg.Provider)
	assert.Equal(t, offlineModel, cfg.Model)
	assert.Equal(t, 512, cfg.MaxTokens)

	t.Setenv("GENERATOR_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "")

	_, err = LoadConfig()
	assert.Error(t, err)

	t.Setenv("GENERATOR_PROVIDER", "openai")

	_, err = LoadConfig()
	assert.Error(t, err)
}
