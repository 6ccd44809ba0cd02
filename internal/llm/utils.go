package llm

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"codeberg.org/qemxa/server/internal/history"
)

var dataURLPattern = regexp.MustCompile(`^data:(image/\w+);base64,(.*)$`)

// an image decoded from a data URL
type inlineImage struct {
	MimeType string
	Data     []byte
	Encoded  string
}

// decodes a data:image/...;base64 URL. ok is false for anything else,
// including remote image links.
func parseImageDataURL(url string) (inlineImage, bool) {
	if !strings.HasPrefix(url, "data:image") {
		return inlineImage{}, false
	}

	m := dataURLPattern.FindStringSubmatch(url)
	if m == nil {
		return inlineImage{}, false
	}

	data, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return inlineImage{}, false
	}

	return inlineImage{MimeType: m[1], Data: data, Encoded: m[2]}, true
}

// drops sources without a URI
func filterSources(sources []history.GroundingSource) []history.GroundingSource {
	out := make([]history.GroundingSource, 0, len(sources))

	for _, s := range sources {
		if s.URI != "" {
			out = append(out, s)
		}
	}

	return out
}

func validateRequest(req GenerateRequest) error {
	if len(req.History) == 0 {
		return fmt.Errorf("history is empty")
	}

	return nil
}
