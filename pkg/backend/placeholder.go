package backend

import (
	"context"
	"fmt"

	"github.com/GxAditya/LinguaSpark-sub001/pkg/models"
)

// Placeholder produces deterministic stand-in content. It backs the
// fallback path and doubles as the whole backend when no provider is
// configured, which keeps local development and tests offline.
func Placeholder(model string, req *models.GenerationRequest) *models.RawContent {
	var data []byte
	switch req.ContentType {
	case models.ContentImage:
		w, h := req.Options.Width, req.Options.Height
		if w <= 0 {
			w = 512
		}
		if h <= 0 {
			h = 512
		}
		data = []byte(fmt.Sprintf(
			`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="100%%" height="100%%" fill="#ddd"/><text x="50%%" y="50%%" text-anchor="middle">%s</text></svg>`,
			w, h, req.Prompt))
	case models.ContentExercise:
		data = []byte(fmt.Sprintf("Practice exercise (%s): %s", req.Options.Difficulty, req.Prompt))
	default:
		data = []byte("Generated content for: " + req.Prompt)
	}
	return &models.RawContent{
		Data:       data,
		Model:      model,
		Tokens:     len(data) / 4,
		StatusCode: 200,
	}
}

// PlaceholderBackend satisfies Backend with local deterministic content.
type PlaceholderBackend struct{}

func (PlaceholderBackend) Generate(_ context.Context, model string, req *models.GenerationRequest) (*models.RawContent, error) {
	return Placeholder(model, req), nil
}
