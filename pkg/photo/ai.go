package photo

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"google.golang.org/genai"
)

// SuggestModel is the generative model used for title suggestions.
var SuggestModel = "gemini-2.5-flash"

var suggestPrompt = "Suggest a short title, at most six words, for this photo. " +
	"Reply with the title only, without quotes or punctuation at the end. " +
	"If you recognize the place, include its name."

// SuggestTitle asks a generative model for a title based on a small rendition of the photo.
func SuggestTitle(ctx context.Context, client *genai.Client, p *Photo) (string, error) {
	thumb, err := p.Thumbnail(350)
	if err != nil {
		return "", fmt.Errorf("thumbnail: %w", err)
	}

	var buf bytes.Buffer
	if err := imgio.JPEGEncoder(80)(&buf, thumb); err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}

	parts := []*genai.Part{
		genai.NewPartFromBytes(buf.Bytes(), "image/jpeg"),
		genai.NewPartFromText(suggestPrompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := client.Models.GenerateContent(ctx, SuggestModel, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	title := strings.Trim(strings.TrimSpace(resp.Text()), `"'.`)
	if title == "" {
		return "", fmt.Errorf("empty suggestion for %s", p.Path())
	}
	return title, nil
}
