// Package gensvc adapts the external text and image generation service. Every
// text operation has a deterministic local fallback, so callers never see
// upstream failures.
package gensvc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mkrupp/bestiary/internal/domain"
	"github.com/mkrupp/bestiary/internal/infra/logging"
	"github.com/mkrupp/bestiary/internal/repo/cache"
)

// GenService builds prompts, calls the text generator and falls back locally.
type GenService struct {
	Config    GenConfig
	Text      TextGenerator
	Templates Templates
	Log       logging.Logger
}

// NewGenService selects the text backend (GenAI when a key is configured,
// Pollinations otherwise), wraps it with textCache when non-nil and loads
// the prompt templates.
func NewGenService(ctx context.Context, cfg GenConfig, textCache cache.TextCache) (*GenService, error) {
	log := logging.GetLogger("svc.gensvc.gen_service")

	templates, err := LoadTemplates(cfg.TemplatesFile)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	var text TextGenerator

	if cfg.GenAIAPIKey != "" {
		if text, err = NewGenAIGenerator(ctx, cfg.GenAIAPIKey, cfg.GenAIModel, cfg.GenAIBaseURL); err != nil {
			return nil, fmt.Errorf("genai generator: %w", err)
		}
	} else {
		text = NewPollinationsGenerator(cfg.TextBaseURL, &http.Client{}) //nolint:exhaustruct
	}

	if textCache != nil {
		text = NewCachedGenerator(text, textCache, cfg.TextTimeout)
	}

	log.DebugContext(ctx, "generation service ready", logging.Group("gen",
		"genai", cfg.GenAIAPIKey != "",
		"cached", textCache != nil,
		"templates", cfg.TemplatesFile,
	))

	return &GenService{
		Config:    cfg,
		Text:      text,
		Templates: templates,
		Log:       log,
	}, nil
}

// TextFrom asks the generator for prompt within the configured timeout. The
// answer is trimmed and truncated; any failure yields "".
func (s *GenService) TextFrom(ctx context.Context, prompt string) string {
	if s.Config.TextTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, s.Config.TextTimeout)
		defer cancel()
	}

	text, err := s.Text.Generate(ctx, prompt)
	if errors.Is(err, ErrEmptyText) {
		s.Log.DebugContext(ctx, "text generation returned nothing")

		return ""
	} else if err != nil {
		s.Log.WarnContext(ctx, "text generation failed", "error", err)

		return ""
	}

	return truncate(strings.TrimSpace(text), s.Config.TextMaxLength)
}

// NameFromPrompt proposes a short title-cased name for a creature described
// by prompt. Without a usable answer it falls back to the first three words
// of the prompt.
func (s *GenService) NameFromPrompt(ctx context.Context, prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return AnonymousName
	}

	if name, ok := cleanName(s.TextFrom(ctx, render(s.Templates.Name, map[string]string{"prompt": prompt}))); ok {
		return name
	}

	return nameFromWords(prompt)
}

// Description returns generated flavour text for a creature, or a fixed
// sentence when generation fails.
func (s *GenService) Description(ctx context.Context, name, typeName string) string {
	name, typeName = strings.TrimSpace(name), strings.TrimSpace(typeName)

	if text := s.TextFrom(ctx, render(s.Templates.Description, map[string]string{
		"name": name,
		"type": typeName,
	})); text != "" {
		return text
	}

	return FallbackDescription(name, typeName)
}

// HybridDescription returns generated flavour text for the fusion of a and b.
func (s *GenService) HybridDescription(ctx context.Context, name, typeName string, a, b *domain.Creature) string {
	if text := s.TextFrom(ctx, render(s.Templates.HybridDescription, map[string]string{
		"name":          name,
		"type":          typeName,
		"parent_1":      a.Name,
		"description_1": a.Description,
		"parent_2":      b.Name,
		"description_2": b.Description,
	})); text != "" {
		return text
	}

	return FallbackHybridDescription(name, a.Name, b.Name)
}

// ImageURL builds the image URL of a creature without any network call. A
// positive seed makes the image unique per creature.
func (s *GenService) ImageURL(name, typeName string, heads *int, seed int64) string {
	headsText := "unknown"
	if heads != nil {
		headsText = strconv.Itoa(*heads)
	}

	prompt := render(s.Templates.Image, map[string]string{
		"name":  strings.TrimSpace(name),
		"type":  strings.TrimSpace(typeName),
		"heads": headsText,
	})

	url := fmt.Sprintf("%s/%s?width=%d&height=%d",
		strings.TrimRight(s.Config.ImageBaseURL, "/"), escape(prompt), s.Config.ImageWidth, s.Config.ImageHeight)

	if seed > 0 {
		url += "&seed=" + strconv.FormatInt(seed, 10)
	}

	return url
}

// Scores derives the stats of a creature. See the package-level Scores.
func (s *GenService) Scores(name, typeName string) (health, defense, attack int) {
	return Scores(name, typeName)
}

// FallbackDescription is the description used when generation fails.
func FallbackDescription(name, typeName string) string {
	if typeName == "" {
		typeName = "unknown"
	}

	return fmt.Sprintf("%s is a creature of type %s, born of legends. "+
		"Its presence commands respect and inspires fear.", name, typeName)
}

// FallbackHybridDescription is the hybrid description used when generation fails.
func FallbackHybridDescription(name, parent1, parent2 string) string {
	return fmt.Sprintf("%s is a hybrid born from the fusion of %s and %s. "+
		"It carries the strength of both lineages.", name, parent1, parent2)
}

func truncate(s string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}

	return string([]rune(s)[:maxRunes])
}
