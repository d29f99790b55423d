package creaturesvc

import (
	"context"
	"fmt"
	"hash/crc32"
	"regexp"
	"strconv"
	"strings"

	"github.com/mkrupp/bestiary/internal/domain"
	"github.com/mkrupp/bestiary/internal/infra/logging"
	"github.com/mkrupp/bestiary/internal/svc/gensvc"
)

const (
	minHeads = 1
	maxHeads = 10
)

//nolint:gochecknoglobals
var (
	headsPattern   = regexp.MustCompile(`(?i)(\d+)\s*(?:tetes|têtes|heads?)`)
	articlePattern = regexp.MustCompile(`(?i)\b(?:an?|the|une?|les?|la|des)\s+([\p{L}-]+)`)
	wordPattern    = regexp.MustCompile(`[\p{L}-]+`)
)

// GenerateCreature creates a creature from a free-text prompt. The name comes
// from the generator; type and head count are inferred from the prompt unless
// a type is given.
func (svc *CreatureService) GenerateCreature(
	ctx context.Context,
	req domain.GenerateCreatureRequest,
) (created *domain.Creature, err error) {
	prompt := strings.TrimSpace(req.Prompt)

	log := svc.log.With(logging.Group("creature", "prompt", prompt, "type", req.Type.String()))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "creature generate failed", "error", err)
		} else {
			log.DebugContext(ctx, "creature generated", "id", created.ID, "name", created.Name)
		}
	}()

	if prompt == "" {
		return nil, domain.Invalid(`field "prompt" is required`)
	}

	name := svc.gen.NameFromPrompt(ctx, prompt)

	var t *domain.CreatureType

	if req.Type.IsZero() {
		t, err = svc.inferType(ctx, prompt)
	} else {
		t, err = svc.resolveType(ctx, req.Type)
	}

	if err != nil {
		return nil, err
	}

	heads := HeadsFromPrompt(prompt)

	return svc.insert(ctx, name, svc.gen.Description(ctx, name, t.Name), t, &heads)
}

// inferType picks the type of a generated creature: an existing type named in
// the prompt, else a type named after a word of the prompt, else the hybrid
// type. A type that does not exist yet is returned without id; it is created
// in the same transaction as the creature.
func (svc *CreatureService) inferType(ctx context.Context, prompt string) (*domain.CreatureType, error) {
	types, err := svc.types.ListTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list types: %w", err)
	}

	lower := strings.ToLower(prompt)

	for i := range types {
		if types[i].Name != "" && strings.Contains(lower, strings.ToLower(types[i].Name)) {
			return &types[i], nil
		}
	}

	name, ok := TypeNameFromPrompt(prompt)
	if !ok {
		name = domain.HybridTypeName
	}

	t, ok, err := svc.types.GetTypeByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get type by name: %w", err)
	} else if ok {
		return t, nil
	}

	return &domain.CreatureType{Name: name}, nil //nolint:exhaustruct
}

// TypeNameFromPrompt guesses a type name: the word following an article, else
// the first word. The result is title-cased.
func TypeNameFromPrompt(prompt string) (string, bool) {
	var candidate string

	if m := articlePattern.FindStringSubmatch(prompt); m != nil {
		candidate = m[1]
	} else {
		candidate = wordPattern.FindString(prompt)
	}

	candidate = gensvc.TitleCase(strings.Trim(candidate, "-"))

	return candidate, candidate != ""
}

// HeadsFromPrompt returns the head count stated in the prompt ("3 heads",
// clamped to 1..10), or a stable value in 1..5 derived from the prompt.
func HeadsFromPrompt(prompt string) int {
	if m := headsPattern.FindStringSubmatch(prompt); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return maxHeads
		}

		return min(max(n, minHeads), maxHeads)
	}

	return 1 + int(crc32.ChecksumIEEE([]byte(asciiLower(prompt)))%5)
}

func asciiLower(s string) string {
	return strings.Map(func(r rune) rune {
		if 'A' <= r && r <= 'Z' {
			return r + ('a' - 'A')
		}

		return r
	}, s)
}
