package gensvc_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/bestiary/internal/domain"
	"github.com/mkrupp/bestiary/internal/infra/logging"
	"github.com/mkrupp/bestiary/internal/svc/gensvc"
)

// stubGenerator answers every prompt with text or err and records the prompts.
type stubGenerator struct {
	text    string
	err     error
	delay   time.Duration
	m       sync.Mutex
	prompts []string
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.m.Lock()
	g.prompts = append(g.prompts, prompt)
	g.m.Unlock()

	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return g.text, g.err
}

func (g *stubGenerator) calls() []string {
	g.m.Lock()
	defer g.m.Unlock()

	return append([]string(nil), g.prompts...)
}

func testConfig() gensvc.GenConfig {
	//nolint:exhaustruct
	return gensvc.GenConfig{
		TextBaseURL:   "http://text.invalid",
		ImageBaseURL:  "https://image.pollinations.ai/prompt",
		TextTimeout:   time.Second,
		TextMaxLength: 800,
		ImageWidth:    768,
		ImageHeight:   768,
	}
}

func newTestService(gen gensvc.TextGenerator) *gensvc.GenService {
	return &gensvc.GenService{
		Config:    testConfig(),
		Text:      gen,
		Templates: gensvc.DefaultTemplates(),
		Log:       logging.NewNopLogger(),
	}
}

var errUpstream = errors.New("upstream down")

func TestScores(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, typeName                string
		wantHealth, wantDef, wantAtk int
	}{
		{"Drake", "Dragon", 60, 37, 56},
		{"DRAKE", "dragon", 60, 37, 56},
		{"Basilic", "Dragon", 82, 71, 73},
		{"Griffon du Nord", "Dragon", 67, 63, 52},
		{"Hydre", "", 62, 30, 43},
	}

	for _, tt := range tests {
		health, def, atk := gensvc.Scores(tt.name, tt.typeName)
		assert.Equal(t, []int{tt.wantHealth, tt.wantDef, tt.wantAtk}, []int{health, def, atk}, tt.name)
	}

	h1, d1, a1 := gensvc.Scores("Drake", "Dragon")
	h2, d2, a2 := gensvc.Scores("Drake", "Dragon")
	assert.Equal(t, []int{h1, d1, a1}, []int{h2, d2, a2})
}

func TestScores_Bounds(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"", "a", "Phénix", "Cerbère", "Kraken des abysses", "0", "zzz"} {
		health, def, atk := gensvc.Scores(name, "Type")
		assert.GreaterOrEqual(t, health, 60)
		assert.LessOrEqual(t, health, 100)
		assert.GreaterOrEqual(t, def, 30)
		assert.LessOrEqual(t, def, 80)
		assert.GreaterOrEqual(t, atk, 30)
		assert.LessOrEqual(t, atk, 100)
	}
}

func TestGenService_TextFrom(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	svc := newTestService(&stubGenerator{text: "  \n Ignivore the Bright \n"})
	assert.Equal(t, "Ignivore the Bright", svc.TextFrom(ctx, "prompt"))

	svc = newTestService(&stubGenerator{text: strings.Repeat("é", 900)})
	assert.Equal(t, strings.Repeat("é", 800), svc.TextFrom(ctx, "prompt"))

	svc = newTestService(&stubGenerator{err: errUpstream})
	assert.Empty(t, svc.TextFrom(ctx, "prompt"))

	svc = newTestService(&stubGenerator{err: gensvc.ErrEmptyText})
	assert.Empty(t, svc.TextFrom(ctx, "prompt"))

	svc = newTestService(&stubGenerator{text: "too late", delay: time.Second})
	svc.Config.TextTimeout = 10 * time.Millisecond
	assert.Empty(t, svc.TextFrom(ctx, "prompt"))
}

func TestGenService_NameFromPrompt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	tests := []struct {
		name   string
		answer string
		err    error
		prompt string
		want   string
	}{
		{
			name:   "generated name is cleaned",
			answer: "— ignivore LE brûlant!\n",
			prompt: "a fire dragon",
			want:   "Ignivore Le Brûlant",
		},
		{
			name:   "multi-line answer",
			answer: "Storm\r\nWyrm.",
			prompt: "a storm dragon",
			want:   "Storm Wyrm",
		},
		{
			name:   "upstream failure falls back to prompt words",
			err:    errUpstream,
			prompt: "un dragon à trois têtes, cracheur de feu",
			want:   "Un Dragon À",
		},
		{
			name:   "overlong answer falls back",
			answer: strings.Repeat("a", 61),
			prompt: "griffon-du-nord  majestueux",
			want:   "Griffon-Du-Nord Majestueux",
		},
		{
			name:   "punctuation only answer falls back",
			answer: "?!...",
			prompt: "kraken",
			want:   "Kraken",
		},
		{
			name:   "empty prompt",
			answer: "Unused",
			prompt: "   ",
			want:   gensvc.AnonymousName,
		},
		{
			name:   "prompt without words",
			err:    errUpstream,
			prompt: "?!",
			want:   gensvc.AnonymousName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gen := &stubGenerator{text: tt.answer, err: tt.err}
			assert.Equal(t, tt.want, newTestService(gen).NameFromPrompt(ctx, tt.prompt))
		})
	}

	gen := &stubGenerator{text: "Drake"}
	newTestService(gen).NameFromPrompt(ctx, "a small dragon")
	assert.Equal(t, []string{
		"Give a short name (1 to 3 words) for a mythological creature based on: a small dragon. " +
			"Answer with the name only.",
	}, gen.calls())
}

func TestGenService_Description(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	gen := &stubGenerator{text: "A fearsome drake."}
	assert.Equal(t, "A fearsome drake.", newTestService(gen).Description(ctx, "Drake", "Dragon"))
	assert.Equal(t, []string{
		"Write a short, vivid description (2-3 sentences) of a mythical creature named Drake, of type Dragon.",
	}, gen.calls())

	failing := newTestService(&stubGenerator{err: errUpstream})
	assert.Equal(t,
		"Drake is a creature of type Dragon, born of legends. Its presence commands respect and inspires fear.",
		failing.Description(ctx, "Drake", "Dragon"))
	assert.Equal(t,
		"Drake is a creature of type unknown, born of legends. Its presence commands respect and inspires fear.",
		failing.Description(ctx, "Drake", ""))
}

func TestGenService_HybridDescription(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := &domain.Creature{Name: "Basilic", Description: "stone gaze"}
	b := &domain.Creature{Name: "Griffon", Description: "eagle lion"}

	gen := &stubGenerator{text: "Half stone, half feather."}
	assert.Equal(t, "Half stone, half feather.", newTestService(gen).HybridDescription(ctx, "Basiffon", "Hybrid", a, b))
	require.Len(t, gen.calls(), 1)
	assert.Contains(t, gen.calls()[0], `fusion of Basilic (described as "stone gaze") and Griffon (described as "eagle lion")`)

	failing := newTestService(&stubGenerator{err: errUpstream})
	desc := failing.HybridDescription(ctx, "Basiffon", "Hybrid", a, b)
	assert.Contains(t, desc, "Basiffon")
	assert.Contains(t, desc, "Basilic")
	assert.Contains(t, desc, "Griffon")
}

func TestGenService_ImageURL(t *testing.T) {
	t.Parallel()

	svc := newTestService(&stubGenerator{})
	heads := 1

	assert.Equal(t,
		"https://image.pollinations.ai/prompt/Mythical%20creature%3A%20Basilic%2C%20type%3A%20Dragon%2C%20heads%3A%201."+
			"%20Highly%20detailed%2C%20fantasy%20art%2C%20trending%20on%20artstation.?width=768&height=768&seed=12",
		svc.ImageURL(" Basilic ", "Dragon", &heads, 12))

	url := svc.ImageURL("Hydre", "", nil, 0)
	assert.Contains(t, url, "heads%3A%20unknown")
	assert.True(t, strings.HasSuffix(url, "?width=768&height=768"))
	assert.NotContains(t, url, "+")
}

func TestLoadTemplates(t *testing.T) {
	t.Parallel()

	tpl, err := gensvc.LoadTemplates("")
	require.NoError(t, err)
	assert.Equal(t, gensvc.DefaultTemplates(), tpl)

	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte("image: \"Painting of {name} ({type})\"\nname: \"  \"\n"), 0o600))

	tpl, err = gensvc.LoadTemplates(path)
	require.NoError(t, err)
	assert.Equal(t, "Painting of {name} ({type})", tpl.Image)
	assert.Equal(t, gensvc.DefaultTemplates().Name, tpl.Name)

	svc := newTestService(&stubGenerator{})
	svc.Templates = tpl
	assert.Equal(t, "https://image.pollinations.ai/prompt/Painting%20of%20Drake%20%28Dragon%29?width=768&height=768&seed=3",
		svc.ImageURL("Drake", "Dragon", nil, 3))

	_, err = gensvc.LoadTemplates(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("image: [unclosed"), 0o600))
	_, err = gensvc.LoadTemplates(path)
	require.Error(t, err)
}

func TestPollinationsGenerator(t *testing.T) {
	t.Parallel()

	var gotPath atomic.Value

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath.Store(r.URL.EscapedPath())

		if strings.Contains(r.URL.Path, "fail") {
			w.WriteHeader(http.StatusServiceUnavailable)

			return
		}

		if strings.Contains(r.URL.Path, "silent") {
			_, _ = w.Write([]byte(" \n"))

			return
		}

		_, _ = w.Write([]byte(" Ignivore \n"))
	}))
	t.Cleanup(server.Close)

	client := server.Client()
	t.Cleanup(client.CloseIdleConnections)

	gen := gensvc.NewPollinationsGenerator(server.URL+"/", client)

	text, err := gen.Generate(context.Background(), "a fire dragon: big & red")
	require.NoError(t, err)
	assert.Equal(t, " Ignivore \n", text)
	assert.Equal(t, "/a%20fire%20dragon%3A%20big%20%26%20red", gotPath.Load())

	_, err = gen.Generate(context.Background(), "fail")
	require.Error(t, err)

	_, err = gen.Generate(context.Background(), "silent")
	require.ErrorIs(t, err, gensvc.ErrEmptyText)

	svc := newTestService(gen)
	assert.Equal(t, "Ignivore", svc.Description(context.Background(), "Drake", "Dragon"))
	assert.Equal(t,
		"failing drake is a creature of type Dragon, born of legends. Its presence commands respect and inspires fear.",
		svc.Description(context.Background(), "failing drake", "Dragon"))
}
