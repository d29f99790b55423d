package gensvc_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/bestiary/internal/svc/gensvc"
)

func TestGenAIGenerator(t *testing.T) {
	t.Parallel()

	var (
		gotPath atomic.Value
		gotBody atomic.Value
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotPath.Store(r.URL.Path)
		gotBody.Store(string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Ignivore"}]}}]}`))
	}))
	t.Cleanup(server.Close)

	gen, err := gensvc.NewGenAIGenerator(context.Background(), "test-key", "gemini-test", server.URL)
	require.NoError(t, err)

	text, err := gen.Generate(context.Background(), "a fire dragon")
	require.NoError(t, err)
	assert.Equal(t, "Ignivore", text)

	path, _ := gotPath.Load().(string)
	assert.True(t, strings.HasSuffix(path, "models/gemini-test:generateContent"), path)

	body, _ := gotBody.Load().(string)
	assert.Contains(t, body, "a fire dragon")
}

func TestGenAIGenerator_EmptyAnswer(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"  "}]}}]}`))
	}))
	t.Cleanup(server.Close)

	gen, err := gensvc.NewGenAIGenerator(context.Background(), "test-key", "gemini-test", server.URL)
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "a fire dragon")
	require.ErrorIs(t, err, gensvc.ErrEmptyText)
}

func TestGenAIGenerator_Failure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":500,"message":"boom","status":"INTERNAL"}}`))
	}))
	t.Cleanup(server.Close)

	gen, err := gensvc.NewGenAIGenerator(context.Background(), "test-key", "gemini-test", server.URL)
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "a fire dragon")
	require.Error(t, err)

	svc := newTestService(gen)
	assert.Empty(t, svc.TextFrom(context.Background(), "a fire dragon"))
}
