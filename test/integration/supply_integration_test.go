package integration

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/polarstock/internal/config"
	"github.com/pders01/polarstock/internal/export"
	"github.com/pders01/polarstock/internal/provider"
	"github.com/pders01/polarstock/internal/storage"
	"github.com/pders01/polarstock/internal/supply"
	"github.com/pders01/polarstock/internal/validation"
)

const totalPhotos = 10

// pexelsServer imitates the Pexels search API and serves the image bytes.
func pexelsServer(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/search" {
			assert.Equal(t, "test-key", r.Header.Get("Authorization"))
			q := r.URL.Query()
			perPage, _ := strconv.Atoi(q.Get("per_page"))
			page, _ := strconv.Atoi(q.Get("page"))
			if page < 1 {
				page = 1
			}
			start := (page - 1) * perPage
			end := start + perPage
			if end > totalPhotos {
				end = totalPhotos
			}

			photos := []map[string]any{}
			for i := start; i < end; i++ {
				photos = append(photos, map[string]any{
					"id":               1000 + i,
					"width":            4000,
					"height":           3000,
					"url":              fmt.Sprintf("https://www.pexels.com/photo/%d/", 1000+i),
					"photographer":     fmt.Sprintf("Photographer %d", i),
					"photographer_url": fmt.Sprintf("https://www.pexels.com/@p%d", i),
					"alt":              q.Get("query"),
					"src": map[string]string{
						"large":  fmt.Sprintf("%s/img/%d.jpg", srv.URL, 1000+i),
						"medium": fmt.Sprintf("%s/img/%d-m.jpg", srv.URL, 1000+i),
					},
				})
			}
			body := map[string]any{
				"total_results": totalPhotos,
				"page":          page,
				"per_page":      perPage,
				"photos":        photos,
			}
			if end < totalPhotos {
				body["next_page"] = fmt.Sprintf("%s/v1/search?page=%d&per_page=%d&query=%s",
					srv.URL, page+1, perPage, url.QueryEscape(q.Get("query")))
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(body)
			return
		}
		if filepath.Dir(r.URL.Path) == "/img" {
			_, _ = w.Write([]byte("jpeg:" + r.URL.Path))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

type pipeline struct {
	store *storage.Store
	orch  *supply.Orchestrator
}

func openPipeline(t *testing.T, cfg *config.Config) *pipeline {
	t.Helper()
	client, err := provider.NewPermissivePexelsClient(cfg)
	require.NoError(t, err)

	store, err := storage.NewStore(cfg.Database.Path)
	require.NoError(t, err)

	cache := supply.NewQueryResultCache(provider.NewBreaker(client, cfg.Provider.Breaker),
		supply.WithShuffle(func(int, func(i, j int)) {}))
	tracker := supply.NewExclusionTracker(cfg.Engine.ExclusionCapacity, store)
	orch := supply.NewOrchestrator(cache, tracker, supply.OrchestratorOptions{
		Overfetch:       cfg.Engine.Overfetch,
		AcquireAttempts: cfg.Engine.AcquireAttempts,
	})
	return &pipeline{store: store, orch: orch}
}

func currentIDs(b *supply.Board) []string {
	var ids []string
	for _, s := range b.Snapshot() {
		if s.Current != nil {
			ids = append(ids, s.Current.ID)
		}
	}
	return ids
}

func TestSupplyPipeline(t *testing.T) {
	srv := pexelsServer(t)
	dir := t.TempDir()

	cfg := config.TestConfig()
	cfg.Provider.BaseURL = srv.URL + "/v1"
	cfg.Database.Path = filepath.Join(dir, "polarstock.db")
	cfg.Export.Directory = filepath.Join(dir, "exports")

	ctx := context.Background()
	p := openPipeline(t, cfg)
	board := supply.NewBoard(4)

	res := p.orch.ChangeTopic(ctx, board, "Coffee Shop")
	require.Equal(t, supply.FullSuccess, res.Outcome)
	firstRound := currentIDs(board)
	require.Len(t, firstRound, 4)

	res = p.orch.FillAll(ctx, board)
	require.Equal(t, supply.FullSuccess, res.Outcome)
	secondRound := currentIDs(board)

	seen := map[string]bool{}
	for _, id := range append(firstRound, secondRound...) {
		assert.False(t, seen[id], "photo %s served twice", id)
		seen[id] = true
	}

	_, err := board.ToggleLock(1)
	require.NoError(t, err)
	locked := currentIDs(board)[0]
	p.orch.FillAll(ctx, board)
	assert.Equal(t, locked, currentIDs(board)[0])

	board.SelectAll()
	exporter := export.NewZipExporter(cfg, export.WithURLValidator(validation.NewPermissiveURLValidator()))
	settings, err := supply.CompressionPreset(cfg.Export.Preset)
	require.NoError(t, err)
	path, err := exporter.Export(ctx, board.ExportItems(), settings)
	require.NoError(t, err)

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	require.NoError(t, zr.Close())
	assert.ElementsMatch(t, []string{"image-1.jpg", "image-2.jpg", "image-3.jpg", "image-4.jpg", "manifest.json"}, names)

	remembered := p.orch.Exclusions().All()
	require.NoError(t, p.store.Close())

	reopened := openPipeline(t, cfg)
	defer reopened.store.Close()
	assert.Equal(t, remembered, reopened.orch.Exclusions().All())
}

func TestSupplyPipelineProviderDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := config.TestConfig()
	cfg.Provider.BaseURL = srv.URL + "/v1"
	cfg.Database.Path = filepath.Join(dir, "polarstock.db")

	p := openPipeline(t, cfg)
	defer p.store.Close()

	res := p.orch.FillAll(context.Background(), supply.NewBoard(3))
	assert.Equal(t, supply.FullFailure, res.Outcome)
	assert.Equal(t, supply.MsgNoImages, res.Message())
	assert.Len(t, res.Errors, 3)
}
