// Package site serves the dashboard page and its assets.
package site

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/okian/snnvision/internal/adapters/http/session"
	"github.com/okian/snnvision/internal/adapters/render"
	"github.com/okian/snnvision/internal/domain/panels"
	"github.com/okian/snnvision/internal/domain/pipeline"
)

// Error constants
var (
	ErrRender = errors.New("dashboard render failed")
	ErrServe  = errors.New("dashboard serve failed")
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// StateSource returns the snapshot backing a session's page.
type StateSource interface {
	Snapshot(ctx context.Context, id string) (pipeline.Snapshot, error)
}

// FS returns an http.FileSystem for the embedded page assets.
func FS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return http.FS(staticFS)
	}
	return http.FS(sub)
}

// Register attaches the dashboard page and its assets to mux.
func Register(_ context.Context, mux *http.ServeMux, src StateSource, cookies *session.Cookies) {
	if mux == nil {
		panic("mux is nil")
	}
	if cookies == nil {
		cookies = session.New("")
	}
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(FS())))
	mux.HandleFunc("/", NewRootHandler(src, cookies).HandleRoot)
}

// RootHandler renders the dashboard page.
type RootHandler struct {
	src     StateSource
	cookies *session.Cookies
}

// NewRootHandler creates a new root handler
func NewRootHandler(src StateSource, cookies *session.Cookies) *RootHandler {
	return &RootHandler{src: src, cookies: cookies}
}

// page is the template input.
type page struct {
	Title  string
	Badges []string
	State  pipeline.Snapshot
	View   panels.View
	Plot   template.HTML
}

// HandleRoot handles GET / requests with the current session rendered in.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" || r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	snap, err := h.src.Snapshot(r.Context(), h.cookies.ID(w, r))
	if err != nil {
		http.Error(w, fmt.Errorf("%w: %w", ErrServe, err).Error(), http.StatusServiceUnavailable)
		return
	}
	body, err := renderPage(snap)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(body)
}

func renderPage(snap pipeline.Snapshot) ([]byte, error) {
	var plot bytes.Buffer
	err := render.RenderSVG(&plot, render.Plot{
		Dataset:    snap.Dataset,
		Events:     snap.Events,
		Processing: snap.Processing(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	p := page{
		Title:  "Neuromorphic Vision Demo",
		Badges: []string{"T4 GPU Enabled", "Real-time Processing"},
		State:  snap,
		View:   panels.Build(snap),
		Plot:   template.HTML(plot.String()), //nolint:gosec // svg is built from numbers and constants
	}
	var out bytes.Buffer
	if err := pageTemplate.Execute(&out, p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	return out.Bytes(), nil
}
