package maplayer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/khankhulgun/maplayers/database"
	"github.com/khankhulgun/maplayers/database/migrations"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := database.Open("sqlite", dsn, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := migrations.Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	s, err := NewStore(db, time.Minute)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return s
}

func TestStoreSaveAndOverlays(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	second := overlayLayer("trees", false)
	second.LayerOrder = 2
	first := overlayLayer("route", true)
	first.LayerOrder = 1

	if err := s.Save(ctx, second); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Overlays(ctx)
	if err != nil {
		t.Fatalf("Overlays() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "route" || got[1].ID != "trees" {
		t.Fatalf("Overlays() = %+v, want route then trees", got)
	}
	if got[0].Style.Type != "line" || got[0].Style.Paint["line-color"] != "#33bb6a" {
		t.Errorf("style not round-tripped: %+v", got[0].Style)
	}
	if err := got[0].Validate(); err != nil {
		t.Errorf("stored source no longer valid: %v", err)
	}
}

func TestStoreOverlayCachedAndInvalidated(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.Save(ctx, overlayLayer("route", true)); err != nil {
		t.Fatal(err)
	}
	o, err := s.Overlay(ctx, " route ")
	if err != nil {
		t.Fatalf("Overlay() error = %v", err)
	}
	if !o.Visible {
		t.Fatal("route should be visible")
	}

	if err := s.SetVisible(ctx, "route", false); err != nil {
		t.Fatalf("SetVisible() error = %v", err)
	}
	o, err = s.Overlay(ctx, "route")
	if err != nil {
		t.Fatal(err)
	}
	if o.Visible {
		t.Error("cached overlay was not invalidated by SetVisible")
	}
}

func TestStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.Overlay(ctx, "ghost"); !errors.Is(err, ErrOverlayNotFound) {
		t.Errorf("Overlay(ghost) error = %v, want ErrOverlayNotFound", err)
	}
	if err := s.SetVisible(ctx, "ghost", true); !errors.Is(err, ErrOverlayNotFound) {
		t.Errorf("SetVisible(ghost) error = %v, want ErrOverlayNotFound", err)
	}
}
