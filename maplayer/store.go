package maplayer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
	"gorm.io/gorm"

	"github.com/khankhulgun/maplayers/models"
)

// ErrOverlayNotFound is returned by Store lookups for a missing id.
var ErrOverlayNotFound = errors.New("overlay not found")

// Store persists overlay descriptors. Single lookups are cached.
type Store struct {
	db    *gorm.DB
	cache *ristretto.Cache
	ttl   time.Duration
}

func NewStore(db *gorm.DB, ttl time.Duration) (*Store, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     1 << 26,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("overlay cache: %w", err)
	}
	return &Store{db: db, cache: cache, ttl: ttl}, nil
}

// Overlays returns the active descriptors in drawing order.
func (s *Store) Overlays(ctx context.Context) ([]models.OverlayLayer, error) {
	var overlays []models.OverlayLayer
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("layer_order ASC").
		Order("id ASC").
		Find(&overlays).Error
	if err != nil {
		return nil, fmt.Errorf("load overlays: %w", err)
	}
	return overlays, nil
}

func (s *Store) Overlay(ctx context.Context, id string) (models.OverlayLayer, error) {
	id = strings.TrimSpace(id)

	if cached, found := s.cache.Get(id); found {
		if o, ok := cached.(models.OverlayLayer); ok {
			return o, nil
		}
	}

	var o models.OverlayLayer
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return o, fmt.Errorf("%w: %s", ErrOverlayNotFound, id)
	}
	if err != nil {
		return o, fmt.Errorf("load overlay %s: %w", id, err)
	}

	s.cache.SetWithTTL(id, o, 1, s.ttl)
	s.cache.Wait()

	return o, nil
}

// Save inserts or replaces a descriptor.
func (s *Store) Save(ctx context.Context, o models.OverlayLayer) error {
	o.IsActive = true
	if err := s.db.WithContext(ctx).Save(&o).Error; err != nil {
		return fmt.Errorf("save overlay %s: %w", o.ID, err)
	}
	s.cache.Del(o.ID)
	return nil
}

// SetVisible persists the last visibility chosen for an overlay so a new
// session starts from it.
func (s *Store) SetVisible(ctx context.Context, id string, visible bool) error {
	res := s.db.WithContext(ctx).
		Model(&models.OverlayLayer{}).
		Where("id = ?", id).
		Update("visible", visible)
	if res.Error != nil {
		return fmt.Errorf("update overlay %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrOverlayNotFound, id)
	}
	s.cache.Del(id)
	return nil
}
