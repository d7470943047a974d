package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/kidsact-hq/campwatch/internal/domain"
)

// Package storage provides the local DB abstraction used by the watch runtime
// and the offline listing. The API client packages never touch it.

// Store tracks announced camp IDs and keeps the last successful listing.
type Store interface {
	Close() error
	SeenCamp(id string) (bool, error)
	MarkCamp(id string) error
	SaveListing(camps []domain.Camp) error
	LoadListing() ([]domain.Camp, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	CampTTL         time.Duration
	CleanupInterval time.Duration
}

const (
	defaultCampTTL         = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.CampTTL <= 0 {
		opts.CampTTL = defaultCampTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                        { return nil }
func (noopStore) SeenCamp(string) (bool, error)       { return false, nil }
func (noopStore) MarkCamp(string) error               { return nil }
func (noopStore) SaveListing([]domain.Camp) error     { return nil }
func (noopStore) LoadListing() ([]domain.Camp, error) { return nil, nil }
