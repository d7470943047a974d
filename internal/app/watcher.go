package app

import (
	"context"
	"fmt"
	"time"

	"github.com/kidsact-hq/campwatch/internal/config"
	"github.com/kidsact-hq/campwatch/internal/domain"
	"github.com/kidsact-hq/campwatch/internal/logger"
	"github.com/kidsact-hq/campwatch/internal/storage"
	"github.com/kidsact-hq/campwatch/pkg/camps"
	"github.com/kidsact-hq/campwatch/pkg/httpclient"
	"github.com/kidsact-hq/campwatch/pkg/publishers"
)

// Lister is the slice of the camp client the watcher needs.
type Lister interface {
	Refresh(ctx context.Context) ([]domain.Camp, error)
}

// Watcher polls the camp listing on an interval, persists the latest
// snapshot, and announces camps not seen before to the configured publishers.
type Watcher struct {
	cfg      *config.Config
	lister   Lister
	store    storage.Store
	fanout   *publishers.Fanout
	interval time.Duration
}

// NewWatcher builds the watch runtime from config: API client, storage
// backend, and publisher fanout.
func NewWatcher(ctx context.Context, cfg *config.Config) (*Watcher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	hc := httpclient.NewRestyClient(cfg.APITimeout)
	if cfg.APIKey != "" {
		hc.SetDefaultHeaders(map[string]string{"Authorization": "Bearer " + cfg.APIKey})
	}
	campClient := camps.New(cfg.APIBaseURL, hc)

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		CampTTL:         cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	fanout, err := buildFanout(ctx, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	logger.InfoObj("watcher initialized", "watcher_meta", map[string]any{
		"api_base_url":     cfg.APIBaseURL,
		"publishers_count": fanout.Size(),
		"watch_interval":   cfg.WatchInterval.String(),
	})

	return newWatcher(cfg, campClient, store, fanout), nil
}

func newWatcher(cfg *config.Config, lister Lister, store storage.Store, fanout *publishers.Fanout) *Watcher {
	return &Watcher{
		cfg:      cfg,
		lister:   lister,
		store:    store,
		fanout:   fanout,
		interval: cfg.WatchInterval,
	}
}

// buildFanout loads the publishers file when configured; no file means the
// watcher only maintains the local snapshot.
func buildFanout(ctx context.Context, cfg *config.Config) (*publishers.Fanout, error) {
	if cfg.PublishersFile == "" {
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := publisherReg.Enabled()
	pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, logObjAdapter{})
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	logger.InfoObj("publishers registry loaded", "publishers", enabled)
	return publishers.NewFanout(pubs), nil
}

// Close releases the storage backend.
func (w *Watcher) Close() error {
	if w == nil || w.store == nil {
		return nil
	}
	return w.store.Close()
}

// Run starts the watch loop until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if w == nil || w.lister == nil {
		return fmt.Errorf("watcher is not initialized")
	}

	logger.InfoObj("watch loop starting", "watcher_state", map[string]any{
		"publishers_count": w.fanout.Size(),
		"watch_interval":   w.interval.String(),
	})

	if err := w.runOnce(ctx); err != nil {
		logger.ErrorObj("initial watch cycle failed", "watch_error", err.Error())
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.InfoObj("watch loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := w.runOnce(ctx); err != nil {
				logger.ErrorObj("scheduled watch cycle failed", "watch_error", err.Error())
			}
		}
	}
}

// runOnce performs a single refresh/diff/publish cycle.
func (w *Watcher) runOnce(ctx context.Context) error {
	start := time.Now()

	listing, err := w.lister.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh listing: %w", err)
	}

	if err := w.store.SaveListing(listing); err != nil {
		logger.WarnObj("persist listing snapshot failed", "storage_error", err.Error())
	}

	announced := 0
	for _, camp := range listing {
		seen, err := w.store.SeenCamp(camp.ID)
		if err != nil {
			logger.WarnObj("seen lookup failed", "storage_error", map[string]any{
				"camp_id": camp.ID,
				"error":   err.Error(),
			})
			continue
		}
		if seen {
			continue
		}

		if _, err := w.fanout.Publish(ctx, publishers.NewEvent(camp)); err != nil {
			logger.ErrorObj("announce camp failed", "publish_error", map[string]any{
				"camp_id": camp.ID,
				"error":   err.Error(),
			})
			continue
		}
		if err := w.store.MarkCamp(camp.ID); err != nil {
			logger.WarnObj("mark camp failed", "storage_error", map[string]any{
				"camp_id": camp.ID,
				"error":   err.Error(),
			})
			continue
		}
		announced++
	}

	logger.InfoObj("watch cycle completed", "watch_meta", map[string]any{
		"listing_size": len(listing),
		"announced":    announced,
		"elapsed_ms":   time.Since(start).Milliseconds(),
	})
	return nil
}

// logObjAdapter bridges the package-level logger to the publishers.Logger surface.
type logObjAdapter struct{}

func (logObjAdapter) InfoObj(msg, key string, obj interface{})  { logger.InfoObj(msg, key, obj) }
func (logObjAdapter) DebugObj(msg, key string, obj interface{}) { logger.DebugObj(msg, key, obj) }
func (logObjAdapter) WarnObj(msg, key string, obj interface{})  { logger.WarnObj(msg, key, obj) }
func (logObjAdapter) ErrorObj(msg, key string, obj interface{}) { logger.ErrorObj(msg, key, obj) }
