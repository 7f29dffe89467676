// Package cache keeps recently resolved certificate records in memory.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/rs/zerolog"

	"github.com/adamscao/eventcert/internal/models"
	"github.com/adamscao/eventcert/internal/verify"
)

// Config controls the record cache.
type Config struct {
	LifeWindow   time.Duration
	MaxEntrySize int // bytes
	Shards       int
}

// Records is a read-through cache in front of a certificate store. Only
// lookups by certificate id are cached; search and key lookups pass through.
// Misses are not cached.
type Records struct {
	backend verify.Store
	cache   *bigcache.BigCache
	logger  zerolog.Logger
}

var _ verify.Store = (*Records)(nil)

// New creates a record cache over backend.
func New(ctx context.Context, backend verify.Store, cfg Config, logger zerolog.Logger) (*Records, error) {
	bcfg := bigcache.DefaultConfig(cfg.LifeWindow)
	bcfg.CleanWindow = cfg.LifeWindow / 2
	bcfg.Verbose = false
	if cfg.MaxEntrySize > 0 {
		bcfg.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.Shards > 0 {
		bcfg.Shards = cfg.Shards
	}

	c, err := bigcache.New(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create record cache: %w", err)
	}

	return &Records{
		backend: backend,
		cache:   c,
		logger:  logger.With().Str("component", "record_cache").Logger(),
	}, nil
}

// GetByCertificateID returns the cached record or loads it from the backend.
func (r *Records) GetByCertificateID(ctx context.Context, certificateID string) (*models.Certificate, error) {
	if data, err := r.cache.Get(certificateID); err == nil {
		var cert models.Certificate
		if err := json.Unmarshal(data, &cert); err == nil {
			return &cert, nil
		}
		r.logger.Warn().Str("certificate_id", certificateID).Msg("dropping undecodable cache entry")
		_ = r.cache.Delete(certificateID)
	} else if !errors.Is(err, bigcache.ErrEntryNotFound) {
		r.logger.Warn().Err(err).Msg("record cache read failed")
	}

	cert, err := r.backend.GetByCertificateID(ctx, certificateID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(cert); err == nil {
		if err := r.cache.Set(certificateID, data); err != nil {
			r.logger.Debug().Err(err).Msg("record not cached")
		}
	}

	return cert, nil
}

// Search passes through to the backend.
func (r *Records) Search(ctx context.Context, query string, limit int) ([]*models.Certificate, error) {
	return r.backend.Search(ctx, query, limit)
}

// ListByPublicKey passes through to the backend.
func (r *Records) ListByPublicKey(ctx context.Context, publicKey string, limit int) ([]*models.Certificate, error) {
	return r.backend.ListByPublicKey(ctx, publicKey, limit)
}

// Invalidate drops a record, e.g. after its URL changed.
func (r *Records) Invalidate(certificateID string) {
	if err := r.cache.Delete(certificateID); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		r.logger.Warn().Err(err).Str("certificate_id", certificateID).Msg("record cache delete failed")
	}
}

// Len returns the number of cached records.
func (r *Records) Len() int {
	return r.cache.Len()
}

// Close releases the cache.
func (r *Records) Close() error {
	return r.cache.Close()
}
