package dataset

import (
	"context"
	"sync"
	"time"

	"housing-dashboard/internal/config"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cache memoizes the built dataset keyed by the source version. Reading,
// tokenizing and timeline parsing only rerun when the version changes.
// Concurrent loads of the same version share one read.
type Cache struct {
	source Source
	fields config.Fields
	keep   KeepFunc
	logger *zap.Logger

	group singleflight.Group

	mu      sync.RWMutex
	current *Dataset
}

func NewCache(source Source, fields config.Fields, keep KeepFunc, logger *zap.Logger) *Cache {
	return &Cache{
		source: source,
		fields: fields,
		keep:   keep,
		logger: logger,
	}
}

// Current returns the last loaded dataset, or nil
func (c *Cache) Current() *Dataset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Get returns the dataset for the source's current version, loading it when
// the version moved. If the version check fails but an older dataset exists,
// the older one is served.
func (c *Cache) Get(ctx context.Context) (*Dataset, error) {
	cur := c.Current()

	version, err := c.source.Version(ctx)
	if err != nil {
		if cur != nil {
			c.logger.Warn("dataset version check failed, serving cached copy",
				zap.String("source", c.source.Name()), zap.Error(err))
			return cur, nil
		}
		return nil, errors.Wrap(err, "dataset version")
	}

	if cur != nil && (version == "" || cur.Version == version) {
		return cur, nil
	}
	return c.load(ctx, "v:"+version, version)
}

// Reload rereads the source regardless of its version
func (c *Cache) Reload(ctx context.Context) (*Dataset, error) {
	version, err := c.source.Version(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "dataset version")
	}
	return c.load(ctx, "reload:"+version, version)
}

func (c *Cache) load(ctx context.Context, key, version string) (*Dataset, error) {
	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		start := time.Now()
		table, err := c.source.Load(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "load %s", c.source.Name())
		}
		ds, err := Build(table, c.fields, c.keep)
		if err != nil {
			return nil, errors.Wrapf(err, "build %s", c.source.Name())
		}
		ds.Source = c.source.Name()
		ds.Version = version
		ds.LoadedAt = time.Now()

		c.mu.Lock()
		c.current = ds
		c.mu.Unlock()

		c.logger.Info("dataset loaded",
			zap.String("source", ds.Source),
			zap.String("version", version),
			zap.Int("records", len(ds.Records)),
			zap.Int("skipped", ds.Skipped),
			zap.Duration("took", time.Since(start)),
		)
		return ds, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("dataset load shared", zap.String("key", key))
	}
	return v.(*Dataset), nil
}
