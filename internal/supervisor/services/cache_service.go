// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

package services

import (
	"context"
	"time"
)

// CachePruner is satisfied by *geocode.Client.
type CachePruner interface {
	PruneCache() int
}

// CachePruneService drops expired geocode results on a fixed interval so
// the cache does not hold stale places until they are evicted by size.
type CachePruneService struct {
	pruner   CachePruner
	interval time.Duration
	name     string
}

// NewCachePruneService wraps pruner. A non-positive interval means 5 minutes.
func NewCachePruneService(pruner CachePruner, interval time.Duration) *CachePruneService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CachePruneService{pruner: pruner, interval: interval, name: "geocode-cache-prune"}
}

// Serve implements suture.Service.
func (c *CachePruneService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.pruner.PruneCache()
		}
	}
}

func (c *CachePruneService) String() string {
	return c.name
}
