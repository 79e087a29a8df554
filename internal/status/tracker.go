// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

// Package status holds the live session metadata reported by ingestion.
// Only the ingestion adapter writes to a Tracker; everything else reads
// snapshots.
package status

import (
	"sync"

	"github.com/tomtom215/mapexplorer/internal/metrics"
	"github.com/tomtom215/mapexplorer/internal/models"
)

// Tracker is safe for concurrent use.
type Tracker struct {
	mu           sync.RWMutex
	status       models.LiveStatus
	defaultTitle string
}

// NewTracker returns a tracker for username that is not live yet.
func NewTracker(username, defaultTitle string) *Tracker {
	return &Tracker{
		status: models.LiveStatus{
			Username:  username,
			LiveTitle: defaultTitle,
		},
		defaultTitle: defaultTitle,
	}
}

// Snapshot returns the current status.
func (t *Tracker) Snapshot() models.LiveStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// SetConnected marks the session live. An empty title keeps the default.
func (t *Tracker) SetConnected(title string) {
	if title == "" {
		title = t.defaultTitle
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.IsLiveActive = true
	t.status.LiveTitle = title
}

// SetViewerCount records the latest room viewer count. Negative counts are
// clamped to zero.
func (t *Tracker) SetViewerCount(n int) {
	n = max(n, 0)
	t.mu.Lock()
	t.status.ViewerCount = n
	t.mu.Unlock()
	metrics.LiveViewers.Set(float64(n))
}

// MarkEnded marks the session as no longer live. The viewer count drops to
// zero; username and title are kept for display.
func (t *Tracker) MarkEnded() {
	t.mu.Lock()
	t.status.IsLiveActive = false
	t.status.ViewerCount = 0
	t.mu.Unlock()
	metrics.LiveViewers.Set(0)
}
