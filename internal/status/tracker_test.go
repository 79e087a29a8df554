// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

package status

import (
	"sync"
	"testing"

	"github.com/tomtom215/mapexplorer/internal/models"
)

func TestTracker_Lifecycle(t *testing.T) {
	tr := NewTracker("explorer", "Map Explorer PRO Live!")

	want := models.LiveStatus{Username: "explorer", LiveTitle: "Map Explorer PRO Live!"}
	if got := tr.Snapshot(); got != want {
		t.Errorf("initial snapshot = %+v, want %+v", got, want)
	}

	tr.SetConnected("Flying around the world")
	tr.SetViewerCount(42)
	got := tr.Snapshot()
	if !got.IsLiveActive || got.ViewerCount != 42 || got.LiveTitle != "Flying around the world" {
		t.Errorf("connected snapshot = %+v", got)
	}

	tr.MarkEnded()
	got = tr.Snapshot()
	if got.IsLiveActive || got.ViewerCount != 0 {
		t.Errorf("ended snapshot = %+v", got)
	}
	if got.LiveTitle != "Flying around the world" {
		t.Errorf("title should survive stream end, got %q", got.LiveTitle)
	}
}

func TestTracker_EmptyTitleUsesDefault(t *testing.T) {
	tr := NewTracker("explorer", "Default")
	tr.SetConnected("")
	if got := tr.Snapshot().LiveTitle; got != "Default" {
		t.Errorf("LiveTitle = %q, want Default", got)
	}
}

func TestTracker_NegativeViewers(t *testing.T) {
	tr := NewTracker("explorer", "Default")
	tr.SetViewerCount(-5)
	if got := tr.Snapshot().ViewerCount; got != 0 {
		t.Errorf("ViewerCount = %d, want 0", got)
	}
}

func TestTracker_ConcurrentAccess(t *testing.T) {
	tr := NewTracker("explorer", "Default")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			tr.SetViewerCount(n)
		}(i)
		go func() {
			defer wg.Done()
			_ = tr.Snapshot()
		}()
	}
	wg.Wait()
}
