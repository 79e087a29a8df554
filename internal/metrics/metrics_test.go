// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

// histogramCount reads the sample count of one histogram series.
func histogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	m, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("%T is not a prometheus.Metric", o)
	}
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return out.GetHistogram().GetSampleCount()
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/queue", "200"))

	RecordAPIRequest("GET", "/api/queue", "200", 12*time.Millisecond)

	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/queue", "200"))
	if after-before != 1 {
		t.Errorf("api_requests_total delta = %v, want 1", after-before)
	}
}

func TestRecordAPIRequest_Duration(t *testing.T) {
	obs := APIRequestDuration.WithLabelValues("POST", "/api/ratings")
	before := histogramCount(t, obs)

	RecordAPIRequest("POST", "/api/ratings", "200", 40*time.Millisecond)
	RecordAPIRequest("POST", "/api/ratings", "400", 2*time.Millisecond)

	if got := histogramCount(t, obs); got != before+2 {
		t.Errorf("sample count = %d, want %d", got, before+2)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("active requests = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("active requests = %v, want %v", got, before)
	}
}

func TestRecordRatingWrite(t *testing.T) {
	ok := testutil.ToFloat64(RatingWrites.WithLabelValues("success"))
	failed := testutil.ToFloat64(RatingWrites.WithLabelValues("failure"))

	RecordRatingWrite(nil)
	RecordRatingWrite(errors.New("disk full"))

	if got := testutil.ToFloat64(RatingWrites.WithLabelValues("success")); got != ok+1 {
		t.Errorf("success writes = %v, want %v", got, ok+1)
	}
	if got := testutil.ToFloat64(RatingWrites.WithLabelValues("failure")); got != failed+1 {
		t.Errorf("failed writes = %v, want %v", got, failed+1)
	}
}

func TestRecordLiveConnect(t *testing.T) {
	RecordLiveConnect(nil)
	if got := testutil.ToFloat64(LiveConnected); got != 1 {
		t.Errorf("live_session_connected = %v, want 1", got)
	}
	RecordLiveConnect(errors.New("refused"))
	if got := testutil.ToFloat64(LiveConnected); got != 0 {
		t.Errorf("live_session_connected = %v, want 0", got)
	}
}
