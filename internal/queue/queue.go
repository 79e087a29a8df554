// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

// Package queue implements the location request queue: a bounded,
// de-duplicating FIFO of pending places, a single current place, and a
// timer-driven processor that promotes the next place.
//
// State machine:
//
//	Idle        pending empty, current nil, not processing
//	Processing  a promotion timer is outstanding or current is set
//
// AddLocation on an Idle queue with auto-start promotes immediately.
// ProcessNext promotes the head of pending and arms a one-shot timer of
// ProcessingInterval that calls ProcessNext again. An empty pending list on
// ProcessNext returns the queue to Idle.
//
// CompleteCurrentLocation saves the rating and clears current. What happens
// next depends on the advance mode:
//
//   - AdvanceOnCompletion promotes the next place right away. The timer is
//     only a fallback for a presentation layer that never reports completion.
//   - AdvanceOnTimer leaves the timer alone, so the two clocks stay independent.
package queue

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/mapexplorer/internal/logging"
	"github.com/tomtom215/mapexplorer/internal/metrics"
	"github.com/tomtom215/mapexplorer/internal/models"
)

// AdvanceMode selects what promotes the next location.
type AdvanceMode int

const (
	AdvanceOnCompletion AdvanceMode = iota
	AdvanceOnTimer
)

// ParseAdvanceMode maps the configuration value to a mode. Unknown values
// fall back to AdvanceOnCompletion.
func ParseAdvanceMode(s string) AdvanceMode {
	if strings.EqualFold(s, "timer") {
		return AdvanceOnTimer
	}
	return AdvanceOnCompletion
}

// RatingSaver persists the rating of a completed location.
// Satisfied by *ratings.Store.
type RatingSaver interface {
	Upsert(place string, score int, lat, lng float64) (models.PlaceRating, error)
}

// Config holds queue settings.
type Config struct {
	MaxSize            int
	ProcessingInterval time.Duration
	AutoStart          bool
	AdvanceMode        AdvanceMode
}

// DefaultConfig returns the stock queue settings.
func DefaultConfig() Config {
	return Config{
		MaxSize:            10,
		ProcessingInterval: 8 * time.Second,
		AutoStart:          true,
		AdvanceMode:        AdvanceOnCompletion,
	}
}

// scheduleFunc arms a one-shot timer and returns its stop function.
type scheduleFunc func(d time.Duration, f func()) (stop func() bool)

func afterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Queue is safe for concurrent use.
type Queue struct {
	cfg      Config
	store    RatingSaver
	now      func() time.Time
	schedule scheduleFunc
	logger   zerolog.Logger

	mu         sync.Mutex
	pending    []models.LocationRequest
	current    *models.LocationRequest
	processing bool
	stopTimer  func() bool
	generation uint64 // bumped whenever the outstanding timer is superseded
	closed     bool
}

// Option configures a Queue.
type Option func(*Queue)

// WithClock overrides time.Now for SubmittedAt.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// withScheduler replaces time.AfterFunc. Tests use it to fire timers by hand.
func withScheduler(s scheduleFunc) Option {
	return func(q *Queue) { q.schedule = s }
}

// New creates an idle queue. Non-positive sizes and intervals are replaced
// by the defaults.
func New(cfg Config, store RatingSaver, opts ...Option) *Queue {
	def := DefaultConfig()
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = def.MaxSize
	}
	if cfg.ProcessingInterval <= 0 {
		cfg.ProcessingInterval = def.ProcessingInterval
	}

	q := &Queue{
		cfg:      cfg,
		store:    store,
		now:      time.Now,
		schedule: afterFunc,
		logger:   logging.WithComponent("queue"),
		pending:  make([]models.LocationRequest, 0, cfg.MaxSize),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// AddLocation enqueues a request for place. It returns false, leaving the
// queue unchanged, when place is blank or matches the pending or current
// place case-insensitively. Pending is not bounded here; State caps what
// is shown, and requests past the cap are still promoted in turn.
func (q *Queue) AddLocation(place, requesterName string, requesterAvatarURL *string) bool {
	place = strings.TrimSpace(place)
	if place == "" {
		metrics.QueueRequests.WithLabelValues("empty").Inc()
		return false
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.containsLocked(place) {
		metrics.QueueRequests.WithLabelValues("duplicate").Inc()
		q.logger.Debug().Str("place", logging.Sanitize(place)).Msg("Duplicate location ignored")
		return false
	}

	q.pending = append(q.pending, models.LocationRequest{
		Place:              place,
		RequesterName:      requesterName,
		RequesterAvatarURL: requesterAvatarURL,
		SubmittedAt:        q.now().UTC(),
	})
	metrics.QueueRequests.WithLabelValues("accepted").Inc()
	q.logger.Info().
		Str("place", logging.Sanitize(place)).
		Str("requester", logging.Sanitize(requesterName)).
		Int("pending", len(q.pending)).
		Msg("Location queued")

	if !q.processing && q.cfg.AutoStart && !q.closed {
		q.processNextLocked()
	}
	q.updateGaugeLocked()
	return true
}

// StartProcessing begins promoting locations if the queue is idle.
func (q *Queue) StartProcessing() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.processing || q.closed {
		return
	}
	q.processNextLocked()
}

// ProcessNext promotes the head of pending to current and arms the
// processing timer. With nothing pending it clears current and goes idle.
func (q *Queue) ProcessNext() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.processNextLocked()
}

func (q *Queue) processNextLocked() {
	q.cancelTimerLocked()

	if len(q.pending) == 0 {
		q.current = nil
		q.processing = false
		q.updateGaugeLocked()
		q.logger.Debug().Msg("Queue drained")
		return
	}

	next := q.pending[0]
	q.pending = q.pending[1:]
	q.current = &next
	q.processing = true
	metrics.QueuePromotions.Inc()
	q.updateGaugeLocked()

	if q.closed {
		return
	}
	gen := q.generation
	q.stopTimer = q.schedule(q.cfg.ProcessingInterval, func() { q.onTimer(gen) })

	q.logger.Info().
		Str("place", logging.Sanitize(next.Place)).
		Int("pending", len(q.pending)).
		Msg("Location promoted")
}

// onTimer runs on the timer goroutine. A fire from a superseded timer is dropped.
func (q *Queue) onTimer(gen uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || gen != q.generation {
		return
	}
	q.stopTimer = nil
	q.processNextLocked()
}

func (q *Queue) cancelTimerLocked() {
	q.generation++
	if q.stopTimer != nil {
		q.stopTimer()
		q.stopTimer = nil
	}
}

// CompleteCurrentLocation saves the rating for the current location and
// clears it. It is a no-op returning nil when nothing is current. A save
// error is returned but current is cleared regardless.
//
// In AdvanceOnCompletion mode a rating for a place other than current is
// late: the timer already moved on. It is saved, and current is kept.
func (q *Queue) CompleteCurrentLocation(input models.RatingInput) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.current == nil {
		return nil
	}

	place := strings.TrimSpace(input.Place)
	if place == "" {
		place = q.current.Place
	}
	lat, lng := input.Coordinates()

	var err error
	if q.store != nil {
		_, err = q.store.Upsert(place, input.Score, lat, lng)
	}
	if err != nil {
		q.logger.Error().Err(err).Str("place", logging.Sanitize(place)).Msg("Failed to save rating for completed location")
	} else {
		q.logger.Info().Str("place", logging.Sanitize(place)).Int("score", input.Score).Msg("Location completed")
	}
	metrics.QueueCompletions.Inc()

	if q.cfg.AdvanceMode == AdvanceOnCompletion && !strings.EqualFold(place, q.current.Place) {
		q.logger.Info().
			Str("place", logging.Sanitize(place)).
			Str("current", logging.Sanitize(q.current.Place)).
			Msg("Late completion, current location kept")
		return err
	}

	q.current = nil
	if q.cfg.AdvanceMode == AdvanceOnCompletion && !q.closed {
		q.processNextLocked()
	}
	return err
}

// State returns a snapshot. Pending is capped at the configured maximum.
func (q *Queue) State() models.QueueState {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := min(len(q.pending), q.cfg.MaxSize)
	pending := make([]models.LocationRequest, n)
	copy(pending, q.pending[:n])

	var current *models.LocationRequest
	if q.current != nil {
		c := *q.current
		current = &c
	}

	return models.QueueState{
		Pending:      pending,
		Current:      current,
		IsProcessing: q.processing,
	}
}

// Len returns the number of pending requests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Close stops the processing timer. Later calls to AddLocation still enqueue
// but nothing is promoted automatically.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cancelTimerLocked()
}

func (q *Queue) containsLocked(place string) bool {
	if q.current != nil && strings.EqualFold(q.current.Place, place) {
		return true
	}
	for i := range q.pending {
		if strings.EqualFold(q.pending[i].Place, place) {
			return true
		}
	}
	return false
}

func (q *Queue) updateGaugeLocked() {
	metrics.QueueLength.Set(float64(len(q.pending)))
}
