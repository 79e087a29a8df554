// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

// Package ratings implements the place leaderboard: a single JSON document of
// place ratings kept on local disk.
//
// Every Upsert re-reads the document, applies the change, sorts by descending
// score and rewrites the whole file. Reads never fail; a missing or unreadable
// document reads as empty. The store assumes it is the only writer of the
// file. There is no cross-process lock.
package ratings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/tomtom215/mapexplorer/internal/logging"
	"github.com/tomtom215/mapexplorer/internal/metrics"
	"github.com/tomtom215/mapexplorer/internal/models"
)

var (
	// ErrIO is returned when the rating document could not be written. The
	// in-memory update is kept and will be written by the next successful Upsert.
	ErrIO = errors.New("rating store I/O failure")

	// ErrCorruptDocument is returned by Upsert under RecoveryFail when the
	// document on disk cannot be parsed.
	ErrCorruptDocument = errors.New("rating document is corrupt")
)

// RecoveryPolicy decides how a corrupt document is handled.
type RecoveryPolicy int

const (
	// Reinitialize treats a corrupt document as empty and overwrites it.
	Reinitialize RecoveryPolicy = iota

	// FailFast refuses to write over a corrupt document.
	FailFast
)

// ParseRecoveryPolicy maps the configuration value to a policy.
func ParseRecoveryPolicy(s string) (RecoveryPolicy, error) {
	switch strings.ToLower(s) {
	case "", "reinitialize":
		return Reinitialize, nil
	case "fail":
		return FailFast, nil
	default:
		return Reinitialize, fmt.Errorf("unknown recovery policy %q", s)
	}
}

// Store is the file-backed rating table.
type Store struct {
	mu     sync.Mutex
	path   string
	policy RecoveryPolicy
	now    func() time.Time
	logger zerolog.Logger

	// doc is the last document read or written. While dirty is set it holds
	// updates that have not reached disk and takes precedence over the file.
	doc   models.RatingsDocument
	dirty bool
}

// Option configures a Store.
type Option func(*Store)

// WithRecoveryPolicy sets the corrupt document policy. Default is Reinitialize.
func WithRecoveryPolicy(p RecoveryPolicy) Option {
	return func(s *Store) { s.policy = p }
}

// WithClock overrides time.Now for visited timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open returns a store for the document at path, creating the parent
// directory and an empty document when they do not exist yet.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:   path,
		policy: Reinitialize,
		now:    time.Now,
		logger: logging.WithComponent("ratings"),
		doc:    models.RatingsDocument{Places: []models.PlaceRating{}},
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("%w: create data directory: %v", ErrIO, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readLocked()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if werr := s.writeLocked(s.doc); werr != nil {
			return nil, werr
		}
	case errors.Is(err, ErrCorruptDocument):
		// Reads stay available under both policies; Upsert enforces FailFast.
		s.logger.Warn().Err(err).Str("path", path).Msg("Rating document is corrupt")
		if s.policy == Reinitialize {
			s.reinitializeLocked()
		}
	case err != nil:
		s.logger.Warn().Err(err).Str("path", path).Msg("Rating document unreadable, starting empty")
	default:
		s.doc = doc
	}
	metrics.RatedPlaces.Set(float64(len(s.doc.Places)))
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Upsert records a completion for place. An existing record (matched
// case-insensitively) gets its score and visited time overwritten and keeps
// its coordinates. Otherwise a new record is appended.
//
// The returned rating reflects the stored record even when the write failed
// with ErrIO.
func (s *Store) Upsert(place string, score int, lat, lng float64) (models.PlaceRating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadForWriteLocked()
	if err != nil {
		return models.PlaceRating{}, err
	}

	visited := s.now().UTC().Format(time.RFC3339)
	idx := indexOf(doc.Places, place)
	if idx >= 0 {
		doc.Places[idx].Score = score
		doc.Places[idx].Visited = visited
	} else {
		doc.Places = append(doc.Places, models.PlaceRating{
			Place:   place,
			Score:   score,
			Lat:     lat,
			Lng:     lng,
			Visited: visited,
		})
		idx = len(doc.Places) - 1
	}
	saved := doc.Places[idx]

	sortByScore(doc.Places)
	s.doc = doc
	s.dirty = true
	metrics.RatedPlaces.Set(float64(len(doc.Places)))

	if err := s.writeLocked(doc); err != nil {
		s.logger.Error().Err(err).Str("place", logging.Sanitize(place)).Msg("Rating kept in memory, write failed")
		return saved, err
	}
	s.dirty = false
	return saved, nil
}

// All returns every record, highest score first.
func (s *Store) All() []models.PlaceRating {
	return s.Document().Places
}

// TopN returns up to n records, highest score first.
func (s *Store) TopN(n int) []models.PlaceRating {
	if n <= 0 {
		return []models.PlaceRating{}
	}
	places := s.All()
	if len(places) > n {
		places = places[:n]
	}
	return places
}

// Document returns a copy of the full document, sorted by descending score.
func (s *Store) Document() models.RatingsDocument {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		doc, err := s.readLocked()
		switch {
		case err == nil:
			s.doc = doc
		case errors.Is(err, ErrCorruptDocument) && s.policy == Reinitialize:
			s.logger.Warn().Err(err).Msg("Rating document is corrupt, reinitializing")
			s.reinitializeLocked()
		case errors.Is(err, fs.ErrNotExist) && s.policy == Reinitialize:
			s.reinitializeLocked()
		default:
			s.logger.Warn().Err(err).Msg("Rating document unreadable, serving empty")
			return models.RatingsDocument{Places: []models.PlaceRating{}}
		}
	}

	places := make([]models.PlaceRating, len(s.doc.Places))
	copy(places, s.doc.Places)
	sortByScore(places)
	return models.RatingsDocument{Places: places}
}

// loadForWriteLocked returns the document Upsert should modify.
func (s *Store) loadForWriteLocked() (models.RatingsDocument, error) {
	if s.dirty {
		return cloneDoc(s.doc), nil
	}

	doc, err := s.readLocked()
	switch {
	case err == nil:
		return doc, nil
	case errors.Is(err, ErrCorruptDocument):
		if s.policy == FailFast {
			return models.RatingsDocument{}, err
		}
		s.logger.Warn().Err(err).Msg("Rating document is corrupt, reinitializing")
		metrics.RatingRecoveries.Inc()
		return emptyDoc(), nil
	case errors.Is(err, fs.ErrNotExist):
		// The write that follows recreates the file.
		metrics.RatingRecoveries.Inc()
		return emptyDoc(), nil
	default:
		// Unreadable for another reason. Build on the last known document
		// rather than clobbering whatever is on disk with an empty one.
		s.logger.Warn().Err(err).Msg("Rating document unreadable, using last known contents")
		return cloneDoc(s.doc), nil
	}
}

func (s *Store) readLocked() (models.RatingsDocument, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return models.RatingsDocument{}, err
	}
	var doc models.RatingsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.RatingsDocument{}, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	if doc.Places == nil {
		doc.Places = []models.PlaceRating{}
	}
	return doc, nil
}

// writeLocked replaces the file via a temp file and rename so a crash never
// leaves a half-written document behind.
func (s *Store) writeLocked(doc models.RatingsDocument) (err error) {
	defer func() { metrics.RecordRatingWrite(err) }()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrIO, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".ratings-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrIO, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: write: %v", ErrIO, err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: sync: %v", ErrIO, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", ErrIO, err)
	}
	if err = os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("%w: rename: %v", ErrIO, err)
	}
	return nil
}

// reinitializeLocked overwrites the document with an empty one, best effort.
func (s *Store) reinitializeLocked() {
	metrics.RatingRecoveries.Inc()
	s.doc = emptyDoc()
	if err := s.writeLocked(s.doc); err != nil {
		s.logger.Warn().Err(err).Msg("Could not reinitialize rating document")
	}
}

func indexOf(places []models.PlaceRating, place string) int {
	_, idx, ok := lo.FindIndexOf(places, func(p models.PlaceRating) bool {
		return strings.EqualFold(p.Place, place)
	})
	if !ok {
		return -1
	}
	return idx
}

// sortByScore orders by descending score, keeping arrival order on ties.
func sortByScore(places []models.PlaceRating) {
	sort.SliceStable(places, func(i, j int) bool {
		return places[i].Score > places[j].Score
	})
}

func emptyDoc() models.RatingsDocument {
	return models.RatingsDocument{Places: []models.PlaceRating{}}
}

func cloneDoc(doc models.RatingsDocument) models.RatingsDocument {
	places := make([]models.PlaceRating, len(doc.Places))
	copy(places, doc.Places)
	return models.RatingsDocument{Places: places}
}
