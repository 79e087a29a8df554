// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

package live

import (
	"github.com/goccy/go-json"

	"github.com/tomtom215/mapexplorer/internal/logging"
	"github.com/tomtom215/mapexplorer/internal/metrics"
	"github.com/tomtom215/mapexplorer/internal/models"
)

// Relay event names.
const (
	EventConnected = "connected"
	EventChat      = "chat"
	EventMember    = "member"
	EventRoomUser  = "roomUser"
	EventStreamEnd = "streamEnd"
	EventError     = "error"
)

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type connectedData struct {
	RoomInfo struct {
		Title string `json:"title"`
	} `json:"roomInfo"`
}

// userData is shared by chat and member frames.
type userData struct {
	Comment           string `json:"comment"`
	UniqueID          string `json:"uniqueId"`
	UserID            string `json:"userId"`
	ProfilePictureURL string `json:"profilePictureUrl"`
}

func (u userData) senderID() string {
	switch {
	case u.UniqueID != "":
		return u.UniqueID
	case u.UserID != "":
		return u.UserID
	default:
		return models.AnonymousUsername
	}
}

type roomUserData struct {
	ViewerCount int `json:"viewerCount"`
}

type errorData struct {
	Message string `json:"message"`
}

// dispatch decodes one frame and invokes the matching handler. It reports
// whether the frame ended the stream. Malformed frames are logged and dropped.
func (s *relaySession) dispatch(data []byte) (ended bool) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil || f.Event == "" {
		s.malformed("", err)
		return false
	}

	h := s.handlers
	switch f.Event {
	case EventConnected:
		var d connectedData
		if !s.decode(f, &d) {
			return false
		}
		if h.OnConnected != nil {
			h.OnConnected(d.RoomInfo.Title)
		}

	case EventChat:
		var d userData
		if !s.decode(f, &d) {
			return false
		}
		if h.OnChat != nil {
			h.OnChat(models.ChatMessage{Text: d.Comment, SenderID: d.senderID(), AvatarURL: d.ProfilePictureURL})
		}

	case EventMember:
		var d userData
		if !s.decode(f, &d) {
			return false
		}
		if h.OnMember != nil {
			h.OnMember(models.MemberJoin{SenderID: d.senderID(), AvatarURL: d.ProfilePictureURL})
		}

	case EventRoomUser:
		var d roomUserData
		if !s.decode(f, &d) {
			return false
		}
		if h.OnRoomUser != nil {
			h.OnRoomUser(d.ViewerCount)
		}

	case EventStreamEnd:
		metrics.LiveEvents.WithLabelValues(f.Event).Inc()
		if h.OnStreamEnd != nil {
			h.OnStreamEnd()
		}
		return true

	case EventError:
		var d errorData
		_ = json.Unmarshal(f.Data, &d)
		metrics.LiveEvents.WithLabelValues(f.Event).Inc()
		s.logger.Warn().Str("message", logging.Sanitize(d.Message)).Msg("Live relay reported an error")

	default:
		s.logger.Debug().Str("event", logging.Sanitize(f.Event)).Msg("Ignoring unknown relay event")
	}
	return false
}

// decode unmarshals the frame data into v and counts the event. Missing data
// decodes to the zero value.
func (s *relaySession) decode(f frame, v any) bool {
	if len(f.Data) > 0 {
		if err := json.Unmarshal(f.Data, v); err != nil {
			s.malformed(f.Event, err)
			return false
		}
	}
	metrics.LiveEvents.WithLabelValues(f.Event).Inc()
	return true
}

func (s *relaySession) malformed(event string, err error) {
	metrics.LiveMalformedFrames.Inc()
	ev := s.logger.Warn().Str("event", logging.Sanitize(event))
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("Ignoring malformed relay frame")
}
