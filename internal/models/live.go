// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

package models

// LiveStatus describes the live session as last reported by ingestion.
type LiveStatus struct {
	IsLiveActive bool   `json:"isLiveActive"`
	ViewerCount  int    `json:"viewerCount"`
	Username     string `json:"username"`
	LiveTitle    string `json:"liveTitle"`
}

// CommentEvent is broadcast to observers for every chat message.
//
// Timestamp is Unix milliseconds, as the browser's Date.now().
type CommentEvent struct {
	Text       string `json:"text"`
	Username   string `json:"username"`
	ProfilePic string `json:"profilePic"`
	Timestamp  int64  `json:"timestamp"`
}

// WelcomeEventName is the event field of a WelcomeEvent.
const WelcomeEventName = "welcome"

// WelcomeEvent is broadcast once per viewer the first time they join.
type WelcomeEvent struct {
	Event      string `json:"event"`
	Username   string `json:"username"`
	ProfilePic string `json:"profilePic"`
	Timestamp  int64  `json:"timestamp"`
}

// AnonymousUsername stands in for a sender the live platform did not identify.
const AnonymousUsername = "TikTok User"

// ChatMessage is an inbound chat event from the live session.
type ChatMessage struct {
	Text      string
	SenderID  string
	AvatarURL string
}

// MemberJoin is an inbound "viewer joined" event from the live session.
type MemberJoin struct {
	SenderID  string
	AvatarURL string
}
