// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

package services

import "context"

// LocationQueue is satisfied by *queue.Queue.
type LocationQueue interface {
	StartProcessing()
	Close()
}

// QueueService ties the queue's promotion timer to the process lifetime.
// With autoStart it promotes anything enqueued before the tree came up. On
// shutdown it stops the timer so no promotion fires mid-exit.
type QueueService struct {
	queue     LocationQueue
	autoStart bool
}

// NewQueueService wraps q.
func NewQueueService(q LocationQueue, autoStart bool) *QueueService {
	return &QueueService{queue: q, autoStart: autoStart}
}

// Serve implements suture.Service.
func (s *QueueService) Serve(ctx context.Context) error {
	if s.autoStart {
		s.queue.StartProcessing()
	}
	<-ctx.Done()
	s.queue.Close()
	return ctx.Err()
}

func (s *QueueService) String() string {
	return "location-queue"
}
