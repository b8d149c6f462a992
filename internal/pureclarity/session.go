package pureclarity

import (
	"context"
	"fmt"
)

// Session tracks one feed run's submissions for a store. The runner consults
// Succeeded after all types are processed (its checkSuccess step); a feed
// type counts as sent only when start, every page, and close all went
// through.
type Session struct {
	client  *Client
	storeID int
	failed  map[string]bool
	started map[string]bool
}

// NewSession opens submission accounting for one store run.
func (c *Client) NewSession(storeID int) *Session {
	return &Session{
		client:  c,
		storeID: storeID,
		failed:  make(map[string]bool),
		started: make(map[string]bool),
	}
}

// StartFeed opens the remote feed for a type.
func (s *Session) StartFeed(ctx context.Context, feedType string) error {
	if err := s.client.StartFeed(ctx, feedType, s.storeID); err != nil {
		s.failed[feedType] = true
		return fmt.Errorf("failed to start %s feed: %w", feedType, err)
	}
	s.started[feedType] = true
	return nil
}

// SendPage appends one page of rows.
func (s *Session) SendPage(ctx context.Context, feedType string, page int, rows []map[string]any) error {
	if err := s.client.SendPage(ctx, feedType, s.storeID, page, rows); err != nil {
		s.failed[feedType] = true
		return fmt.Errorf("failed to send %s feed page %d: %w", feedType, page, err)
	}
	return nil
}

// EndFeed closes the remote feed for a type.
func (s *Session) EndFeed(ctx context.Context, feedType string) error {
	if err := s.client.EndFeed(ctx, feedType, s.storeID); err != nil {
		s.failed[feedType] = true
		return fmt.Errorf("failed to close %s feed: %w", feedType, err)
	}
	return nil
}

// Succeeded reports whether a feed type was fully submitted in this session.
func (s *Session) Succeeded(feedType string) bool {
	return s.started[feedType] && !s.failed[feedType]
}
