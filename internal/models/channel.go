// Package models contains the domain types shared across the engine.
package models

import "time"

// Channel represents a connected interaction source (one tenant-owned scope).
type Channel struct {
	ID                  string
	Name                string
	Platform            string
	PollingEnabled      bool
	PollIntervalMinutes int
	LastPolledAt        *time.Time
	CreatedAt           time.Time
}

// ShouldPoll reports whether the channel is due for polling at the given time.
// A channel that has never been polled is always due.
func (c *Channel) ShouldPoll(now time.Time) bool {
	if !c.PollingEnabled {
		return false
	}
	if c.LastPolledAt == nil {
		return true
	}
	interval := time.Duration(c.PollIntervalMinutes) * time.Minute
	return !now.Before(c.LastPolledAt.Add(interval))
}
