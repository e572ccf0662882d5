// Package events publishes portal notifications.
package events

import (
	"context"
	"time"
)

// Event topic constants
const (
	TopicRecordSaved = "portal.record.saved"
)

// RecordSaved is published after a successful save. Values holds only the
// columns written by the save.
type RecordSaved struct {
	Table    string         `json:"table"`
	Row      int            `json:"row"`
	Client   string         `json:"client"`
	Tab      string         `json:"tab"`
	Revision string         `json:"revision,omitempty"`
	Values   map[string]any `json:"values"`
	SavedAt  time.Time      `json:"saved_at"`
}

// Publisher delivers events to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
