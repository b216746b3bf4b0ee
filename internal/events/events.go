package events

import (
	"encoding/json"
	"time"
)

const (
	TypePing        = "ping"
	TypeRunStarted  = "run_started"
	TypeRunFinished = "run_finished"
	TypeListingNew  = "listing_new"
)

type Event struct {
	Type    string          `json:"type"`
	Version int             `json:"v"`
	At      time.Time       `json:"at"`
	RunID   string          `json:"run_id,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// MakeEvent renders an event envelope as one JSON line.
func MakeEvent(runID, typ string, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:    typ,
		Version: 1,
		At:      time.Now().UTC(),
		RunID:   runID,
		Data:    raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}
