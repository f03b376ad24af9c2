package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Source identifies which mode produced a detection event.
type Source string

const (
	SourceLive   Source = "live"
	SourceUpload Source = "upload"
)

// BoundingBox is one detected object in the pixel space of the frame it was
// computed from. Coordinates satisfy X1 < X2 and Y1 < Y2.
type BoundingBox struct {
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
	Confidence float64 `json:"confidence"`
	Label      string  `json:"class_name"`
}

// Valid reports whether the box describes a non-empty rectangle.
func (b BoundingBox) Valid() bool {
	return b.X1 < b.X2 && b.Y1 < b.Y2
}

// DetectionEvent is one logged outcome of a detection request. Events are
// never mutated after creation; field names follow the detection service's
// JSON shape so the remote history decodes directly into this type.
type DetectionEvent struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Source    Source        `json:"type"`
	Labels    []string      `json:"objects"`
	Boxes     []BoundingBox `json:"boxes"`
	Annotated string        `json:"base64_image,omitempty"`
}

// UnmarshalJSON decodes an event while tolerating the timestamp formats the
// detection service actually emits. Python datetimes serialize as naive
// ISO8601 with no UTC offset, which the strict time.Time unmarshal rejects.
func (e *DetectionEvent) UnmarshalJSON(data []byte) error {
	type alias DetectionEvent
	aux := struct {
		Timestamp string `json:"timestamp"`
		*alias
	}{alias: (*alias)(e)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	ts, err := parseTimestamp(aux.Timestamp)
	if err != nil {
		return err
	}
	e.Timestamp = ts
	return nil
}

// Layouts accepted for event timestamps: RFC3339 with offset, and naive
// ISO8601 (with or without fractional seconds) interpreted as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// NewDetectionEvent builds an event from one successful detection response.
// Labels are deduplicated so they stay consistent with the label set implied
// by the boxes of the same response.
func NewDetectionEvent(source Source, labels []string, boxes []BoundingBox, annotated string) DetectionEvent {
	return DetectionEvent{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Source:    source,
		Labels:    DedupLabels(labels),
		Boxes:     boxes,
		Annotated: annotated,
	}
}

// DedupLabels returns the distinct labels in sorted order.
func DedupLabels(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
