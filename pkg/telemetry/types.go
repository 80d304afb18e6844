package telemetry

import "strings"

// Topic suffixes under a vehicle's name.
const (
	TopicMeta  = "meta"
	TopicState = "state"
	TopicCmd   = "cmd"
)

// Ref identifies a vehicle on the bus.
type Ref struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Name is the topic path of the vehicle.
func (r Ref) Name() string {
	return r.Type + "/" + r.ID
}

// Topic returns the topic of suffix under the vehicle.
func (r Ref) Topic(suffix string) string {
	return r.Name() + "/" + suffix
}

// IsValid indicates both Type and ID are set.
func (r Ref) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// ParseRef parses TYPE/ID.
func ParseRef(s string) (Ref, bool) {
	items := strings.Split(s, "/")
	if len(items) != 2 {
		return Ref{}, false
	}
	ref := Ref{Type: items[0], ID: items[1]}
	return ref, ref.IsValid()
}

// Meta is published retained on the meta topic while the vehicle is
// online.
type Meta struct {
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
	// Period is the control tick period in microseconds.
	Period int64 `json:"period_us,omitempty"`
	// Interval is the state publishing interval in milliseconds.
	Interval int64 `json:"interval_ms,omitempty"`
}

// Info is a discovered vehicle.
type Info struct {
	Ref  Ref  `json:"ref"`
	Meta Meta `json:"meta"`
}
