package chat

import "time"

// State 表示会话所处的对话阶段。
type State string

const (
	StateAwaitingLocation State = "awaiting-location"
	StateAwaitingSymptoms State = "awaiting-symptom-input"
)

// RequestState guards the single in-flight consultation per session.
type RequestState string

const (
	RequestIdle    RequestState = "idle"
	RequestPending RequestState = "pending"
)

// Location is where the user wants care to be found.
type Location struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	City        string  `json:"city"`
	Country     string  `json:"country"`
	Address     string  `json:"address"`
	Approximate bool    `json:"approximate,omitempty"`
	Source      string  `json:"source,omitempty"`
}

// Location sources.
const (
	SourceDevice = "device"
	SourceManual = "manual"
)

// Session captures a transient anonymous consultation.
type Session struct {
	ID        string       `json:"id"`
	State     State        `json:"state"`
	Request   RequestState `json:"request"`
	Location  *Location    `json:"location,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}

// AcceptsSymptoms reports whether free-text input is currently allowed.
func (s Session) AcceptsSymptoms() bool {
	return s.State == StateAwaitingSymptoms && s.Location != nil && s.Request == RequestIdle
}
