package observability

// EventEnvelope wraps websocket lifecycle events published to the event bus.
type EventEnvelope struct {
	EventType string      `json:"event_type"`
	EventName string      `json:"event_name"`
	RequestID string      `json:"request_id,omitempty"`
	TraceID   string      `json:"trace_id,omitempty"`
	Payload   interface{} `json:"payload"`
}
