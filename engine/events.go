package engine

import "scmcore/store"

const (
	EventRecordSaved           EventType = "record-saved"
	EventRecordDeleted         EventType = "record-deleted"
	EventPredictionLogged      EventType = "prediction-logged"
	EventMessagingConnected    EventType = "messaging-connected"
	EventMessagingDisconnected EventType = "messaging-disconnected"
)

// RecordSavedEvent carries the record as written, after ids and
// timestamps were filled in.
type RecordSavedEvent struct {
	Kind     store.Kind `json:"kind"`
	RecordID string     `json:"record_id"`
	Created  bool       `json:"created"`
	Record   any        `json:"record,omitempty"`
}

type RecordDeletedEvent struct {
	Kind     store.Kind `json:"kind"`
	RecordID string     `json:"record_id"`
	Removed  int        `json:"removed"`
}

type PredictionLoggedEvent struct {
	PredictionID   string `json:"prediction_id"`
	PredictionType string `json:"prediction_type"`
	ModelUsed      string `json:"model_used"`
}

type ConnectionEvent struct {
	Detail string `json:"detail"`
}
