package protocol

import "encoding/json"

// RecordSaved is sent after a record is created or replaced. Record is the
// record as stored.
type RecordSaved struct {
	Kind     string          `json:"kind"`
	RecordID string          `json:"record_id"`
	Created  bool            `json:"created"`
	Record   json.RawMessage `json:"record,omitempty"`
}

type RecordDeleted struct {
	Kind     string `json:"kind"`
	RecordID string `json:"record_id"`
	Removed  int    `json:"removed"`
}

type PredictionLogged struct {
	PredictionID   string `json:"prediction_id"`
	PredictionType string `json:"prediction_type"`
	ModelUsed      string `json:"model_used"`
}
