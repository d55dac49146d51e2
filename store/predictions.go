package store

import "time"

// PredictionLog is one entry of the prediction audit trail. InputData and
// Result hold whatever the caller passed; rows whose nested cells cannot be
// decoded come back with the raw cell text as a string value.
type PredictionLog struct {
	PredictionID   string    `json:"prediction_id"`
	PredictionType string    `json:"prediction_type"`
	InputData      Value     `json:"input_data"`
	Result         Value     `json:"result"`
	ModelUsed      string    `json:"model_used"`
	CreatedAt      time.Time `json:"created_at"`
}

// LogPrediction appends an immutable prediction record.
func (s *Store) LogPrediction(predictionType string, input, result Value, model string) (*PredictionLog, error) {
	inCell, err := EncodeValue(input)
	if err != nil {
		return nil, err
	}
	resCell, err := EncodeValue(result)
	if err != nil {
		return nil, err
	}
	p := &PredictionLog{
		PredictionID:   s.newID(),
		PredictionType: predictionType,
		InputData:      input,
		Result:         result,
		ModelUsed:      model,
	}
	err = s.tables[KindPrediction].Mutate(func(rows []Row) ([]Row, error) {
		p.CreatedAt = s.clock.stamp()
		return append(rows, Row{p.PredictionID, predictionType, inCell, resCell, model, formatTime(p.CreatedAt)}), nil
	})
	if err != nil {
		s.lg.Errorf("store: log prediction %s: %v", predictionType, err)
		return nil, err
	}
	return p, nil
}

// GetPredictions returns the first limit predictions, optionally only those
// whose type equals typeFilter. The filter applies before the limit.
func (s *Store) GetPredictions(limit int, typeFilter string) ([]*PredictionLog, error) {
	rows, err := s.tables[KindPrediction].LoadAll()
	if err != nil {
		s.lg.Errorf("store: read predictions: %v", err)
		return []*PredictionLog{}, err
	}
	var keep func(Row) bool
	if typeFilter != "" {
		keep = func(r Row) bool { return r[1] == typeFilter }
	}
	picked := headLimit(rows, limit, keep)
	out := make([]*PredictionLog, 0, len(picked))
	for _, r := range picked {
		out = append(out, s.predictionFromRow(r))
	}
	return out, nil
}

func (s *Store) predictionFromRow(r Row) *PredictionLog {
	p := &PredictionLog{
		PredictionID:   r[0],
		PredictionType: r[1],
		ModelUsed:      r[4],
		CreatedAt:      parseTime(r[5]),
	}
	var ok bool
	if p.InputData, ok = decodeCell(r[2]); !ok {
		s.lg.Warnf("store: prediction %s: input_data is not valid json, returning raw", p.PredictionID)
	}
	if p.Result, ok = decodeCell(r[3]); !ok {
		s.lg.Warnf("store: prediction %s: result is not valid json, returning raw", p.PredictionID)
	}
	return p
}
