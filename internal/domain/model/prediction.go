// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/wattcast/internal/domain/advice"
	"github.com/okian/wattcast/internal/domain/reading"
)

// PredictionResult is the outcome of one successful inference.
type PredictionResult struct {
	Value          float64         // estimated global active power
	TopSubmeter    advice.Submeter // channel with the greatest reading
	Recommendation string          // advisory text for TopSubmeter
}

// HistoryRecord is one successful prediction kept in a user's history.
// Records are appended and never changed.
type HistoryRecord struct {
	ID          string
	Timestamp   time.Time
	GRP         float64
	GI          float64
	SM1         float64
	SM2         float64
	SM3         float64
	Prediction  float64
	TopSubmeter advice.Submeter
}

// NewHistoryRecord captures the inputs and result of a successful prediction.
func NewHistoryRecord(id string, ts time.Time, r reading.ReadingSet, res PredictionResult) HistoryRecord {
	return HistoryRecord{
		ID:          id,
		Timestamp:   ts,
		GRP:         r.GlobalReactivePower,
		GI:          r.GlobalIntensity,
		SM1:         r.SubMetering1,
		SM2:         r.SubMetering2,
		SM3:         r.SubMetering3,
		Prediction:  res.Value,
		TopSubmeter: res.TopSubmeter,
	}
}

// Readings returns the inputs the record was produced from.
func (h HistoryRecord) Readings() reading.ReadingSet {
	return reading.ReadingSet{
		GlobalReactivePower: h.GRP,
		GlobalIntensity:     h.GI,
		SubMetering1:        h.SM1,
		SubMetering2:        h.SM2,
		SubMetering3:        h.SM3,
	}
}
