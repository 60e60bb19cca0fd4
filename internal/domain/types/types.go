// Package types contains the JSON views returned by the HTTP API
package types

import (
	"time"

	"github.com/okian/wattcast/internal/domain/model"
)

// DatetimeLayout is the display format of history timestamps.
const DatetimeLayout = "2006-01-02 15:04:05"

// Prediction is the body of a successful prediction response
type Prediction struct {
	Prediction     float64 `json:"prediction"`
	TopSubmeter    int     `json:"top_submeter"`
	Submeter       string  `json:"submeter"`
	Recommendation string  `json:"recommendation"`
}

// HistoryEntry is one row of a user's history
type HistoryEntry struct {
	ID          string  `json:"id"`
	Datetime    string  `json:"datetime"`
	GRP         float64 `json:"grp"`
	GI          float64 `json:"gi"`
	SM1         float64 `json:"sm1"`
	SM2         float64 `json:"sm2"`
	SM3         float64 `json:"sm3"`
	Prediction  float64 `json:"prediction"`
	TopSubmeter int     `json:"top_submeter"`
}

// Error is the body of every error response
type Error struct {
	Code           string `json:"code"`
	Message        string `json:"message"`
	Recommendation string `json:"recommendation,omitempty"`
}

// Session is returned by a successful login
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FromResult converts a prediction result into its response view.
func FromResult(r model.PredictionResult) Prediction {
	return Prediction{
		Prediction:     r.Value,
		TopSubmeter:    int(r.TopSubmeter),
		Submeter:       r.TopSubmeter.Label(),
		Recommendation: r.Recommendation,
	}
}

// FromRecords converts history records into response rows, keeping order.
func FromRecords(records []model.HistoryRecord) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(records))
	for _, r := range records {
		out = append(out, HistoryEntry{
			ID:          r.ID,
			Datetime:    r.Timestamp.Format(DatetimeLayout),
			GRP:         r.GRP,
			GI:          r.GI,
			SM1:         r.SM1,
			SM2:         r.SM2,
			SM3:         r.SM3,
			Prediction:  r.Prediction,
			TopSubmeter: int(r.TopSubmeter),
		})
	}
	return out
}
