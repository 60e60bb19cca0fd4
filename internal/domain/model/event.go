package model

import (
	"time"

	"github.com/okian/wattcast/internal/domain/reading"
)

// Interfaces a prediction can arrive through.
const (
	InterfacePrimary = "primary"
	InterfaceLegacy  = "legacy"
)

// PredictionEvent is published for every successful prediction.
// Fields mirror the JSON payload written to the event sink.
type PredictionEvent struct {
	ID          string             `json:"id"`
	User        string             `json:"user,omitempty"`
	Interface   string             `json:"interface"`
	Timestamp   time.Time          `json:"timestamp"`
	Inputs      reading.ReadingSet `json:"inputs"`
	Voltage     float64            `json:"voltage"`
	Prediction  float64            `json:"prediction"`
	TopSubmeter int                `json:"top_submeter"`
}

// ContactMessage is a contact form submission.
type ContactMessage struct {
	User       string
	Name       string
	Email      string
	Message    string
	ReceivedAt time.Time
}
