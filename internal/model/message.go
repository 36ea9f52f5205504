package model

import "time"

// InboundMessage is a single user prompt fetched from the chat platform.
// Immutable once fetched; consumed exactly once by the bot loop.
type InboundMessage struct {
	UpdateID int64
	ChatID   int64
	Sender   string
	Text     string
}

// Outcome labels for DeliveryRecord.
const (
	OutcomeImage   = "image"
	OutcomeQuota   = "quota"
	OutcomeFailure = "failure"
)

// DeliveryRecord describes one completed dispatch attempt: what was asked,
// how generation went, and when the reply was attempted.
type DeliveryRecord struct {
	ChatID      int64     `json:"chatId"`
	Sender      string    `json:"sender"`
	Prompt      string    `json:"prompt"`
	Outcome     string    `json:"outcome"`
	DeliveredAt time.Time `json:"deliveredAt"`
}
