package http

import (
	"time"

	"github.com/sawpanic/perfstore/internal/report"
)

// ErrorResponse is the body of every non-2xx API reply
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Code      string    `json:"code"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// DayResponse wraps a single day report
type DayResponse struct {
	Generated time.Time        `json:"generated"`
	Report    report.DayReport `json:"report"`
}

// RangeResponse wraps consecutive day reports, oldest first
type RangeResponse struct {
	Generated time.Time          `json:"generated"`
	Category  string             `json:"category"`
	Days      int                `json:"days"`
	Reports   []report.DayReport `json:"reports"`
}

// LiveFrame is pushed to live websocket clients once per interval
type LiveFrame struct {
	Timestamp time.Time           `json:"timestamp"`
	Category  string              `json:"category"`
	Minute    report.MinuteReport `json:"minute"`
}
