package model

import "time"

// Severity tags a log entry for the presentation layer
type Severity string

const (
	SeveritySystem   Severity = "system"
	SeverityError    Severity = "error"
	SeverityProgress Severity = "progress"
	SeveritySuccess  Severity = "success"
)

// LogEntry is one line of the user-facing event stream
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
}

// Outcome is the result of one faucet claim or transfer.
// Detail holds the tx hash on success and the error message otherwise.
type Outcome struct {
	Succeeded bool   `json:"succeeded"`
	Detail    string `json:"detail"`
}

// Summary is the wallet overview refreshed after every workflow step
type Summary struct {
	TotalWallets int       `json:"totalWallets"`
	TotalBalance string    `json:"totalBalance"`
	Symbol       string    `json:"symbol"`
	ActiveProxy  string    `json:"activeProxy"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
