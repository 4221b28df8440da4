package job

import (
	"time"
)

type Outcome string

const (
	OutcomeSent    Outcome = "sent"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// SkipRunCancelled marks candidates never started because the run was cancelled.
const SkipRunCancelled = "run_cancelled"

type ResultItem struct {
	SubjectID         string  `json:"subject_id"`
	UserID            string  `json:"user_id,omitempty"`
	LedgerKey         string  `json:"ledger_key,omitempty"`
	Target            string  `json:"target,omitempty"`
	Outcome           Outcome `json:"outcome"`
	SkipReason        string  `json:"skip_reason,omitempty"`
	MessageID         string  `json:"message_id,omitempty"`
	LedgerWriteFailed bool    `json:"ledger_write_failed,omitempty"`
	Error             string  `json:"error,omitempty"`
}

func Skipped(item ResultItem, reason string) ResultItem {
	item.Outcome = OutcomeSkipped
	item.SkipReason = reason
	return item
}

func Failed(item ResultItem, err error) ResultItem {
	item.Outcome = OutcomeFailed
	item.Error = err.Error()
	return item
}

type Response struct {
	RunID               string       `json:"run_id"`
	Job                 string       `json:"job"`
	Now                 time.Time    `json:"now"`
	ProcessedCount      int          `json:"processed_count"`
	SentCount           int          `json:"sent_count"`
	SkippedCount        int          `json:"skipped_count"`
	FailedCount         int          `json:"failed_count"`
	LedgerWriteFailures int          `json:"ledger_write_failures"`
	Results             []ResultItem `json:"results"`
}
