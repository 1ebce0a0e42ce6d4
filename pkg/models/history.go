package models

import "time"

// HistoryRecord is one logged question/answer exchange for a user.
// Answer holds the text surfaced to the user: the condensed summary in
// two-tier mode, the full answer in simple mode.
type HistoryRecord struct {
	Timestamp     time.Time `json:"timestamp"`
	FormattedTime string    `json:"formatted_time"`
	Question      string    `json:"question"`
	Answer        string    `json:"answer"`
}
