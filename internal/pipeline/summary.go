package pipeline

import (
	"time"

	"github.com/rahul-omni/court-scraper/internal/database"
	"github.com/rahul-omni/court-scraper/internal/site"
)

// Status is the terminal condition of one run. The distinction
// between NoRecordsFound and CaptchaExhausted matters to callers:
// "nothing to scrape" is not "could not get past the CAPTCHA".
type Status string

const (
	StatusCompleted        Status = "completed"
	StatusNoRecordsFound   Status = "no_records_found"
	StatusCaptchaExhausted Status = "captcha_exhausted"
	StatusAborted          Status = "aborted_by_cancellation"
	StatusFailed           Status = "failed"
)

// Summary is the structured result of one run. Every error in the
// taxonomy ends up here; none of them crashes the process.
type Summary struct {
	RunID           string    `json:"run_id"`
	Site            string    `json:"site"`
	Status          Status    `json:"status"`
	RowsSeen        int       `json:"rows_seen"`
	RowsAccepted    int       `json:"rows_accepted"`
	RowsRejected    int       `json:"rows_rejected"`
	RecordsInserted int       `json:"records_inserted"`
	RecordsMerged   int       `json:"records_merged"`
	OrdersAdded     int       `json:"orders_added"`
	Error           string    `json:"error,omitempty"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
}

func (s *Summary) toRun(params site.SearchParams) *database.ScrapeRun {
	return &database.ScrapeRun{
		RunID:           s.RunID,
		Site:            s.Site,
		CaseType:        params.CaseType,
		CaseNumber:      params.CaseNumber,
		FilingYear:      params.FilingYear,
		ListingDate:     params.ListingDate,
		StartedAt:       s.StartedAt,
		FinishedAt:      s.FinishedAt,
		Status:          string(s.Status),
		RowsSeen:        s.RowsSeen,
		RowsAccepted:    s.RowsAccepted,
		RowsRejected:    s.RowsRejected,
		RecordsInserted: s.RecordsInserted,
		RecordsMerged:   s.RecordsMerged,
		OrdersAdded:     s.OrdersAdded,
		ErrorMessage:    s.Error,
	}
}
