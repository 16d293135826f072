package database

import (
	"time"

	"gorm.io/gorm"
)

// Case is one judicial matter, identified across scrapes by its
// natural key (diary number, case type, court, district).
type Case struct {
	gorm.Model
	DiaryNumber string    `json:"diary_number" gorm:"index"`
	CaseType    string    `json:"case_type"`
	Court       string    `json:"court" gorm:"index"`
	District    string    `json:"district"`
	CaseNumber  string    `json:"case_number"`
	CaseYear    string    `json:"case_year"`
	Petitioner  string    `json:"petitioner"`
	Respondent  string    `json:"respondent"`
	Advocates   string    `json:"advocates"`
	Bench       string    `json:"bench"`
	JudgmentBy  string    `json:"judgment_by"`
	ScrapedAt   time.Time `json:"scraped_at"`
	Orders      []Order   `json:"orders" gorm:"foreignKey:CaseID"`
}

// Order is one judgment/order/notice document attached to a case.
// SourceURL is the portal link the document was discovered under;
// DocumentRef points into the blob store and stays empty until the
// document has been uploaded.
type Order struct {
	gorm.Model
	CaseID       uint      `json:"case_id"`
	JudgmentDate time.Time `json:"judgment_date"`
	OrderType    string    `json:"order_type"`
	SourceURL    string    `json:"source_url"`
	DocumentRef  string    `json:"document_ref"`
}

// ScrapeRun is the persisted summary of one pipeline run.
type ScrapeRun struct {
	gorm.Model
	RunID           string    `json:"run_id" gorm:"index"`
	Site            string    `json:"site"`
	CaseType        string    `json:"case_type"`
	CaseNumber      string    `json:"case_number"`
	FilingYear      string    `json:"filing_year"`
	ListingDate     string    `json:"listing_date"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	Status          string    `json:"status"`
	RowsSeen        int       `json:"rows_seen"`
	RowsAccepted    int       `json:"rows_accepted"`
	RowsRejected    int       `json:"rows_rejected"`
	RecordsInserted int       `json:"records_inserted"`
	RecordsMerged   int       `json:"records_merged"`
	OrdersAdded     int       `json:"orders_added"`
	ErrorMessage    string    `json:"error_message"`
}

func (Case) TableName() string {
	return "cases"
}

func (Order) TableName() string {
	return "orders"
}

func (ScrapeRun) TableName() string {
	return "scrape_runs"
}
