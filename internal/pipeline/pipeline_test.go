package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/rahul-omni/court-scraper/internal/captcha"
	"github.com/rahul-omni/court-scraper/internal/config"
	"github.com/rahul-omni/court-scraper/internal/database"
	"github.com/rahul-omni/court-scraper/internal/driver"
	"github.com/rahul-omni/court-scraper/internal/normalize"
	"github.com/rahul-omni/court-scraper/internal/reconcile"
	"github.com/rahul-omni/court-scraper/internal/site"
	"github.com/rahul-omni/court-scraper/internal/store"
	"github.com/rahul-omni/court-scraper/pkg/logger"
)

// fakeStore is an in-memory RecordStore with an optional scripted
// insert race.
type fakeStore struct {
	records       map[string]*database.Case
	runs          []*database.ScrapeRun
	nextID        uint
	raceOnInsert  bool
	raceWinner    *database.Case
	documentsSet  map[uint]string
	pendingOrders []database.Order
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records:      make(map[string]*database.Case),
		nextID:       1,
		documentsSet: make(map[uint]string),
	}
}

func (s *fakeStore) key(k reconcile.NaturalKey) string {
	return k.DiaryNumber + "|" + k.Court + "|" + k.District
}

func (s *fakeStore) LookupByNaturalKey(k reconcile.NaturalKey) (*database.Case, error) {
	if rec, ok := s.records[s.key(k)]; ok {
		copied := *rec
		return &copied, nil
	}
	return nil, nil
}

func (s *fakeStore) Insert(record *database.Case) (uint, error) {
	if s.raceOnInsert {
		// A concurrent pipeline won the natural-key race between our
		// lookup and this insert.
		s.raceOnInsert = false
		winner := *s.raceWinner
		winner.ID = s.nextID
		s.nextID++
		s.records[s.key(reconcile.KeyOf(&winner))] = &winner
		return 0, store.ErrDuplicateKey
	}

	stored := *record
	stored.ID = s.nextID
	s.nextID++
	s.records[s.key(reconcile.KeyOf(&stored))] = &stored
	return stored.ID, nil
}

func (s *fakeStore) MergeOrders(caseID uint, merged []database.Order) error {
	for _, rec := range s.records {
		if rec.ID == caseID {
			rec.Orders = merged
		}
	}
	return nil
}

func (s *fakeStore) UpdateMetadata(caseID uint, patch map[string]interface{}) error {
	return nil
}

func (s *fakeStore) SaveRun(run *database.ScrapeRun) error {
	s.runs = append(s.runs, run)
	return nil
}

func (s *fakeStore) PendingDocuments(limit int) ([]database.Order, error) {
	return s.pendingOrders, nil
}

func (s *fakeStore) SetDocumentRef(orderID uint, ref string) error {
	s.documentsSet[orderID] = ref
	return nil
}

type fakePageState struct {
	errText string
}

func (s *fakePageState) HasErrorIndicator() bool { return s.errText != "" }
func (s *fakePageState) ErrorText() string       { return s.errText }

// fakeBrowser satisfies driver.Browser without a real browser.
type fakeBrowser struct {
	states  []*fakePageState
	submits int
}

func (b *fakeBrowser) Navigate(context.Context, string) error            { return nil }
func (b *fakeBrowser) Fill(context.Context, string, string) error        { return nil }
func (b *fakeBrowser) SelectOption(context.Context, string, string) error { return nil }
func (b *fakeBrowser) ResultHTML(context.Context) (string, error)        { return "<html></html>", nil }
func (b *fakeBrowser) Close() error                                      { return nil }

func (b *fakeBrowser) CaptureImage(context.Context) ([]byte, error) {
	return []byte("image"), nil
}

func (b *fakeBrowser) SubmitAnswer(context.Context, string) (captcha.PageState, error) {
	b.submits++
	if b.submits <= len(b.states) {
		return b.states[b.submits-1], nil
	}
	return &fakePageState{}, nil
}

func (b *fakeBrowser) Refresh(context.Context) error { return nil }

type fakeAdapter struct {
	rows        []normalize.RawRow
	validateErr error
}

func (a *fakeAdapter) Name() string                 { return "test-site" }
func (a *fakeAdapter) Court() string                { return "Test Court" }
func (a *fakeAdapter) District() string             { return "Testville" }
func (a *fakeAdapter) Selectors() driver.Selectors  { return driver.Selectors{} }
func (a *fakeAdapter) AnswerWindow() (int, int)     { return 5, 5 }
func (a *fakeAdapter) ExtraErrorKeywords() []string { return nil }

func (a *fakeAdapter) ValidateParams(site.SearchParams) error {
	return a.validateErr
}

func (a *fakeAdapter) Search(context.Context, driver.Browser, site.SearchParams) error {
	return nil
}

func (a *fakeAdapter) ExtractRows(string) ([]normalize.RawRow, error) {
	return a.rows, nil
}

type fixedOracle struct{}

func (fixedOracle) Solve(context.Context, []byte) (string, error) {
	return "ab3x9", nil
}

func newTestPipeline(s store.RecordStore) *Pipeline {
	cfg := &config.Config{
		CaptchaMaxAttempts: 3,
		UserAgent:          "test-agent",
	}
	return New(s, nil, fixedOracle{}, cfg, logger.NewNop())
}

func TestRunCompletedWithPartialFailures(t *testing.T) {
	s := newFakeStore()
	p := newTestPipeline(s)

	adapter := &fakeAdapter{rows: []normalize.RawRow{
		{normalize.KeySerial: "1", normalize.KeyCase: "CA/123/2020", normalize.KeyParty: "Ram Vs Shyam"},
		{normalize.KeySerial: "Serial Number"}, // header echo
		{normalize.KeySerial: "2", normalize.KeyCase: "CA/123/2020", normalize.KeyParty: "Ram Vs Shyam",
			normalize.KeyOrderType: "JUDGEMENT", normalize.KeyDate: "15-03-2021"},
	}}

	summary := p.Run(context.Background(), adapter, &fakeBrowser{states: []*fakePageState{{}}}, site.SearchParams{})

	if summary.Status != StatusCompleted {
		t.Fatalf("Status = %s, want %s (error: %s)", summary.Status, StatusCompleted, summary.Error)
	}
	if summary.RowsSeen != 3 {
		t.Errorf("RowsSeen = %d, want 3", summary.RowsSeen)
	}
	if summary.RowsAccepted != 2 {
		t.Errorf("RowsAccepted = %d, want 2", summary.RowsAccepted)
	}
	if summary.RowsRejected != 1 {
		t.Errorf("RowsRejected = %d, want 1", summary.RowsRejected)
	}
	if summary.RecordsInserted != 1 {
		t.Errorf("RecordsInserted = %d, want 1", summary.RecordsInserted)
	}
	if summary.RecordsMerged != 1 {
		t.Errorf("RecordsMerged = %d, want 1", summary.RecordsMerged)
	}
	if len(s.runs) != 1 {
		t.Fatalf("Expected 1 persisted run, got %d", len(s.runs))
	}
	if s.runs[0].Status != string(StatusCompleted) {
		t.Errorf("Persisted run status = %s", s.runs[0].Status)
	}
}

func TestRunRerunIsNoOp(t *testing.T) {
	s := newFakeStore()
	p := newTestPipeline(s)

	adapter := &fakeAdapter{rows: []normalize.RawRow{
		{normalize.KeySerial: "1", normalize.KeyCase: "CA/123/2020", normalize.KeyParty: "Ram Vs Shyam",
			normalize.KeyOrderType: "JUDGEMENT", normalize.KeyDate: "15-03-2021"},
	}}

	first := p.Run(context.Background(), adapter, &fakeBrowser{states: []*fakePageState{{}}}, site.SearchParams{})
	if first.RecordsInserted != 1 || first.OrdersAdded != 1 {
		t.Fatalf("First run: inserted=%d orders=%d", first.RecordsInserted, first.OrdersAdded)
	}

	second := p.Run(context.Background(), adapter, &fakeBrowser{states: []*fakePageState{{}}}, site.SearchParams{})
	if second.RecordsMerged != 1 {
		t.Errorf("Second run should merge, merged=%d", second.RecordsMerged)
	}
	if second.OrdersAdded != 0 {
		t.Errorf("Second run should add no orders, added=%d", second.OrdersAdded)
	}
}

func TestRunCaptchaExhausted(t *testing.T) {
	s := newFakeStore()
	p := newTestPipeline(s)

	browser := &fakeBrowser{states: []*fakePageState{
		{errText: "Invalid Captcha"},
		{errText: "Invalid Captcha"},
		{errText: "Invalid Captcha"},
	}}

	summary := p.Run(context.Background(), &fakeAdapter{}, browser, site.SearchParams{})
	if summary.Status != StatusCaptchaExhausted {
		t.Fatalf("Status = %s, want %s", summary.Status, StatusCaptchaExhausted)
	}
}

func TestRunNoRecordsFound(t *testing.T) {
	s := newFakeStore()
	p := newTestPipeline(s)

	browser := &fakeBrowser{states: []*fakePageState{
		{errText: "No records found for the given criteria"},
	}}

	summary := p.Run(context.Background(), &fakeAdapter{}, browser, site.SearchParams{})
	if summary.Status != StatusNoRecordsFound {
		t.Fatalf("Status = %s, want %s", summary.Status, StatusNoRecordsFound)
	}
}

func TestRunSiteFailureIsNotNoRecords(t *testing.T) {
	s := newFakeStore()
	p := newTestPipeline(s)

	browser := &fakeBrowser{states: []*fakePageState{
		{errText: "Internal server error"},
	}}

	summary := p.Run(context.Background(), &fakeAdapter{}, browser, site.SearchParams{})
	if summary.Status != StatusFailed {
		t.Fatalf("Status = %s, want %s", summary.Status, StatusFailed)
	}
}

func TestRunDuplicateKeyRetriedAsMerge(t *testing.T) {
	s := newFakeStore()
	s.raceOnInsert = true
	s.raceWinner = &database.Case{
		DiaryNumber: "123/2020",
		CaseType:    "CA",
		Court:       "Test Court",
		District:    "Testville",
		Petitioner:  "Ram",
		Orders:      []database.Order{{SourceURL: "url1"}},
	}
	p := newTestPipeline(s)

	adapter := &fakeAdapter{rows: []normalize.RawRow{
		{normalize.KeySerial: "1", normalize.KeyCase: "CA/123/2020", normalize.KeyParty: "Ram Vs Shyam",
			normalize.KeyDocumentURL: "url2", normalize.KeyOrderType: "JUDGEMENT", normalize.KeyDate: "15-03-2021"},
	}}

	summary := p.Run(context.Background(), adapter, &fakeBrowser{states: []*fakePageState{{}}}, site.SearchParams{})

	if summary.Status != StatusCompleted {
		t.Fatalf("Status = %s (error: %s)", summary.Status, summary.Error)
	}
	if summary.RecordsInserted != 0 {
		t.Errorf("RecordsInserted = %d, want 0", summary.RecordsInserted)
	}
	if summary.RecordsMerged != 1 {
		t.Errorf("RecordsMerged = %d, want 1", summary.RecordsMerged)
	}
	if summary.OrdersAdded != 1 {
		t.Errorf("OrdersAdded = %d, want 1", summary.OrdersAdded)
	}

	stored := s.records["123/2020|Test Court|Testville"]
	if stored == nil {
		t.Fatal("Record missing after merge")
	}
	if len(stored.Orders) != 2 {
		t.Errorf("Expected 2 orders after race recovery, got %d", len(stored.Orders))
	}
}

func TestRunAbortedByCancellation(t *testing.T) {
	s := newFakeStore()
	p := newTestPipeline(s)

	adapter := &fakeAdapter{rows: []normalize.RawRow{
		{normalize.KeySerial: "1", normalize.KeyCase: "CA/123/2020", normalize.KeyParty: "Ram Vs Shyam"},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The in-flight CAPTCHA attempt completes; the run aborts at the
	// first row boundary.
	summary := p.Run(ctx, adapter, &fakeBrowser{states: []*fakePageState{{}}}, site.SearchParams{})
	if summary.Status != StatusAborted {
		t.Fatalf("Status = %s, want %s", summary.Status, StatusAborted)
	}
	if summary.RowsSeen != 0 {
		t.Errorf("RowsSeen = %d, want 0", summary.RowsSeen)
	}
}

func TestRunRejectsInvalidParams(t *testing.T) {
	s := newFakeStore()
	p := newTestPipeline(s)

	adapter := &fakeAdapter{validateErr: errInvalidParams}
	summary := p.Run(context.Background(), adapter, &fakeBrowser{}, site.SearchParams{})
	if summary.Status != StatusFailed {
		t.Fatalf("Status = %s, want %s", summary.Status, StatusFailed)
	}
	if summary.Error == "" {
		t.Error("Expected a validation error in the summary")
	}
}

var errInvalidParams = &paramError{}

type paramError struct{}

func (*paramError) Error() string { return "case number is required" }

func TestRunSummaryTimestamps(t *testing.T) {
	s := newFakeStore()
	p := newTestPipeline(s)

	before := time.Now()
	summary := p.Run(context.Background(), &fakeAdapter{}, &fakeBrowser{states: []*fakePageState{{}}}, site.SearchParams{})
	after := time.Now()

	if summary.StartedAt.Before(before) || summary.FinishedAt.After(after) {
		t.Error("Summary timestamps outside run window")
	}
	if summary.RunID == "" {
		t.Error("Expected a run id")
	}
}
