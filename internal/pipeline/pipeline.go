// Package pipeline sequences one scrape end to end: search, CAPTCHA
// resolution, row extraction, normalization, reconciliation, store
// writes. A single bad row is skipped; CAPTCHA exhaustion and
// site-level "no records" abort the run with distinct statuses.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rahul-omni/court-scraper/internal/blob"
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

// Pipeline owns the shared collaborators; one Pipeline serves many
// runs. Independent runs against different sites may execute
// concurrently, each with its own browser session; they share only
// the store, which rejects natural-key insert races.
type Pipeline struct {
	store     store.RecordStore
	blobStore blob.Store
	oracle    captcha.Oracle
	cfg       *config.Config
	logger    *logger.Logger
	docClient *http.Client
}

func New(recordStore store.RecordStore, blobStore blob.Store, oracle captcha.Oracle, cfg *config.Config, log *logger.Logger) *Pipeline {
	return &Pipeline{
		store:     recordStore,
		blobStore: blobStore,
		oracle:    oracle,
		cfg:       cfg,
		logger:    log,
		docClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Run executes one scrape against an adapter using an open browser
// session and returns the structured summary. The summary is also
// persisted as a ScrapeRun row.
func (p *Pipeline) Run(ctx context.Context, adapter site.Adapter, b driver.Browser, params site.SearchParams) *Summary {
	summary := &Summary{
		RunID:     uuid.NewString(),
		Site:      adapter.Name(),
		StartedAt: time.Now(),
	}
	defer func() {
		summary.FinishedAt = time.Now()
		if err := p.store.SaveRun(summary.toRun(params)); err != nil {
			p.logger.Error("failed to persist run summary", "run_id", summary.RunID, "error", err)
		}
		p.logger.Info("run finished",
			"run_id", summary.RunID,
			"site", summary.Site,
			"status", string(summary.Status),
			"rows_seen", summary.RowsSeen,
			"rows_accepted", summary.RowsAccepted,
			"rows_rejected", summary.RowsRejected,
			"records_inserted", summary.RecordsInserted,
			"records_merged", summary.RecordsMerged,
			"orders_added", summary.OrdersAdded,
		)
	}()

	if err := adapter.ValidateParams(params); err != nil {
		summary.Status = StatusFailed
		summary.Error = err.Error()
		return summary
	}

	if err := adapter.Search(ctx, b, params); err != nil {
		summary.Status = StatusFailed
		summary.Error = fmt.Sprintf("search failed: %v", err)
		return summary
	}

	classifier := captcha.NewClassifier(adapter.ExtraErrorKeywords()...)
	minLen, maxLen := adapter.AnswerWindow()
	solver := captcha.NewSolver(p.oracle, classifier, captcha.Policy{
		MaxAttempts:  p.cfg.CaptchaMaxAttempts,
		AttemptDelay: p.cfg.CaptchaAttemptDelay,
		MinAnswerLen: minLen,
		MaxAnswerLen: maxLen,
	}, p.logger)

	if _, err := solver.Resolve(ctx, b); err != nil {
		p.finishAfterSolve(summary, classifier, err)
		return summary
	}

	html, err := b.ResultHTML(ctx)
	if err != nil {
		summary.Status = StatusFailed
		summary.Error = fmt.Sprintf("failed to read results: %v", err)
		return summary
	}

	rows, err := adapter.ExtractRows(html)
	if err != nil {
		summary.Status = StatusFailed
		summary.Error = fmt.Sprintf("failed to extract rows: %v", err)
		return summary
	}

	rowCtx := normalize.RowContext{
		Court:     adapter.Court(),
		District:  adapter.District(),
		ScrapedAt: summary.StartedAt,
	}

	for _, row := range rows {
		// Cancellation is honored at row boundaries only; whatever
		// was in flight has already been committed or skipped.
		if ctx.Err() != nil {
			summary.Status = StatusAborted
			summary.Error = ctx.Err().Error()
			return summary
		}

		summary.RowsSeen++
		record, err := normalize.Normalize(row, rowCtx)
		if err != nil {
			summary.RowsRejected++
			p.logger.Debug("row rejected", "run_id", summary.RunID, "error", err)
			continue
		}
		p.attachDocument(ctx, adapter.Name(), record)

		if err := p.apply(summary, record); err != nil {
			summary.RowsRejected++
			p.logger.Warn("failed to apply record",
				"run_id", summary.RunID, "diary", record.Case.DiaryNumber, "error", err)
			continue
		}
		summary.RowsAccepted++
	}

	summary.Status = StatusCompleted
	return summary
}

// finishAfterSolve maps a solver failure to the run's terminal status.
func (p *Pipeline) finishAfterSolve(summary *Summary, classifier *captcha.Classifier, err error) {
	var siteErr *captcha.SiteError
	switch {
	case errors.As(err, &siteErr):
		if classifier.IsNoRecords(siteErr.Text) {
			summary.Status = StatusNoRecordsFound
		} else {
			summary.Status = StatusFailed
		}
		summary.Error = siteErr.Text
	case errors.Is(err, captcha.ErrExhausted):
		summary.Status = StatusCaptchaExhausted
		summary.Error = err.Error()
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		summary.Status = StatusAborted
		summary.Error = err.Error()
	default:
		summary.Status = StatusFailed
		summary.Error = err.Error()
	}
}

// apply reconciles one record and performs the resulting write. An
// insert that loses a concurrent natural-key race is re-run as a
// merge against the record that won.
func (p *Pipeline) apply(summary *Summary, record *normalize.Record) error {
	lookup := func(key reconcile.NaturalKey) (*database.Case, error) {
		return p.store.LookupByNaturalKey(key)
	}

	action, err := reconcile.Reconcile(&record.Case, lookup)
	if err != nil {
		return err
	}

	if action.Kind == reconcile.ActionInsert {
		if _, err := p.store.Insert(action.Candidate); err != nil {
			if !errors.Is(err, store.ErrDuplicateKey) {
				return err
			}
			// Lost the insert race; the key exists now, so the same
			// reconcile yields a merge.
			action, err = reconcile.Reconcile(&record.Case, lookup)
			if err != nil {
				return err
			}
			if action.Kind != reconcile.ActionMerge {
				return fmt.Errorf("duplicate key but no existing record found")
			}
		} else {
			summary.RecordsInserted++
			summary.OrdersAdded += action.OrdersAdded
			return nil
		}
	}

	if err := p.store.MergeOrders(action.Existing.ID, action.MergedOrders); err != nil {
		return err
	}
	if err := p.store.UpdateMetadata(action.Existing.ID, action.MetadataPatch); err != nil {
		return err
	}
	summary.RecordsMerged++
	summary.OrdersAdded += action.OrdersAdded
	return nil
}

// attachDocument downloads the row's linked document and uploads it
// to the blob store. Failure is never fatal: the order is recorded
// with an empty ref and backfilled on a later run.
func (p *Pipeline) attachDocument(ctx context.Context, siteName string, record *normalize.Record) {
	if record.Order == nil || record.Order.SourceURL == "" || p.blobStore == nil {
		return
	}

	data, err := p.fetchDocument(ctx, record.Order.SourceURL)
	if err != nil {
		p.logger.Warn("document download failed",
			"url", record.Order.SourceURL, "error", err)
		return
	}

	ref, err := p.blobStore.Upload(ctx, data, documentPath(siteName, record.Order.SourceURL))
	if err != nil {
		p.logger.Warn("document upload failed",
			"url", record.Order.SourceURL, "error", err)
		return
	}

	record.Order.DocumentRef = ref
	for i := range record.Case.Orders {
		if record.Case.Orders[i].SourceURL == record.Order.SourceURL {
			record.Case.Orders[i].DocumentRef = ref
		}
	}
}

func (p *Pipeline) fetchDocument(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)

	resp, err := p.docClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func documentPath(siteName, sourceURL string) string {
	now := time.Now()
	name := path.Base(strings.Split(sourceURL, "?")[0])
	if name == "" || name == "." || name == "/" {
		name = uuid.NewString() + ".pdf"
	}
	return fmt.Sprintf("%s/%d/%02d/%s", siteName, now.Year(), int(now.Month()), name)
}
