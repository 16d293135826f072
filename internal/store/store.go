// Package store persists case records behind the reconciler's lookup
// and write contracts. The natural-key read is cached; every write
// invalidates its key so repeated pipeline runs see their own writes.
package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/rahul-omni/court-scraper/internal/database"
	"github.com/rahul-omni/court-scraper/internal/reconcile"
)

// ErrDuplicateKey means a concurrent insert won the natural-key race.
// Callers recover by re-running the reconcile as a merge.
var ErrDuplicateKey = errors.New("duplicate natural key")

// RecordStore is the persistence surface the pipeline depends on.
type RecordStore interface {
	LookupByNaturalKey(key reconcile.NaturalKey) (*database.Case, error)
	Insert(record *database.Case) (uint, error)
	MergeOrders(caseID uint, merged []database.Order) error
	UpdateMetadata(caseID uint, patch map[string]interface{}) error
	SaveRun(run *database.ScrapeRun) error
	PendingDocuments(limit int) ([]database.Order, error)
	SetDocumentRef(orderID uint, ref string) error
}

// GormStore is the sqlite-backed RecordStore.
type GormStore struct {
	db    *gorm.DB
	cache *lookupCache
}

func NewGormStore(db *gorm.DB, cacheTTL time.Duration) *GormStore {
	return &GormStore{
		db:    db,
		cache: newLookupCache(cacheTTL),
	}
}

// LookupByNaturalKey finds the case for a natural key. When the key
// carries a case type, a stored record with a matching or still-empty
// case type is accepted; when it does not, the lookup degrades to
// (diary, court, district) so a type-less scrape still reconciles
// into the same case.
func (s *GormStore) LookupByNaturalKey(key reconcile.NaturalKey) (*database.Case, error) {
	// The cache is keyed without case type; re-apply the type filter on
	// hits so a typed lookup cannot ride a degraded entry past it.
	if record, found := s.cache.get(key); found {
		if key.CaseType == "" || record.CaseType == "" || record.CaseType == key.CaseType {
			return record, nil
		}
	}

	query := s.db.Preload("Orders").
		Where("diary_number = ? AND court = ? AND district = ?",
			key.DiaryNumber, key.Court, key.District)
	if key.CaseType != "" {
		query = query.Where("case_type = ? OR case_type = ''", key.CaseType)
	}

	var record database.Case
	err := query.First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up case: %w", err)
	}

	s.cache.set(key, &record)
	return &record, nil
}

// Insert creates a new case with its initial order set. A losing
// concurrent insert surfaces as ErrDuplicateKey via the unique
// natural-key index.
func (s *GormStore) Insert(record *database.Case) (uint, error) {
	err := s.db.Create(record).Error
	if err != nil {
		if isDuplicateKeyError(err) {
			return 0, fmt.Errorf("%w: %s/%s", ErrDuplicateKey, record.DiaryNumber, record.Court)
		}
		return 0, fmt.Errorf("failed to insert case: %w", err)
	}

	s.cache.invalidate(reconcile.KeyOf(record))
	return record.ID, nil
}

// MergeOrders persists the merged order set. Existing entries already
// carry row IDs and are left untouched; only the genuinely new ones
// (zero ID) are written. Orders are append-only.
func (s *GormStore) MergeOrders(caseID uint, merged []database.Order) error {
	newOrders := make([]database.Order, 0)
	for _, o := range merged {
		if o.ID == 0 {
			o.CaseID = caseID
			newOrders = append(newOrders, o)
		}
	}
	if len(newOrders) == 0 {
		return nil
	}

	if err := s.db.Create(&newOrders).Error; err != nil {
		return fmt.Errorf("failed to merge orders: %w", err)
	}

	s.invalidateCase(caseID)
	return nil
}

// UpdateMetadata applies a fill-only-empty scalar patch computed by
// the reconciler.
func (s *GormStore) UpdateMetadata(caseID uint, patch map[string]interface{}) error {
	if len(patch) == 0 {
		return nil
	}
	if err := s.db.Model(&database.Case{}).Where("id = ?", caseID).Updates(patch).Error; err != nil {
		return fmt.Errorf("failed to update case metadata: %w", err)
	}

	s.invalidateCase(caseID)
	return nil
}

// SaveRun persists or updates a scrape-run summary row.
func (s *GormStore) SaveRun(run *database.ScrapeRun) error {
	if err := s.db.Save(run).Error; err != nil {
		return fmt.Errorf("failed to save scrape run: %w", err)
	}
	return nil
}

// GetCase returns one case with its orders preloaded.
func (s *GormStore) GetCase(id uint) (*database.Case, error) {
	var record database.Case
	if err := s.db.Preload("Orders").First(&record, id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// ListCases returns recently scraped cases, newest first.
func (s *GormStore) ListCases(limit int) ([]database.Case, error) {
	var records []database.Case
	err := s.db.Preload("Orders").Order("updated_at DESC").Limit(limit).Find(&records).Error
	return records, err
}

// ListRuns returns recent scrape runs, newest first.
func (s *GormStore) ListRuns(limit int) ([]database.ScrapeRun, error) {
	var runs []database.ScrapeRun
	err := s.db.Order("started_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

// PendingDocuments returns orders whose document was never uploaded,
// for the backfill pass.
func (s *GormStore) PendingDocuments(limit int) ([]database.Order, error) {
	var orders []database.Order
	err := s.db.Where("source_url != ? AND document_ref = ?", "", "").
		Limit(limit).Find(&orders).Error
	return orders, err
}

// SetDocumentRef patches an order with its blob reference after a
// successful upload.
func (s *GormStore) SetDocumentRef(orderID uint, ref string) error {
	if err := s.db.Model(&database.Order{}).Where("id = ?", orderID).
		Update("document_ref", ref).Error; err != nil {
		return fmt.Errorf("failed to set document ref: %w", err)
	}
	return nil
}

// Stats reports lookup-cache statistics.
func (s *GormStore) Stats() CacheStats {
	return s.cache.statsSnapshot()
}

func (s *GormStore) invalidateCase(caseID uint) {
	var record database.Case
	if err := s.db.First(&record, caseID).Error; err == nil {
		s.cache.invalidate(reconcile.KeyOf(&record))
	}
}

func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// The sqlite driver does not always translate constraint errors.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
