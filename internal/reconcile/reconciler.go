// Package reconcile decides whether a freshly scraped case record is
// new or an update to a stored one, and computes the exact write to
// apply. It performs no I/O; the store lookup is injected, so the
// decision engine stays pure and re-running the same scrape is a
// no-op merge.
package reconcile

import (
	"errors"
	"fmt"

	"github.com/rahul-omni/court-scraper/internal/database"
)

// NaturalKey identifies one case across independent scrapes.
// DiaryNumber and Court are mandatory; CaseType is preferred but a
// lookup must still locate the case without it, since case type is
// sometimes unavailable at scrape time.
type NaturalKey struct {
	DiaryNumber string
	CaseType    string
	Court       string
	District    string
}

// KeyOf computes the natural key of a case.
func KeyOf(c *database.Case) NaturalKey {
	return NaturalKey{
		DiaryNumber: c.DiaryNumber,
		CaseType:    c.CaseType,
		Court:       c.Court,
		District:    c.District,
	}
}

// LookupFunc resolves a natural key against the store. A nil case
// with a nil error means "not found".
type LookupFunc func(key NaturalKey) (*database.Case, error)

// ErrMissingIdentity means the candidate has no usable natural key
// and must not be written; guessing would corrupt the store.
var ErrMissingIdentity = errors.New("record has no usable natural key")

// ActionKind is the write the reconciler decided on.
type ActionKind int

const (
	ActionInsert ActionKind = iota
	ActionMerge
)

func (k ActionKind) String() string {
	if k == ActionInsert {
		return "insert"
	}
	return "merge"
}

// Action is the computed write. For ActionInsert, Candidate is the
// full payload (orders already deduplicated). For ActionMerge,
// Existing is the stored record, MergedOrders the complete order set
// to persist, and MetadataPatch the scalar columns to fill in.
type Action struct {
	Kind          ActionKind
	Candidate     *database.Case
	Existing      *database.Case
	MergedOrders  []database.Order
	MetadataPatch map[string]interface{}
	OrdersAdded   int
}

// IdentityKey is an order's de-duplication key within its case: the
// document's stable reference when one exists, else a composite of
// order type and judgment date.
func IdentityKey(o *database.Order) string {
	if o.SourceURL != "" {
		return o.SourceURL
	}
	if o.DocumentRef != "" {
		return o.DocumentRef
	}
	return o.OrderType + "|" + o.JudgmentDate.Format("2006-01-02")
}

// Reconcile decides insert vs merge for one candidate record.
func Reconcile(candidate *database.Case, lookup LookupFunc) (*Action, error) {
	if candidate.DiaryNumber == "" || candidate.Court == "" {
		return nil, fmt.Errorf("%w: diary_number=%q court=%q",
			ErrMissingIdentity, candidate.DiaryNumber, candidate.Court)
	}

	existing, err := lookup(KeyOf(candidate))
	if err != nil {
		return nil, fmt.Errorf("natural key lookup failed: %w", err)
	}

	if existing == nil {
		insert := *candidate
		insert.Orders = dedupeOrders(candidate.Orders)
		return &Action{
			Kind:        ActionInsert,
			Candidate:   &insert,
			OrdersAdded: len(insert.Orders),
		}, nil
	}

	merged, added := mergeOrders(existing.Orders, candidate.Orders)
	return &Action{
		Kind:          ActionMerge,
		Candidate:     candidate,
		Existing:      existing,
		MergedOrders:  merged,
		MetadataPatch: metadataPatch(existing, candidate),
		OrdersAdded:   added,
	}, nil
}

// mergeOrders preserves every existing order and appends candidate
// orders whose identity key is not already present.
func mergeOrders(existing, candidate []database.Order) ([]database.Order, int) {
	merged := make([]database.Order, 0, len(existing)+len(candidate))
	seen := make(map[string]struct{}, len(existing))

	for _, o := range existing {
		merged = append(merged, o)
		seen[IdentityKey(&o)] = struct{}{}
	}

	added := 0
	for _, o := range candidate {
		key := IdentityKey(&o)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, o)
		added++
	}
	return merged, added
}

func dedupeOrders(orders []database.Order) []database.Order {
	deduped, _ := mergeOrders(nil, orders)
	return deduped
}

// metadataPatch fills stored scalar fields that are currently empty.
// Non-empty stored metadata is never overwritten: a later scrape may
// be less complete than the one that wrote it.
func metadataPatch(existing, candidate *database.Case) map[string]interface{} {
	patch := make(map[string]interface{})
	fill := func(column, existingVal, candidateVal string) {
		if existingVal == "" && candidateVal != "" {
			patch[column] = candidateVal
		}
	}

	fill("case_type", existing.CaseType, candidate.CaseType)
	fill("case_number", existing.CaseNumber, candidate.CaseNumber)
	fill("case_year", existing.CaseYear, candidate.CaseYear)
	fill("petitioner", existing.Petitioner, candidate.Petitioner)
	fill("respondent", existing.Respondent, candidate.Respondent)
	fill("advocates", existing.Advocates, candidate.Advocates)
	fill("bench", existing.Bench, candidate.Bench)
	fill("judgment_by", existing.JudgmentBy, candidate.JudgmentBy)
	return patch
}
