package reconcile

import (
	"errors"
	"testing"
	"time"

	"github.com/rahul-omni/court-scraper/internal/database"
)

// memoryLookup simulates the store for the pure reconciler: one
// record per natural key, writes applied the way the store would.
type memoryLookup struct {
	records map[string]*database.Case
	nextID  uint
}

func newMemoryLookup() *memoryLookup {
	return &memoryLookup{records: make(map[string]*database.Case), nextID: 1}
}

func (m *memoryLookup) key(k NaturalKey) string {
	return k.DiaryNumber + "|" + k.Court + "|" + k.District
}

func (m *memoryLookup) lookup(k NaturalKey) (*database.Case, error) {
	if rec, ok := m.records[m.key(k)]; ok {
		copied := *rec
		return &copied, nil
	}
	return nil, nil
}

func (m *memoryLookup) applyAction(a *Action) {
	switch a.Kind {
	case ActionInsert:
		rec := *a.Candidate
		rec.ID = m.nextID
		m.nextID++
		m.records[m.key(KeyOf(&rec))] = &rec
	case ActionMerge:
		stored := m.records[m.key(KeyOf(a.Existing))]
		stored.Orders = a.MergedOrders
		for col, val := range a.MetadataPatch {
			switch col {
			case "case_type":
				stored.CaseType = val.(string)
			case "petitioner":
				stored.Petitioner = val.(string)
			case "respondent":
				stored.Respondent = val.(string)
			case "bench":
				stored.Bench = val.(string)
			}
		}
	}
}

func candidateCase(orders ...database.Order) *database.Case {
	return &database.Case{
		DiaryNumber: "123/2020",
		CaseType:    "CA",
		Court:       "Delhi High Court",
		District:    "New Delhi",
		Petitioner:  "Ram",
		Respondent:  "Shyam",
		Orders:      orders,
	}
}

func TestReconcileInsertWhenAbsent(t *testing.T) {
	m := newMemoryLookup()
	action, err := Reconcile(candidateCase(database.Order{SourceURL: "url1"}), m.lookup)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if action.Kind != ActionInsert {
		t.Fatalf("Expected insert, got %s", action.Kind)
	}
	if action.OrdersAdded != 1 {
		t.Errorf("OrdersAdded = %d, want 1", action.OrdersAdded)
	}
}

func TestReconcileIdempotentMerge(t *testing.T) {
	m := newMemoryLookup()
	candidate := candidateCase(
		database.Order{SourceURL: "url1"},
		database.Order{SourceURL: "url2"},
	)

	first, err := Reconcile(candidate, m.lookup)
	if err != nil {
		t.Fatalf("First reconcile failed: %v", err)
	}
	m.applyAction(first)

	second, err := Reconcile(candidate, m.lookup)
	if err != nil {
		t.Fatalf("Second reconcile failed: %v", err)
	}
	if second.Kind != ActionMerge {
		t.Fatalf("Expected merge on second pass, got %s", second.Kind)
	}
	if second.OrdersAdded != 0 {
		t.Errorf("Second application should add no orders, added %d", second.OrdersAdded)
	}
	if len(second.MergedOrders) != 2 {
		t.Errorf("Order set grew on reapply: %d orders", len(second.MergedOrders))
	}
	m.applyAction(second)

	third, _ := Reconcile(candidate, m.lookup)
	if len(third.MergedOrders) != 2 {
		t.Errorf("Order set not stable across repeated applications: %d", len(third.MergedOrders))
	}
}

func TestReconcileMergesNewOrdersOnly(t *testing.T) {
	m := newMemoryLookup()
	first, _ := Reconcile(candidateCase(database.Order{SourceURL: "url1"}), m.lookup)
	m.applyAction(first)

	action, err := Reconcile(candidateCase(
		database.Order{SourceURL: "url1"},
		database.Order{SourceURL: "url2"},
	), m.lookup)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if len(action.MergedOrders) != 2 {
		t.Fatalf("Expected 2 merged orders, got %d", len(action.MergedOrders))
	}
	if action.OrdersAdded != 1 {
		t.Errorf("OrdersAdded = %d, want 1", action.OrdersAdded)
	}

	// No duplicate identity keys in the merged result.
	seen := map[string]bool{}
	for i := range action.MergedOrders {
		key := IdentityKey(&action.MergedOrders[i])
		if seen[key] {
			t.Errorf("Duplicate identity key %q in merged orders", key)
		}
		seen[key] = true
	}
}

func TestReconcileCompositeIdentityKey(t *testing.T) {
	date := time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC)
	m := newMemoryLookup()
	first, _ := Reconcile(candidateCase(
		database.Order{OrderType: "NOTICE", JudgmentDate: date},
	), m.lookup)
	m.applyAction(first)

	// Same type+date without a URL is the same document.
	action, _ := Reconcile(candidateCase(
		database.Order{OrderType: "NOTICE", JudgmentDate: date},
		database.Order{OrderType: "JUDGEMENT", JudgmentDate: date},
	), m.lookup)
	if action.OrdersAdded != 1 {
		t.Errorf("OrdersAdded = %d, want 1", action.OrdersAdded)
	}
}

func TestReconcileMetadataNonRegression(t *testing.T) {
	m := newMemoryLookup()
	first, _ := Reconcile(candidateCase(), m.lookup)
	m.applyAction(first)

	// A later, sparser scrape must not blank out stored metadata.
	sparse := candidateCase()
	sparse.Petitioner = ""
	sparse.Respondent = ""
	sparse.Bench = "Hon'ble Justice K. Sharma"

	action, err := Reconcile(sparse, m.lookup)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if _, ok := action.MetadataPatch["petitioner"]; ok {
		t.Error("Patch must not touch a populated field with an empty candidate")
	}
	if got := action.MetadataPatch["bench"]; got != "Hon'ble Justice K. Sharma" {
		t.Errorf("Patch should fill empty bench, got %v", got)
	}
}

func TestReconcileInsertDeduplicatesCandidateOrders(t *testing.T) {
	action, err := Reconcile(candidateCase(
		database.Order{SourceURL: "url1"},
		database.Order{SourceURL: "url1"},
	), newMemoryLookup().lookup)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if len(action.Candidate.Orders) != 1 {
		t.Errorf("Insert payload should be deduplicated, got %d orders", len(action.Candidate.Orders))
	}
}

func TestReconcileMissingIdentity(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*database.Case)
	}{
		{"no diary number", func(c *database.Case) { c.DiaryNumber = "" }},
		{"no court", func(c *database.Case) { c.Court = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := candidateCase()
			tt.mutate(c)
			_, err := Reconcile(c, newMemoryLookup().lookup)
			if !errors.Is(err, ErrMissingIdentity) {
				t.Fatalf("Expected ErrMissingIdentity, got %v", err)
			}
		})
	}
}

func TestReconcileDegradedKeyWithoutCaseType(t *testing.T) {
	m := newMemoryLookup()

	// First scrape did not know the case type.
	typeless := candidateCase()
	typeless.CaseType = ""
	first, _ := Reconcile(typeless, m.lookup)
	m.applyAction(first)

	// A later scrape that knows the type must merge, not insert,
	// and fill the missing type.
	action, err := Reconcile(candidateCase(), m.lookup)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if action.Kind != ActionMerge {
		t.Fatalf("Expected merge into the typeless record, got %s", action.Kind)
	}
	if got := action.MetadataPatch["case_type"]; got != "CA" {
		t.Errorf("Expected case_type backfill, got %v", got)
	}
}
