package roles

import "testing"

func TestResolveIsCaseInsensitive(t *testing.T) {
	r := Default()
	upper, ok := r.Resolve("Estimator")
	if !ok {
		t.Fatalf("expected Estimator to resolve")
	}
	lower, _ := r.Resolve("estimator")
	if upper != lower {
		t.Fatalf("case mismatch: %s vs %s", upper, lower)
	}
	if upper != "56118ecc-05d4-11ea-af30-ac1f6b40676a" {
		t.Fatalf("unexpected estimator id %s", upper)
	}
}

func TestResolveUnknownRole(t *testing.T) {
	if id, ok := Default().Resolve("nonexistent role"); ok || id != "" {
		t.Fatalf("expected no match, got %q", id)
	}
}

func TestResolveDuplicateLastWins(t *testing.T) {
	r := Default()
	for i := 0; i < 3; i++ {
		id, ok := r.Resolve("Accounting Dept")
		if !ok || id != "561168bc-05d4-11ea-af30-ac1f6b40676a" {
			t.Fatalf("expected last accounting dept id, got %q", id)
		}
	}
	if r.Len() != len(DefaultEntries)-1 {
		t.Fatalf("expected %d distinct roles, got %d", len(DefaultEntries)-1, r.Len())
	}
}

func TestNewResolverLowercasesNames(t *testing.T) {
	r := NewResolver([]Entry{{"Shop Foreman", "id-1"}})
	if id, ok := r.Resolve("SHOP FOREMAN"); !ok || id != "id-1" {
		t.Fatalf("expected id-1, got %q", id)
	}
}
