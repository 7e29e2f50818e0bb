package discovery

import "testing"

func TestBootstrapRingIntroducersDeterministicForSameKey(t *testing.T) {
	r := NewBootstrapRing(16)
	r.Sync(map[string]string{
		"1": "10.0.0.1:8080",
		"2": "10.0.0.2:8080",
		"3": "10.0.0.3:8080",
	})

	first := r.Introducers("joiner-42", 2)
	second := r.Introducers("joiner-42", 2)

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected 2 introducers both times, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("expected the same join key to yield the same introducer set: %v vs %v", first, second)
		}
	}
}

func TestBootstrapRingIntroducersAreDistinct(t *testing.T) {
	r := NewBootstrapRing(16)
	r.Sync(map[string]string{
		"1": "10.0.0.1:8080",
		"2": "10.0.0.2:8080",
		"3": "10.0.0.3:8080",
	})

	got := r.Introducers("joiner", 3)
	seen := make(map[string]bool)
	for _, addr := range got {
		if seen[addr] {
			t.Fatalf("expected distinct introducer addresses, got duplicate %q in %v", addr, got)
		}
		seen[addr] = true
	}
}

func TestBootstrapRingEmptyReturnsNil(t *testing.T) {
	r := NewBootstrapRing(16)
	if got := r.Introducers("joiner", 2); got != nil {
		t.Fatalf("expected nil introducers for an empty ring, got %v", got)
	}
}

func TestBootstrapRingCapsAtMembershipSize(t *testing.T) {
	r := NewBootstrapRing(16)
	r.Sync(map[string]string{"1": "10.0.0.1:8080"})

	got := r.Introducers("joiner", 5)
	if len(got) != 1 {
		t.Fatalf("expected at most 1 introducer when only 1 node is registered, got %d", len(got))
	}
}
