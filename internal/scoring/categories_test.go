package scoring

import "testing"

func TestCategoryMappingIsTotal(t *testing.T) {
	for _, c := range Categories() {
		if c.Internal() == "" {
			t.Fatalf("category %d has no internal name", c)
		}
		if c.Persisted() == "" {
			t.Fatalf("category %d has no persisted name", c)
		}
	}
}

func TestCategoryRemap(t *testing.T) {
	cases := []struct {
		internal  string
		persisted string
	}{
		{"opening", "opening"},
		{"discovery", "discovery"},
		{"objection_handling", "objection"},
		{"call_control", "communication"},
		{"closing", "closing"},
	}
	for _, tc := range cases {
		c, ok := CategoryFromInternal(tc.internal)
		if !ok {
			t.Fatalf("unknown internal name %q", tc.internal)
		}
		if got := c.Persisted(); got != tc.persisted {
			t.Fatalf("persisted(%q) = %q, want %q", tc.internal, got, tc.persisted)
		}
	}
}

func TestCategoryMappingRoundTrips(t *testing.T) {
	for _, c := range Categories() {
		if back, ok := CategoryFromInternal(c.Internal()); !ok || back != c {
			t.Fatalf("internal round trip failed for %v", c)
		}
		if back, ok := CategoryFromPersisted(c.Persisted()); !ok || back != c {
			t.Fatalf("persisted round trip failed for %v", c)
		}
	}
}

func TestCategoryRejectsCrossNamespaceLookups(t *testing.T) {
	// persisted names are never valid internal names and vice versa
	if _, ok := CategoryFromInternal("objection"); ok {
		t.Fatalf("persisted name accepted as internal")
	}
	if _, ok := CategoryFromInternal("communication"); ok {
		t.Fatalf("persisted name accepted as internal")
	}
	if _, ok := CategoryFromPersisted("objection_handling"); ok {
		t.Fatalf("internal name accepted as persisted")
	}
	if _, ok := CategoryFromPersisted("call_control"); ok {
		t.Fatalf("internal name accepted as persisted")
	}
}
