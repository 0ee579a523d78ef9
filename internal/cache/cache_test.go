package cache

import (
	"testing"
	"time"
)

// --- Fingerprint ---

func TestFingerprint_Deterministic(t *testing.T) {
	a := Fingerprint("go generics", 3, 2, []string{"x", "y"})
	b := Fingerprint("go generics", 3, 2, []string{"x", "y"})

	if a != b {
		t.Errorf("identical inputs produced different fingerprints: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(a))
	}
}

func TestFingerprint_FieldSensitive(t *testing.T) {
	base := Fingerprint("go generics", 3, 2, []string{"x"})

	variants := []string{
		Fingerprint("go generics!", 3, 2, []string{"x"}),
		Fingerprint("go generics", 4, 2, []string{"x"}),
		Fingerprint("go generics", 3, 3, []string{"x"}),
		Fingerprint("go generics", 3, 2, []string{"x", "y"}),
		Fingerprint("go generics", 3, 2, nil),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collided with base fingerprint", i)
		}
	}
}

func TestFingerprint_FieldBoundaries(t *testing.T) {
	// Values must not bleed across field boundaries.
	a := Fingerprint("ab", 1, 2, nil)
	b := Fingerprint("a", 1, 2, []string{"b"})

	if a == b {
		t.Error("distinct field layouts produced the same fingerprint")
	}
}

// --- ResultCache ---

func TestResultCache_PutGet(t *testing.T) {
	c := New(4, time.Minute)

	entry := Entry{Text: "report", Learnings: []string{"l1"}, ReportSizeKB: 1.5}
	c.Put("fp", entry)

	got, ok := c.Get("fp")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.Text != "report" || got.ReportSizeKB != 1.5 {
		t.Errorf("got %+v, want stored entry", got)
	}
}

func TestResultCache_MissOnUnknownKey(t *testing.T) {
	c := New(4, time.Minute)

	if _, ok := c.Get("nope"); ok {
		t.Error("expected miss for unknown fingerprint")
	}
}

func TestResultCache_TTLExpiry(t *testing.T) {
	c := New(4, 20*time.Millisecond)

	c.Put("fp", Entry{Text: "stale soon"})
	if _, ok := c.Get("fp"); !ok {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(60 * time.Millisecond)

	if _, ok := c.Get("fp"); ok {
		t.Error("expected miss after TTL expiry")
	}
}

func TestResultCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New(2, time.Minute)

	c.Put("a", Entry{Text: "a"})
	c.Put("b", Entry{Text: "b"})

	// Touch "a" so "b" becomes least recently used.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected hit for a")
	}

	c.Put("c", Entry{Text: "c"})

	if _, ok := c.Get("b"); ok {
		t.Error("least-recently-used entry b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry a should survive eviction")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("newest entry c should be present")
	}
}

func TestResultCache_LastWriteWins(t *testing.T) {
	c := New(4, time.Minute)

	c.Put("fp", Entry{Text: "first"})
	c.Put("fp", Entry{Text: "second"})

	got, _ := c.Get("fp")
	if got.Text != "second" {
		t.Errorf("Text = %q, want second (last write wins)", got.Text)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}
