package search_test

import (
	"testing"

	"github.com/duaragha/job-tracker-sub001/internal/search"
)

func buildIndex(docs map[string]string) *search.Index {
	ix := search.New()
	ix.Build(docs)
	return ix
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

// ── Query basics ───────────────────────────────────────────────────────────

func TestQuery_PrefixMatch(t *testing.T) {
	ix := buildIndex(map[string]string{
		"a": "acme corp engineer",
		"b": "globex intern",
	})

	cases := []struct {
		q    string
		want []string
	}{
		{"eng", []string{"a"}},
		{"engineer", []string{"a"}},
		{"ac", []string{"a"}},
		{"glob", []string{"b"}},
		{"in", []string{"b"}},
		{"xyz", nil},
	}
	for _, c := range cases {
		got := ix.Query(c.q)
		if len(got) != len(c.want) {
			t.Errorf("Query(%q) returned %v, want keys %v", c.q, keys(got), c.want)
			continue
		}
		for _, k := range c.want {
			if _, ok := got[k]; !ok {
				t.Errorf("Query(%q) missing key %q (got %v)", c.q, k, keys(got))
			}
		}
	}
}

// Every query term must match; terms intersect rather than union.
func TestQuery_MultiTermIntersection(t *testing.T) {
	ix := buildIndex(map[string]string{
		"a": "acme engineer berlin",
		"b": "acme designer berlin",
		"c": "globex engineer remote",
	})

	got := ix.Query("acme eng")
	if len(got) != 1 {
		t.Fatalf("Query(\"acme eng\") returned %v, want exactly [a]", keys(got))
	}
	if _, ok := got["a"]; !ok {
		t.Errorf("Query(\"acme eng\") = %v, want [a]", keys(got))
	}

	if got := ix.Query("acme xyz"); len(got) != 0 {
		t.Errorf("Query(\"acme xyz\") = %v, want empty", keys(got))
	}
}

// A term matching the middle of a token must not match: this is a prefix
// index, not a substring index.
func TestQuery_MidTokenDoesNotMatch(t *testing.T) {
	ix := buildIndex(map[string]string{"a": "engineer"})
	if got := ix.Query("gineer"); len(got) != 0 {
		t.Errorf("Query(\"gineer\") = %v, want empty", keys(got))
	}
}

func TestQuery_CaseInsensitive(t *testing.T) {
	ix := buildIndex(map[string]string{"a": "acme engineer"})
	if got := ix.Query("ENG"); len(got) != 1 {
		t.Errorf("Query(\"ENG\") = %v, want [a]", keys(got))
	}
}

// ── Short and empty queries ────────────────────────────────────────────────

func TestQuery_ShortTermsReturnNothing(t *testing.T) {
	ix := buildIndex(map[string]string{"a": "acme engineer"})
	for _, q := range []string{"", " ", "a", "e", "acme e"} {
		if got := ix.Query(q); len(got) != 0 {
			t.Errorf("Query(%q) = %v, want empty", q, keys(got))
		}
	}
}

// ── Build idempotence ──────────────────────────────────────────────────────

func TestBuild_Idempotent(t *testing.T) {
	docs := map[string]string{
		"a": "acme engineer",
		"b": "globex designer",
	}
	ix := search.New()
	ix.Build(docs)
	ix.Build(docs)

	for _, q := range []string{"acme", "eng", "glob", "designer", "xyz"} {
		once := buildIndex(docs).Query(q)
		twice := ix.Query(q)
		if len(once) != len(twice) {
			t.Errorf("Query(%q) after double Build = %v, want %v", q, keys(twice), keys(once))
		}
	}
}

// ── Incremental updates ────────────────────────────────────────────────────

func TestAdd_NewRecord(t *testing.T) {
	ix := buildIndex(map[string]string{"a": "acme"})
	ix.Add("b", "globex engineer")

	if got := ix.Query("glob"); len(got) != 1 {
		t.Errorf("Query(\"glob\") after Add = %v, want [b]", keys(got))
	}
	if ix.Len() != 2 {
		t.Errorf("Len() = %d, want 2", ix.Len())
	}
}

// Re-adding a key must replace its postings: stale prefixes from the old
// text must stop matching.
func TestAdd_ReplacesStalePostings(t *testing.T) {
	ix := buildIndex(map[string]string{"a": "acme engineer"})
	ix.Add("a", "globex designer")

	if got := ix.Query("acme"); len(got) != 0 {
		t.Errorf("Query(\"acme\") after replace = %v, want empty", keys(got))
	}
	if got := ix.Query("glob"); len(got) != 1 {
		t.Errorf("Query(\"glob\") after replace = %v, want [a]", keys(got))
	}
	if ix.Len() != 1 {
		t.Errorf("Len() = %d, want 1", ix.Len())
	}
}

func TestRemove(t *testing.T) {
	ix := buildIndex(map[string]string{
		"a": "acme engineer",
		"b": "acme designer",
	})
	ix.Remove("a")

	got := ix.Query("acme")
	if len(got) != 1 {
		t.Fatalf("Query(\"acme\") after Remove = %v, want [b]", keys(got))
	}
	if _, ok := got["b"]; !ok {
		t.Errorf("Query(\"acme\") after Remove = %v, want [b]", keys(got))
	}
	if got := ix.Query("eng"); len(got) != 0 {
		t.Errorf("Query(\"eng\") after Remove = %v, want empty", keys(got))
	}
}

// An incrementally maintained index must answer exactly like a freshly built
// one over the same final documents.
func TestIncremental_MatchesFullRebuild(t *testing.T) {
	ix := search.New()
	ix.Build(map[string]string{
		"a": "acme engineer",
		"b": "globex intern",
		"c": "initech manager",
	})
	ix.Add("b", "hooli designer")
	ix.Remove("c")
	ix.Add("d", "initech analyst")

	fresh := buildIndex(map[string]string{
		"a": "acme engineer",
		"b": "hooli designer",
		"d": "initech analyst",
	})

	for _, q := range []string{"acme", "eng", "glob", "hooli", "designer", "initech", "analyst", "manager", "in"} {
		got, want := ix.Query(q), fresh.Query(q)
		if len(got) != len(want) {
			t.Errorf("Query(%q): incremental = %v, fresh = %v", q, keys(got), keys(want))
			continue
		}
		for k := range want {
			if _, ok := got[k]; !ok {
				t.Errorf("Query(%q): incremental missing %q", q, k)
			}
		}
	}
}

// Repeated tokens in one document must not produce duplicate postings that
// break removal.
func TestAdd_RepeatedTokens(t *testing.T) {
	ix := search.New()
	ix.Add("a", "acme acme acme")
	ix.Remove("a")
	if got := ix.Query("acme"); len(got) != 0 {
		t.Errorf("Query(\"acme\") after Remove = %v, want empty", keys(got))
	}
	if ix.Len() != 0 {
		t.Errorf("Len() = %d, want 0", ix.Len())
	}
}
