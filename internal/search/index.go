// Package search maintains a token-prefix index over record text.
//
// Every whitespace token of a record's searchable text contributes all of its
// prefixes of length >= MinTermLen as posting keys. A query matches a record
// when every whitespace-separated query term is one of those keys — i.e. each
// term is a prefix of some token of the record. Substring matches that start
// mid-token are structurally out of reach of this index; callers that want
// them must fall back to a linear scan.
package search

import "strings"

// MinTermLen is the shortest indexed prefix and the shortest usable query
// term. Shorter terms would match nearly everything and bloat the index.
const MinTermLen = 2

// Index maps text fragments to posting sets of record keys. It is a derived
// structure: rebuild or update it from the current record set and throw it
// away freely. All methods are single-threaded; the owner serializes access.
type Index struct {
	postings map[string]map[string]struct{}
	// terms remembers which keys each record contributed, so Remove can
	// take out exactly the stale postings without a full rebuild.
	terms map[string][]string
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		postings: make(map[string]map[string]struct{}),
		terms:    make(map[string][]string),
	}
}

// Build replaces the whole index with postings for the given documents,
// a mapping from record key to searchable text.
func (ix *Index) Build(docs map[string]string) {
	ix.postings = make(map[string]map[string]struct{}, len(ix.postings))
	ix.terms = make(map[string][]string, len(docs))
	for key, text := range docs {
		ix.Add(key, text)
	}
}

// Add indexes one record's text under its key. The text must already be
// lowercase. Adding a key that is already present replaces its postings.
func (ix *Index) Add(key, text string) {
	if _, ok := ix.terms[key]; ok {
		ix.Remove(key)
	}
	var indexed []string
	for _, token := range strings.Fields(text) {
		runes := []rune(token)
		for l := MinTermLen; l <= len(runes); l++ {
			prefix := string(runes[:l])
			set, ok := ix.postings[prefix]
			if !ok {
				set = make(map[string]struct{})
				ix.postings[prefix] = set
			}
			if _, dup := set[key]; dup {
				continue
			}
			set[key] = struct{}{}
			indexed = append(indexed, prefix)
		}
	}
	ix.terms[key] = indexed
}

// Remove takes one record's postings out of the index.
func (ix *Index) Remove(key string) {
	for _, prefix := range ix.terms[key] {
		set := ix.postings[prefix]
		delete(set, key)
		if len(set) == 0 {
			delete(ix.postings, prefix)
		}
	}
	delete(ix.terms, key)
}

// Query returns the set of record keys matching every whitespace-separated
// term of q. Queries with no term of length >= MinTermLen return nil: a
// one-character search would be too broad to be useful.
func (ix *Index) Query(q string) map[string]struct{} {
	terms := strings.Fields(strings.ToLower(q))
	if len(terms) == 0 {
		return nil
	}
	var result map[string]struct{}
	for _, term := range terms {
		if len([]rune(term)) < MinTermLen {
			return nil
		}
		set, ok := ix.postings[term]
		if !ok {
			return nil
		}
		if result == nil {
			result = make(map[string]struct{}, len(set))
			for k := range set {
				result[k] = struct{}{}
			}
			continue
		}
		for k := range result {
			if _, ok := set[k]; !ok {
				delete(result, k)
			}
		}
		if len(result) == 0 {
			return nil
		}
	}
	return result
}

// Len reports how many records the index currently covers.
func (ix *Index) Len() int { return len(ix.terms) }
