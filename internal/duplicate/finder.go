// Package duplicate searches a candidate pool of stored fingerprints for
// near-duplicates of a target fingerprint.
package duplicate

import (
	"fmt"
	"sort"

	"github.com/ebudnikov/dateguard/internal/fingerprint"
)

// DefaultThreshold is the maximum Hamming distance (out of 64 bits) at which
// two photos are considered duplicates. An empirical tuning constant; callers
// may override it per use-case.
const DefaultThreshold = 5

// Candidate is one pool entry: a photo ID and its stored fingerprint.
// An empty or malformed hash is skipped during the search.
type Candidate struct {
	ID   int64
	Hash string
}

// Match is one near-duplicate hit. Distance is the Hamming distance to the
// target, 0..64.
type Match struct {
	ID       int64 `json:"id"`
	Distance int   `json:"distance"`
}

// FindSimilar compares target against every candidate and returns matches with
// distance <= threshold, sorted ascending by distance. Ties keep the candidate
// order as supplied. The candidate with ID equal to exclude is never returned
// (pass 0 for no exclusion). Candidates with missing or malformed fingerprints
// are skipped silently: duplicate detection is best-effort and must not fail
// on data-quality issues in the pool.
func FindSimilar(target string, candidates []Candidate, exclude int64, threshold int) ([]Match, error) {
	targetHash, err := fingerprint.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parsing target fingerprint: %w", err)
	}

	var matches []Match
	for _, c := range candidates {
		if exclude != 0 && c.ID == exclude {
			continue
		}
		hash, err := fingerprint.Parse(c.Hash)
		if err != nil {
			continue
		}
		if d := targetHash.Distance(hash); d <= threshold {
			matches = append(matches, Match{ID: c.ID, Distance: d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})

	return matches, nil
}

// GroupByHash buckets candidates with byte-identical fingerprints, keyed by
// the fingerprint. Only groups of two or more are returned; IDs keep the
// candidate order. Empty and malformed hashes are skipped.
func GroupByHash(candidates []Candidate) map[string][]int64 {
	byHash := make(map[string][]int64)
	for _, c := range candidates {
		if _, err := fingerprint.Parse(c.Hash); err != nil {
			continue
		}
		byHash[c.Hash] = append(byHash[c.Hash], c.ID)
	}
	for hash, ids := range byHash {
		if len(ids) < 2 {
			delete(byHash, hash)
		}
	}
	return byHash
}
