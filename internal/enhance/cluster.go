package enhance

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// Clusterer groups near-duplicate results and keeps the best per group.
// The cluster key joins the source identifier with a bucketed content
// fingerprint, so the same passage crawled twice from one source
// collapses to its highest-relevance copy while distinct passages
// survive.
type Clusterer struct{}

// NewClusterer creates a clusterer.
func NewClusterer() *Clusterer {
	return &Clusterer{}
}

const (
	// fingerprintWindow is how many characters of content feed the
	// fingerprint.
	fingerprintWindow = 200

	// fingerprintBuckets is the modulus applied to the fingerprint.
	fingerprintBuckets = 1000
)

// Deduplicate collapses results sharing a cluster key, keeping the one
// with the higher relevance. Inputs of length <= 1 are returned
// unchanged. Survivors carry their assigned ClusterKey; their relative
// order is preserved, so re-running on deduplicated input is a no-op.
func (c *Clusterer) Deduplicate(results []Result) []Result {
	if len(results) <= 1 {
		return results
	}

	byKey := make(map[string]int, len(results))
	deduplicated := make([]Result, 0, len(results))

	for _, result := range results {
		key := result.Source + "_" + strconv.FormatUint(Fingerprint(result.Content), 10)

		idx, ok := byKey[key]
		if !ok {
			result.ClusterKey = key
			byKey[key] = len(deduplicated)
			deduplicated = append(deduplicated, result)
			continue
		}

		if result.Relevance > deduplicated[idx].Relevance {
			result.ClusterKey = key
			deduplicated[idx] = result
		}
	}

	return deduplicated
}

// Fingerprint computes the deterministic content fingerprint bucket:
// FNV-1a over the lower-cased, whitespace-collapsed first 200 characters,
// reduced modulo 1000. Stable across processes and platforms, unlike a
// runtime-seeded hash.
func Fingerprint(content string) uint64 {
	prefix := content
	if len(prefix) > fingerprintWindow {
		prefix = prefix[:fingerprintWindow]
	}
	normalized := strings.Join(strings.Fields(strings.ToLower(prefix)), " ")

	h := fnv.New64a()
	_, _ = h.Write([]byte(normalized))
	return h.Sum64() % fingerprintBuckets
}
