// Package core provides the foundational types for factorcount runs.
//
// This package contains:
//   - Histogram: the factor-count to occurrence-count mapping
//   - Pair: one sorted entry of a histogram, used for rendering
//   - MergePolicy and Merge: how per-worker histograms are combined
package core

import (
	"fmt"
	"sort"
	"strings"
)

// Histogram maps a factor count to the number of integers that produced it.
// A local histogram is owned by exactly one worker; the merged histogram is
// built once after every worker has finished.
type Histogram map[uint64]uint64

// Add records one more integer with the given factor count.
func (h Histogram) Add(factorCount uint64) {
	h[factorCount]++
}

// Total returns the number of integers accounted for by the histogram.
func (h Histogram) Total() uint64 {
	var total uint64
	for _, n := range h {
		total += n
	}
	return total
}

// Pairs returns the histogram entries sorted by factor count ascending.
func (h Histogram) Pairs() []Pair {
	pairs := make([]Pair, 0, len(h))
	for k, v := range h {
		pairs = append(pairs, Pair{FactorCount: k, Numbers: v})
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].FactorCount < pairs[j].FactorCount
	})
	return pairs
}

// Pair is a single histogram entry.
type Pair struct {
	FactorCount uint64 `json:"factor_count" yaml:"factor_count"`
	Numbers     uint64 `json:"numbers" yaml:"numbers"`
}

// MergePolicy decides what happens when two local histograms share a key.
type MergePolicy string

const (
	// MergeSum adds colliding counts. The merged histogram always totals
	// the number of integers examined.
	MergeSum MergePolicy = "sum"

	// MergeOverwrite keeps the value from the last histogram that holds the
	// key. Counts are lost whenever more than one worker reports the same
	// key; kept for output compatibility with earlier releases.
	MergeOverwrite MergePolicy = "overwrite"
)

// String returns the string representation of the MergePolicy.
func (p MergePolicy) String() string {
	return string(p)
}

// ParseMergePolicy converts a user-supplied name into a MergePolicy.
func ParseMergePolicy(value string) (MergePolicy, error) {
	switch MergePolicy(strings.ToLower(strings.TrimSpace(value))) {
	case MergeSum:
		return MergeSum, nil
	case MergeOverwrite:
		return MergeOverwrite, nil
	default:
		return "", fmt.Errorf("unknown merge policy %q (use sum or overwrite)", value)
	}
}

// Merge combines local histograms in the order given. It must only be called
// once every histogram's owner has stopped writing to it.
func Merge(policy MergePolicy, locals ...Histogram) Histogram {
	merged := make(Histogram)
	for _, local := range locals {
		for k, v := range local {
			if policy == MergeOverwrite {
				merged[k] = v
				continue
			}
			merged[k] += v
		}
	}
	return merged
}
