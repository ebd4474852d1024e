package models

import "sort"

// TimeElement is one resolved (or candidate) interval for a single day.
// Elements are transient values produced by resolution; they are never
// persisted. FullDay covers the entire day regardless of the time fields.
type TimeElement struct {
	StartTime        *TimeOfDay `json:"start_time"`
	EndTime          *TimeOfDay `json:"end_time"`
	ResourceState    State      `json:"resource_state"`
	Override         bool       `json:"override"`
	FullDay          bool       `json:"full_day"`
	EndTimeOnNextDay bool       `json:"end_time_on_next_day"`
}

// Equal reports whether two elements match on every field.
func (e TimeElement) Equal(other TimeElement) bool {
	return timesEqual(e.StartTime, other.StartTime) &&
		timesEqual(e.EndTime, other.EndTime) &&
		e.ResourceState == other.ResourceState &&
		e.Override == other.Override &&
		e.FullDay == other.FullDay &&
		e.EndTimeOnNextDay == other.EndTimeOnNextDay
}

func timesEqual(a, b *TimeOfDay) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// effectiveStart returns the start of the element in seconds for comparison.
// Full-day elements span the whole day; a missing start means midnight.
func (e TimeElement) effectiveStart() int {
	if e.FullDay || e.StartTime == nil {
		return 0
	}
	return int(*e.StartTime)
}

// effectiveEnd returns the end in seconds for comparison. Intervals crossing
// midnight extend past 24h internally; the attributed date stays fixed.
func (e TimeElement) effectiveEnd() int {
	if e.FullDay || e.EndTime == nil {
		return secondsPerDay
	}
	end := int(*e.EndTime)
	if e.EndTimeOnNextDay {
		end += secondsPerDay
	}
	return end
}

// OverlapPolicy selects how overlapping elements with differing states are
// reconciled. The reference behaviour retains both.
type OverlapPolicy int

const (
	// RetainBoth keeps both overlapping elements untouched.
	RetainBoth OverlapPolicy = iota
	// MergeLastWins drops the element declared earlier in the input.
	MergeLastWins
	// ErrorOnOverlap rejects the input with ErrAmbiguousOverlap.
	ErrorOnOverlap
)

type combineCandidate struct {
	elem     TimeElement
	effStart int
	effEnd   int
	source   int
}

// CombineAndApplyOverride reduces a day's candidate elements to the minimal
// precedence-resolved sequence. A single overriding element discards all
// non-overriding elements for the day; within the surviving set, elements
// that overlap or touch and share a state merge into one interval. Elements
// with differing states are both retained. The result is sorted by start
// time, full-day first.
func CombineAndApplyOverride(elements []TimeElement) []TimeElement {
	combined, _ := CombineWithPolicy(elements, RetainBoth)
	return combined
}

// CombineWithPolicy is CombineAndApplyOverride with an explicit policy for
// the differing-state overlap case.
func CombineWithPolicy(elements []TimeElement, policy OverlapPolicy) ([]TimeElement, error) {
	if len(elements) == 0 {
		return []TimeElement{}, nil
	}

	var overriding, normal []combineCandidate
	for i, e := range elements {
		c := combineCandidate{elem: e, effStart: e.effectiveStart(), effEnd: e.effectiveEnd(), source: i}
		if e.Override {
			overriding = append(overriding, c)
		} else {
			normal = append(normal, c)
		}
	}

	working := normal
	if len(overriding) > 0 {
		working = overriding
	}

	sortCandidates(working)
	merged := mergeSameState(working)

	switch policy {
	case MergeLastWins:
		merged = dropEarlierOnOverlap(merged)
	case ErrorOnOverlap:
		for i := 1; i < len(merged); i++ {
			if overlaps(merged[i-1], merged[i]) {
				return nil, ErrAmbiguousOverlap
			}
		}
	}

	result := make([]TimeElement, len(merged))
	for i, c := range merged {
		result[i] = c.elem
	}
	return result, nil
}

func sortCandidates(cs []combineCandidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.elem.FullDay != b.elem.FullDay {
			return a.elem.FullDay
		}
		if a.effStart != b.effStart {
			return a.effStart < b.effStart
		}
		if a.effEnd != b.effEnd {
			return a.effEnd < b.effEnd
		}
		return a.elem.ResourceState < b.elem.ResourceState
	})
}

// mergeSameState folds overlapping or abutting candidates that share a state
// into single intervals. Candidates must be sorted by effective start, so
// each element only has to be checked against the newest chain of its state.
func mergeSameState(sorted []combineCandidate) []combineCandidate {
	var merged []combineCandidate
	lastByState := make(map[State]int)

	for _, c := range sorted {
		idx, seen := lastByState[c.elem.ResourceState]
		if seen && touchesOrOverlaps(merged[idx], c) {
			merged[idx] = mergeInto(merged[idx], c)
			continue
		}
		merged = append(merged, c)
		lastByState[c.elem.ResourceState] = len(merged) - 1
	}

	sortCandidates(merged)
	return merged
}

func touchesOrOverlaps(a, b combineCandidate) bool {
	return a.effStart <= b.effEnd && b.effStart <= a.effEnd
}

func overlaps(a, b combineCandidate) bool {
	return a.effStart < b.effEnd && b.effStart < a.effEnd
}

func mergeInto(acc, next combineCandidate) combineCandidate {
	if acc.elem.FullDay || next.elem.FullDay {
		merged := acc
		merged.elem = TimeElement{
			ResourceState: acc.elem.ResourceState,
			Override:      acc.elem.Override,
			FullDay:       true,
		}
		merged.effStart = 0
		merged.effEnd = secondsPerDay
		merged.source = maxInt(acc.source, next.source)
		return merged
	}

	merged := acc
	if next.effStart < merged.effStart {
		merged.effStart = next.effStart
		merged.elem.StartTime = next.elem.StartTime
	}
	if next.effEnd > merged.effEnd {
		merged.effEnd = next.effEnd
		merged.elem.EndTime = next.elem.EndTime
		merged.elem.EndTimeOnNextDay = next.elem.EndTimeOnNextDay
	}
	merged.source = maxInt(acc.source, next.source)
	return merged
}

// dropEarlierOnOverlap implements MergeLastWins: of two overlapping merged
// intervals with differing states, the one whose newest contributing input
// came later survives.
func dropEarlierOnOverlap(merged []combineCandidate) []combineCandidate {
	var kept []combineCandidate
	for _, c := range merged {
		dropped := false
		for i := 0; i < len(kept); i++ {
			if !overlaps(kept[i], c) {
				continue
			}
			if kept[i].source > c.source {
				dropped = true
				break
			}
			kept = append(kept[:i], kept[i+1:]...)
			i--
		}
		if !dropped {
			kept = append(kept, c)
		}
	}
	return kept
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
