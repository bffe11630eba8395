package motion

import (
	"math"
	"testing"
)

func TestAlignScenarios(t *testing.T) {
	track := buildTestTrack(t, []float64{10, 20, 30, 40})
	matcher := NewMatcher(track, 0)

	testCases := []struct {
		name       string
		ts         float64
		wantPrev   float64
		wantNext   float64
		wantWeight float64
	}{
		{"midpoint", 15, 10, 20, 0.5},
		{"quarter", 12.5, 10, 20, 0.25},
		{"exact_hit", 20, 20, 20, 0},
		{"left_clamp", 5, 10, 10, 0},
		{"right_clamp", 50, 40, 40, 1},
		{"at_start", 10, 10, 10, 0},
		{"at_end", 40, 40, 40, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			matches := matcher.Align([]float64{tc.ts}, 0)
			if len(matches) != 1 {
				t.Fatalf("Align returned %d matches, want 1", len(matches))
			}
			m := matches[0]
			if m.Prev == nil || m.Next == nil {
				t.Fatal("Align returned nil bracket for non-empty track")
			}
			if m.Prev.Timestamp != tc.wantPrev {
				t.Errorf("prev = %v, want %v", m.Prev.Timestamp, tc.wantPrev)
			}
			if m.Next.Timestamp != tc.wantNext {
				t.Errorf("next = %v, want %v", m.Next.Timestamp, tc.wantNext)
			}
			if math.Abs(m.Weight-tc.wantWeight) > floatTol {
				t.Errorf("weight = %v, want %v", m.Weight, tc.wantWeight)
			}
		})
	}
}

func TestAlignAppliesOffset(t *testing.T) {
	track := buildTestTrack(t, []float64{10, 20, 30, 40})
	matcher := NewMatcher(track, 0)

	// Raw video timestamps start at zero; the offset carries them into
	// the motion clock.
	matches := matcher.Align([]float64{5}, 10)
	if len(matches) != 1 {
		t.Fatalf("Align returned %d matches, want 1", len(matches))
	}
	m := matches[0]
	if m.RawTS != 5 || m.AlignedTS != 15 {
		t.Errorf("raw/aligned = %v/%v, want 5/15", m.RawTS, m.AlignedTS)
	}
	if m.Prev.Timestamp != 10 || m.Next.Timestamp != 20 {
		t.Errorf("bracket = (%v, %v), want (10, 20)", m.Prev.Timestamp, m.Next.Timestamp)
	}
	if math.Abs(m.Weight-0.5) > floatTol {
		t.Errorf("weight = %v, want 0.5", m.Weight)
	}
}

func TestAlignWeightAlwaysInRange(t *testing.T) {
	track := buildTestTrack(t, []float64{10, 20, 20, 30, 40})
	matcher := NewMatcher(track, 0)

	var input []float64
	for ts := -10.0; ts <= 60.0; ts += 0.3 {
		input = append(input, ts)
	}
	matches := matcher.Align(input, 0)
	if len(matches) != len(input) {
		t.Fatalf("Align returned %d matches for %d inputs", len(matches), len(input))
	}
	for i, m := range matches {
		if m.Weight < 0 || m.Weight > 1 {
			t.Errorf("match %d (ts=%v): weight %v out of [0,1]", i, m.RawTS, m.Weight)
		}
	}
}

func TestAlignPreservesInputOrder(t *testing.T) {
	track := buildTestTrack(t, []float64{10, 20, 30, 40})
	matcher := NewMatcher(track, 0)

	input := []float64{35, 15, 25}
	matches := matcher.Align(input, 0)
	for i, m := range matches {
		if m.RawTS != input[i] {
			t.Errorf("match %d: raw ts = %v, want %v", i, m.RawTS, input[i])
		}
	}
}

func TestAlignGapDetection(t *testing.T) {
	// 4-second hole between 20 and 24 simulates a recording pause.
	track := buildTestTrack(t, []float64{19.9, 20, 24, 24.1})
	matcher := NewMatcher(track, 0.2)

	matches := matcher.Align([]float64{19.95, 22, 24.05}, 0)
	wantGapped := []bool{false, true, false}
	for i, m := range matches {
		if m.Gapped != wantGapped[i] {
			t.Errorf("match %d (aligned=%v): gapped = %v, want %v",
				i, m.AlignedTS, m.Gapped, wantGapped[i])
		}
	}
}

func TestAlignZeroWidthInterval(t *testing.T) {
	track := buildTestTrack(t, []float64{10, 10, 20})
	matcher := NewMatcher(track, 0)

	matches := matcher.Align([]float64{10}, 0)
	if matches[0].Weight != 0 {
		t.Errorf("zero-width interval weight = %v, want 0", matches[0].Weight)
	}
}

func TestAlignEmptyTrack(t *testing.T) {
	empty, _ := BuildTrack(nil)
	matcher := NewMatcher(empty, 0.2)

	if matches := matcher.Align([]float64{1, 2, 3}, 0); matches != nil {
		t.Errorf("Align on empty track = %v, want nil", matches)
	}
}
