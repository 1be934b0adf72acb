package timing

import (
	"testing"
	"time"

	"github.com/iabetor/speakline/internal/annotation"
)

func TestBuildTimeline_GoldenSentence(t *testing.T) {
	tokens := annotation.Tokenize("We need to check it out.")
	tl := BuildTimeline(Weights(tokens), 0.9)

	want := []time.Duration{50, 200, 500, 650, 860, 1010}
	if tl.Len() != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), tl.Len())
	}
	for i, ms := range want {
		if tl.Entries[i].WordIndex != i {
			t.Errorf("entry %d: word index %d", i, tl.Entries[i].WordIndex)
		}
		if tl.Entries[i].Start != ms*time.Millisecond {
			t.Errorf("entry %d: start %v, want %v", i, tl.Entries[i].Start, ms*time.Millisecond)
		}
	}
	if tl.End != 1310*time.Millisecond {
		t.Errorf("end = %v, want 1.31s", tl.End)
	}
}

func TestBuildTimeline_Monotonic(t *testing.T) {
	tokens := annotation.Tokenize("I went to the store to buy some strawberries, right?")
	for _, rate := range []float64{0.1, 0.3, 0.5, 0.9, 1.3, 2.0} {
		tl := BuildTimeline(Weights(tokens), rate)
		for i := range tl.Entries {
			if tl.Entries[i].WordIndex != i {
				t.Fatalf("rate %v: entry %d has word index %d", rate, i, tl.Entries[i].WordIndex)
			}
			if i > 0 && tl.Entries[i].Start < tl.Entries[i-1].Start {
				t.Fatalf("rate %v: entry %d starts before entry %d", rate, i, i-1)
			}
		}
		if tl.End < tl.Entries[len(tl.Entries)-1].Start {
			t.Fatalf("rate %v: end before last start", rate)
		}
	}
}

func TestBuildTimeline_Deterministic(t *testing.T) {
	w := Weights(annotation.Tokenize("Put it on the table."))
	a := BuildTimeline(w, 0.7)
	b := BuildTimeline(w, 0.7)
	if a.End != b.End || len(a.Entries) != len(b.Entries) {
		t.Fatal("same input produced different timelines")
	}
	for i := range a.Entries {
		if a.Entries[i] != b.Entries[i] {
			t.Fatalf("entry %d differs: %v vs %v", i, a.Entries[i], b.Entries[i])
		}
	}
}

func TestInitialOffset(t *testing.T) {
	tests := []struct {
		rate float64
		want time.Duration
	}{
		{0.9, 50 * time.Millisecond},
		{0.5, 50 * time.Millisecond},
		{2.0, 50 * time.Millisecond},
		{0.3, 600 * time.Millisecond},
		{0.45, 400 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := InitialOffset(tt.rate); got != tt.want {
			t.Errorf("InitialOffset(%v) = %v, want %v", tt.rate, got, tt.want)
		}
	}
}

func TestUnitDuration_ScalesWithRate(t *testing.T) {
	if got := UnitDuration(0.9); got != 150*time.Millisecond {
		t.Errorf("UnitDuration(0.9) = %v", got)
	}
	if got := UnitDuration(1.8); got != 75*time.Millisecond {
		t.Errorf("UnitDuration(1.8) = %v", got)
	}
	if got := WordDuration(2.2, 0.9); got != 330*time.Millisecond {
		t.Errorf("WordDuration(2.2, 0.9) = %v", got)
	}
}

func TestBuildTimeline_Empty(t *testing.T) {
	tl := BuildTimeline(nil, 0.9)
	if tl.Len() != 0 || tl.End != 50*time.Millisecond {
		t.Fatalf("unexpected empty timeline: %+v", tl)
	}
}
