package core

import (
	"reflect"
	"testing"
)

func TestHistogram_AddAndTotal(t *testing.T) {
	h := make(Histogram)
	h.Add(2)
	h.Add(2)
	h.Add(5)

	if h[2] != 2 {
		t.Errorf("h[2] = %d, want 2", h[2])
	}
	if h[5] != 1 {
		t.Errorf("h[5] = %d, want 1", h[5])
	}
	if got := h.Total(); got != 3 {
		t.Errorf("Total() = %d, want 3", got)
	}
}

func TestHistogram_PairsSorted(t *testing.T) {
	h := Histogram{7: 1, 2: 40, 4: 9, 3: 12}

	got := h.Pairs()
	want := []Pair{
		{FactorCount: 2, Numbers: 40},
		{FactorCount: 3, Numbers: 12},
		{FactorCount: 4, Numbers: 9},
		{FactorCount: 7, Numbers: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Pairs() = %v, want %v", got, want)
	}
}

func TestHistogram_PairsEmpty(t *testing.T) {
	if got := (Histogram{}).Pairs(); len(got) != 0 {
		t.Fatalf("Pairs() on empty histogram = %v, want empty", got)
	}
}

func TestMerge_SumAddsCollidingKeys(t *testing.T) {
	a := Histogram{2: 3, 3: 1}
	b := Histogram{2: 4, 4: 2}

	got := Merge(MergeSum, a, b)
	want := Histogram{2: 7, 3: 1, 4: 2}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Merge(sum) = %v, want %v", got, want)
	}
	if got.Total() != a.Total()+b.Total() {
		t.Errorf("merged total = %d, want %d", got.Total(), a.Total()+b.Total())
	}
}

func TestMerge_OverwriteKeepsLastWriter(t *testing.T) {
	a := Histogram{2: 3, 3: 1}
	b := Histogram{2: 4, 4: 2}

	got := Merge(MergeOverwrite, a, b)
	want := Histogram{2: 4, 3: 1, 4: 2}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Merge(overwrite) = %v, want %v", got, want)
	}

	got = Merge(MergeOverwrite, b, a)
	if got[2] != 3 {
		t.Errorf("reversed order: got[2] = %d, want 3", got[2])
	}
}

func TestMerge_DoesNotAliasInputs(t *testing.T) {
	a := Histogram{2: 1}
	merged := Merge(MergeSum, a)
	merged[2] = 99
	if a[2] != 1 {
		t.Fatalf("input histogram modified through merge result: a[2] = %d", a[2])
	}
}

func TestMerge_NoInputs(t *testing.T) {
	got := Merge(MergeSum)
	if got == nil || len(got) != 0 {
		t.Fatalf("Merge() = %v, want empty non-nil histogram", got)
	}
}

func TestParseMergePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    MergePolicy
		wantErr bool
	}{
		{in: "sum", want: MergeSum},
		{in: "overwrite", want: MergeOverwrite},
		{in: " Overwrite ", want: MergeOverwrite},
		{in: "SUM", want: MergeSum},
		{in: "max", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseMergePolicy(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseMergePolicy(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMergePolicy(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMergePolicy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
