package runs

import (
	"reflect"
	"testing"
)

func TestAggregateMergesWithinGap(t *testing.T) {
	mask := []bool{false, true, true, false, false, true, false, true, true}
	got := Aggregate(mask, 2)
	want := []Interval{{From: 1, To: 9}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Aggregate = %v, want %v", got, want)
	}
}

func TestAggregateNoMerge(t *testing.T) {
	mask := []bool{true, false, false, false, true}
	got := Aggregate(mask, 0)
	want := []Interval{{From: 0, To: 1}, {From: 4, To: 5}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Aggregate = %v, want %v", got, want)
	}
}

func TestGapMonotonicity(t *testing.T) {
	mask := []bool{true, false, true, false, false, true, false, false, false, true}
	c0 := Count(mask, 0)
	c1 := Count(mask, 1)
	c2 := Count(mask, 2)
	if !(c0 >= c1 && c1 >= c2) {
		t.Fatalf("expected candidate count non-increasing in gap, got c0=%d c1=%d c2=%d", c0, c1, c2)
	}
}
