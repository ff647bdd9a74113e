package scheduler

import (
	"reflect"
	"testing"
)

func TestQueueSeedOrder(t *testing.T) {
	q := New()
	want := []Kind{FetchFleet, FetchWaypoints, FetchContracts, FetchShipyards}
	if got := q.Order(); !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	if q.Len() != 4 {
		t.Fatalf("len = %d, want 4", q.Len())
	}
}

func TestNextRotatesHeadToTail(t *testing.T) {
	q := New()
	if got := q.Next(); got != FetchFleet {
		t.Fatalf("first = %v, want GetFleet", got)
	}
	want := []Kind{FetchWaypoints, FetchContracts, FetchShipyards, FetchFleet}
	if got := q.Order(); !reflect.DeepEqual(got, want) {
		t.Fatalf("order after pop = %v, want %v", got, want)
	}
	if q.Peek() != FetchWaypoints {
		t.Fatalf("peek = %v, want GetWaypoints", q.Peek())
	}
}

func TestEveryWindowOfFourCoversAllKinds(t *testing.T) {
	q := New()
	var seq []Kind
	for i := 0; i < 40; i++ {
		seq = append(seq, q.Next())
	}
	for start := 0; start+4 <= len(seq); start++ {
		seen := map[Kind]int{}
		for _, k := range seq[start : start+4] {
			seen[k]++
		}
		for _, k := range Kinds {
			if seen[k] != 1 {
				t.Fatalf("window at %d saw %v %d times", start, k, seen[k])
			}
		}
	}
}

func TestKindNames(t *testing.T) {
	names := map[Kind]string{
		FetchFleet:     "GetFleet",
		FetchWaypoints: "GetWaypoints",
		FetchContracts: "GetContracts",
		FetchShipyards: "GetShipyards",
		Kind(99):       "Unknown",
	}
	for kind, want := range names {
		if kind.String() != want {
			t.Fatalf("%d.String() = %q, want %q", int(kind), kind.String(), want)
		}
	}
}
