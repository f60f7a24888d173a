package order

import (
	"errors"
	"testing"

	"smartdispatch/internal/types"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusAssigned, true},
		{StatusAssigned, StatusPickedUp, true},
		{StatusPickedUp, StatusDelivered, true},
		{StatusPending, StatusPickedUp, false},
		{StatusAssigned, StatusPending, false},
		{StatusDelivered, StatusPickedUp, false},
		{StatusDelivered, StatusPending, false},
		{StatusPickedUp, StatusAssigned, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %t, want %t", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestIndex_AddAndGet(t *testing.T) {
	ix := NewIndex()
	o := &Order{ID: "o1", Status: StatusPending}
	if err := ix.Add(o); err != nil {
		t.Fatal(err)
	}
	if err := ix.Add(&Order{ID: "o1"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
	got, err := ix.Get("o1")
	if err != nil || got != o {
		t.Errorf("Get returned %v, %v", got, err)
	}
	if _, err := ix.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestIndex_TransitionEnforcesFlow(t *testing.T) {
	ix := NewIndex()
	o := &Order{ID: "o1", Status: StatusPending}
	if err := ix.Add(o); err != nil {
		t.Fatal(err)
	}
	if err := ix.Transition("o1", StatusDelivered); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
	for _, to := range []Status{StatusAssigned, StatusPickedUp, StatusDelivered} {
		if err := ix.Transition("o1", to); err != nil {
			t.Fatalf("transition to %s failed: %v", to, err)
		}
	}
	if o.Status != StatusDelivered {
		t.Errorf("final status = %s", o.Status)
	}
}

func TestIndex_AllPreservesRegistrationOrder(t *testing.T) {
	ix := NewIndex()
	for _, id := range []types.ID{"c", "a", "b"} {
		if err := ix.Add(&Order{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	all := ix.All()
	if len(all) != 3 || all[0].ID != "c" || all[1].ID != "a" || all[2].ID != "b" {
		t.Errorf("unexpected order: %v", all)
	}
}

func TestPickedUp(t *testing.T) {
	o := &Order{Status: StatusAssigned}
	if o.PickedUp() {
		t.Error("assigned order should not count as picked up")
	}
	o.Status = StatusPickedUp
	if !o.PickedUp() {
		t.Error("picked-up order should count as picked up")
	}
	o.Status = StatusDelivered
	if !o.PickedUp() {
		t.Error("delivered order should count as picked up")
	}
}
