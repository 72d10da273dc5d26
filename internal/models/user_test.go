package models

import (
	"reflect"
	"testing"
)

func TestBalance(t *testing.T) {
	user := &UserProgress{Coins: 3}
	b := user.Balance()
	if b.Unlimited {
		t.Error("Expected finite balance for regular user")
	}
	if !b.CanSpend(3) || b.CanSpend(4) {
		t.Errorf("Expected balance of 3 to afford exactly 3, got %s", b)
	}

	admin := &UserProgress{IsAdmin: true, Coins: 0}
	ab := admin.Balance()
	if !ab.Unlimited {
		t.Error("Expected unlimited balance for admin")
	}
	if !ab.CanSpend(1000000) {
		t.Error("Expected admin to afford any amount")
	}
	if ab.String() != "unlimited" {
		t.Errorf("Expected unlimited, got %s", ab.String())
	}
}

func TestHasCompleted(t *testing.T) {
	user := &UserProgress{CompletedLessons: []string{"python-intro", "go-1"}}
	if !user.HasCompleted("python-intro") {
		t.Error("Expected python-intro to be completed")
	}
	if user.HasCompleted("python-loops") {
		t.Error("Expected python-loops to be incomplete")
	}
}

func TestRecentCompletions(t *testing.T) {
	user := &UserProgress{CompletedLessons: []string{"a", "b", "c", "d"}}

	got := user.RecentCompletions(2)
	if !reflect.DeepEqual(got, []string{"d", "c"}) {
		t.Errorf("Expected [d c], got %v", got)
	}

	got = user.RecentCompletions(10)
	if !reflect.DeepEqual(got, []string{"d", "c", "b", "a"}) {
		t.Errorf("Expected all completions newest first, got %v", got)
	}

	empty := &UserProgress{CompletedLessons: []string{}}
	if got := empty.RecentCompletions(5); len(got) != 0 {
		t.Errorf("Expected no recent completions, got %v", got)
	}
}
