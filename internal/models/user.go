package models

import (
	"fmt"
	"time"
)

// UserProgress is the per-user progression record. It is owned exclusively by
// the progression service; nothing else writes to it.
type UserProgress struct {
	UserID           string    `bson:"_id" json:"user_id"`
	Email            string    `bson:"email" json:"email"`
	DisplayName      string    `bson:"display_name" json:"display_name"`
	Coins            int       `bson:"coins" json:"coins"`
	IsAdmin          bool      `bson:"is_admin" json:"is_admin"`
	CompletedLessons []string  `bson:"completed_lessons" json:"completed_lessons"`
	Streak           int       `bson:"streak" json:"streak"`
	LastLoginDate    string    `bson:"last_login_date" json:"last_login_date"`
	CreatedAt        time.Time `bson:"created_at" json:"created_at"`
}

// CoinBalance is the user-facing view of the coin field. Admin accounts carry
// an unlimited balance; the stored coin count is meaningless for them and is
// never used in arithmetic.
type CoinBalance struct {
	Unlimited bool `json:"unlimited"`
	Coins     int  `json:"coins"`
}

func (b CoinBalance) CanSpend(n int) bool {
	return b.Unlimited || b.Coins >= n
}

func (b CoinBalance) String() string {
	if b.Unlimited {
		return "unlimited"
	}
	return fmt.Sprintf("%d", b.Coins)
}

func (u *UserProgress) Balance() CoinBalance {
	if u.IsAdmin {
		return CoinBalance{Unlimited: true}
	}
	return CoinBalance{Coins: u.Coins}
}

// HasCompleted reports whether the completion key is already recorded.
func (u *UserProgress) HasCompleted(key string) bool {
	for _, k := range u.CompletedLessons {
		if k == key {
			return true
		}
	}
	return false
}

// RecentCompletions returns the last n completion keys, newest first.
// Insertion order of completed_lessons is append-only, so the tail is the
// most recent activity.
func (u *UserProgress) RecentCompletions(n int) []string {
	total := len(u.CompletedLessons)
	if n > total {
		n = total
	}
	recent := make([]string, 0, n)
	for i := total - 1; i >= total-n; i-- {
		recent = append(recent, u.CompletedLessons[i])
	}
	return recent
}

// LessonKey builds the completion key for a lesson. Language and lesson ids
// are validated at catalog load time to never contain the separator, so keys
// cannot collide across languages.
func LessonKey(languageID, lessonID string) string {
	return languageID + "-" + lessonID
}
