package models

import "time"

type AttemptPhase string

const (
	PhaseTheory    AttemptPhase = "theory"
	PhaseQuiz      AttemptPhase = "quiz"
	PhaseChallenge AttemptPhase = "challenge"
	PhaseComplete  AttemptPhase = "complete"
)

type AttemptStatus string

const (
	// AttemptActive accepts quiz answers and challenge runs.
	AttemptActive AttemptStatus = "active"
	// AttemptCompleting marks a completion request in flight; concurrent
	// finish calls for the same attempt are rejected while in this state.
	AttemptCompleting AttemptStatus = "completing"
	// AttemptComplete is terminal.
	AttemptComplete AttemptStatus = "complete"
)

// QuizAnswer records one answered question. Answers are immutable once given.
type QuizAnswer struct {
	Selected int  `bson:"selected" json:"selected"`
	Correct  bool `bson:"correct" json:"correct"`
}

// ChallengeRun holds the most recent run of a challenge. A nil entry means
// the challenge has never been run.
type ChallengeRun struct {
	Code    string    `bson:"code" json:"code"`
	Output  string    `bson:"output" json:"output"`
	Correct bool      `bson:"correct" json:"correct"`
	RunAt   time.Time `bson:"run_at" json:"run_at"`
}

// LessonAttempt is one pass through a lesson: theory, quiz, challenges,
// completion. Quiz and challenge totals are fixed at creation so scoring
// counts unattempted items as incorrect.
type LessonAttempt struct {
	ID             string          `bson:"_id" json:"id"`
	UserID         string          `bson:"user_id" json:"user_id"`
	LanguageID     string          `bson:"language_id" json:"language_id"`
	LessonID       string          `bson:"lesson_id" json:"lesson_id"`
	Phase          AttemptPhase    `bson:"phase" json:"phase"`
	Status         AttemptStatus   `bson:"status" json:"status"`
	QuizTotal      int             `bson:"quiz_total" json:"quiz_total"`
	QuizAnswers    []QuizAnswer    `bson:"quiz_answers" json:"quiz_answers"`
	ChallengeTotal int             `bson:"challenge_total" json:"challenge_total"`
	ChallengeIndex int             `bson:"challenge_index" json:"challenge_index"`
	ChallengeRuns  []*ChallengeRun `bson:"challenge_runs" json:"challenge_runs"`
	Stars          int             `bson:"stars" json:"stars"`
	StartedAt      time.Time       `bson:"started_at" json:"started_at"`
	FinishedAt     time.Time       `bson:"finished_at,omitempty" json:"finished_at,omitempty"`
}

func (a *LessonAttempt) LessonKey() string {
	return LessonKey(a.LanguageID, a.LessonID)
}

func (a *LessonAttempt) QuizCorrect() int {
	n := 0
	for _, ans := range a.QuizAnswers {
		if ans.Correct {
			n++
		}
	}
	return n
}

func (a *LessonAttempt) ChallengeCorrect() int {
	n := 0
	for _, run := range a.ChallengeRuns {
		if run != nil && run.Correct {
			n++
		}
	}
	return n
}

// Score combines quiz and challenge accuracy into a 0-100 total. A lesson
// with no challenges scores the challenge half at 100.
func (a *LessonAttempt) Score() float64 {
	quizScore := 100.0
	if a.QuizTotal > 0 {
		quizScore = float64(a.QuizCorrect()) / float64(a.QuizTotal) * 100
	}
	challengeScore := 100.0
	if a.ChallengeTotal > 0 {
		challengeScore = float64(a.ChallengeCorrect()) / float64(a.ChallengeTotal) * 100
	}
	return (quizScore + challengeScore) / 2
}

// StarsFor maps a combined score to a 1-5 star rating. The floor is one
// star; attempts never earn zero.
func StarsFor(total float64) int {
	switch {
	case total >= 90:
		return 5
	case total >= 75:
		return 4
	case total >= 60:
		return 3
	case total >= 40:
		return 2
	default:
		return 1
	}
}
