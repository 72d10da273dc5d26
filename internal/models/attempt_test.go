package models

import "testing"

func TestScore(t *testing.T) {
	cases := []struct {
		name           string
		quizTotal      int
		quizCorrect    int
		challengeTotal int
		challengeRuns  []*ChallengeRun
		want           float64
	}{
		{"all correct", 3, 3, 0, nil, 100},
		{"half quiz only", 4, 2, 0, nil, 75},
		{"no quiz no challenges", 0, 0, 0, nil, 100},
		{"quiz perfect challenge failed", 2, 2, 1, []*ChallengeRun{{Correct: false}}, 50},
		{"quiz perfect challenge passed", 2, 2, 1, []*ChallengeRun{{Correct: true}}, 100},
		{"unrun challenge counts as wrong", 2, 2, 2, []*ChallengeRun{{Correct: true}, nil}, 75},
		{"everything skipped", 3, 0, 2, []*ChallengeRun{nil, nil}, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := &LessonAttempt{
				QuizTotal:      tc.quizTotal,
				ChallengeTotal: tc.challengeTotal,
				ChallengeRuns:  tc.challengeRuns,
			}
			for i := 0; i < tc.quizTotal; i++ {
				a.QuizAnswers = append(a.QuizAnswers, QuizAnswer{Correct: i < tc.quizCorrect})
			}
			if got := a.Score(); got != tc.want {
				t.Errorf("Expected score %.2f, got %.2f", tc.want, got)
			}
		})
	}
}

func TestStarsFor(t *testing.T) {
	cases := []struct {
		score float64
		want  int
	}{
		{100, 5},
		{90, 5},
		{89.99, 4},
		{75, 4},
		{74.99, 3},
		{60, 3},
		{59.99, 2},
		{40, 2},
		{39.99, 1},
		{0, 1},
	}

	for _, tc := range cases {
		if got := StarsFor(tc.score); got != tc.want {
			t.Errorf("Expected %d stars for score %.2f, got %d", tc.want, tc.score, got)
		}
	}
}

func TestLessonKey(t *testing.T) {
	if got := LessonKey("python", "intro"); got != "python-intro" {
		t.Errorf("Expected python-intro, got %s", got)
	}

	a := &LessonAttempt{LanguageID: "go", LessonID: "1"}
	if got := a.LessonKey(); got != "go-1" {
		t.Errorf("Expected go-1, got %s", got)
	}
}
