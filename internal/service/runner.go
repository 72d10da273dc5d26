package service

import (
	"regexp"
	"strconv"
	"strings"
)

// ChallengeRunner simulates running learner code. It is a pattern-matching
// stand-in, not an interpreter: it extracts a literal print/console.log
// argument or a two-operand arithmetic print, and falls back to a fixed
// placeholder for anything else.
type ChallengeRunner struct{}

const placeholderOutput = "program executed"

var (
	arithPattern   = regexp.MustCompile(`print\s*\(\s*(\d+)\s*([+\-*/])\s*(\d+)\s*\)`)
	printPattern   = regexp.MustCompile(`print\s*\(\s*["'](.+?)["']\s*\)`)
	consolePattern = regexp.MustCompile(`console\.log\s*\(\s*["'](.+?)["']\s*\)`)
)

// Execute produces the simulated output for a snippet of learner code.
func (ChallengeRunner) Execute(code string) string {
	if m := arithPattern.FindStringSubmatch(code); m != nil {
		a, _ := strconv.ParseFloat(m[1], 64)
		b, _ := strconv.ParseFloat(m[3], 64)
		var v float64
		switch m[2] {
		case "+":
			v = a + b
		case "-":
			v = a - b
		case "*":
			v = a * b
		case "/":
			if b == 0 {
				return placeholderOutput
			}
			v = a / b
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	if m := printPattern.FindStringSubmatch(code); m != nil {
		return m[1]
	}
	if m := consolePattern.FindStringSubmatch(code); m != nil {
		return m[1]
	}
	return placeholderOutput
}

// MatchesExpected grades a run: case-insensitive substring containment in
// either direction, so partial output and over-complete output both pass.
func MatchesExpected(output, expected string) bool {
	got := strings.ToLower(strings.TrimSpace(output))
	want := strings.ToLower(strings.TrimSpace(expected))
	if got == "" || want == "" {
		return false
	}
	return strings.Contains(got, want) || strings.Contains(want, got)
}
