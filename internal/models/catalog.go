package models

type CodeExample struct {
	Title       string `bson:"title" json:"title"`
	Code        string `bson:"code" json:"code"`
	Explanation string `bson:"explanation" json:"explanation"`
}

type LessonContent struct {
	Theory       string        `bson:"theory" json:"theory"`
	CodeExamples []CodeExample `bson:"code_examples" json:"code_examples"`
	KeyPoints    []string      `bson:"key_points" json:"key_points"`
}

type QuizQuestion struct {
	Question      string   `bson:"question" json:"question"`
	Options       []string `bson:"options" json:"options"`
	CorrectAnswer int      `bson:"correct_answer" json:"correct_answer"`
}

type Challenge struct {
	Instruction    string `bson:"instruction" json:"instruction"`
	ExpectedOutput string `bson:"expected_output" json:"expected_output"`
	Hint           string `bson:"hint" json:"hint"`
	StarterCode    string `bson:"starter_code" json:"starter_code"`
}

type Lesson struct {
	ID          string         `bson:"id" json:"id"`
	Title       string         `bson:"title" json:"title"`
	Description string         `bson:"description" json:"description"`
	Duration    string         `bson:"duration" json:"duration"`
	XP          int            `bson:"xp" json:"xp"`
	Content     LessonContent  `bson:"content" json:"content"`
	Quiz        []QuizQuestion `bson:"quiz" json:"quiz"`
	Challenges  []Challenge    `bson:"challenges" json:"challenges"`
}

type Language struct {
	ID          string   `bson:"id" json:"id"`
	Name        string   `bson:"name" json:"name"`
	Icon        string   `bson:"icon" json:"icon"`
	Color       string   `bson:"color" json:"color"`
	Description string   `bson:"description" json:"description"`
	Position    int      `bson:"position" json:"position"`
	Lessons     []Lesson `bson:"lessons" json:"lessons"`
}

// LessonIndex returns the position of a lesson within the language, or -1.
func (l *Language) LessonIndex(lessonID string) int {
	for i := range l.Lessons {
		if l.Lessons[i].ID == lessonID {
			return i
		}
	}
	return -1
}
