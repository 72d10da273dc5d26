package content

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"

	"learning-service/internal/models"
)

//go:embed data/*.json
var lessonData embed.FS

var ErrNotFound = errors.New("content: not found")

// idPattern is deliberately hyphen-free: completion keys join language and
// lesson ids with "-", so ids containing the separator could produce
// ambiguous keys across languages.
var idPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Catalog is the immutable lesson catalog, loaded once at startup from the
// embedded per-language records.
type Catalog struct {
	languages []models.Language
	byID      map[string]*models.Language
}

// Load reads and validates every embedded language record. Languages are
// ordered by their position field.
func Load() (*Catalog, error) {
	entries, err := lessonData.ReadDir("data")
	if err != nil {
		return nil, fmt.Errorf("content: reading embedded data: %w", err)
	}

	var languages []models.Language
	for _, entry := range entries {
		raw, err := lessonData.ReadFile("data/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("content: reading %s: %w", entry.Name(), err)
		}
		var lang models.Language
		if err := json.Unmarshal(raw, &lang); err != nil {
			return nil, fmt.Errorf("content: parsing %s: %w", entry.Name(), err)
		}
		if err := validateLanguage(&lang); err != nil {
			return nil, fmt.Errorf("content: %s: %w", entry.Name(), err)
		}
		languages = append(languages, lang)
	}

	sort.Slice(languages, func(i, j int) bool {
		return languages[i].Position < languages[j].Position
	})

	byID := make(map[string]*models.Language, len(languages))
	for i := range languages {
		if _, dup := byID[languages[i].ID]; dup {
			return nil, fmt.Errorf("content: duplicate language id %q", languages[i].ID)
		}
		byID[languages[i].ID] = &languages[i]
	}

	return &Catalog{languages: languages, byID: byID}, nil
}

func validateLanguage(lang *models.Language) error {
	if !idPattern.MatchString(lang.ID) {
		return fmt.Errorf("invalid language id %q", lang.ID)
	}
	if lang.Name == "" {
		return fmt.Errorf("language %q has no name", lang.ID)
	}
	if len(lang.Lessons) == 0 {
		return fmt.Errorf("language %q has no lessons", lang.ID)
	}
	seen := make(map[string]bool, len(lang.Lessons))
	for i := range lang.Lessons {
		lesson := &lang.Lessons[i]
		if !idPattern.MatchString(lesson.ID) {
			return fmt.Errorf("language %q: invalid lesson id %q", lang.ID, lesson.ID)
		}
		if seen[lesson.ID] {
			return fmt.Errorf("language %q: duplicate lesson id %q", lang.ID, lesson.ID)
		}
		seen[lesson.ID] = true
		if len(lesson.Quiz) == 0 {
			return fmt.Errorf("language %q lesson %q: has no quiz", lang.ID, lesson.ID)
		}
		for qi, q := range lesson.Quiz {
			if len(q.Options) < 2 {
				return fmt.Errorf("language %q lesson %q: question %d has too few options", lang.ID, lesson.ID, qi)
			}
			if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
				return fmt.Errorf("language %q lesson %q: question %d correct answer out of range", lang.ID, lesson.ID, qi)
			}
		}
		for ci, ch := range lesson.Challenges {
			if ch.ExpectedOutput == "" {
				return fmt.Errorf("language %q lesson %q: challenge %d has no expected output", lang.ID, lesson.ID, ci)
			}
		}
	}
	return nil
}

// Languages returns all languages in catalog order.
func (c *Catalog) Languages() []models.Language {
	return c.languages
}

func (c *Catalog) Language(id string) (*models.Language, error) {
	lang, ok := c.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return lang, nil
}

func (c *Catalog) Lesson(languageID, lessonID string) (*models.Lesson, error) {
	lang, err := c.Language(languageID)
	if err != nil {
		return nil, err
	}
	idx := lang.LessonIndex(lessonID)
	if idx < 0 {
		return nil, ErrNotFound
	}
	return &lang.Lessons[idx], nil
}
