package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Problem difficulties.
const (
	ProblemDifficultyEasy   = "easy"
	ProblemDifficultyMedium = "medium"
	ProblemDifficultyHard   = "hard"
)

// Problem is an authored programming problem. Test cases and reference
// solutions are immutable once the problem is created.
type Problem struct {
	ID          uint                `gorm:"primaryKey" json:"id"`
	Title       string              `gorm:"size:255;not null" json:"title"`
	Description string              `gorm:"type:text;not null" json:"description"`
	Difficulty  string              `gorm:"size:32;not null" json:"difficulty"`
	Tags        string              `gorm:"type:text" json:"tags"`
	Boilerplate datatypes.JSONMap   `json:"boilerplate"`
	AuthorID    uint                `gorm:"not null" json:"author_id"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	TestCases   []TestCase          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"test_cases"`
	References  []ReferenceSolution `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// TagsSlice returns the tags as a slice of strings.
func (p Problem) TagsSlice() []string {
	if p.Tags == "" {
		return nil
	}

	parts := strings.Split(p.Tags, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}

// BoilerplateFor returns the starter code for language, if any.
func (p Problem) BoilerplateFor(language string) string {
	if p.Boilerplate == nil {
		return ""
	}
	if value, ok := p.Boilerplate[language].(string); ok {
		return value
	}
	return ""
}

// TestCase is one input/expected output pair of a problem.
type TestCase struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	ProblemID      uint   `gorm:"not null;index" json:"problem_id"`
	Position       int    `gorm:"not null" json:"position"`
	Input          string `gorm:"type:text" json:"input"`
	ExpectedOutput string `gorm:"type:text;not null" json:"expected_output"`
	Visible        bool   `gorm:"not null;default:false" json:"visible"`
}

// ReferenceSolution is the author's program for one language.
type ReferenceSolution struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	ProblemID  uint   `gorm:"not null;index" json:"problem_id"`
	Language   string `gorm:"size:32;not null" json:"language"`
	SourceCode string `gorm:"type:text;not null" json:"source_code"`
}
