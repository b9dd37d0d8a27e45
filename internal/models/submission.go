package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission records a graded program and its verdict.
type Submission struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ProblemID      uint           `gorm:"not null;index" json:"problem_id"`
	UserID         uint           `gorm:"not null;index" json:"user_id"`
	Language       string         `gorm:"size:32;not null" json:"language"`
	Source         string         `gorm:"type:text" json:"source"`
	Status         string         `gorm:"size:64;not null" json:"status"`
	PassedCount    int            `gorm:"not null;default:0" json:"passed_count"`
	TotalCount     int            `gorm:"not null;default:0" json:"total_count"`
	RuntimeSeconds float64        `gorm:"default:0" json:"runtime_seconds"`
	PeakMemoryKB   int            `gorm:"default:0" json:"peak_memory_kb"`
	ErrorMessage   string         `gorm:"type:text" json:"error_message"`
	Cases          datatypes.JSON `json:"cases"`
	CreatedAt      time.Time      `json:"created_at"`
	Problem        Problem        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// SolvedProblem marks a problem a user has had accepted at least once.
type SolvedProblem struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	ProblemID uint      `gorm:"primaryKey;autoIncrement:false" json:"problem_id"`
	SolvedAt  time.Time `json:"solved_at"`
}
