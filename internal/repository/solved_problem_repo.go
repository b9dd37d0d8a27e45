package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-judge-api/internal/models"
)

// SolvedProblemRepository tracks which problems each user has solved.
type SolvedProblemRepository interface {
	MarkSolved(ctx context.Context, userID, problemID uint) error
	IsSolved(ctx context.Context, userID, problemID uint) (bool, error)
	ListSolved(ctx context.Context, userID uint) ([]uint, error)
}

// NewSolvedProblemRepository constructs a solved problem repository.
func NewSolvedProblemRepository(db *gorm.DB) SolvedProblemRepository {
	return &solvedProblemRepository{db: db, now: time.Now}
}

type solvedProblemRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// MarkSolved is idempotent; the first solve time is kept.
func (r *solvedProblemRepository) MarkSolved(ctx context.Context, userID, problemID uint) error {
	record := models.SolvedProblem{UserID: userID, ProblemID: problemID, SolvedAt: r.now().UTC()}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&record).Error
}

func (r *solvedProblemRepository) IsSolved(ctx context.Context, userID, problemID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SolvedProblem{}).
		Where("user_id = ? AND problem_id = ?", userID, problemID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *solvedProblemRepository) ListSolved(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.SolvedProblem{}).
		Where("user_id = ?", userID).
		Order("solved_at ASC").
		Pluck("problem_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
