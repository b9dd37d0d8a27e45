package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-judge-api/internal/models"
)

// SubmissionRepository stores graded submissions.
type SubmissionRepository interface {
	Record(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	ListByUserAndProblem(ctx context.Context, userID, problemID uint, limit int) ([]models.Submission, error)
}

// NewSubmissionRepository constructs a submission repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

type submissionRepository struct {
	db *gorm.DB
}

func (r *submissionRepository) Record(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Omit("Problem").Create(submission).Error
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

func (r *submissionRepository) ListByUserAndProblem(ctx context.Context, userID, problemID uint, limit int) ([]models.Submission, error) {
	db := r.db.WithContext(ctx).
		Where("user_id = ? AND problem_id = ?", userID, problemID).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		db = db.Limit(limit)
	}

	var submissions []models.Submission
	if err := db.Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}
