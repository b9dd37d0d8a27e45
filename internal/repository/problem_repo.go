package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-judge-api/internal/models"
)

// ProblemQuery defines filters and pagination for problems.
type ProblemQuery struct {
	Difficulty string
	Search     string
	Tags       []string
	Offset     int
	Limit      int
}

// ProblemCases is everything an evaluation needs from a stored problem.
type ProblemCases struct {
	Visible     []models.TestCase
	Hidden      []models.TestCase
	Boilerplate map[string]string
	References  []models.ReferenceSolution
}

// ProblemRepository exposes persistence operations for problems.
type ProblemRepository interface {
	Create(ctx context.Context, problem *models.Problem) error
	GetByID(ctx context.Context, id uint) (models.Problem, error)
	List(ctx context.Context, query ProblemQuery) ([]models.Problem, int64, error)
	ListByIDs(ctx context.Context, ids []uint) ([]models.Problem, error)
	GetTestCases(ctx context.Context, id uint) (ProblemCases, error)
}

// NewProblemRepository constructs a problem repository.
func NewProblemRepository(db *gorm.DB) ProblemRepository {
	return &problemRepository{db: db}
}

type problemRepository struct {
	db *gorm.DB
}

// Create inserts the problem together with its test cases and reference
// solutions in a single transaction.
func (r *problemRepository) Create(ctx context.Context, problem *models.Problem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(problem).Error
	})
}

func (r *problemRepository) GetByID(ctx context.Context, id uint) (models.Problem, error) {
	var problem models.Problem
	err := r.db.WithContext(ctx).
		Preload("TestCases", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("References").
		First(&problem, id).Error
	if err != nil {
		return models.Problem{}, err
	}
	return problem, nil
}

func (r *problemRepository) List(ctx context.Context, query ProblemQuery) ([]models.Problem, int64, error) {
	db := r.db.WithContext(ctx).Model(&models.Problem{})

	if query.Difficulty != "" {
		db = db.Where("LOWER(difficulty) = ?", strings.ToLower(query.Difficulty))
	}

	if query.Search != "" {
		pattern := fmt.Sprintf("%%%s%%", strings.ToLower(query.Search))
		db = db.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	for _, tag := range query.Tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		db = db.Where("LOWER(tags) LIKE ?", fmt.Sprintf("%%%s%%", strings.ToLower(trimmed)))
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if query.Offset > 0 {
		db = db.Offset(query.Offset)
	}
	if query.Limit > 0 {
		db = db.Limit(query.Limit)
	}

	var problems []models.Problem
	if err := db.Order("created_at DESC").Find(&problems).Error; err != nil {
		return nil, 0, err
	}

	return problems, total, nil
}

// ListByIDs returns the problems in the order of ids. Unknown ids are skipped.
func (r *problemRepository) ListByIDs(ctx context.Context, ids []uint) ([]models.Problem, error) {
	if len(ids) == 0 {
		return []models.Problem{}, nil
	}

	var found []models.Problem
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]models.Problem, len(found))
	for _, problem := range found {
		byID[problem.ID] = problem
	}
	ordered := make([]models.Problem, 0, len(found))
	for _, id := range ids {
		if problem, ok := byID[id]; ok {
			ordered = append(ordered, problem)
		}
	}
	return ordered, nil
}

func (r *problemRepository) GetTestCases(ctx context.Context, id uint) (ProblemCases, error) {
	problem, err := r.GetByID(ctx, id)
	if err != nil {
		return ProblemCases{}, err
	}

	cases := ProblemCases{
		Boilerplate: make(map[string]string, len(problem.Boilerplate)),
		References:  problem.References,
	}
	for language := range problem.Boilerplate {
		cases.Boilerplate[language] = problem.BoilerplateFor(language)
	}
	for _, tc := range problem.TestCases {
		if tc.Visible {
			cases.Visible = append(cases.Visible, tc)
		} else {
			cases.Hidden = append(cases.Hidden, tc)
		}
	}

	return cases, nil
}
