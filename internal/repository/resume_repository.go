package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sourcehire/talent-api/internal/models"
)

// ResumeRepository reads the candidate projection table maintained by the
// external profile store. This service never writes to it.
type ResumeRepository struct {
	db *sqlx.DB
}

// NewResumeRepository constructs the repository.
func NewResumeRepository(db *sqlx.DB) *ResumeRepository {
	return &ResumeRepository{db: db}
}

const resumeColumns = `id, full_name, display_name, title, country, city, skills, experience_years, email, phone, resume_url, updated_at`

// FindByID loads one full projection row, private fields included. The
// private fields only ever leave this service inside an unlock grant
// snapshot. sql.ErrNoRows passes through.
func (r *ResumeRepository) FindByID(ctx context.Context, id string) (*models.Resume, error) {
	query := fmt.Sprintf(`SELECT %s FROM resumes WHERE id = $1`, resumeColumns)

	var resume models.Resume
	if err := r.db.GetContext(ctx, &resume, query, id); err != nil {
		return nil, err
	}
	return &resume, nil
}

// FindByIDs loads the projections that exist among the given ids.
func (r *ResumeRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Resume, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM resumes WHERE id = ANY($1)`, resumeColumns)

	var resumes []models.Resume
	if err := r.db.SelectContext(ctx, &resumes, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("load resumes: %w", err)
	}
	return resumes, nil
}

// Search returns one page of projections matching the normalized filters,
// newest profile updates first with id as the tie breaker.
func (r *ResumeRepository) Search(ctx context.Context, filters models.SearchFilters, limit, offset int) ([]models.Resume, error) {
	where, args := buildResumeFilter(filters)

	args = append(args, limit)
	limitPos := len(args)
	args = append(args, offset)
	offsetPos := len(args)

	query := fmt.Sprintf(`
SELECT %s
FROM resumes
%s
ORDER BY updated_at DESC, id ASC
LIMIT $%d OFFSET $%d`, resumeColumns, where, limitPos, offsetPos)

	var resumes []models.Resume
	if err := r.db.SelectContext(ctx, &resumes, query, args...); err != nil {
		return nil, fmt.Errorf("search resumes: %w", err)
	}
	return resumes, nil
}

// Count returns the total matches for the normalized filters.
func (r *ResumeRepository) Count(ctx context.Context, filters models.SearchFilters) (int, error) {
	where, args := buildResumeFilter(filters)

	var total int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM resumes %s`, where)
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count resumes: %w", err)
	}
	return total, nil
}

func buildResumeFilter(filters models.SearchFilters) (string, []interface{}) {
	f := filters.Normalize()

	clauses := []string{}
	args := []interface{}{}

	if f.Keyword != "" {
		args = append(args, "%"+f.Keyword+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(display_name ILIKE $%d OR title ILIKE $%d)", n, n))
	}
	if len(f.Skills) > 0 {
		args = append(args, pq.Array(f.Skills))
		clauses = append(clauses, fmt.Sprintf("skills @> $%d::text[]", len(args)))
	}
	if f.Country != "" {
		args = append(args, f.Country)
		clauses = append(clauses, fmt.Sprintf("LOWER(country) = $%d", len(args)))
	}
	if f.City != "" {
		args = append(args, f.City)
		clauses = append(clauses, fmt.Sprintf("LOWER(city) = $%d", len(args)))
	}
	if f.Title != "" {
		args = append(args, "%"+f.Title+"%")
		clauses = append(clauses, fmt.Sprintf("title ILIKE $%d", len(args)))
	}
	if f.MinExperience > 0 {
		args = append(args, f.MinExperience)
		clauses = append(clauses, fmt.Sprintf("experience_years >= $%d", len(args)))
	}
	if f.MaxExperience > 0 {
		args = append(args, f.MaxExperience)
		clauses = append(clauses, fmt.Sprintf("experience_years <= $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}
