package db

import (
	"context"
	"fmt"
	"strings"

	"smartstock/apperr"
	"smartstock/models"
)

// Categories & locations

func (r *Repo) CreateCategory(ctx context.Context, c *models.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return apperr.Validation("category name is required")
	}
	c.Active = true
	if err := r.DB.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *Repo) ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	var out []models.Category
	q := r.DB.WithContext(ctx).Order("name ASC")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	err := q.Find(&out).Error
	return out, err
}

func (r *Repo) DeactivateCategory(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("category %d not found", id)
	}
	return nil
}

func (r *Repo) CreateLocation(ctx context.Context, l *models.Location) error {
	l.Name = strings.TrimSpace(l.Name)
	if l.Name == "" {
		return apperr.Validation("location name is required")
	}
	l.Active = true
	if err := r.DB.WithContext(ctx).Create(l).Error; err != nil {
		return fmt.Errorf("insert location: %w", err)
	}
	return nil
}

func (r *Repo) ListLocations(ctx context.Context, activeOnly bool) ([]models.Location, error) {
	var out []models.Location
	q := r.DB.WithContext(ctx).Order("name ASC")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	err := q.Find(&out).Error
	return out, err
}

func (r *Repo) DeactivateLocation(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Model(&models.Location{}).Where("id = ?", id).Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("location %d not found", id)
	}
	return nil
}

// Workers

func (r *Repo) CreateWorker(ctx context.Context, w *models.Worker) error {
	w.NationalID = strings.TrimSpace(w.NationalID)
	w.FirstName = strings.TrimSpace(w.FirstName)
	w.LastName = strings.TrimSpace(w.LastName)
	switch {
	case w.NationalID == "":
		return apperr.Validation("national id is required")
	case len(w.NationalID) > 12:
		return apperr.Validation("national id must be at most 12 characters")
	case w.FirstName == "" || w.LastName == "":
		return apperr.Validation("first and last name are required")
	}
	w.Active = true
	if err := r.DB.WithContext(ctx).Create(w).Error; err != nil {
		if isDuplicate(err) {
			return apperr.Conflict("a worker with national id %s already exists", w.NationalID)
		}
		return fmt.Errorf("insert worker: %w", err)
	}
	return nil
}

func (r *Repo) FindWorkerByID(ctx context.Context, id uint) (*models.Worker, error) {
	var w models.Worker
	if err := r.DB.WithContext(ctx).First(&w, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "worker %d not found", id)
	}
	return &w, nil
}

// ListWorkers 在岗的排前面，再按姓名
func (r *Repo) ListWorkers(ctx context.Context, activeOnly bool) ([]models.Worker, error) {
	var out []models.Worker
	q := r.DB.WithContext(ctx).
		Order("active DESC").
		Order("last_name ASC").
		Order("first_name ASC")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	err := q.Find(&out).Error
	return out, err
}

func (r *Repo) DeactivateWorker(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Model(&models.Worker{}).Where("id = ?", id).Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("worker %d not found", id)
	}
	return nil
}
