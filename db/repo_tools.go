package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"smartstock/apperr"
	"smartstock/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ToolInput struct {
	Name       string `json:"name"`
	Brand      string `json:"brand"`
	Model      string `json:"model"`
	CategoryID uint   `json:"categoryId"`
	LocationID uint   `json:"locationId"`
}

func (in *ToolInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Brand = strings.TrimSpace(in.Brand)
	in.Model = strings.TrimSpace(in.Model)
	switch {
	case in.Name == "":
		return apperr.Validation("tool name is required")
	case in.Brand == "":
		return apperr.Validation("tool brand is required")
	case in.CategoryID == 0:
		return apperr.Validation("category is required")
	case in.LocationID == 0:
		return apperr.Validation("location is required")
	}
	return nil
}

func checkCatalogRefs(tx *gorm.DB, categoryID, locationID uint) error {
	var n int64
	if err := tx.Model(&models.Category{}).Where("id = ? AND active = ?", categoryID, true).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return apperr.Validation("category %d not found or inactive", categoryID)
	}
	if err := tx.Model(&models.Location{}).Where("id = ? AND active = ?", locationID, true).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return apperr.Validation("location %d not found or inactive", locationID)
	}
	return nil
}

// CreateTool 插入占位编号拿到 ID，再写回 TOOL-<id>；两步在同一事务里，占位编号对外不可见
func (r *Repo) CreateTool(ctx context.Context, in ToolInput) (*models.Tool, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	var t models.Tool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkCatalogRefs(tx, in.CategoryID, in.LocationID); err != nil {
			return err
		}
		t = models.Tool{
			Code:       "PENDING-" + uuid.NewString(),
			Name:       in.Name,
			Brand:      in.Brand,
			Model:      in.Model,
			Status:     models.StatusAvailable,
			Active:     true,
			CategoryID: in.CategoryID,
			LocationID: in.LocationID,
		}
		if err := tx.Omit(clause.Associations).Create(&t).Error; err != nil {
			return fmt.Errorf("insert tool: %w", err)
		}
		t.Code = models.ToolCode(t.ID)
		return tx.Model(&models.Tool{}).Where("id = ?", t.ID).Update("code", t.Code).Error
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTool 只改描述字段；编号、状态、active 只能走生命周期操作
func (r *Repo) UpdateTool(ctx context.Context, id uint, in ToolInput) (*models.Tool, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	var t models.Tool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&t, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "tool %d not found", id)
		}
		if err := checkCatalogRefs(tx, in.CategoryID, in.LocationID); err != nil {
			return err
		}
		if err := tx.Model(&models.Tool{}).Where("id = ?", id).Updates(map[string]any{
			"name":        in.Name,
			"brand":       in.Brand,
			"model":       in.Model,
			"category_id": in.CategoryID,
			"location_id": in.LocationID,
		}).Error; err != nil {
			return err
		}
		return tx.First(&t, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repo) FindToolByID(ctx context.Context, id uint) (*models.Tool, error) {
	var t models.Tool
	if err := r.DB.WithContext(ctx).Preload("Category").Preload("Location").First(&t, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "tool %d not found", id)
	}
	return &t, nil
}

// FindToolByCode 返回 nil, nil 表示编号不存在
func (r *Repo) FindToolByCode(ctx context.Context, code string) (*models.Tool, error) {
	var t models.Tool
	err := r.DB.WithContext(ctx).Where("code = ?", strings.TrimSpace(code)).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
