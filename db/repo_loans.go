package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"smartstock/apperr"
	"smartstock/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OpenLoan 先建借单头，逐个工具再挂借用行
func (r *Repo) OpenLoan(ctx context.Context, workerID uint, staffUserID, notes string) (*models.Loan, error) {
	l := &models.Loan{
		WorkerID:    workerID,
		StaffUserID: staffUserID,
		RequestedAt: time.Now().UTC(),
		Notes:       strings.TrimSpace(notes),
	}
	if err := r.DB.WithContext(ctx).Omit(clause.Associations).Create(l).Error; err != nil {
		if isForeignKey(err) {
			return nil, apperr.Validation("worker or staff user does not exist")
		}
		return nil, fmt.Errorf("insert loan: %w", err)
	}
	return l, nil
}

// CheckoutTool 借出一个工具：锁工具 → 条件更新 AVAILABLE→IN_USE → 新建借用行，同一事务。
// 条件更新影响 0 行说明被并发借走；部分唯一索引兜底。
func (r *Repo) CheckoutTool(ctx context.Context, loanID uint, code string) (*models.LoanLine, *models.Tool, error) {
	code = strings.TrimSpace(code)
	var (
		line models.LoanLine
		t    models.Tool
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("code = ? AND active = ?", code, true).
			First(&t).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("%s: code not found or decommissioned", code)
			}
			return err
		}
		if t.Status != models.StatusAvailable {
			return apperr.Conflict("%s: %s not available (%s)", code, t.Name, t.Status)
		}

		res := tx.Model(&models.Tool{}).
			Where("id = ? AND status = ? AND active = ?", t.ID, models.StatusAvailable, true).
			Update("status", models.StatusInUse)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var now models.Tool
			if err := tx.Select("status").First(&now, "id = ?", t.ID).Error; err != nil {
				return err
			}
			return apperr.Conflict("%s: %s not available (%s)", code, t.Name, now.Status)
		}

		line = models.LoanLine{LoanID: loanID, ToolID: t.ID}
		if err := tx.Omit(clause.Associations).Create(&line).Error; err != nil {
			if isDuplicate(err) {
				return apperr.Conflict("%s: %s not available (%s)", code, t.Name, models.StatusInUse)
			}
			return fmt.Errorf("insert loan line: %w", err)
		}
		t.Status = models.StatusInUse
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &line, &t, nil
}

// DiscardLoan 删除没有任何借用行的借单头
func (r *Repo) DiscardLoan(ctx context.Context, loanID uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.LoanLine{}).Where("loan_id = ?", loanID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.Conflict("loan %d has lines and cannot be discarded", loanID)
		}
		return tx.Delete(&models.Loan{}, loanID).Error
	})
}

func (r *Repo) FindLoanByID(ctx context.Context, id uint) (*models.Loan, error) {
	var l models.Loan
	if err := r.DB.WithContext(ctx).
		Preload("Worker").
		Preload("StaffUser").
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Lines.Tool").
		First(&l, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "loan %d not found", id)
	}
	return &l, nil
}

func (r *Repo) FindLineByID(ctx context.Context, id uint) (*models.LoanLine, error) {
	var ll models.LoanLine
	if err := r.DB.WithContext(ctx).First(&ll, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "loan line %d not found", id)
	}
	return &ll, nil
}

type LoanQuery struct {
	State    string // "", "open", "closed"
	WorkerID uint
	Page     int
	Size     int
}

type PagedLoans struct {
	Total int64         `json:"total"`
	Loans []models.Loan `json:"loans"`
}

func (r *Repo) ListLoans(ctx context.Context, q LoanQuery) (*PagedLoans, error) {
	page, size := normalizePage(q.Page, q.Size, 20, 200)

	tx := r.DB.WithContext(ctx).Model(&models.Loan{})
	switch q.State {
	case "open":
		tx = tx.Where("closed_at IS NULL")
	case "closed":
		tx = tx.Where("closed_at IS NOT NULL")
	}
	if q.WorkerID != 0 {
		tx = tx.Where("worker_id = ?", q.WorkerID)
	}
	tx = tx.Session(&gorm.Session{})

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}
	var loans []models.Loan
	if err := tx.
		Preload("Worker").
		Preload("StaffUser").
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Lines.Tool").
		Order("requested_at DESC").Order("id DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&loans).Error; err != nil {
		return nil, err
	}
	return &PagedLoans{Total: total, Loans: loans}, nil
}
