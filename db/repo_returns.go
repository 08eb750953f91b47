package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"smartstock/apperr"
	"smartstock/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReturnInput struct {
	Condition   models.ReturnCondition
	FailureNote string
	PhotoKey    string
}

type ReturnOutcome struct {
	Line       models.LoanLine `json:"line"`
	Tool       models.Tool     `json:"tool"`
	LoanClosed bool            `json:"loanClosed"`
	// ToolUntouched 工具已停用（如先报失再归还），只关闭借用行，状态保持不变
	ToolUntouched bool `json:"toolUntouched"`
}

// ReturnTool 按编号归还：找工具（不论 active）→ 找未归还行 → 关闭 → 更新工具状态
func (r *Repo) ReturnTool(ctx context.Context, code string, in ReturnInput) (*ReturnOutcome, error) {
	code = strings.TrimSpace(code)
	if !in.Condition.Valid() {
		return nil, apperr.Validation("%s: invalid condition %q", code, in.Condition)
	}
	var out ReturnOutcome
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("code = ?", code).
			First(&out.Tool).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("%s: tool does not exist", code)
			}
			return err
		}

		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tool_id = ? AND returned = ?", out.Tool.ID, false).
			Order("id ASC").
			First(&out.Line).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Conflict("%s: not currently loaned", code)
			}
			return err
		}

		closed, err := closeLine(tx, &out.Line, in, time.Now().UTC())
		if err != nil {
			if errors.Is(err, apperr.ErrConflict) {
				return apperr.Conflict("%s: not currently loaned", code)
			}
			return err
		}
		out.LoanClosed = closed

		if !out.Tool.Active || out.Tool.Status.Decommissioned() {
			out.ToolUntouched = true
			return nil
		}
		next := in.Condition.StatusAfterReturn()
		if err := tx.Model(&models.Tool{}).
			Where("id = ?", out.Tool.ID).
			Update("status", next).Error; err != nil {
			return err
		}
		out.Tool.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// closeLine 关闭一条借用行；已归还的行不会被重新打开。
// 借单下没有未归还行时写 closed_at，先到者生效。
func closeLine(tx *gorm.DB, line *models.LoanLine, in ReturnInput, now time.Time) (loanClosed bool, err error) {
	res := tx.Model(&models.LoanLine{}).
		Where("id = ? AND returned = ?", line.ID, false).
		Updates(map[string]any{
			"returned":           true,
			"returned_at":        now,
			"return_condition":   string(in.Condition),
			"failure_note":       strings.TrimSpace(in.FailureNote),
			"evidence_photo_key": in.PhotoKey,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, apperr.Conflict("loan line %d is already returned", line.ID)
	}
	cond := in.Condition
	line.Returned = true
	line.ReturnedAt = &now
	line.ReturnCondition = &cond
	line.FailureNote = strings.TrimSpace(in.FailureNote)
	line.EvidencePhotoKey = in.PhotoKey

	var open int64
	if err := tx.Model(&models.LoanLine{}).
		Where("loan_id = ? AND returned = ?", line.LoanID, false).
		Count(&open).Error; err != nil {
		return false, err
	}
	if open > 0 {
		return false, nil
	}
	res = tx.Model(&models.Loan{}).
		Where("id = ? AND closed_at IS NULL", line.LoanID).
		Update("closed_at", now)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
