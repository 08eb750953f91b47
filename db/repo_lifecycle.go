package db

import (
	"context"
	"time"

	"smartstock/apperr"
	"smartstock/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func lockTool(tx *gorm.DB, id uint) (*models.Tool, error) {
	var t models.Tool
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&t, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "tool %d not found", id)
	}
	return &t, nil
}

// swapStatus 以旧状态为条件更新，影响 0 行说明被并发改过
func swapStatus(tx *gorm.DB, t *models.Tool, next models.ToolStatus, active bool) error {
	res := tx.Model(&models.Tool{}).
		Where("id = ? AND status = ?", t.ID, t.Status).
		Updates(map[string]any{"status": next, "active": active})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("%s changed state concurrently, retry", t.Code)
	}
	t.Status = next
	t.Active = active
	return nil
}

// ReleaseFromMaintenance IN_MAINTENANCE → AVAILABLE
func (r *Repo) ReleaseFromMaintenance(ctx context.Context, toolID uint) (*models.Tool, error) {
	var t *models.Tool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if t, err = lockTool(tx, toolID); err != nil {
			return err
		}
		if t.Status != models.StatusInMaintenance {
			return apperr.Conflict("%s is not in maintenance (%s)", t.Code, t.Status)
		}
		return swapStatus(tx, t, models.StatusAvailable, true)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

type DecommissionResult struct {
	Tool      models.Tool       `json:"tool"`
	NewStatus models.ToolStatus `json:"newStatus"`
	Reason    string            `json:"reason"`
}

// DecommissionTool 报废：目标状态由报废前的状态决定，同时写审计
func (r *Repo) DecommissionTool(ctx context.Context, toolID uint, actorID string) (*DecommissionResult, error) {
	var out DecommissionResult
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := lockTool(tx, toolID)
		if err != nil {
			return err
		}
		next, reason, ok := t.Status.DecommissionOutcome()
		if !ok {
			return apperr.Conflict("%s is already decommissioned (%s)", t.Code, t.Status)
		}
		if err := swapStatus(tx, t, next, false); err != nil {
			return err
		}
		if _, err := appendEvent(tx, t.ID, models.ActionDecommission, reason, actorID); err != nil {
			return err
		}
		out = DecommissionResult{Tool: *t, NewStatus: next, Reason: reason}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type ReactivateResult struct {
	Tool models.Tool `json:"tool"`
	// ClosedLines 被强制关闭的借用行数
	ClosedLines int `json:"closedLoanCount"`
	// LoansClosed 因此整单关闭的借单数
	LoansClosed int `json:"loansClosed"`
}

// ReactivateTool 恢复入库：先强制关闭该工具未归还的借用行（GOOD + 系统备注），再恢复 AVAILABLE
func (r *Repo) ReactivateTool(ctx context.Context, toolID uint, actorID string) (*ReactivateResult, error) {
	var out ReactivateResult
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := lockTool(tx, toolID)
		if err != nil {
			return err
		}
		if !t.Status.Decommissioned() {
			return apperr.Conflict("%s is not decommissioned (%s)", t.Code, t.Status)
		}

		var open []models.LoanLine
		if err := tx.Where("tool_id = ? AND returned = ?", t.ID, false).Order("id ASC").Find(&open).Error; err != nil {
			return err
		}
		now := time.Now().UTC()
		forced := ReturnInput{Condition: models.ConditionGood, FailureNote: models.ForcedReturnNote}
		for i := range open {
			closed, err := closeLine(tx, &open[i], forced, now)
			if err != nil {
				return err
			}
			out.ClosedLines++
			if closed {
				out.LoansClosed++
			}
		}

		if err := swapStatus(tx, t, models.StatusAvailable, true); err != nil {
			return err
		}
		if _, err := appendEvent(tx, t.ID, models.ActionReactivate, models.ReasonReactivated, actorID); err != nil {
			return err
		}
		out.Tool = *t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
