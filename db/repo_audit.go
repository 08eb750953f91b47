package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"smartstock/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// appendEvent 审计只追加；actorID 为空记为 NULL
func appendEvent(tx *gorm.DB, toolID uint, action models.AuditAction, reason, actorID string) (*models.DecommissionEvent, error) {
	ev := &models.DecommissionEvent{
		ToolID:     toolID,
		OccurredAt: time.Now().UTC(),
		Action:     action,
		Reason:     reason,
	}
	if actorID != "" {
		ev.ActorID = &actorID
	}
	if err := tx.Omit(clause.Associations).Create(ev).Error; err != nil {
		return nil, fmt.Errorf("insert decommission event: %w", err)
	}
	return ev, nil
}

type DecommissionEventRow struct {
	ID            uint               `json:"id"`
	OccurredAt    time.Time          `json:"occurredAt"`
	Action        models.AuditAction `json:"action"`
	Reason        string             `json:"reason"`
	ToolID        uint               `json:"toolId"`
	ToolCode      string             `json:"toolCode"`
	ToolName      string             `json:"toolName"`
	ActorID       *string            `json:"actorId,omitempty"`
	ActorUsername *string            `json:"actorUsername,omitempty"`
}

type AuditQuery struct {
	Q    string // 工具编号/名称、原因、操作人
	From *time.Time
	To   *time.Time // 不含
	Sort string     // date|action|tool|reason|user，前缀 - 表示降序
	Page int
	Size int
}

type PagedDecommissionEvents struct {
	Total  int64                  `json:"total"`
	Events []DecommissionEventRow `json:"events"`
}

var decommissionSorts = map[string]string{
	"date":   "e.occurred_at",
	"action": "e.action",
	"tool":   "t.name",
	"reason": "e.reason",
	"user":   "u.username",
}

func (r *Repo) ListDecommissionEvents(ctx context.Context, q AuditQuery) (*PagedDecommissionEvents, error) {
	page, size := normalizePage(q.Page, q.Size, 50, 500)

	qry := r.DB.WithContext(ctx).
		Table(models.DecommissionEventTable + " e").
		Joins("JOIN " + models.ToolTable + " t ON t.id = e.tool_id").
		Joins("LEFT JOIN " + models.StaffUserTable + " u ON u.id = e.actor_id")
	if s := strings.TrimSpace(q.Q); s != "" {
		pat := "%" + strings.ToLower(s) + "%"
		qry = qry.Where("LOWER(t.code) LIKE ? OR LOWER(t.name) LIKE ? OR LOWER(e.reason) LIKE ? OR LOWER(u.username) LIKE ?",
			pat, pat, pat, pat)
	}
	if q.From != nil {
		qry = qry.Where("e.occurred_at >= ?", q.From.UTC())
	}
	if q.To != nil {
		qry = qry.Where("e.occurred_at < ?", q.To.UTC())
	}
	qry = qry.Session(&gorm.Session{})

	var total int64
	if err := qry.Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []DecommissionEventRow
	if err := qry.
		Select(`
			e.id, e.occurred_at, e.action, e.reason, e.tool_id, e.actor_id,
			t.code AS tool_code,
			t.name AS tool_name,
			u.username AS actor_username
		`).
		Order(orderBy(decommissionSorts, q.Sort, "-date", "e.id")).
		Offset((page - 1) * size).
		Limit(size).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return &PagedDecommissionEvents{Total: total, Events: rows}, nil
}

// orderBy 把调用方给的排序键映射成固定的 ORDER BY；未知键用默认值
func orderBy(sorts map[string]string, key, def, tiebreak string) string {
	key = strings.TrimSpace(key)
	col, ok := sorts[strings.TrimPrefix(key, "-")]
	if !ok {
		key = def
		col = sorts[strings.TrimPrefix(def, "-")]
	}
	dir := "ASC"
	if strings.HasPrefix(key, "-") {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s, %s %s", col, dir, tiebreak, dir)
}
