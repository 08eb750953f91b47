package models

import "time"

const DecommissionEventTable = "bodega_decommission_events"

type AuditAction string

const (
	ActionDecommission AuditAction = "DECOMMISSION"
	ActionReactivate   AuditAction = "REACTIVATE"
)

// DecommissionEvent 审计记录：只追加，不修改不删除。
// ActorID 在操作者被删除后置空。
type DecommissionEvent struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	ToolID     uint        `gorm:"not null;index" json:"toolId"`
	Tool       *Tool       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"tool,omitempty"`
	OccurredAt time.Time   `gorm:"not null;index" json:"occurredAt"`
	Action     AuditAction `gorm:"size:20;not null;index" json:"action"`
	Reason     string      `gorm:"size:100;not null" json:"reason"`
	ActorID    *string     `gorm:"size:36;index" json:"actorId,omitempty"`
	Actor      *StaffUser  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"actor,omitempty"`
}

func (DecommissionEvent) TableName() string { return DecommissionEventTable }
