// models/tool.go
package models

import (
	"fmt"
	"time"
)

const (
	CategoryTable = "bodega_categories"
	LocationTable = "bodega_locations"
	ToolTable     = "bodega_tools"
)

// ToolCodePrefix 加上记录 ID 组成扫码用的唯一编号
const ToolCodePrefix = "TOOL-"

// ToolCode derives the immutable scan code of a tool from its record ID.
func ToolCode(id uint) string { return fmt.Sprintf("%s%d", ToolCodePrefix, id) }

type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:50;not null" json:"name"`
	Description string    `gorm:"size:255" json:"description,omitempty"`
	Active      bool      `gorm:"not null;default:true;index" json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Location struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:50;not null" json:"name"`
	Description string    `gorm:"size:255" json:"description,omitempty"`
	Active      bool      `gorm:"not null;default:true;index" json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Tool struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Code  string `gorm:"size:100;uniqueIndex;not null" json:"code"` // 创建时分配，之后不可变
	Name  string `gorm:"size:100;not null" json:"name"`
	Brand string `gorm:"size:50;not null" json:"brand"`
	Model string `gorm:"size:50" json:"model,omitempty"`

	Status ToolStatus `gorm:"size:30;not null;default:'AVAILABLE';index" json:"status"`
	// Active=false 只出现在 DECOMMISSIONED_* 状态
	Active bool `gorm:"not null;default:true;index" json:"active"`

	CategoryID uint      `gorm:"not null;index" json:"categoryId"`
	Category   *Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"category,omitempty"`
	LocationID uint      `gorm:"not null;index" json:"locationId"`
	Location   *Location `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"location,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Category) TableName() string { return CategoryTable }
func (Location) TableName() string { return LocationTable }
func (Tool) TableName() string     { return ToolTable }
