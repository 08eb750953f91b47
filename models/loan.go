// models/loan.go
package models

import "time"

const (
	WorkerTable   = "bodega_workers"
	LoanTable     = "bodega_loans"
	LoanLineTable = "bodega_loan_lines"
)

// Worker 借用工具的工人，只做软删除（借用记录必须可追溯）
type Worker struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	NationalID string    `gorm:"size:12;uniqueIndex;not null" json:"nationalId"`
	FirstName  string    `gorm:"size:50;not null" json:"firstName"`
	LastName   string    `gorm:"size:50;not null" json:"lastName"`
	Role       string    `gorm:"size:50" json:"role"`
	Active     bool      `gorm:"not null;default:true;index" json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (w Worker) FullName() string { return w.FirstName + " " + w.LastName }

// Loan is one checkout event; ClosedAt stays nil while any line is open.
type Loan struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	WorkerID    uint       `gorm:"not null;index" json:"workerId"`
	Worker      *Worker    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"worker,omitempty"`
	StaffUserID string     `gorm:"size:36;not null;index" json:"staffUserId"`
	StaffUser   *StaffUser `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"staffUser,omitempty"`
	RequestedAt time.Time  `gorm:"not null;index" json:"requestedAt"`
	ClosedAt    *time.Time `gorm:"index" json:"closedAt,omitempty"`
	Notes       string     `gorm:"type:text" json:"notes,omitempty"`

	Lines []LoanLine `gorm:"foreignKey:LoanID;constraint:OnDelete:CASCADE" json:"lines,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LoanLine 同一工具同一时间最多一条 returned=false（部分唯一索引保证）
type LoanLine struct {
	ID     uint  `gorm:"primaryKey" json:"id"`
	LoanID uint  `gorm:"not null;index" json:"loanId"`
	Loan   *Loan `gorm:"-:migration" json:"loan,omitempty"`
	ToolID uint  `gorm:"not null;index" json:"toolId"`
	Tool   *Tool `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"tool,omitempty"`

	Returned         bool             `gorm:"not null;default:false;index" json:"returned"`
	ReturnedAt       *time.Time       `gorm:"index" json:"returnedAt,omitempty"`
	ReturnCondition  *ReturnCondition `gorm:"size:20" json:"returnCondition,omitempty"`
	FailureNote      string           `gorm:"type:text" json:"failureNote,omitempty"`
	EvidencePhotoKey string           `gorm:"size:255" json:"evidencePhotoKey,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Worker) TableName() string   { return WorkerTable }
func (Loan) TableName() string     { return LoanTable }
func (LoanLine) TableName() string { return LoanLineTable }
