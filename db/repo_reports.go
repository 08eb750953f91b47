package db

import (
	"context"
	"strings"
	"time"

	"smartstock/models"

	"gorm.io/gorm"
)

type StockSummary struct {
	Available      int64 `json:"available"`
	InUse          int64 `json:"inUse"`
	InMaintenance  int64 `json:"inMaintenance"`
	Decommissioned int64 `json:"decommissioned"`
	TotalTools     int64 `json:"totalTools"`
	ActiveTools    int64 `json:"activeTools"`
	ActiveWorkers  int64 `json:"activeWorkers"`
	OpenLoans      int64 `json:"openLoans"`
}

func (r *Repo) Summary(ctx context.Context) (*StockSummary, error) {
	db := r.DB.WithContext(ctx)
	var s StockSummary

	type counter struct {
		dest  *int64
		model any
		where string
		args  []any
	}
	counters := []counter{
		{&s.Available, &models.Tool{}, "active = ? AND status = ?", []any{true, models.StatusAvailable}},
		{&s.InUse, &models.Tool{}, "active = ? AND status = ?", []any{true, models.StatusInUse}},
		{&s.InMaintenance, &models.Tool{}, "active = ? AND status = ?", []any{true, models.StatusInMaintenance}},
		{&s.Decommissioned, &models.Tool{}, "active = ?", []any{false}},
		{&s.TotalTools, &models.Tool{}, "", nil},
		{&s.ActiveTools, &models.Tool{}, "active = ?", []any{true}},
		{&s.ActiveWorkers, &models.Worker{}, "active = ?", []any{true}},
		{&s.OpenLoans, &models.Loan{}, "closed_at IS NULL", nil},
	}
	for _, c := range counters {
		q := db.Model(c.model)
		if c.where != "" {
			q = q.Where(c.where, c.args...)
		}
		if err := q.Count(c.dest).Error; err != nil {
			return nil, err
		}
	}
	return &s, nil
}

type StockQuery struct {
	Q      string // 名称/品牌/型号/编号
	Status string // "", available, in_use, maintenance, decommissioned, all
	Page   int
	Size   int
}

type PagedTools struct {
	Total int64         `json:"total"`
	Tools []models.Tool `json:"tools"`
}

var stockFilters = map[string]func(*gorm.DB) *gorm.DB{
	"": func(q *gorm.DB) *gorm.DB { return q.Where("active = ?", true) },
	"available": func(q *gorm.DB) *gorm.DB {
		return q.Where("active = ? AND status = ?", true, models.StatusAvailable)
	},
	"in_use": func(q *gorm.DB) *gorm.DB {
		return q.Where("active = ? AND status = ?", true, models.StatusInUse)
	},
	"maintenance": func(q *gorm.DB) *gorm.DB {
		return q.Where("active = ? AND status = ?", true, models.StatusInMaintenance)
	},
	"decommissioned": func(q *gorm.DB) *gorm.DB { return q.Where("active = ?", false) },
	"all":            func(q *gorm.DB) *gorm.DB { return q },
}

const statusPriority = `CASE status
	WHEN 'AVAILABLE' THEN 0
	WHEN 'IN_USE' THEN 1
	WHEN 'IN_MAINTENANCE' THEN 2
	ELSE 3 END`

// ListStock 库存列表：可用 → 借出 → 维修 → 其他，再按名称
func (r *Repo) ListStock(ctx context.Context, q StockQuery) (*PagedTools, error) {
	page, size := normalizePage(q.Page, q.Size, 50, 500)

	filter, ok := stockFilters[strings.ToLower(strings.TrimSpace(q.Status))]
	if !ok {
		filter = stockFilters[""]
	}
	qry := filter(r.DB.WithContext(ctx).Model(&models.Tool{}))
	if s := strings.TrimSpace(q.Q); s != "" {
		pat := "%" + strings.ToLower(s) + "%"
		qry = qry.Where("LOWER(name) LIKE ? OR LOWER(brand) LIKE ? OR LOWER(model) LIKE ? OR LOWER(code) LIKE ?",
			pat, pat, pat, pat)
	}
	qry = qry.Session(&gorm.Session{})

	var total int64
	if err := qry.Count(&total).Error; err != nil {
		return nil, err
	}
	var tools []models.Tool
	if err := qry.
		Preload("Category").
		Preload("Location").
		Order(statusPriority).
		Order("name ASC").
		Order("id ASC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&tools).Error; err != nil {
		return nil, err
	}
	return &PagedTools{Total: total, Tools: tools}, nil
}

// OpenLineRow 当前借出中的工具
type OpenLineRow struct {
	LineID          uint      `json:"lineId"`
	LoanID          uint      `json:"loanId"`
	RequestedAt     time.Time `json:"requestedAt"`
	ToolID          uint      `json:"toolId"`
	ToolCode        string    `json:"toolCode"`
	ToolName        string    `json:"toolName"`
	ToolBrand       string    `json:"toolBrand"`
	WorkerID        uint      `json:"workerId"`
	WorkerFirstName string    `json:"workerFirstName"`
	WorkerLastName  string    `json:"workerLastName"`
	StaffUsername   string    `json:"staffUsername"`
}

func (r *Repo) ListOpenLines(ctx context.Context) ([]OpenLineRow, error) {
	var rows []OpenLineRow
	err := r.DB.WithContext(ctx).
		Table(models.LoanLineTable+" ll").
		Select(`
			ll.id AS line_id, ll.loan_id, l.requested_at,
			t.id AS tool_id, t.code AS tool_code, t.name AS tool_name, t.brand AS tool_brand,
			w.id AS worker_id, w.first_name AS worker_first_name, w.last_name AS worker_last_name,
			u.username AS staff_username
		`).
		Joins("JOIN "+models.LoanTable+" l ON l.id = ll.loan_id").
		Joins("JOIN "+models.ToolTable+" t ON t.id = ll.tool_id").
		Joins("JOIN "+models.WorkerTable+" w ON w.id = l.worker_id").
		Joins("JOIN "+models.StaffUserTable+" u ON u.id = l.staff_user_id").
		Where("ll.returned = ?", false).
		Order("l.requested_at ASC").
		Order("ll.id ASC").
		Scan(&rows).Error
	return rows, err
}

// TransactionRow 借还流水，每条借用行一行
type TransactionRow struct {
	LineID           uint       `json:"lineId"`
	LoanID           uint       `json:"loanId"`
	RequestedAt      time.Time  `json:"requestedAt"`
	ToolCode         string     `json:"toolCode"`
	ToolName         string     `json:"toolName"`
	WorkerNationalID string     `json:"workerNationalId"`
	WorkerFirstName  string     `json:"workerFirstName"`
	WorkerLastName   string     `json:"workerLastName"`
	StaffUsername    string     `json:"staffUsername"`
	Returned         bool       `json:"returned"`
	ReturnedAt       *time.Time `json:"returnedAt,omitempty"`
	ReturnCondition  *string    `json:"returnCondition,omitempty"`
	FailureNote      string     `json:"failureNote,omitempty"`
	HasPhoto         bool       `json:"hasPhoto"`
	EvidencePhotoKey string     `json:"-"`
}

type TransactionQuery struct {
	Q    string
	From *time.Time
	To   *time.Time // 不含
	Sort string     // date|tool|worker|staff|condition|returned，前缀 - 表示降序
	Page int
	Size int
}

type PagedTransactions struct {
	Total        int64            `json:"total"`
	Transactions []TransactionRow `json:"transactions"`
}

var transactionSorts = map[string]string{
	"date":      "l.requested_at",
	"tool":      "t.name",
	"worker":    "w.last_name",
	"staff":     "u.username",
	"condition": "ll.return_condition",
	"returned":  "ll.returned_at",
}

func (r *Repo) ListTransactions(ctx context.Context, q TransactionQuery) (*PagedTransactions, error) {
	page, size := normalizePage(q.Page, q.Size, 50, 500)

	qry := r.DB.WithContext(ctx).
		Table(models.LoanLineTable + " ll").
		Joins("JOIN " + models.LoanTable + " l ON l.id = ll.loan_id").
		Joins("JOIN " + models.ToolTable + " t ON t.id = ll.tool_id").
		Joins("JOIN " + models.WorkerTable + " w ON w.id = l.worker_id").
		Joins("JOIN " + models.StaffUserTable + " u ON u.id = l.staff_user_id")
	if s := strings.TrimSpace(q.Q); s != "" {
		pat := "%" + strings.ToLower(s) + "%"
		qry = qry.Where(`LOWER(t.code) LIKE ? OR LOWER(t.name) LIKE ? OR LOWER(w.first_name) LIKE ?
			OR LOWER(w.last_name) LIKE ? OR LOWER(w.national_id) LIKE ? OR LOWER(u.username) LIKE ?`,
			pat, pat, pat, pat, pat, pat)
	}
	if q.From != nil {
		qry = qry.Where("l.requested_at >= ?", q.From.UTC())
	}
	if q.To != nil {
		qry = qry.Where("l.requested_at < ?", q.To.UTC())
	}
	qry = qry.Session(&gorm.Session{})

	var total int64
	if err := qry.Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []TransactionRow
	if err := qry.
		Select(`
			ll.id AS line_id, ll.loan_id, l.requested_at,
			t.code AS tool_code, t.name AS tool_name,
			w.national_id AS worker_national_id, w.first_name AS worker_first_name, w.last_name AS worker_last_name,
			u.username AS staff_username,
			ll.returned, ll.returned_at, ll.return_condition, ll.failure_note, ll.evidence_photo_key
		`).
		Order(orderBy(transactionSorts, q.Sort, "-date", "ll.id")).
		Offset((page - 1) * size).
		Limit(size).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].HasPhoto = rows[i].EvidencePhotoKey != ""
	}
	return &PagedTransactions{Total: total, Transactions: rows}, nil
}

type ToolUsage struct {
	ToolID uint   `json:"toolId"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Loans  int64  `json:"loans"`
}

type WorkerUsage struct {
	WorkerID  uint   `json:"workerId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Loans     int64  `json:"loans"`
}

type UsageStats struct {
	TopTools   []ToolUsage   `json:"topTools"`
	TopWorkers []WorkerUsage `json:"topWorkers"`
}

const usageTopN = 5

// UsageStats 借用次数前五的工具和工人
func (r *Repo) UsageStats(ctx context.Context) (*UsageStats, error) {
	db := r.DB.WithContext(ctx)
	out := UsageStats{TopTools: []ToolUsage{}, TopWorkers: []WorkerUsage{}}

	if err := db.Table(models.LoanLineTable + " ll").
		Select("t.id AS tool_id, t.code, t.name, COUNT(ll.id) AS loans").
		Joins("JOIN " + models.ToolTable + " t ON t.id = ll.tool_id").
		Group("t.id, t.code, t.name").
		Order("loans DESC").Order("t.name ASC").
		Limit(usageTopN).
		Scan(&out.TopTools).Error; err != nil {
		return nil, err
	}

	if err := db.Table(models.LoanLineTable + " ll").
		Select("w.id AS worker_id, w.first_name, w.last_name, COUNT(ll.id) AS loans").
		Joins("JOIN " + models.LoanTable + " l ON l.id = ll.loan_id").
		Joins("JOIN " + models.WorkerTable + " w ON w.id = l.worker_id").
		Group("w.id, w.first_name, w.last_name").
		Order("loans DESC").Order("w.last_name ASC").
		Limit(usageTopN).
		Scan(&out.TopWorkers).Error; err != nil {
		return nil, err
	}
	return &out, nil
}
