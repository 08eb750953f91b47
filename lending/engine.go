// Package lending runs the loan and return batches and the tool lifecycle
// transitions on top of the repository. Every per-tool step commits on its
// own; a batch keeps whatever succeeded and reports the rest as item errors.
package lending

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"smartstock/apperr"
	"smartstock/db"
	"smartstock/events"
	"smartstock/models"

	"go.uber.org/zap"
)

type Engine struct {
	repo   *db.Repo
	events events.Publisher
	log    *zap.Logger
}

func NewEngine(repo *db.Repo, pub events.Publisher, log *zap.Logger) *Engine {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{repo: repo, events: pub, log: log.Named("lending")}
}

// publish 状态已提交，事件只尽力发送
func (e *Engine) publish(ctx context.Context, ev events.Event) {
	if err := e.events.Publish(ctx, ev); err != nil {
		e.log.Warn("publish event failed", zap.String("type", ev.Type), zap.Error(err))
	}
}

// itemError turns a per-item domain error into its message; anything else
// is a storage failure that stops the batch.
func itemError(err error) (string, bool) {
	for _, kind := range []error{apperr.ErrValidation, apperr.ErrNotFound, apperr.ErrConflict} {
		if errors.Is(err, kind) {
			return apperr.Message(err), true
		}
	}
	return "", false
}

func cleanCodes(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

type LoanRequest struct {
	WorkerID    uint
	StaffUserID string
	ToolCodes   []string
	Notes       string
}

type LoanResult struct {
	LoanID       uint     `json:"loanId,omitempty"`
	CreatedCount int      `json:"createdCount"`
	Errors       []string `json:"errors"`
}

// CreateLoan opens a loan for a worker and checks out each code in order.
// When no tool could be checked out the header is discarded and the call
// fails with a validation error listing the item errors.
func (e *Engine) CreateLoan(ctx context.Context, req LoanRequest) (*LoanResult, error) {
	codes := cleanCodes(req.ToolCodes)
	if len(codes) == 0 {
		return nil, apperr.Validation("no tools were scanned, add at least one tool code")
	}
	if req.WorkerID == 0 {
		return nil, apperr.Validation("a worker must be selected")
	}
	if req.StaffUserID == "" {
		return nil, apperr.Validation("staff user is required")
	}

	w, err := e.repo.FindWorkerByID(ctx, req.WorkerID)
	if errors.Is(err, apperr.ErrNotFound) || (err == nil && !w.Active) {
		return nil, apperr.Validation("worker %d not found or inactive", req.WorkerID)
	}
	if err != nil {
		return nil, err
	}

	loan, err := e.repo.OpenLoan(ctx, w.ID, req.StaffUserID, req.Notes)
	if err != nil {
		return nil, err
	}
	log := e.log.With(zap.Uint("loan", loan.ID), zap.Uint("worker", w.ID), zap.String("staff", req.StaffUserID))

	res := &LoanResult{LoanID: loan.ID, Errors: []string{}}
	var codesOut []string
	var fatal error
	for _, code := range codes {
		_, tool, err := e.repo.CheckoutTool(ctx, loan.ID, code)
		if err != nil {
			msg, ok := itemError(err)
			if !ok {
				fatal = fmt.Errorf("checkout %s: %w", code, err)
				break
			}
			log.Info("checkout rejected", zap.String("code", code), zap.String("reason", msg))
			res.Errors = append(res.Errors, msg)
			continue
		}
		res.CreatedCount++
		codesOut = append(codesOut, tool.Code)
		log.Debug("tool checked out", zap.String("code", tool.Code))
	}

	if res.CreatedCount == 0 {
		if err := e.repo.DiscardLoan(ctx, loan.ID); err != nil {
			log.Error("discard empty loan failed", zap.Error(err))
			return nil, fmt.Errorf("discard loan %d: %w", loan.ID, err)
		}
		res.LoanID = 0
		if fatal != nil {
			return nil, fatal
		}
		return res, apperr.Validation("loan could not be created: %s", strings.Join(res.Errors, "; "))
	}

	log.Info("loan created", zap.Int("created", res.CreatedCount), zap.Int("rejected", len(res.Errors)))
	e.publish(ctx, events.New(events.LoanCreated, req.StaffUserID, map[string]any{
		"loanId":   loan.ID,
		"workerId": w.ID,
		"tools":    codesOut,
	}))
	if fatal != nil {
		return res, fatal
	}
	return res, nil
}

type ReturnEntry struct {
	Code        string
	Condition   models.ReturnCondition
	FailureNote string
	PhotoKey    string
}

type ReturnedLine struct {
	LineID     uint              `json:"lineId"`
	LoanID     uint              `json:"loanId"`
	ToolCode   string            `json:"toolCode"`
	ToolName   string            `json:"toolName"`
	Condition  string            `json:"condition"`
	ToolStatus models.ToolStatus `json:"toolStatus"`
	LoanClosed bool              `json:"loanClosed"`
	PhotoKey   string            `json:"-"`
}

type ReturnsResult struct {
	ProcessedCount int            `json:"processedCount"`
	Errors         []string       `json:"errors"`
	Returned       []ReturnedLine `json:"returned"`
}

// ProcessReturns reconciles each entry against the open loan line of its
// tool, in order. Items that cannot be returned are reported, never fatal.
func (e *Engine) ProcessReturns(ctx context.Context, staffUserID string, entries []ReturnEntry) (*ReturnsResult, error) {
	if len(entries) == 0 {
		return nil, apperr.Validation("no tools to return")
	}

	res := &ReturnsResult{Errors: []string{}, Returned: []ReturnedLine{}}
	for _, en := range entries {
		code := strings.TrimSpace(en.Code)
		if code == "" {
			res.Errors = append(res.Errors, "empty tool code")
			continue
		}
		out, err := e.repo.ReturnTool(ctx, code, db.ReturnInput{
			Condition:   en.Condition,
			FailureNote: en.FailureNote,
			PhotoKey:    en.PhotoKey,
		})
		if err != nil {
			msg, ok := itemError(err)
			if !ok {
				e.log.Error("return failed", zap.String("code", code), zap.Error(err))
				return res, fmt.Errorf("return %s: %w", code, err)
			}
			e.log.Info("return rejected", zap.String("code", code), zap.String("reason", msg))
			res.Errors = append(res.Errors, msg)
			continue
		}
		if out.ToolUntouched {
			e.log.Warn("returned tool is decommissioned, status kept",
				zap.String("code", code), zap.String("status", string(out.Tool.Status)))
		}
		res.ProcessedCount++
		res.Returned = append(res.Returned, ReturnedLine{
			LineID:     out.Line.ID,
			LoanID:     out.Line.LoanID,
			ToolCode:   out.Tool.Code,
			ToolName:   out.Tool.Name,
			Condition:  string(en.Condition),
			ToolStatus: out.Tool.Status,
			LoanClosed: out.LoanClosed,
			PhotoKey:   en.PhotoKey,
		})
	}

	if res.ProcessedCount > 0 {
		e.log.Info("returns processed", zap.Int("processed", res.ProcessedCount), zap.Int("rejected", len(res.Errors)))
		e.publish(ctx, events.New(events.ToolsReturned, staffUserID, res.Returned))
	}
	return res, nil
}

func (e *Engine) ReleaseFromMaintenance(ctx context.Context, toolID uint, actorID string) (*models.Tool, error) {
	t, err := e.repo.ReleaseFromMaintenance(ctx, toolID)
	if err != nil {
		return nil, err
	}
	e.log.Info("tool released from maintenance", zap.String("code", t.Code))
	e.publish(ctx, events.New(events.ToolReleased, actorID, map[string]any{"toolId": t.ID, "code": t.Code}))
	return t, nil
}

func (e *Engine) Decommission(ctx context.Context, toolID uint, actorID string) (*db.DecommissionResult, error) {
	res, err := e.repo.DecommissionTool(ctx, toolID, actorID)
	if err != nil {
		return nil, err
	}
	e.log.Info("tool decommissioned",
		zap.String("code", res.Tool.Code), zap.String("status", string(res.NewStatus)), zap.String("actor", actorID))
	e.publish(ctx, events.New(events.ToolDecommissioned, actorID, map[string]any{
		"toolId": res.Tool.ID, "code": res.Tool.Code, "status": res.NewStatus, "reason": res.Reason,
	}))
	return res, nil
}

func (e *Engine) Reactivate(ctx context.Context, toolID uint, actorID string) (*db.ReactivateResult, error) {
	res, err := e.repo.ReactivateTool(ctx, toolID, actorID)
	if err != nil {
		return nil, err
	}
	e.log.Info("tool reactivated",
		zap.String("code", res.Tool.Code), zap.Int("closedLines", res.ClosedLines), zap.String("actor", actorID))
	e.publish(ctx, events.New(events.ToolReactivated, actorID, map[string]any{
		"toolId": res.Tool.ID, "code": res.Tool.Code, "closedLoanCount": res.ClosedLines,
	}))
	return res, nil
}

type Lookup struct {
	Exists    bool              `json:"exists"`
	Status    models.ToolStatus `json:"status,omitempty"`
	Available bool              `json:"available"`
	Name      string            `json:"name,omitempty"`
	Brand     string            `json:"brand,omitempty"`
	Message   string            `json:"message"`
}

// LookupByCode answers a scan. Decommissioned tools are reported as missing.
func (e *Engine) LookupByCode(ctx context.Context, code string) (*Lookup, error) {
	t, err := e.repo.FindToolByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if t == nil || !t.Active {
		return &Lookup{Message: "the scanned code does not exist"}, nil
	}
	out := &Lookup{
		Exists:    true,
		Status:    t.Status,
		Available: t.Status == models.StatusAvailable,
		Name:      t.Name,
		Brand:     t.Brand,
		Message:   "OK",
	}
	if !out.Available {
		out.Message = fmt.Sprintf("%s is not available (%s)", t.Name, t.Status)
	}
	return out, nil
}
