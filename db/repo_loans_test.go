package db

import (
	"context"
	"errors"
	"testing"

	"smartstock/apperr"
	"smartstock/models"
)

func TestCheckoutFlipsStatus(t *testing.T) {
	f := newFixture(t)
	tool := f.tool(t, "Drill")
	l := f.loan(t)

	line, got, err := f.repo.CheckoutTool(context.Background(), l.ID, tool.Code)
	if err != nil {
		t.Fatalf("CheckoutTool: %v", err)
	}
	if line.ToolID != tool.ID || line.LoanID != l.ID || line.Returned {
		t.Errorf("line = %+v", line)
	}
	if got.Status != models.StatusInUse {
		t.Errorf("returned status = %s", got.Status)
	}
	if s := f.reload(t, tool.ID).Status; s != models.StatusInUse {
		t.Errorf("stored status = %s, want IN_USE", s)
	}
}

func TestCheckoutUnavailableTool(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tool := f.tool(t, "Drill")
	f.checkout(t, f.loan(t).ID, tool.Code)

	_, _, err := f.repo.CheckoutTool(ctx, f.loan(t).ID, tool.Code)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	want := tool.Code + ": Drill not available (IN_USE)"
	if apperr.Message(err) != want {
		t.Errorf("message = %q, want %q", apperr.Message(err), want)
	}
}

func TestCheckoutUnknownOrDecommissionedCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tool := f.tool(t, "Drill")
	if _, err := f.repo.DecommissionTool(ctx, tool.ID, f.admin.ID); err != nil {
		t.Fatalf("DecommissionTool: %v", err)
	}
	l := f.loan(t)

	for _, code := range []string{"TOOL-999", tool.Code} {
		_, _, err := f.repo.CheckoutTool(ctx, l.ID, code)
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("%s: err = %v, want not found", code, err)
			continue
		}
		if want := code + ": code not found or decommissioned"; apperr.Message(err) != want {
			t.Errorf("message = %q, want %q", apperr.Message(err), want)
		}
	}
}

func TestOneOpenLinePerToolIndex(t *testing.T) {
	f := newFixture(t)
	tool := f.tool(t, "Drill")
	f.checkout(t, f.loan(t).ID, tool.Code)

	dup := models.LoanLine{LoanID: f.loan(t).ID, ToolID: tool.ID}
	err := f.repo.DB.Omit("Loan", "Tool").Create(&dup).Error
	if !isDuplicate(err) {
		t.Fatalf("second open line: err = %v, want unique violation", err)
	}
}

func TestDiscardLoanOnlyWhenEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tool := f.tool(t, "Drill")

	withLine := f.loan(t)
	f.checkout(t, withLine.ID, tool.Code)
	if err := f.repo.DiscardLoan(ctx, withLine.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("discard loan with lines: err = %v, want conflict", err)
	}

	empty := f.loan(t)
	if err := f.repo.DiscardLoan(ctx, empty.ID); err != nil {
		t.Fatalf("DiscardLoan: %v", err)
	}
	if _, err := f.repo.FindLoanByID(ctx, empty.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("discarded loan still found: %v", err)
	}
}

func TestReturnClosesLoanWhenLastLineReturns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.tool(t, "Drill"), f.tool(t, "Saw")
	l := f.loan(t)
	f.checkout(t, l.ID, a.Code)
	f.checkout(t, l.ID, b.Code)

	out, err := f.repo.ReturnTool(ctx, a.Code, ReturnInput{Condition: models.ConditionGood})
	if err != nil {
		t.Fatalf("ReturnTool(a): %v", err)
	}
	if out.LoanClosed {
		t.Error("loan closed with a line still open")
	}
	if out.Tool.Status != models.StatusAvailable {
		t.Errorf("a status = %s, want AVAILABLE", out.Tool.Status)
	}

	out, err = f.repo.ReturnTool(ctx, b.Code, ReturnInput{Condition: models.ConditionDamaged, FailureNote: "cracked blade"})
	if err != nil {
		t.Fatalf("ReturnTool(b): %v", err)
	}
	if !out.LoanClosed {
		t.Error("loan not closed after last return")
	}
	if s := f.reload(t, b.ID).Status; s != models.StatusInMaintenance {
		t.Errorf("b status = %s, want IN_MAINTENANCE", s)
	}

	loan, err := f.repo.FindLoanByID(ctx, l.ID)
	if err != nil {
		t.Fatalf("FindLoanByID: %v", err)
	}
	if loan.ClosedAt == nil {
		t.Fatal("closed_at not stamped")
	}
	for _, ln := range loan.Lines {
		if !ln.Returned || ln.ReturnedAt == nil || ln.ReturnCondition == nil {
			t.Errorf("line %d not fully closed: %+v", ln.ID, ln)
		}
	}
	if loan.Lines[1].FailureNote != "cracked blade" {
		t.Errorf("failure note = %q", loan.Lines[1].FailureNote)
	}
}

func TestReturnNotLoaned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tool := f.tool(t, "Drill")

	_, err := f.repo.ReturnTool(ctx, tool.Code, ReturnInput{Condition: models.ConditionGood})
	if !errors.Is(err, apperr.ErrConflict) || apperr.Message(err) != tool.Code+": not currently loaned" {
		t.Fatalf("err = %v", err)
	}
	if s := f.reload(t, tool.ID).Status; s != models.StatusAvailable {
		t.Errorf("status = %s, tool must not be touched", s)
	}

	_, err = f.repo.ReturnTool(ctx, "TOOL-404", ReturnInput{Condition: models.ConditionGood})
	if !errors.Is(err, apperr.ErrNotFound) || apperr.Message(err) != "TOOL-404: tool does not exist" {
		t.Errorf("err = %v", err)
	}
}

func TestCloseLineNeverReopens(t *testing.T) {
	f := newFixture(t)
	tool := f.tool(t, "Drill")
	line := f.checkout(t, f.loan(t).ID, tool.Code)

	if _, err := f.repo.ReturnTool(context.Background(), tool.Code, ReturnInput{Condition: models.ConditionGood}); err != nil {
		t.Fatalf("ReturnTool: %v", err)
	}
	_, err := closeLine(f.repo.DB, line, ReturnInput{Condition: models.ConditionDamaged}, line.CreatedAt)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("closing a returned line: err = %v, want conflict", err)
	}
	got, _ := f.repo.FindLineByID(context.Background(), line.ID)
	if got.ReturnCondition == nil || *got.ReturnCondition != models.ConditionGood {
		t.Errorf("condition overwritten: %v", got.ReturnCondition)
	}
}

func TestListLoansByState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.tool(t, "Drill"), f.tool(t, "Saw")
	f.checkout(t, f.loan(t).ID, a.Code)
	f.checkout(t, f.loan(t).ID, b.Code)
	if _, err := f.repo.ReturnTool(ctx, b.Code, ReturnInput{Condition: models.ConditionGood}); err != nil {
		t.Fatalf("ReturnTool: %v", err)
	}

	open, err := f.repo.ListLoans(ctx, LoanQuery{State: "open"})
	if err != nil {
		t.Fatalf("ListLoans: %v", err)
	}
	if open.Total != 1 || len(open.Loans[0].Lines) != 1 || open.Loans[0].Lines[0].ToolID != a.ID {
		t.Errorf("open loans = %+v", open)
	}
	closed, _ := f.repo.ListLoans(ctx, LoanQuery{State: "closed", WorkerID: f.worker.ID})
	if closed.Total != 1 {
		t.Errorf("closed loans = %d, want 1", closed.Total)
	}
}
