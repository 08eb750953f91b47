package db

import (
	"context"
	"errors"
	"testing"

	"smartstock/apperr"
	"smartstock/models"
)

func TestDecommissionOutcomeFollowsPriorState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	idle := f.tool(t, "Hammer")
	out := f.tool(t, "Drill")
	broken := f.tool(t, "Saw")
	f.checkout(t, f.loan(t).ID, out.Code)
	f.checkout(t, f.loan(t).ID, broken.Code)
	if _, err := f.repo.ReturnTool(ctx, broken.Code, ReturnInput{Condition: models.ConditionDamaged}); err != nil {
		t.Fatalf("ReturnTool: %v", err)
	}

	cases := []struct {
		tool   *models.Tool
		status models.ToolStatus
		reason string
	}{
		{idle, models.StatusDecommissionedAdmin, models.ReasonAdministrative},
		{out, models.StatusDecommissionedLoss, models.ReasonFieldLoss},
		{broken, models.StatusDecommissionedDamage, models.ReasonIrreparableDamage},
	}
	for _, tc := range cases {
		res, err := f.repo.DecommissionTool(ctx, tc.tool.ID, f.admin.ID)
		if err != nil {
			t.Fatalf("%s: DecommissionTool: %v", tc.tool.Name, err)
		}
		if res.NewStatus != tc.status || res.Reason != tc.reason {
			t.Errorf("%s: got %s/%q, want %s/%q", tc.tool.Name, res.NewStatus, res.Reason, tc.status, tc.reason)
		}
		got := f.reload(t, tc.tool.ID)
		if got.Active || got.Status != tc.status {
			t.Errorf("%s: stored %s/active=%v", tc.tool.Name, got.Status, got.Active)
		}
	}

	var events []models.DecommissionEvent
	f.repo.DB.Order("id").Find(&events)
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	if events[1].Action != models.ActionDecommission || events[1].Reason != models.ReasonFieldLoss ||
		events[1].ActorID == nil || *events[1].ActorID != f.admin.ID {
		t.Errorf("event = %+v", events[1])
	}
}

func TestDecommissionTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tool := f.tool(t, "Hammer")
	if _, err := f.repo.DecommissionTool(ctx, tool.ID, f.admin.ID); err != nil {
		t.Fatalf("DecommissionTool: %v", err)
	}
	if _, err := f.repo.DecommissionTool(ctx, tool.ID, f.admin.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("second decommission: err = %v, want conflict", err)
	}
	if _, err := f.repo.DecommissionTool(ctx, 9999, f.admin.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing tool: err = %v, want not found", err)
	}
}

func TestReactivateForceClosesOpenLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tool := f.tool(t, "Drill")
	l := f.loan(t)
	f.checkout(t, l.ID, tool.Code)
	if _, err := f.repo.DecommissionTool(ctx, tool.ID, f.admin.ID); err != nil {
		t.Fatalf("DecommissionTool: %v", err)
	}

	res, err := f.repo.ReactivateTool(ctx, tool.ID, f.admin.ID)
	if err != nil {
		t.Fatalf("ReactivateTool: %v", err)
	}
	if res.ClosedLines != 1 || res.LoansClosed != 1 {
		t.Errorf("result = %+v, want 1 line and 1 loan closed", res)
	}
	got := f.reload(t, tool.ID)
	if !got.Active || got.Status != models.StatusAvailable {
		t.Errorf("tool = %s/active=%v", got.Status, got.Active)
	}

	loan, _ := f.repo.FindLoanByID(ctx, l.ID)
	ln := loan.Lines[0]
	if !ln.Returned || ln.FailureNote != models.ForcedReturnNote || *ln.ReturnCondition != models.ConditionGood {
		t.Errorf("forced line = %+v", ln)
	}
	if loan.ClosedAt == nil {
		t.Error("loan not closed")
	}

	var last models.DecommissionEvent
	f.repo.DB.Order("id DESC").First(&last)
	if last.Action != models.ActionReactivate || last.Reason != models.ReasonReactivated {
		t.Errorf("last event = %+v", last)
	}
}

func TestReactivateRequiresDecommissioned(t *testing.T) {
	f := newFixture(t)
	tool := f.tool(t, "Drill")
	_, err := f.repo.ReactivateTool(context.Background(), tool.ID, f.admin.ID)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestReturnAfterDecommissionLeavesToolUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tool := f.tool(t, "Drill")
	f.checkout(t, f.loan(t).ID, tool.Code)
	if _, err := f.repo.DecommissionTool(ctx, tool.ID, f.admin.ID); err != nil {
		t.Fatalf("DecommissionTool: %v", err)
	}

	out, err := f.repo.ReturnTool(ctx, tool.Code, ReturnInput{Condition: models.ConditionGood})
	if err != nil {
		t.Fatalf("ReturnTool: %v", err)
	}
	if !out.ToolUntouched || !out.LoanClosed {
		t.Errorf("outcome = %+v", out)
	}
	got := f.reload(t, tool.ID)
	if got.Active || got.Status != models.StatusDecommissionedLoss {
		t.Errorf("tool = %s/active=%v, want unchanged", got.Status, got.Active)
	}
}

func TestReleaseFromMaintenance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tool := f.tool(t, "Saw")

	if _, err := f.repo.ReleaseFromMaintenance(ctx, tool.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("release available tool: err = %v, want conflict", err)
	}

	f.checkout(t, f.loan(t).ID, tool.Code)
	if _, err := f.repo.ReturnTool(ctx, tool.Code, ReturnInput{Condition: models.ConditionDamaged}); err != nil {
		t.Fatalf("ReturnTool: %v", err)
	}
	got, err := f.repo.ReleaseFromMaintenance(ctx, tool.ID)
	if err != nil {
		t.Fatalf("ReleaseFromMaintenance: %v", err)
	}
	if got.Status != models.StatusAvailable {
		t.Errorf("status = %s", got.Status)
	}
}

func TestReactivateKeepsLoanOpenWhileSiblingIsOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lost := f.tool(t, "Drill")
	sibling := f.tool(t, "Grinder")
	l := f.loan(t)
	f.checkout(t, l.ID, lost.Code)
	f.checkout(t, l.ID, sibling.Code)

	if _, err := f.repo.DecommissionTool(ctx, lost.ID, f.admin.ID); err != nil {
		t.Fatalf("DecommissionTool: %v", err)
	}
	res, err := f.repo.ReactivateTool(ctx, lost.ID, f.admin.ID)
	if err != nil {
		t.Fatalf("ReactivateTool: %v", err)
	}
	if res.ClosedLines != 1 || res.LoansClosed != 0 {
		t.Errorf("result = %+v, want 1 line and 0 loans closed", res)
	}
	loan, err := f.repo.FindLoanByID(ctx, l.ID)
	if err != nil {
		t.Fatalf("FindLoanByID: %v", err)
	}
	if loan.ClosedAt != nil {
		t.Fatalf("loan closed at %v while %s is still out", loan.ClosedAt, sibling.Code)
	}
	if s := f.reload(t, sibling.ID).Status; s != models.StatusInUse {
		t.Errorf("sibling status = %s, want IN_USE", s)
	}

	out, err := f.repo.ReturnTool(ctx, sibling.Code, ReturnInput{Condition: models.ConditionGood})
	if err != nil {
		t.Fatalf("ReturnTool: %v", err)
	}
	if !out.LoanClosed {
		t.Error("returning the last open line should close the loan")
	}
	loan, _ = f.repo.FindLoanByID(ctx, l.ID)
	if loan.ClosedAt == nil {
		t.Error("loan not closed after last return")
	}
}
