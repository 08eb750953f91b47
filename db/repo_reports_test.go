package db

import (
	"context"
	"testing"
	"time"

	"smartstock/models"
)

func TestSummaryAndStockOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	broken := f.tool(t, "Angle grinder")
	out := f.tool(t, "Drill")
	idle := f.tool(t, "Saw")
	gone := f.tool(t, "Ladder")

	f.checkout(t, f.loan(t).ID, broken.Code)
	f.checkout(t, f.loan(t).ID, out.Code)
	if _, err := f.repo.ReturnTool(ctx, broken.Code, ReturnInput{Condition: models.ConditionDamaged}); err != nil {
		t.Fatalf("ReturnTool: %v", err)
	}
	if _, err := f.repo.DecommissionTool(ctx, gone.ID, f.admin.ID); err != nil {
		t.Fatalf("DecommissionTool: %v", err)
	}

	s, err := f.repo.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	want := StockSummary{Available: 1, InUse: 1, InMaintenance: 1, Decommissioned: 1,
		TotalTools: 4, ActiveTools: 3, ActiveWorkers: 1, OpenLoans: 1}
	if *s != want {
		t.Errorf("summary = %+v, want %+v", *s, want)
	}

	stock, err := f.repo.ListStock(ctx, StockQuery{})
	if err != nil {
		t.Fatalf("ListStock: %v", err)
	}
	if stock.Total != 3 {
		t.Fatalf("stock total = %d, want 3", stock.Total)
	}
	order := []uint{idle.ID, out.ID, broken.ID}
	for i, id := range order {
		if stock.Tools[i].ID != id {
			t.Errorf("stock[%d] = %s, want tool %d", i, stock.Tools[i].Name, id)
		}
	}
	if stock.Tools[0].Category == nil || stock.Tools[0].Category.Name != "Power tools" {
		t.Errorf("category not preloaded: %+v", stock.Tools[0].Category)
	}

	dec, _ := f.repo.ListStock(ctx, StockQuery{Status: "decommissioned"})
	if dec.Total != 1 || dec.Tools[0].ID != gone.ID {
		t.Errorf("decommissioned listing = %+v", dec)
	}
	search, _ := f.repo.ListStock(ctx, StockQuery{Q: "grind"})
	if search.Total != 1 {
		t.Errorf("search total = %d, want 1", search.Total)
	}
}

func TestOpenLines(t *testing.T) {
	f := newFixture(t)
	tool := f.tool(t, "Drill")
	l := f.loan(t)
	f.checkout(t, l.ID, tool.Code)

	rows, err := f.repo.ListOpenLines(context.Background())
	if err != nil {
		t.Fatalf("ListOpenLines: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	r := rows[0]
	if r.ToolCode != tool.Code || r.LoanID != l.ID || r.WorkerLastName != "Rojas" || r.StaffUsername != "bodega1" {
		t.Errorf("row = %+v", r)
	}
}

func TestTransactionsSortAndFallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.tool(t, "Saw"), f.tool(t, "Drill")
	f.checkout(t, f.loan(t).ID, a.Code)
	f.checkout(t, f.loan(t).ID, b.Code)
	if _, err := f.repo.ReturnTool(ctx, a.Code, ReturnInput{Condition: models.ConditionDamaged, FailureNote: "bent"}); err != nil {
		t.Fatalf("ReturnTool: %v", err)
	}

	byTool, err := f.repo.ListTransactions(ctx, TransactionQuery{Sort: "tool"})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if byTool.Total != 2 || byTool.Transactions[0].ToolName != "Drill" {
		t.Errorf("sort=tool: %+v", byTool.Transactions)
	}
	if !byTool.Transactions[1].Returned || byTool.Transactions[1].ReturnCondition == nil ||
		*byTool.Transactions[1].ReturnCondition != "DAMAGED" {
		t.Errorf("returned row = %+v", byTool.Transactions[1])
	}

	// 未知排序键回落到默认（最新在前）
	evil, err := f.repo.ListTransactions(ctx, TransactionQuery{Sort: "t.name; DROP TABLE bodega_tools"})
	if err != nil {
		t.Fatalf("ListTransactions with unknown sort: %v", err)
	}
	if evil.Total != 2 || evil.Transactions[0].ToolName != "Drill" {
		t.Errorf("fallback order = %+v", evil.Transactions)
	}

	future := time.Now().Add(time.Hour)
	none, _ := f.repo.ListTransactions(ctx, TransactionQuery{From: &future})
	if none.Total != 0 {
		t.Errorf("from=future total = %d", none.Total)
	}
}

func TestDecommissionEventsListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tool := f.tool(t, "Ladder")
	if _, err := f.repo.DecommissionTool(ctx, tool.ID, f.admin.ID); err != nil {
		t.Fatalf("DecommissionTool: %v", err)
	}
	if _, err := f.repo.ReactivateTool(ctx, tool.ID, f.admin.ID); err != nil {
		t.Fatalf("ReactivateTool: %v", err)
	}

	res, err := f.repo.ListDecommissionEvents(ctx, AuditQuery{Sort: "action"})
	if err != nil {
		t.Fatalf("ListDecommissionEvents: %v", err)
	}
	if res.Total != 2 || res.Events[0].Action != models.ActionDecommission {
		t.Fatalf("events = %+v", res.Events)
	}
	if res.Events[0].ToolCode != tool.Code || res.Events[0].ActorUsername == nil || *res.Events[0].ActorUsername != "admin" {
		t.Errorf("event row = %+v", res.Events[0])
	}

	filtered, _ := f.repo.ListDecommissionEvents(ctx, AuditQuery{Q: "inventory"})
	if filtered.Total != 1 || filtered.Events[0].Action != models.ActionReactivate {
		t.Errorf("filtered = %+v", filtered.Events)
	}
}

func TestUsageStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	popular, rare := f.tool(t, "Drill"), f.tool(t, "Saw")
	for i := 0; i < 2; i++ {
		f.checkout(t, f.loan(t).ID, popular.Code)
		if _, err := f.repo.ReturnTool(ctx, popular.Code, ReturnInput{Condition: models.ConditionGood}); err != nil {
			t.Fatalf("ReturnTool: %v", err)
		}
	}
	f.checkout(t, f.loan(t).ID, rare.Code)

	u, err := f.repo.UsageStats(ctx)
	if err != nil {
		t.Fatalf("UsageStats: %v", err)
	}
	if len(u.TopTools) != 2 || u.TopTools[0].ToolID != popular.ID || u.TopTools[0].Loans != 2 {
		t.Errorf("top tools = %+v", u.TopTools)
	}
	if len(u.TopWorkers) != 1 || u.TopWorkers[0].Loans != 3 {
		t.Errorf("top workers = %+v", u.TopWorkers)
	}
}
