package events

import (
	"context"
	"encoding/json"
	"testing"
)

func TestEventJSON(t *testing.T) {
	ev := New(LoanCreated, "u-1", map[string]any{"loanId": 7})
	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["type"] != "loan.created" || got["actorId"] != "u-1" {
		t.Errorf("event = %s", b)
	}
	if ev.OccurredAt.IsZero() {
		t.Error("OccurredAt not stamped")
	}
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	if err := p.Publish(context.Background(), New(ToolReleased, "", nil)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
}
