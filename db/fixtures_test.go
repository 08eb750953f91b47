package db

import (
	"context"
	"testing"

	"smartstock/models"

	"github.com/google/uuid"
)

type fixture struct {
	repo     *Repo
	staff    *models.StaffUser
	admin    *models.StaffUser
	worker   *models.Worker
	category *models.Category
	location *models.Location
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	repo := NewRepo(NewTestDB(t))

	f := &fixture{repo: repo}
	f.staff = &models.StaffUser{ID: uuid.NewString(), Username: "bodega1", PasswordHash: "x", Role: models.RoleStaff}
	if err := repo.CreateUser(ctx, f.staff); err != nil {
		t.Fatalf("creating staff user: %v", err)
	}
	f.admin = &models.StaffUser{ID: uuid.NewString(), Username: "admin", PasswordHash: "x", Role: models.RoleAdmin}
	if err := repo.CreateUser(ctx, f.admin); err != nil {
		t.Fatalf("creating admin: %v", err)
	}
	f.worker = &models.Worker{NationalID: "12345678-9", FirstName: "Ana", LastName: "Rojas", Role: "electrician"}
	if err := repo.CreateWorker(ctx, f.worker); err != nil {
		t.Fatalf("creating worker: %v", err)
	}
	f.category = &models.Category{Name: "Power tools"}
	if err := repo.CreateCategory(ctx, f.category); err != nil {
		t.Fatalf("creating category: %v", err)
	}
	f.location = &models.Location{Name: "Shelf A"}
	if err := repo.CreateLocation(ctx, f.location); err != nil {
		t.Fatalf("creating location: %v", err)
	}
	return f
}

func (f *fixture) tool(t *testing.T, name string) *models.Tool {
	t.Helper()
	tool, err := f.repo.CreateTool(context.Background(), ToolInput{
		Name: name, Brand: "Makita", CategoryID: f.category.ID, LocationID: f.location.ID,
	})
	if err != nil {
		t.Fatalf("creating tool %q: %v", name, err)
	}
	return tool
}

func (f *fixture) loan(t *testing.T) *models.Loan {
	t.Helper()
	l, err := f.repo.OpenLoan(context.Background(), f.worker.ID, f.staff.ID, "")
	if err != nil {
		t.Fatalf("opening loan: %v", err)
	}
	return l
}

func (f *fixture) checkout(t *testing.T, loanID uint, code string) *models.LoanLine {
	t.Helper()
	line, _, err := f.repo.CheckoutTool(context.Background(), loanID, code)
	if err != nil {
		t.Fatalf("checking out %s: %v", code, err)
	}
	return line
}

func (f *fixture) reload(t *testing.T, id uint) *models.Tool {
	t.Helper()
	tool, err := f.repo.FindToolByID(context.Background(), id)
	if err != nil {
		t.Fatalf("reloading tool %d: %v", id, err)
	}
	return tool
}
