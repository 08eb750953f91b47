package controllers

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"smartstock/apperr"
	"smartstock/models"

	"github.com/gin-gonic/gin"
)

func ctxWithQuery(rawQuery string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/x?"+rawQuery, nil)
	return c
}

func TestDateRangeIncludesLastDay(t *testing.T) {
	from, to, err := dateRange(ctxWithQuery("from=2025-03-01&to=2025-03-31"))
	if err != nil {
		t.Fatal(err)
	}
	if !from.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("from = %v", from)
	}
	if !to.Equal(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("to = %v", to)
	}

	from, to, err = dateRange(ctxWithQuery(""))
	if err != nil || from != nil || to != nil {
		t.Fatalf("empty range = %v %v %v", from, to, err)
	}

	if _, _, err := dateRange(ctxWithQuery("to=31/03/2025")); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("bad date err = %v", err)
	}
}

func TestReturnItemEntry(t *testing.T) {
	en := returnItem{Code: " TOOL-3 ", Condition: "damaged", Note: " bent blade "}.entry()
	if en.Code != "TOOL-3" || en.Condition != models.ConditionDamaged || en.FailureNote != "bent blade" {
		t.Fatalf("entry = %+v", en)
	}
	if en := (returnItem{Code: "TOOL-4"}).entry(); en.Condition != models.ConditionGood {
		t.Fatalf("default condition = %q", en.Condition)
	}
}
