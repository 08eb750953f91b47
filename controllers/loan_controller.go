package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"smartstock/app"
	"smartstock/apperr"
	"smartstock/db"
	"smartstock/lending"

	"github.com/gin-gonic/gin"
)

type LoanController struct{ *Srv }

func NewLoanController(s *Srv) *LoanController { return &LoanController{Srv: s} }

// GET /api/scan?code=TOOL-12
func (lc *LoanController) Scan(c *gin.Context) {
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		c.JSON(http.StatusBadRequest, app.H{"error": "code is required"})
		return
	}
	res, err := lc.Lending.LookupByCode(c.Request.Context(), code)
	if err != nil {
		lc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/loans
// body: {"workerId":3,"toolCodes":["TOOL-1","TOOL-7"],"notes":"..."}
func (lc *LoanController) CreateLoan(c *gin.Context) {
	var in struct {
		WorkerID  uint     `json:"workerId" binding:"required"`
		ToolCodes []string `json:"toolCodes"`
		Notes     string   `json:"notes"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		lc.badRequest(c, err)
		return
	}

	res, err := lc.Lending.CreateLoan(c.Request.Context(), lending.LoanRequest{
		WorkerID:    in.WorkerID,
		StaffUserID: app.CurrentUserID(c),
		ToolCodes:   in.ToolCodes,
		Notes:       in.Notes,
	})
	if err != nil {
		// 一件都没借出：带上逐项原因
		if res != nil && errors.Is(err, apperr.ErrValidation) {
			c.JSON(http.StatusBadRequest, app.H{
				"error":        apperr.Message(err),
				"createdCount": res.CreatedCount,
				"errors":       res.Errors,
			})
			return
		}
		lc.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// GET /api/loans?state=open|closed&workerId=&page=&size=
func (lc *LoanController) ListLoans(c *gin.Context) {
	page, size := pageParams(c)
	q := db.LoanQuery{
		State: c.Query("state"),
		Page:  page,
		Size:  size,
	}
	switch q.State {
	case "", "open", "closed":
	default:
		c.JSON(http.StatusBadRequest, app.H{"error": "state must be open or closed"})
		return
	}
	if v := c.Query("workerId"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, app.H{"error": "invalid workerId"})
			return
		}
		q.WorkerID = uint(id)
	}

	res, err := lc.Repo.ListLoans(c.Request.Context(), q)
	if err != nil {
		lc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/loans/:id
func (lc *LoanController) GetLoan(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		lc.fail(c, err)
		return
	}
	loan, err := lc.Repo.FindLoanByID(c.Request.Context(), id)
	if err != nil {
		lc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"loan": loan})
}
