package controllers

import (
	"net/http"

	"smartstock/db"

	"github.com/gin-gonic/gin"
)

type ReportController struct{ *Srv }

func NewReportController(s *Srv) *ReportController { return &ReportController{Srv: s} }

// GET /api/reports/summary
func (rc *ReportController) Summary(c *gin.Context) {
	s, err := rc.Repo.Summary(c.Request.Context())
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// GET /api/reports/transactions?q=&from=2025-01-01&to=2025-01-31&sort=-date&page=&size=
func (rc *ReportController) Transactions(c *gin.Context) {
	from, to, err := dateRange(c)
	if err != nil {
		rc.fail(c, err)
		return
	}
	page, size := pageParams(c)
	res, err := rc.Repo.ListTransactions(c.Request.Context(), db.TransactionQuery{
		Q: c.Query("q"), From: from, To: to, Sort: c.Query("sort"), Page: page, Size: size,
	})
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/reports/decommissions?q=&from=&to=&sort=-date&page=&size=
func (rc *ReportController) Decommissions(c *gin.Context) {
	from, to, err := dateRange(c)
	if err != nil {
		rc.fail(c, err)
		return
	}
	page, size := pageParams(c)
	res, err := rc.Repo.ListDecommissionEvents(c.Request.Context(), db.AuditQuery{
		Q: c.Query("q"), From: from, To: to, Sort: c.Query("sort"), Page: page, Size: size,
	})
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/reports/usage
func (rc *ReportController) Usage(c *gin.Context) {
	u, err := rc.Repo.UsageStats(c.Request.Context())
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
