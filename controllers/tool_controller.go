package controllers

import (
	"net/http"
	"strings"

	"smartstock/app"
	"smartstock/apperr"
	"smartstock/db"

	"github.com/gin-gonic/gin"
)

type ToolController struct{ *Srv }

func NewToolController(s *Srv) *ToolController { return &ToolController{Srv: s} }

// GET /api/tools?q=taladro&status=available|in_use|maintenance&page=&size=
// decommissioned/all 只对管理员开放
func (tc *ToolController) ListTools(c *gin.Context) {
	status := strings.ToLower(strings.TrimSpace(c.Query("status")))
	if (status == "decommissioned" || status == "all") && !c.GetBool("isAdmin") {
		tc.fail(c, apperr.Permission("administrator role required"))
		return
	}
	tc.listStock(c, status)
}

// 固定状态的快捷列表
func (tc *ToolController) ListByStatus(status string) gin.HandlerFunc {
	return func(c *gin.Context) { tc.listStock(c, status) }
}

func (tc *ToolController) listStock(c *gin.Context, status string) {
	page, size := pageParams(c)
	res, err := tc.Repo.ListStock(c.Request.Context(), db.StockQuery{
		Q:      c.Query("q"),
		Status: status,
		Page:   page,
		Size:   size,
	})
	if err != nil {
		tc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/tools/in-use  借出中的工具及借用人
func (tc *ToolController) ListInUse(c *gin.Context) {
	rows, err := tc.Repo.ListOpenLines(c.Request.Context())
	if err != nil {
		tc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"total": len(rows), "lines": rows})
}

// GET /api/tools/:id
func (tc *ToolController) GetTool(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		tc.fail(c, err)
		return
	}
	t, err := tc.Repo.FindToolByID(c.Request.Context(), id)
	if err != nil {
		tc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"tool": t})
}

// POST /api/tools
func (tc *ToolController) CreateTool(c *gin.Context) {
	var in db.ToolInput
	if err := c.ShouldBindJSON(&in); err != nil {
		tc.badRequest(c, err)
		return
	}
	t, err := tc.Repo.CreateTool(c.Request.Context(), in)
	if err != nil {
		tc.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, app.H{"tool": t})
}

// PUT /api/tools/:id  只改描述字段，状态走专门的接口
func (tc *ToolController) UpdateTool(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		tc.fail(c, err)
		return
	}
	var in db.ToolInput
	if err := c.ShouldBindJSON(&in); err != nil {
		tc.badRequest(c, err)
		return
	}
	t, err := tc.Repo.UpdateTool(c.Request.Context(), id, in)
	if err != nil {
		tc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"tool": t})
}

// POST /api/tools/:id/release  维修完成 → 可用
func (tc *ToolController) Release(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		tc.fail(c, err)
		return
	}
	t, err := tc.Lending.ReleaseFromMaintenance(c.Request.Context(), id, app.CurrentUserID(c))
	if err != nil {
		tc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"tool": t})
}

// POST /api/tools/:id/decommission
func (tc *ToolController) Decommission(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		tc.fail(c, err)
		return
	}
	res, err := tc.Lending.Decommission(c.Request.Context(), id, app.CurrentUserID(c))
	if err != nil {
		tc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/tools/:id/reactivate
func (tc *ToolController) Reactivate(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		tc.fail(c, err)
		return
	}
	res, err := tc.Lending.Reactivate(c.Request.Context(), id, app.CurrentUserID(c))
	if err != nil {
		tc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
