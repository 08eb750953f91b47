package controllers

import (
	"net/http"

	"smartstock/app"
	"smartstock/models"

	"github.com/gin-gonic/gin"
)

// CatalogController 工人、分类、存放位置；停用而不删除，历史借出记录仍可引用
type CatalogController struct{ *Srv }

func NewCatalogController(s *Srv) *CatalogController { return &CatalogController{Srv: s} }

// ?all=true 仅管理员可见停用项
func activeOnly(c *gin.Context) bool {
	return !(c.Query("all") == "true" && c.GetBool("isAdmin"))
}

// GET /api/workers
func (cc *CatalogController) ListWorkers(c *gin.Context) {
	ws, err := cc.Repo.ListWorkers(c.Request.Context(), activeOnly(c))
	if err != nil {
		cc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"workers": ws})
}

// POST /api/workers
func (cc *CatalogController) CreateWorker(c *gin.Context) {
	var in struct {
		NationalID string `json:"nationalId"`
		FirstName  string `json:"firstName"`
		LastName   string `json:"lastName"`
		Role       string `json:"role"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		cc.badRequest(c, err)
		return
	}
	w := &models.Worker{NationalID: in.NationalID, FirstName: in.FirstName, LastName: in.LastName, Role: in.Role}
	if err := cc.Repo.CreateWorker(c.Request.Context(), w); err != nil {
		cc.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, app.H{"worker": w})
}

// DELETE /api/workers/:id
func (cc *CatalogController) DeactivateWorker(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		cc.fail(c, err)
		return
	}
	if err := cc.Repo.DeactivateWorker(c.Request.Context(), id); err != nil {
		cc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

type namedInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// GET /api/categories
func (cc *CatalogController) ListCategories(c *gin.Context) {
	out, err := cc.Repo.ListCategories(c.Request.Context(), activeOnly(c))
	if err != nil {
		cc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"categories": out})
}

// POST /api/categories
func (cc *CatalogController) CreateCategory(c *gin.Context) {
	var in namedInput
	if err := c.ShouldBindJSON(&in); err != nil {
		cc.badRequest(c, err)
		return
	}
	cat := &models.Category{Name: in.Name, Description: in.Description}
	if err := cc.Repo.CreateCategory(c.Request.Context(), cat); err != nil {
		cc.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, app.H{"category": cat})
}

// DELETE /api/categories/:id
func (cc *CatalogController) DeactivateCategory(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		cc.fail(c, err)
		return
	}
	if err := cc.Repo.DeactivateCategory(c.Request.Context(), id); err != nil {
		cc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// GET /api/locations
func (cc *CatalogController) ListLocations(c *gin.Context) {
	out, err := cc.Repo.ListLocations(c.Request.Context(), activeOnly(c))
	if err != nil {
		cc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"locations": out})
}

// POST /api/locations
func (cc *CatalogController) CreateLocation(c *gin.Context) {
	var in namedInput
	if err := c.ShouldBindJSON(&in); err != nil {
		cc.badRequest(c, err)
		return
	}
	loc := &models.Location{Name: in.Name, Description: in.Description}
	if err := cc.Repo.CreateLocation(c.Request.Context(), loc); err != nil {
		cc.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, app.H{"location": loc})
}

// DELETE /api/locations/:id
func (cc *CatalogController) DeactivateLocation(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		cc.fail(c, err)
		return
	}
	if err := cc.Repo.DeactivateLocation(c.Request.Context(), id); err != nil {
		cc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}
