package controllers

import (
	"net/http"
	"strconv"

	"smartstock/app"
	"smartstock/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserController struct{ *Srv }

func NewUserController(s *Srv) *UserController { return &UserController{Srv: s} }

// GET /api/users?q=ana&page=1&size=20
func (uc *UserController) ListUsers(c *gin.Context) {
	q := c.Query("q")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	res, err := uc.Repo.ListUsers(c.Request.Context(), q, page, size)
	if err != nil {
		uc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{
		"total": res.Total,
		"users": res.Users,
	})
}

// GET /api/users/:id
func (uc *UserController) GetUser(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid user id"})
		return
	}
	user, err := uc.Repo.FindUserByID(c.Request.Context(), id)
	if err != nil {
		uc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"user": user})
}

// POST /api/users
func (uc *UserController) CreateUser(c *gin.Context) {
	var in struct {
		Username    string `json:"username" binding:"required"`
		DisplayName string `json:"displayName"`
		Password    string `json:"password" binding:"required"`
		Role        string `json:"role"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		uc.badRequest(c, err)
		return
	}
	if len(in.Password) < app.MinPasswordLength {
		c.JSON(http.StatusBadRequest, app.H{"error": "password must be at least 8 characters"})
		return
	}
	if in.Role == "" {
		in.Role = models.RoleStaff
	}
	hash, err := app.HashPassword(in.Password)
	if err != nil {
		uc.fail(c, err)
		return
	}
	u := &models.StaffUser{
		ID:           uuid.NewString(),
		Username:     in.Username,
		DisplayName:  in.DisplayName,
		PasswordHash: hash,
		Role:         in.Role,
	}
	if err := uc.Repo.CreateUser(c.Request.Context(), u); err != nil {
		uc.fail(c, err)
		return
	}
	uc.Log.Info("staff user created", zap.String("username", u.Username), zap.String("role", u.Role))
	c.JSON(http.StatusCreated, app.H{"user": u})
}

// DELETE /api/users/:id
func (uc *UserController) DeleteUser(c *gin.Context) {
	id := c.Param("id")

	// 不允许删除自己，避免锁死
	if id == app.CurrentUserID(c) {
		c.JSON(http.StatusBadRequest, app.H{"error": "cannot delete yourself"})
		return
	}

	if err := uc.Repo.DeleteUserByID(c.Request.Context(), id); err != nil {
		uc.fail(c, err)
		return
	}
	// 撤销该用户的所有登录会话
	if err := uc.AppSess.RevokeAllForUser(c.Request.Context(), id); err != nil {
		uc.Log.Warn("revoke sessions", zap.String("user", id), zap.Error(err))
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}
