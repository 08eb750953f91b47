package controllers

import (
	"errors"
	"net/http"

	"smartstock/app"
	"smartstock/apperr"

	"github.com/gin-gonic/gin"
)

type AuthController struct{ *Srv }

func NewAuthController(s *Srv) *AuthController { return &AuthController{Srv: s} }

// POST /auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var in struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		ac.badRequest(c, err)
		return
	}
	u, err := ac.Repo.FindUserByUsername(c.Request.Context(), in.Username)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		ac.fail(c, err)
		return
	}
	if u == nil || !app.CheckPassword(u.PasswordHash, in.Password) {
		c.JSON(http.StatusUnauthorized, app.H{"error": "invalid username or password"})
		return
	}
	if err := ac.issueSession(c.Request.Context(), c.Writer, u.ID, u.Role, c.ClientIP(), c.Request.UserAgent()); err != nil {
		ac.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"user": u})
}

// POST /auth/logout
func (ac *AuthController) Logout(c *gin.Context) {
	if sid := c.GetString("sessionID"); sid != "" {
		_ = ac.AppSess.Delete(c.Request.Context(), sid)
	}
	ac.setAppCookie(c.Writer, "", -1)
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// GET /auth/whoami
func (ac *AuthController) WhoAmI(c *gin.Context) {
	u, err := ac.Repo.FindUserByID(c.Request.Context(), app.CurrentUserID(c))
	if err != nil {
		ac.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"user": u, "isAdmin": u.IsAdmin()})
}
