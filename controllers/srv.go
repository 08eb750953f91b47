// controllers/srv.go
package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"smartstock/app"
	"smartstock/apperr"
	"smartstock/config"
	"smartstock/db"
	"smartstock/lending"
	"smartstock/session"
	"smartstock/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Srv struct {
	Repo    *db.Repo
	AppSess *session.AppSessionStore
	Lending *lending.Engine
	Objects storage.ObjectStore
	Cfg     *config.Config
	Log     *zap.Logger
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		Repo:    a.Repo,
		AppSess: a.AppSessions(),
		Lending: a.Lending,
		Objects: a.Objects,
		Cfg:     a.Config,
		Log:     a.Log.Named("http"),
	}
}

// --- helpers ---

// fail 按错误种类映射 HTTP 状态码；未知错误只记日志不外泄
func (s *Srv) fail(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, apperr.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, apperr.ErrPermission):
		status = http.StatusForbidden
	default:
		_ = c.Error(err)
		s.Log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, app.H{"error": "internal error"})
		return
	}
	c.JSON(status, app.H{"error": apperr.Message(err)})
}

func (s *Srv) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
}

func paramID(c *gin.Context, name string) (uint, error) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, apperr.Validation("invalid %s", name)
	}
	return uint(n), nil
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "0"))
	return page, size
}

const dateLayout = "2006-01-02"

// dateRange 解析 from/to（YYYY-MM-DD），to 当天包含在内
func dateRange(c *gin.Context) (from, to *time.Time, err error) {
	if v := strings.TrimSpace(c.Query("from")); v != "" {
		t, perr := time.Parse(dateLayout, v)
		if perr != nil {
			return nil, nil, apperr.Validation("from must be a date like %s", dateLayout)
		}
		from = &t
	}
	if v := strings.TrimSpace(c.Query("to")); v != "" {
		t, perr := time.Parse(dateLayout, v)
		if perr != nil {
			return nil, nil, apperr.Validation("to must be a date like %s", dateLayout)
		}
		t = t.Add(24 * time.Hour)
		to = &t
	}
	return from, to, nil
}

// 统一设置业务会话 Cookie
func (s *Srv) setAppCookie(w http.ResponseWriter, sessionID string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.Cfg.Session.CookieSecure,
		MaxAge:   int(maxAge / time.Second),
	})
}

// 登录成功：创建会话 + 记录登录快照
func (s *Srv) issueSession(ctx context.Context, w http.ResponseWriter, userID, role, ip, ua string) error {
	if err := s.Repo.TouchUserLogin(ctx, userID, ip, ua); err != nil {
		s.Log.Warn("touch user login", zap.String("user", userID), zap.Error(err))
	}
	id, err := s.AppSess.Create(ctx, userID, role)
	if err != nil {
		return err
	}
	s.setAppCookie(w, id, s.AppSess.TTL())
	return nil
}
