package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"smartstock/apperr"
	"smartstock/models"

	"gorm.io/gorm"
)

type Repo struct{ DB *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{DB: db} }

func notFoundOr(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(format, args...)
	}
	return err
}

// Staff users

func (r *Repo) TouchUserLogin(ctx context.Context, userID, ip, ua string) error {
	now := time.Now().UTC()
	return r.DB.WithContext(ctx).Model(&models.StaffUser{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"last_login_at": now,
			"last_seen_at":  now,
			"login_count":   gorm.Expr("COALESCE(login_count, 0) + 1"),
			"last_login_ip": ip,
			"last_login_ua": truncate(ua, 255),
		}).Error
}

func (r *Repo) TouchUserSeen(ctx context.Context, userID string) error {
	return r.DB.WithContext(ctx).Model(&models.StaffUser{}).
		Where("id = ?", userID).
		Update("last_seen_at", time.Now().UTC()).Error
}

func (r *Repo) FindUserByID(ctx context.Context, id string) (*models.StaffUser, error) {
	var u models.StaffUser
	if err := r.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "staff user %s not found", id)
	}
	return &u, nil
}

func (r *Repo) FindUserByUsername(ctx context.Context, username string) (*models.StaffUser, error) {
	var u models.StaffUser
	if err := r.DB.WithContext(ctx).Where("username = ?", strings.ToLower(username)).First(&u).Error; err != nil {
		return nil, notFoundOr(err, "staff user %q not found", username)
	}
	return &u, nil
}

func (r *Repo) CreateUser(ctx context.Context, u *models.StaffUser) error {
	u.Username = strings.ToLower(strings.TrimSpace(u.Username))
	if u.Username == "" {
		return apperr.Validation("username is required")
	}
	if !models.ValidRole(u.Role) {
		return apperr.Validation("unknown role %q", u.Role)
	}
	if u.DisplayName == "" {
		u.DisplayName = u.Username
	}
	if err := r.DB.WithContext(ctx).Create(u).Error; err != nil {
		if isDuplicate(err) {
			return apperr.Conflict("username %q is already taken", u.Username)
		}
		return fmt.Errorf("insert staff user: %w", err)
	}
	return nil
}

// 列表（分页 + 关键词，关键词匹配用户名/显示名）
type ListUsersResult struct {
	Users []models.StaffUser `json:"users"`
	Total int64              `json:"total"`
}

func (r *Repo) ListUsers(ctx context.Context, q string, page, size int) (ListUsersResult, error) {
	page, size = normalizePage(page, size, 20, 100)

	tx := r.DB.WithContext(ctx).Model(&models.StaffUser{})
	if q = strings.TrimSpace(q); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		tx = tx.Where("LOWER(username) LIKE ? OR LOWER(display_name) LIKE ?", like, like)
	}
	tx = tx.Session(&gorm.Session{})

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return ListUsersResult{}, err
	}

	var users []models.StaffUser
	if err := tx.
		Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&users).Error; err != nil {
		return ListUsersResult{}, err
	}
	return ListUsersResult{Users: users, Total: total}, nil
}

// DeleteUserByID 被借单引用的用户不能删除（借单必须能追溯经手人）；
// 审计记录里的 actor 由外键置空。
func (r *Repo) DeleteUserByID(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Delete(&models.StaffUser{ID: id})
	if res.Error != nil {
		if isForeignKey(res.Error) {
			return apperr.Conflict("staff user %s has recorded loans and cannot be deleted", id)
		}
		return fmt.Errorf("delete staff user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("staff user %s not found", id)
	}
	return nil
}

func (r *Repo) CountAdmins(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).
		Model(&models.StaffUser{}).
		Where("role = ?", models.RoleAdmin).
		Count(&n).Error
	return n, err
}

func normalizePage(page, size, def, max int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > max {
		size = def
	}
	return page, size
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
