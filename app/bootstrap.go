// app/bootstrap.go
package app

import (
	"context"

	"smartstock/config"
	"smartstock/db"
	"smartstock/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BootstrapFirstAdmin creates the first administrator when none exists and
// a bootstrap username is configured. A generated password is logged once.
func BootstrapFirstAdmin(ctx context.Context, cfg config.BootstrapConfig, repo *db.Repo, log *zap.Logger) error {
	if cfg.AdminUsername == "" {
		return nil
	}
	n, err := repo.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil // 已经有管理员，跳过
	}

	pw, generated := cfg.AdminPassword, false
	if pw == "" {
		pw, generated = RandomPassword(), true
	}
	hash, err := HashPassword(pw)
	if err != nil {
		return err
	}
	u := &models.StaffUser{
		ID:           uuid.NewString(),
		Username:     cfg.AdminUsername,
		DisplayName:  cfg.AdminUsername,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	if err := repo.CreateUser(ctx, u); err != nil {
		return err
	}

	log.Info("bootstrap admin created", zap.String("username", u.Username))
	if generated {
		log.Warn("bootstrap admin password generated, change it after first login",
			zap.String("username", u.Username), zap.String("password", pw))
	}
	return nil
}
