// app/seenmw.go
package app

import (
	"time"

	"smartstock/db"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// TouchLastSeen 节流：同一用户 throttle 内最多写一次 last_seen_at
func TouchLastSeen(repo *db.Repo, rdb *redis.Client, throttle time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := CurrentUserID(c)
		if uid == "" {
			c.Next()
			return
		}

		key := "bodega:lastseen:" + uid
		ok, err := rdb.SetNX(c.Request.Context(), key, "1", throttle).Result()
		if err != nil {
			log.Warn("last seen throttle", zap.Error(err))
		} else if ok {
			if err := repo.TouchUserSeen(c.Request.Context(), uid); err != nil {
				log.Warn("touch last seen", zap.String("user", uid), zap.Error(err))
			}
		}
		c.Next()
	}
}
