package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/riskengine/internal/application/dto"
	"github.com/turtacn/riskengine/pkg/constants"
	"github.com/turtacn/riskengine/pkg/errors"
	"github.com/turtacn/riskengine/pkg/logger"
)

// IdempotencyKeyHeader names the client-chosen key of a retried request.
const IdempotencyKeyHeader = "Idempotency-Key"

const idempotencyKeyPrefix = "riskengine:idem:"

// IdempotencyMiddleware rejects a repeated mutating request carrying an
// Idempotency-Key already seen within ttl. Requests without the header pass.
// The key is claimed with SETNX so concurrent duplicates cannot both run.
// IdempotencyMiddleware 使用 Redis SETNX 拒绝重复提交的请求。
func IdempotencyMiddleware(client redis.UniversalClient, ttl time.Duration, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if key == "" || ttl <= 0 {
			c.Next()
			return
		}
		if len(key) > 255 {
			_, body := dto.ErrorResponse(errors.ErrValidation("Idempotency-Key is too long"),
				c.GetString(string(constants.ContextKeyRequestID)))
			c.AbortWithStatusJSON(http.StatusBadRequest, body)
			return
		}

		redisKey := idempotencyKeyPrefix + c.Request.Method + ":" + c.FullPath() + ":" + key
		isNew, err := client.SetNX(c.Request.Context(), redisKey, time.Now().UTC().Unix(), ttl).Result()
		if err != nil {
			log.Error(c.Request.Context(), "Idempotency check failed, allowing request", err,
				logger.String("idempotency_key", key))
			c.Next() // fail open
			return
		}
		if !isNew {
			log.Warn(c.Request.Context(), "Duplicate request rejected",
				logger.String("idempotency_key", key),
				logger.String("route", c.FullPath()),
			)
			_, body := dto.ErrorResponse(errors.ErrConflict("request with this Idempotency-Key was already processed").
				WithMetadata("idempotency_key", key), c.GetString(string(constants.ContextKeyRequestID)))
			c.AbortWithStatusJSON(http.StatusConflict, body)
			return
		}

		c.Next()

		// A failed request may be retried with the same key.
		if c.Writer.Status() >= 500 {
			if err := client.Del(c.Request.Context(), redisKey).Err(); err != nil {
				log.Warn(c.Request.Context(), "Failed to release idempotency key", logger.Error(err))
			}
		}
	}
}
