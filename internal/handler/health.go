package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

// readyCheck pings one backing dependency by name.
type readyCheck struct {
	name  string
	check func(context.Context) error
}

type HealthHandler struct {
	checks []readyCheck
}

func NewHealthHandler(dbPool *pgxpool.Pool, redisClient *redis.Client, amqpConn *amqp.Connection) *HealthHandler {
	return &HealthHandler{checks: []readyCheck{
		{name: "postgres", check: dbPool.Ping},
		{name: "redis", check: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}},
		{name: "rabbitmq", check: func(context.Context) error {
			if amqpConn.IsClosed() {
				return errors.New("amqp connection closed")
			}
			return nil
		}},
	}}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz pings every dependency and reports each one's state, so a
// single probe shows everything that is down, not just the first.
func (h *HealthHandler) Readyz(c *gin.Context) {
	ctx := c.Request.Context()

	report := gin.H{"status": "ok"}
	code := http.StatusOK
	for _, dep := range h.checks {
		if err := dep.check(ctx); err != nil {
			report[dep.name] = "unavailable"
			report["status"] = "error"
			code = http.StatusServiceUnavailable
			continue
		}
		report[dep.name] = "connected"
	}
	c.JSON(code, report)
}
