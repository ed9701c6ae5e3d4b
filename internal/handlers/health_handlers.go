package handlers

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// HealthCheck reports process liveness.
func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// ReadinessCheck reports whether the process is ready to serve.
func ReadinessCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// HealthCheckDetailed also pings the database.
func HealthCheckDetailed(c echo.Context, pool *pgxpool.Pool) error {
	ctx := c.Request().Context()

	dbStatus := "ok"
	if err := pool.Ping(ctx); err != nil {
		dbStatus = "unreachable"
	}

	status := http.StatusOK
	if dbStatus != "ok" {
		status = http.StatusServiceUnavailable
	}

	return c.JSON(status, map[string]interface{}{
		"status":    dbStatus,
		"timestamp": time.Now().UTC(),
	})
}
