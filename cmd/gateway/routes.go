package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lunch-system/config"
	"lunch-system/internal/domain"
	"lunch-system/internal/gateway/handlers"
	"lunch-system/internal/gateway/middleware"
	"lunch-system/internal/health"
	"lunch-system/internal/services/lunch"
)

func newRouter(cfg config.Config, svc *lunch.Service, hs *health.Server) (*gin.Engine, error) {
	rateLimit, err := middleware.RateLimit(cfg.Server.RateLimit)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	r.Use(middleware.CORS(cfg.Server.CORSOrigin))
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(storageModeMiddleware(svc))

	lunchHandler := handlers.NewLunchHTTPHandler(svc)
	authHandler := handlers.NewAuthHTTPHandler(cfg.Auth)

	// --- Public API Group ---
	public := r.Group("/api/v1")
	{
		auth := public.Group("/auth")
		auth.POST("/login", rateLimit, authHandler.Login)
	}

	// --- Lunch API Group ---
	api := r.Group("/api")
	api.Use(middleware.JWTAuth(cfg.Auth.JWTSecret))
	{
		api.GET("/data", lunchHandler.GetData)
		api.POST("/data", rateLimit, lunchHandler.PostData)
		api.GET("/status", lunchHandler.Status)
		api.GET("/orders/badge/:matricola", lunchHandler.OrderByBadge)
		api.POST("/cart/toggle", lunchHandler.ToggleCart)

		admin := api.Group("/admin")
		admin.Use(middleware.RequireRole(domain.RoleAdmin))
		{
			admin.GET("/summary", lunchHandler.Summary)
		}
	}

	r.GET("/health", healthCheckHandler(hs))
	r.GET("/health/detailed", detailedHealthCheckHandler(svc, hs))

	return r, nil
}

func storageModeMiddleware(svc *lunch.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Storage-Mode", svc.StorageMode())
		c.Next()
	}
}

func healthCheckHandler(hs *health.Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		httpStatus := http.StatusOK

		checked, err := hs.Last()
		if err != nil || checked.IsZero() {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}

		c.JSON(httpStatus, gin.H{
			"status":     status,
			"message":    "Server is running",
			"checked_at": checked,
			"timestamp":  time.Now(),
		})
	}
}

func detailedHealthCheckHandler(svc *lunch.Service, hs *health.Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		start := time.Now()
		err := hs.Check(ctx)
		storeStatus := map[string]interface{}{
			"mode":       svc.StorageMode(),
			"latency_ms": time.Since(start).Milliseconds(),
		}

		overallStatus := "healthy"
		if err != nil {
			overallStatus = "degraded"
			storeStatus["status"] = "unavailable"
			storeStatus["message"] = err.Error()
		} else {
			storeStatus["status"] = "healthy"
			storeStatus["message"] = "Store is responding"
		}

		open, _, _ := svc.OrderingOpen(ctx)
		c.JSON(http.StatusOK, gin.H{
			"overall_status": overallStatus,
			"services": map[string]interface{}{
				"store": storeStatus,
				"cutoff": map[string]interface{}{
					"gate":          svc.Gate().String(),
					"ordering_open": open,
				},
			},
			"timestamp": time.Now(),
		})
	}
}
