package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"podmatch/internal/auth"
	"podmatch/internal/config"
	"podmatch/internal/httpmiddleware"
	"podmatch/internal/metrics"
	"podmatch/internal/pods"
	"podmatch/internal/progress"
	"podmatch/internal/queue"
	"podmatch/internal/refdata"
	"podmatch/internal/roster"
	"podmatch/internal/store"
)

func main() {
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	catalog, err := refdata.LoadCatalog(cfg.RefDataDir)
	if err != nil {
		return err
	}
	quests, err := refdata.LoadQuests(cfg.RefDataDir)
	if err != nil {
		return err
	}
	badges, err := refdata.LoadBadges(cfg.RefDataDir)
	if err != nil {
		return err
	}
	spaces, err := refdata.LoadSpaces(cfg.RefDataDir)
	if err != nil {
		return err
	}

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		if db == nil {
			return err
		}
		log.Printf("warning: db not reachable: %v", err)
	}
	defer db.Close()
	if err := db.EnsureSchema(context.Background()); err != nil {
		log.Printf("warning: schema bootstrap failed: %v", err)
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "podmatch:runs")
	}

	rosterRepo := roster.NewRepository(db.Client)
	podRepo := pods.NewRepository(db.Client)
	podSvc := pods.NewService(podRepo, badges)
	progressRepo := progress.NewRepository(db.Client)
	accounts := auth.NewAccounts(db.Client)

	if err := accounts.Bootstrap(context.Background(), cfg.StaffBootstrapUser, cfg.StaffBootstrapPassword); err != nil {
		log.Printf("warning: staff bootstrap failed: %v", err)
	}

	questPoints := make(map[string]refdata.Quest, len(quests))
	for _, qu := range quests {
		questPoints[qu.ID] = qu
	}

	r := gin.New()

	// Recovery middleware
	r.Use(gin.Recovery())

	// Custom logger
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))

	// CORS middleware
	r.Use(corsMiddleware())

	// Security headers
	r.Use(securityHeaders())

	// Rate limiting
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Healthy(c.Request.Context())
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	// Sign-up: validates against the catalog, normalizes tag casing, and
	// persists. Records are immutable once a matching run consumes them.
	r.POST("/v1/participants", func(c *gin.Context) {
		var req roster.Participant
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.ID == "" {
			req.ID = uuid.NewString()
		}
		valid, excluded := roster.Normalize([]roster.Participant{req}, catalog)
		if len(excluded) > 0 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": excluded[0].Error()})
			return
		}
		p, err := rosterRepo.Insert(c.Request.Context(), valid[0])
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "sign-up failed"})
			return
		}
		metrics.Signups.Inc()
		c.JSON(http.StatusCreated, gin.H{"participant": p})
	})

	r.GET("/v1/pods", func(c *gin.Context) {
		list, err := podRepo.List(c.Request.Context(), c.Query("zone"), c.Query("member"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"pods": list})
	})

	r.GET("/v1/pods/:id", func(c *gin.Context) {
		pod, err := podRepo.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if pod == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "pod not found"})
			return
		}
		podBadges, err := podRepo.Badges(c.Request.Context(), pod.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"pod": pod, "badges": podBadges})
	})

	r.GET("/v1/pods/:id/progress", func(c *gin.Context) {
		records, err := progressRepo.ForPod(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"progress": records})
	})

	r.POST("/v1/pods/:id/checkins", func(c *gin.Context) {
		var req struct {
			UserID string `json:"user_id" binding:"required"`
			Week   int    `json:"week" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		pod, err := podRepo.Get(c.Request.Context(), c.Param("id"))
		if err != nil || pod == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "pod not found"})
			return
		}
		if !pod.HasMember(req.UserID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not a pod member"})
			return
		}
		rec, err := progressRepo.CheckIn(c.Request.Context(), pod.ID, req.Week, req.UserID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"progress": rec})
	})

	r.POST("/v1/pods/:id/quests", func(c *gin.Context) {
		var req struct {
			UserID  string `json:"user_id" binding:"required"`
			Week    int    `json:"week" binding:"required"`
			QuestID string `json:"quest_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		quest, ok := questPoints[req.QuestID]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown quest"})
			return
		}
		pod, err := podRepo.Get(c.Request.Context(), c.Param("id"))
		if err != nil || pod == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "pod not found"})
			return
		}
		if !pod.HasMember(req.UserID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not a pod member"})
			return
		}
		rec, credited, err := progressRepo.CompleteQuest(c.Request.Context(), pod.ID, req.Week, req.UserID, quest.ID, quest.Points)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		total := pod.Points
		if credited {
			if total, err = podSvc.AwardPoints(c.Request.Context(), pod.ID, quest.Points); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"progress": rec, "pod_points": total, "credited": credited})
	})

	r.GET("/v1/leaderboard", func(c *gin.Context) {
		limit := 20
		if v := c.Query("limit"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				limit = parsed
			}
		}
		list, err := podRepo.Leaderboard(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"pods": list})
	})

	r.GET("/v1/refdata", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"zones":     catalog.Zones,
			"slots":     catalog.Slots,
			"interests": catalog.Interests,
			"quests":    quests,
			"badges":    badges,
			"spaces":    spaces,
		})
	})

	r.POST("/v1/auth/login", func(c *gin.Context) {
		var req struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		acc, err := accounts.ByUsername(c.Request.Context(), req.Username)
		if err != nil || acc == nil || !auth.CheckPassword(acc.PassHash, req.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		tokens, err := auth.Issue(acc.ID, acc.Role, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
			"expires_at":    tokens.AccessExp.Unix(),
		})
	})

	admin := r.Group("/v1/admin", auth.StaffAuth(cfg.JWTSigningKey, cfg.JWTIssuer))

	// Enqueues a matching run; the worker executes it under the run lock so
	// two runs never race over the same roster snapshot.
	admin.POST("/match-runs", func(c *gin.Context) {
		runID := uuid.NewString()
		if err := q.Publish(c.Request.Context(), queue.Message{Type: queue.TypeMatchRun, Body: []byte(runID)}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "enqueue failed"})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"run_id": runID})
	})

	admin.GET("/match-runs/latest", func(c *gin.Context) {
		run, err := podRepo.LatestRun(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if run == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no runs yet"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"run": run})
	})

	// The out-of-band captain approval patch. Idempotent; only the captain
	// field changes, the matcher's output is otherwise untouched.
	admin.PATCH("/pods/:id/captain", func(c *gin.Context) {
		var req struct {
			CaptainID string `json:"captain_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := podSvc.ApproveCaptain(c.Request.Context(), c.Param("id"), req.CaptainID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	admin.GET("/participants", func(c *gin.Context) {
		snapshot, err := rosterRepo.Snapshot(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"participants": snapshot})
	})

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
