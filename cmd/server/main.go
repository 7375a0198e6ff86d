// Wonka 工厂参观调度服务
// 主程序入口

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"github.com/danielsheh02/willy-wonka-factory/internal/config"
	"github.com/danielsheh02/willy-wonka-factory/internal/database"
	"github.com/danielsheh02/willy-wonka-factory/internal/handler"
	"github.com/danielsheh02/willy-wonka-factory/internal/metrics"
	"github.com/danielsheh02/willy-wonka-factory/internal/middleware"
	"github.com/danielsheh02/willy-wonka-factory/internal/security"
	"github.com/danielsheh02/willy-wonka-factory/internal/service"
	"github.com/danielsheh02/willy-wonka-factory/pkg/logger"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "配置加载失败: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: "console",
	})

	fmt.Printf("Wonka 工厂参观调度服务 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	// 数据库
	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Error().Err(err).Msg("数据库连接失败")
		os.Exit(1)
	}
	defer db.Close()

	// 服务装配
	store := service.NewSQLStore(db)
	txRunner := service.NewSQLTxRunner(db)
	excursionSvc := service.NewExcursionService(txRunner, store, cfg.Excursion)
	workshopSvc := service.NewWorkshopService(store, cfg.Excursion)
	ticketSvc := service.NewTicketService(txRunner, store, cfg.Ticket)
	reportSvc := service.NewReportService(store)

	excursionHandler := handler.NewExcursionHandler(excursionSvc)
	workshopHandler := handler.NewWorkshopHandler(workshopSvc)
	ticketHandler := handler.NewTicketHandler(ticketSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	guideHandler := handler.NewGuideHandler(excursionSvc)

	// 路由
	router := httprouter.New()

	router.HandlerFunc(http.MethodGet, "/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"wonka-factory"}`))
	})
	router.HandlerFunc(http.MethodGet, "/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s","build_time":"%s","git_commit":"%s"}`, Version, BuildTime, GitCommit)
	})
	if cfg.Metrics.Enabled {
		router.Handler(http.MethodGet, cfg.Metrics.Path, metrics.Handler())
	}

	// 参观团
	router.POST("/api/v1/excursions", excursionHandler.Create)
	router.GET("/api/v1/excursions", excursionHandler.List)
	router.GET("/api/v1/excursions/:id", excursionHandler.Get)
	router.PUT("/api/v1/excursions/:id", excursionHandler.Update)
	router.DELETE("/api/v1/excursions/:id", excursionHandler.Delete)
	router.POST("/api/v1/excursions/check-availability", excursionHandler.CheckAvailability)

	// 车间
	router.POST("/api/v1/workshops", workshopHandler.Create)
	router.GET("/api/v1/workshops", workshopHandler.List)
	router.GET("/api/v1/workshops/:id", workshopHandler.Get)
	router.PUT("/api/v1/workshops/:id", workshopHandler.Update)
	router.DELETE("/api/v1/workshops/:id", workshopHandler.Delete)

	// 金券
	router.POST("/api/v1/tickets/generate", ticketHandler.Generate)
	router.POST("/api/v1/tickets/book", ticketHandler.Book)
	router.POST("/api/v1/tickets/cancel-booking", ticketHandler.CancelBooking)
	router.GET("/api/v1/tickets/validate/:number", ticketHandler.Validate)
	router.GET("/api/v1/tickets", ticketHandler.List)
	router.GET("/api/v1/tickets/id/:id", ticketHandler.Get)
	router.DELETE("/api/v1/tickets/id/:id", ticketHandler.Delete)

	// 导游与报表
	router.GET("/api/v1/guides", guideHandler.List)
	router.GET("/api/v1/reports/statistics", reportHandler.Statistics)

	// 中间件链：requestID -> 限流 -> 认证 -> 安全头 -> 日志
	chain := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.Recovery,
		middleware.RateLimit(float64(cfg.API.RateLimit), cfg.API.RateLimit*2),
	}
	if cfg.API.AuthEnabled {
		keys := security.NewAPIKeyManager()
		if cfg.API.AdminAPIKey != "" {
			keys.Register(cfg.API.AdminAPIKey, "admin", []string{security.ScopeAll})
		}
		chain = append(chain, middleware.Auth(&middleware.AuthConfig{
			Keys:      keys,
			SkipPaths: []string{"/health", "/version", cfg.Metrics.Path},
		}))
	}
	chain = append(chain, middleware.SecurityHeaders, middleware.Logging)

	var httpHandler http.Handler = middleware.Chain(router, chain...)
	if cfg.API.CORS.Enabled {
		httpHandler = cors.New(cors.Options{
			AllowedOrigins:   cfg.API.CORS.Origins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type", "Authorization", "X-API-Key", "X-Request-ID"},
			AllowCredentials: true,
		}).Handler(httpHandler)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 后台时钟：状态推进与金券回收
	clockCtx, stopClocks := context.WithCancel(context.Background())
	go runClock(clockCtx, cfg.Ticket.StatusInterval, "参观团状态推进", func(ctx context.Context, now time.Time) (int, error) {
		return excursionSvc.AdvanceStatuses(ctx, now)
	})
	go runClock(clockCtx, cfg.Ticket.DeactivateInterval, "金券核销", func(ctx context.Context, now time.Time) (int, error) {
		return ticketSvc.DeactivateForStarted(ctx, now)
	})
	go runClock(clockCtx, cfg.Ticket.ExpireInterval, "过期金券回收", func(ctx context.Context, now time.Time) (int, error) {
		return ticketSvc.DeactivateExpired(ctx, now)
	})

	go func() {
		logger.Info().
			Int("port", cfg.App.Port).
			Str("version", Version).
			Str("env", cfg.App.Env).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("服务器启动失败")
			os.Exit(1)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("正在关闭服务器...")
	stopClocks()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
		os.Exit(1)
	}

	logger.Info().Msg("服务器已关闭")
}

// runClock 周期性执行后台任务直到上下文取消
func runClock(ctx context.Context, interval time.Duration, name string, fn func(context.Context, time.Time) (int, error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := fn(ctx, now); err != nil {
				logger.Error().Err(err).Str("clock", name).Msg("后台任务执行失败")
			}
		}
	}
}
