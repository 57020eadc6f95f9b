package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/policynav/policynav/internal/audit"
	"github.com/policynav/policynav/internal/auth"
	"github.com/policynav/policynav/internal/config"
	"github.com/policynav/policynav/internal/database"
	"github.com/policynav/policynav/internal/mailer"
	"github.com/policynav/policynav/internal/ratelimit"
	"github.com/policynav/policynav/internal/repository"
	"github.com/policynav/policynav/internal/server"
	"github.com/policynav/policynav/internal/service"
	"github.com/policynav/policynav/pkg/readability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db, err := database.Connect(database.Config{
		Path:          cfg.DBPath,
		EncryptionKey: cfg.DBEncryptionKey,
		MaxOpenConns:  25,
		MaxIdleConns:  5,
		MaxLifetime:   1 * time.Hour,
		MaxIdleTime:   10 * time.Minute,
	})
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	auditLogger, err := audit.NewLogger(db, cfg.AuditLogPath, cfg.AuditAsyncMode)
	if err != nil {
		log.Fatalf("failed to initialize audit logger: %v", err)
	}
	defer auditLogger.Close()

	smtp, err := mailer.New(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	if err != nil {
		log.Fatalf("failed to initialize mailer: %v", err)
	}

	analyzer, err := readability.NewAnalyzer()
	if err != nil {
		log.Fatalf("failed to initialize readability analyzer: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	otpRepo := repository.NewOtpRepository(db)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	limiter := ratelimit.NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	authService := service.NewAuthService(userRepo, tokens, auditLogger)
	otpService := service.NewOtpService(otpRepo, smtp, auditLogger)
	adminService := service.NewAdminService(userRepo, auditLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("failed to ensure admin account: %v", err)
	}

	go limiter.StartCleanupWorker(ctx, 1*time.Hour)
	go startSecurityMonitoring(ctx, audit.NewMonitor(auditLogger))

	srv := server.New(cfg, server.Deps{
		AuthService:  authService,
		OtpService:   otpService,
		AdminService: adminService,
		Tokens:       tokens,
		Limiter:      limiter,
		Analyzer:     analyzer,
	})

	go func() {
		log.Printf("PolicyNav backend listening on %s", cfg.HTTPAddress())
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}
}

func startSecurityMonitoring(ctx context.Context, monitor *audit.Monitor) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := monitor.DetectFailedLogins(); err != nil {
				log.Printf("security monitoring error: %v", err)
			}
		}
	}
}
