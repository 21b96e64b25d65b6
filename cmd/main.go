package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	httpSwagger "github.com/swaggo/http-swagger"

	"field-auth-server/config"
	_ "field-auth-server/docs"
	"field-auth-server/internal/handler"
	"field-auth-server/internal/model"
	"field-auth-server/internal/notifier"
	"field-auth-server/internal/ports"
	"field-auth-server/internal/repository"
	"field-auth-server/internal/security"
	"field-auth-server/internal/service"
)

// @title Field-auth-server
// @version 1.0
// @description REST API аутентификации и управления сессиями

// @host localhost:8080

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	db, err := config.SetupDatabase(cfg.DatabaseConfig.DSN)
	if err != nil {
		log.Fatalf("Не удалось подключиться к БД: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Ошибка при закрытии БД: %v", err)
		}
	}()

	if err := db.RunMigrations(ctx); err != nil {
		log.Fatalf("Ошибка миграции БД: %v", err)
	}

	redisClient, err := config.SetupRedis(&cfg.RedisConfig)
	if err != nil {
		log.Fatalf("Ошибка подключения к Redis: %v", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Printf("Ошибка при закрытии Redis: %v", err)
		}
	}()

	srv, router := config.SetupServer(cfg.ServerAddr)

	accountRepo := repository.NewAccountRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)

	throttleWindow, err := time.ParseDuration(cfg.Throttle.Window)
	if err != nil {
		log.Fatalf("Ошибка парсинга окна лимитера: %v", err)
	}
	loginLimiter := repository.NewLoginAttemptRepository(redisClient, cfg.Throttle.MaxAttempts, throttleWindow)

	webhookNotifier, err := notifier.NewWebhookNotifier(&cfg.Notifier)
	if err != nil {
		log.Fatalf("Ошибка создания notifier: %v", err)
	}

	jwtService := security.NewJWTService(&cfg.JWT)
	refreshTokenService := service.NewRefreshTokenService(refreshTokenRepo, &cfg.JWT)
	authService := service.NewAuthenticationService(accountRepo, refreshTokenService, jwtService, loginLimiter)
	accountService := service.NewAccountService(accountRepo, refreshTokenService, jwtService, webhookNotifier, &cfg.SetupToken, &cfg.Admin)

	if err := accountService.SeedDefaultAdmin(ctx); err != nil {
		log.Fatalf("Ошибка сидирования администратора: %v", err)
	}

	guard := security.NewGuard(jwtService, accountRepo)

	authHandler := handler.NewAuthenticationHandler(authService, accountService)
	accountHandler := handler.NewAccountHandler(accountService)

	router.Get("/swagger/*", httpSwagger.WrapHandler)

	setupAuthRoutes(router, authHandler, guard)
	setupAccountRoutes(router, accountHandler, guard)

	go runTokenSweep(ctx, refreshTokenService, cfg.Sweep.Interval)

	runServer(ctx, srv)
}

func setupAuthRoutes(r chi.Router, h *handler.AuthenticationHandler, guard *security.Guard) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(guard.Middleware())
			r.Get("/me", h.GetCurrentUser)
			r.Head("/me", h.GetCurrentUser)
			r.Delete("/logout-all", h.LogoutAll)
		})
		// публичные маршруты: guard здесь не монтируется осознанно
		r.Group(func(r chi.Router) {
			r.Post("/", h.Login)
			r.Post("/refresh", h.RefreshToken)
			r.Post("/setup-account", h.SetupAccount)
			r.Delete("/logout", h.Logout)
		})
	})
}

func setupAccountRoutes(r chi.Router, h *handler.AccountHandler, guard *security.Guard) {
	r.Route("/api/users", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(guard.Middleware(model.RoleAdmin))
			r.Get("/", h.ListAccounts)
			r.Post("/", h.CreateAccount)
			r.Post("/{uuid}/deactivate", h.DeactivateAccount)
		})

		r.Group(func(r chi.Router) {
			r.Use(guard.Middleware())
			r.Get("/{uuid}", h.GetAccount)
		})
	})
}

// runTokenSweep периодически удаляет просроченные и отозванные refresh-токены.
// Уборка не обязательна для корректности: Validate и так считает их невалидными
func runTokenSweep(ctx context.Context, manager ports.RefreshTokenManager, interval string) {
	sweepInterval, err := time.ParseDuration(interval)
	if err != nil {
		log.Printf("ошибка парсинга периода очистки, очистка отключена: %v", err)
		return
	}

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := manager.Cleanup(ctx)
			if err != nil {
				log.Printf("ошибка фоновой очистки токенов: %v", err)
				continue
			}
			if deleted > 0 {
				log.Printf("фоновая очистка удалила %d токенов", deleted)
			}
		}
	}
}

func runServer(ctx context.Context, server *http.Server) {
	serverErrors := make(chan error, 1)
	go func() {
		log.Println("сервер запущен на " + server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil {
			log.Fatalf("ошибка работы сервера: %v", err)
		}
	case sig := <-signalChannel:
		log.Printf("получен сигнал %v остановки работы сервера ", sig)
	}

	shutDownCtx, shutDownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutDownCancel()

	if err := server.Shutdown(shutDownCtx); err != nil {
		log.Printf("ошибка при остановке сервера: %v", err)
	} else {
		log.Println("Сервер успешно остановлен")
	}
}
