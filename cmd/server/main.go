package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	glog "github.com/labstack/gommon/log"

	"github.com/iliyamo/user-management/internal/config"
	"github.com/iliyamo/user-management/internal/database"
	"github.com/iliyamo/user-management/internal/handler"
	"github.com/iliyamo/user-management/internal/middleware"
	"github.com/iliyamo/user-management/internal/queue"
	"github.com/iliyamo/user-management/internal/repository"
	"github.com/iliyamo/user-management/internal/router"
	"github.com/iliyamo/user-management/internal/service"
	"github.com/iliyamo/user-management/internal/session"
	"github.com/iliyamo/user-management/internal/utils"
	"github.com/iliyamo/user-management/internal/view"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rdb, err := config.NewRedisClient(ctx)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	users := repository.NewUserRepo(db)
	notes := repository.NewNotificationRepo(db)
	tokens := utils.NewActivationTokens(cfg.ActivationSecret, cfg.ActivationTTL)
	pub := service.NewAMQPPublisher(cfg.AMQPURL)

	userSvc := service.NewUserService(users, tokens, pub, cfg.BcryptCost, cfg.BaseURL)
	notifySvc := service.NewNotificationService(notes, users, pub)
	activationSvc := service.NewActivationService(tokens, userSvc, notifySvc)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		created, err := userSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			log.Fatalf("bootstrap admin: %v", err)
		}
		if created {
			log.Printf("bootstrap admin %s created", cfg.AdminEmail)
		}
	}

	sessions := session.NewStore(rdb, cfg.SessionTTL)
	renderer, err := view.NewRenderer()
	if err != nil {
		log.Fatalf("templates: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer
	if cfg.Env == "prod" {
		e.Logger.SetLevel(glog.INFO)
	} else {
		e.Logger.SetLevel(glog.DEBUG)
	}
	e.Use(echomw.RequestID())
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(middleware.Session(sessions, cfg.Env == "prod"))

	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	activationH := handler.NewActivationHandler(activationSvc, sessions)
	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(userSvc, sessions), limit)
	router.RegisterActivation(e, activationH, limit)
	router.RegisterUsers(e, handler.NewUserHandler(userSvc, sessions), activationH, handler.NewNotificationHandler(notifySvc))

	if cfg.MailConsumer {
		sink := queue.NewMailSink(cfg.AMQPURL, cfg.MailLogDir)
		go func() {
			if err := sink.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("mail consumer stopped: %v", err)
			}
		}()
	}

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
}
