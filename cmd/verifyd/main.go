package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	verify "github.com/goliatone/go-verify"
	"github.com/goliatone/go-verify/social"
)

type app struct {
	cfg   *verify.Config
	bunDB *bun.DB
	srv   *fiber.App
}

func main() {
	cfg, err := verify.LoadConfig()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	a, err := newApp(cfg)
	if err != nil {
		log.Fatalf("startup error: %v", err)
	}

	go func() {
		if err := a.srv.Listen(cfg.ServerAddr); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.srv.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	if err := a.bunDB.Close(); err != nil {
		log.Printf("db close error: %v", err)
	}
}

func newApp(cfg *verify.Config) (*app, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DBPath)
	if err != nil {
		return nil, err
	}

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := bunDB.NewCreateTable().
		Model((*verify.User)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return nil, err
	}

	repo := verify.NewRepositoryManager(bunDB)
	repo.MustValidate()

	tokens, err := verify.NewTokenService(cfg.BearerSecret, cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	auth, err := verify.NewCredentialAuthenticator(repo.Users(), cfg.BearerSecret)
	if err != nil {
		return nil, err
	}

	reconciler, err := verify.NewSessionReconciler(repo.Users(), cfg.BearerSecret)
	if err != nil {
		return nil, err
	}

	minter, err := verify.NewSessionMinter(cfg.BearerSecret, cfg.Issuer)
	if err != nil {
		return nil, err
	}

	mailer, err := verify.NewSMTPProviderMailer(cfg)
	if err != nil {
		return nil, err
	}

	controller := verify.NewController(func(c *verify.Controller) *verify.Controller {
		c.Repo = repo
		c.Tokens = tokens
		c.Auth = auth
		c.Reconciler = reconciler
		c.Minter = minter
		c.Mailer = mailer

		if cfg.GoogleEnabled() {
			c.Google = social.NewGoogle(social.GoogleConfig{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				CallbackURL:  cfg.BaseURL + "/auth/google/callback",
			})
			c.States = social.NewSignedStateManager([]byte(cfg.BearerSecret), 0)
		}

		return c
	})

	srv := fiber.New(fiber.Config{
		AppName:      "verifyd",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	controller.RegisterRoutes(srv)

	return &app{
		cfg:   cfg,
		bunDB: bunDB,
		srv:   srv,
	}, nil
}
