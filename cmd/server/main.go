package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/caminante/caminante-api/internal/config"
	"github.com/caminante/caminante-api/internal/database"
	"github.com/caminante/caminante-api/internal/handler"
	"github.com/caminante/caminante-api/internal/middleware"
	"github.com/caminante/caminante-api/internal/repository"
	"github.com/caminante/caminante-api/internal/router"
)

func main() {
	// Load .env in development, same as the original server did.
	if os.Getenv("APP_ENV") != "prod" {
		_ = godotenv.Load()
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	defer db.Close()
	if err := database.EnsureAuthSchema(context.Background(), db); err != nil {
		log.Fatalf("mysql: ensure auth schema: %v", err)
	}

	// Redis is optional; rate limiting and caching degrade to no-ops
	// without it.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and response cache disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	routes := repository.NewRouteRepo(db)
	seats := repository.NewSeatRepo(db)

	cacheCfg := config.LoadCacheConfig()
	invalidator := middleware.NewCacheInvalidator(cacheCfg, rdb)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	userH := handler.NewUserHandler(cfg, users, tokens)
	routeH := handler.NewRouteHandler(routes, seats, invalidator)
	seatH := handler.NewSeatHandler(seats, routes, invalidator)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{cfg.CORSOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
	}))
	e.Use(middleware.RateLimit(config.LoadRateLimitConfig(), rdb))

	// Per-surface cache scopes so mutations can invalidate exactly what
	// they changed: the catalog listing, or one route's seat map.
	routesCache := middleware.ResponseCache(cacheCfg, rdb, middleware.StaticScope(handler.RouteCatalogScope))
	seatsCache := middleware.ResponseCache(cacheCfg, rdb, middleware.ParamScope(handler.SeatMapScopeName, "routeId"))

	router.RegisterHealth(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterUsers(e, userH, cfg.JWTSecret)
	router.RegisterRouteCatalog(e, routeH, cfg.JWTSecret, routesCache)
	router.RegisterSeats(e, seatH, cfg.JWTSecret, seatsCache)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := ":" + cfg.Port
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Fatal(err)
	}
}
