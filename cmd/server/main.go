package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/saathi-app/saathi-server/internal/api"
	"github.com/saathi-app/saathi-server/internal/config"
	"github.com/saathi-app/saathi-server/internal/database"
	"github.com/saathi-app/saathi-server/internal/presence"
	"github.com/saathi-app/saathi-server/internal/server"
	"github.com/saathi-app/saathi-server/internal/stats"
)

const defaultSigningKey = "wT0phFUusHZIrDhL9bUKPUhwaxKhpi/SaI6PtgB+MgU="

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var (
	addr           string
	dsn            string
	redisURL       string
	signingKey     string
	frontendURL    string
	allowedOrigins stringSliceFlag
)

func main() {
	// .env is optional; flags and real environment variables win
	_ = godotenv.Load()

	flag.StringVar(&addr, "addr", envOr("SAATHI_ADDR", "localhost:8000"), "server address")
	flag.StringVar(&dsn, "dsn", os.Getenv("DATABASE_URL"), "database connection string (empty: in-memory store)")
	flag.StringVar(&redisURL, "redis-url", os.Getenv("REDIS_URL"), "redis connection URL (empty: in-memory presence)")
	flag.StringVar(&signingKey, "signing-key", envOr("SIGNING_KEY", defaultSigningKey), "base64 encoded signing key")
	flag.StringVar(&frontendURL, "frontend-url", os.Getenv("FRONTEND_URL"), "frontend base URL embedded in QR codes")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Parse()

	logger := log.New(os.Stderr, "[saathi] ", log.LstdFlags)

	cfg, err := config.NewConfig(addr, dsn, redisURL, signingKey, frontendURL, allowedOrigins)
	if err != nil {
		logger.Fatal("config:", err)
	}

	var db database.SaathiRepository
	if cfg.DatabaseDSN != "" {
		pgDb, err := database.NewPgSaathiRepository(cfg.DatabaseDSN)
		if err != nil {
			logger.Fatal("db open:", err)
		}
		if err := pgDb.Migrate(); err != nil {
			logger.Fatal("db migrate:", err)
		}
		db = pgDb
	} else {
		logger.Println("no database configured, using in-memory store")
		db = database.NewMemSaathiRepository()
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Fatal("db close:", err)
		}
	}()

	var tracker presence.Tracker
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("redis url:", err)
		}
		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Fatal("redis ping:", err)
		}
		defer redisClient.Close()
		tracker = presence.NewRedisTracker(redisClient)
	} else {
		logger.Println("no redis configured, using in-memory presence tracker")
		tracker = presence.NewMemTracker()
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	chatServer, err := server.NewChatServer(logger, db, tracker, statsUpdater)
	if err != nil {
		logger.Fatal("new chat server:", err)
	}

	srv := api.NewSaathiApp(mux, logger, chatServer, db, tracker, statsUpdater, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	go chatServer.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutting down chat server...")
	if err := chatServer.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("chat server shutdown:", err)
	}

	logger.Println("shutdown complete")
}
