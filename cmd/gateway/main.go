package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"lunch-system/config"
	"lunch-system/internal/database"
	"lunch-system/internal/events"
	"lunch-system/internal/health"
	"lunch-system/internal/services/lunch"
	"lunch-system/internal/store"
)

const healthInterval = 10 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	gate, err := cfg.Gate()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, pub, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.Storage.Driver, err)
	}
	defer closeStore()
	log.Printf("Storage mode: %s, ordering cutoff %s", st.Mode(), gate)

	svc := lunch.NewService(st, gate, pub, lunch.WithSnapshotTTL(cfg.Storage.SnapshotTTL))
	defer svc.Close()

	hs := health.NewServer(svc)
	go hs.Watch(ctx, healthInterval)

	if grpcEnabled(cfg.Server.GRPCPort) {
		lis, err := net.Listen("tcp", cfg.Server.GRPCPort)
		if err != nil {
			log.Fatalf("Failed to listen on %s: %v", cfg.Server.GRPCPort, err)
		}
		go func() {
			log.Printf("gRPC health server listening on %s", cfg.Server.GRPCPort)
			if err := hs.Serve(lis); err != nil {
				log.Printf("gRPC server stopped: %v", err)
			}
		}()
		defer hs.Stop()
	}

	router, err := newRouter(cfg, svc, hs)
	if err != nil {
		log.Fatalf("Failed to build router: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.Server.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
}

func grpcEnabled(port string) bool {
	switch strings.ToLower(port) {
	case "off", "none", "-":
		return false
	}
	return true
}

// openStore picks the document backend. Order events go to redis whenever
// redis is configured, independent of where the document lives.
func openStore(ctx context.Context, cfg config.Config) (store.Store, events.Publisher, func(), error) {
	var (
		closers []func()
		pub     events.Publisher = events.Nop{}
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Redis.Enabled() {
		rdb, err := config.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			if cfg.Storage.Driver == store.ModeRedis {
				return nil, nil, nil, err
			}
			log.Printf("Order events disabled: %v", err)
		} else {
			closers = append(closers, func() { rdb.Close() })
			pub = events.NewRedisPublisher(rdb)
			if cfg.Storage.Driver == store.ModeRedis {
				return store.NewRedisStore(rdb, cfg.Storage.DBKey), pub, closeAll, nil
			}
		}
	}

	switch cfg.Storage.Driver {
	case store.ModePostgres:
		db, err := database.NewConnection(cfg.Storage.DSN)
		if err != nil {
			closeAll()
			return nil, nil, nil, err
		}
		if err := database.MigrateLunchDB(db); err != nil {
			closeAll()
			return nil, nil, nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			closers = append(closers, func() { sqlDB.Close() })
		}
		return store.NewSQLStore(db, cfg.Storage.DBKey), pub, closeAll, nil
	default:
		st, err := store.NewFileStore(filepath.Clean(cfg.Storage.DBPath))
		if err != nil {
			closeAll()
			return nil, nil, nil, err
		}
		return st, pub, closeAll, nil
	}
}
