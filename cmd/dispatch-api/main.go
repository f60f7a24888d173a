// README: Results API entry point; serves persisted runs over HTTP.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"smartdispatch/internal/config"
	httptransport "smartdispatch/internal/http"
	"smartdispatch/internal/infra"
	"smartdispatch/internal/logger"
	"smartdispatch/internal/modules/report"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}

	log, err := logger.New("dispatch-api", cfg.Log.Env, cfg.Log.Level)
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.DB.DSN == "" {
		log.Fatal("DISPATCH_DB_DSN is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalw("db init", "error", err)
	}
	defer dbPool.Close()

	reportStore := report.NewStore(dbPool)
	reportSvc := report.NewService(reportStore)

	router := httptransport.NewRouter(reportSvc, log)
	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	log.Infow("listening", "addr", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalw("server", "error", err)
	}
}
