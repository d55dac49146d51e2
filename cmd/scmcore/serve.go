package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"scmcore/engine"
	"scmcore/messaging"
	"scmcore/predict"
	"scmcore/statecache"
	"scmcore/www"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *rootOptions) error {
	st, cfg, lg, err := opts.openStore()
	if err != nil {
		return err
	}
	defer lg.Sync()
	defer st.Close()
	lg.Infof("scmcore: store open (%s)", st.Driver())

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	var redisStore *statecache.RedisStore
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		lg.Warnf("scmcore: redis not available (%v), running without cache", err)
	} else {
		redisStore = statecache.NewRedisStore(redisClient, cfg.Redis.TTL)
		lg.Infof("scmcore: redis connected (%s)", cfg.Redis.Address)
	}
	cancel()

	// Messaging
	var msgClient *messaging.Client
	if cfg.Messaging.Backend != "" && cfg.Messaging.Backend != "none" {
		msgClient = messaging.NewClient(&cfg.Messaging)
		if err := msgClient.Connect(); err != nil {
			lg.Warnf("scmcore: messaging connect failed (%v), record events stay queued", err)
		} else {
			lg.Infof("scmcore: messaging connected (%s)", msgClient.Backend())
		}
		defer msgClient.Close()
	}

	engines := predict.NewClient(cfg.Engines.PredictionURL, cfg.Engines.OptimizerURL, cfg.Engines.Timeout)
	hctx, hcancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := engines.Health(hctx); err != nil {
		lg.Warnf("scmcore: prediction engines not available (%v)", err)
	}
	hcancel()

	eng := engine.New(engine.Config{
		AppConfig: cfg,
		Store:     st,
		Cache:     statecache.NewManager(st, redisStore, lg),
		Engines:   engines,
		MsgClient: msgClient,
		Logger:    lg,
	})
	eng.Start()
	defer eng.Stop()

	handler, stopWeb := www.NewRouter(eng)
	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Infof("scmcore: web server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-sigCtx.Done():
		lg.Infof("scmcore: shutting down...")
	case err := <-errCh:
		stopWeb()
		return fmt.Errorf("web server: %w", err)
	}

	stopWeb()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Warnf("scmcore: shutdown: %v", err)
	}
	lg.Infof("scmcore: stopped")
	return nil
}
