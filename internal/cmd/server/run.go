package serverrun

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	cfgpkg "github.com/spaceone/rest-feeds/internal/config"
	"github.com/spaceone/rest-feeds/internal/runtime"
	httpserver "github.com/spaceone/rest-feeds/internal/server/http"
	pebblestore "github.com/spaceone/rest-feeds/internal/storage/pebble"
	logpkg "github.com/spaceone/rest-feeds/pkg/log"
)

func getenvDefault(key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

// small wrapper to allow testing; replaced by os.Getenv at build time
var getenv = func(key string) string { return os.Getenv(key) }

type Options struct {
	DataDir       string
	HTTPAddr      string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
}

// Run starts the HTTP server and the retention sweeper and blocks until ctx
// is cancelled.
func Run(ctx context.Context, opts Options) error {
	// Be robust to callers that don't pass a signal-aware context. We
	// layer a local signal context over the provided one.
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.DataDir == "" {
		opts.DataDir = cfgpkg.DefaultDataDir()
	}
	storeDir := filepath.Join(opts.DataDir, "store")
	rt, err := runtime.Open(runtime.Options{DataDir: storeDir, Fsync: opts.Fsync, FsyncInterval: opts.FsyncInterval, Config: opts.Config})
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg := &logpkg.Config{
		Level:  getenvDefault("FEEDS_LOG_LEVEL", "info"),
		Format: getenvDefault("FEEDS_LOG_FORMAT", "text"),
	}
	procLogger, err := logpkg.ApplyConfig(cfg)
	if err != nil {
		lvl := logpkg.InfoLevel
		if l, e := logpkg.ParseLevel(cfg.Level); e == nil {
			lvl = l
		}
		procLogger = logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(&logpkg.TextFormatter{}))
	}

	// Redirect stdlib logs (e.g., Pebble) to our logger
	logpkg.RedirectStdLog(procLogger)

	procLogger.Info("Starting feed server",
		logpkg.Str("http", opts.HTTPAddr),
		logpkg.Str("data_dir", opts.DataDir),
		logpkg.Str("level", cfg.Level),
		logpkg.Str("format", cfg.Format),
		logpkg.Int64("retention_max_age_ms", opts.Config.Retention.MaxAgeMs),
	)

	hsrv := httpserver.New(rt, procLogger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := hsrv.ListenAndServe(sctx, opts.HTTPAddr); err != nil && sctx.Err() == nil {
			log.Printf("http error: %v", err)
		}
	}()

	if opts.Config.Retention.MaxAgeMs > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runSweeper(sctx, hsrv, opts.Config, procLogger)
		}()
	}

	<-sctx.Done()
	// Shut down the server before closing the runtime to avoid races.
	hsrv.Close()
	wg.Wait()
	return nil
}

// runSweeper trims event feed entries past the configured age on a fixed
// interval until the context ends.
func runSweeper(ctx context.Context, hsrv *httpserver.Server, cfg cfgpkg.Config, logger logpkg.Logger) {
	interval := time.Duration(cfg.Retention.SweepIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := hsrv.Service().SweepRetention(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("retention sweep failed", logpkg.Err(err))
			}
		}
	}
}
