// Command caretaker runs one housekeeping pass and prints its counters as JSON.
// It exits non-zero when the run itself fails; per-record failures only show in the counters.
package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/go-feedback-service/internal/application/caretaker"
	"github.com/go-feedback-service/internal/config"
	"github.com/go-feedback-service/internal/infrastructure/store"
	"github.com/go-feedback-service/internal/pkg/logging"
	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logging.SetupTo(os.Stderr, cfg.LogLevel, cfg.AppEnv)

	keep := flag.Duration("keep", cfg.KeepHistory, "delete records older than this")
	timeout := flag.Duration("timeout", 15*time.Minute, "abort the run after this long")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	repo, closeStore, err := store.Open(ctx, cfg)
	if err != nil {
		cancel()
		logging.Fatal("record store unavailable", "backend", cfg.StoreBackend, "err", err)
	}

	svc := caretaker.NewService(caretaker.ServiceDeps{
		Records:      repo,
		PageSize:     cfg.CaretakerPageSize,
		StoreTimeout: cfg.StoreTimeout,
	})
	code := run(ctx, svc, *keep, os.Stdout, closeStore)
	cancel()
	os.Exit(code)
}

// run executes one pass, writes the counters to out and releases the store.
// The returned value is the process exit code.
func run(ctx context.Context, svc caretaker.Service, keep time.Duration, out io.Writer, closeStore func(context.Context) error) int {
	code := 0
	res, err := svc.Run(ctx, keep)
	if err != nil {
		slog.Error("housekeeping run failed", "err", err)
		code = 1
	}
	if err := json.NewEncoder(out).Encode(res); err != nil {
		slog.Error("writing counters", "err", err)
		code = 1
	}

	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := closeStore(closeCtx); err != nil {
		slog.Error("closing record store", "err", err)
	}
	return code
}
