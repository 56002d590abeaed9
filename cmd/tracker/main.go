package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/ghuser/voyagewatch/pkg/config"
	"github.com/ghuser/voyagewatch/pkg/logger"
	"github.com/ghuser/voyagewatch/services/event/application/tracker"
	"github.com/ghuser/voyagewatch/services/event/infrastructure/channel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// The prompt owns stdout; logs go to stderr.
	log := logger.NewWithWriter(os.Stderr, cfg.LogLevel)

	adapter := channel.NewAdapter(cfg.TrackerRelayURL, log)
	session := tracker.NewSession(adapter, log,
		tracker.WithWorkflowOptions(tracker.WithReporter(cfg.TrackerReporter)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("session stopped", "error", err)
		}
	}()

	log.Info("tracker started", "relay", cfg.TrackerRelayURL)
	err = run(ctx, session)

	cancel()
	<-done
	if err != nil {
		log.Error("tracker failed", "error", err)
		os.Exit(1)
	}
}

// run reads commands until quit, EOF or Ctrl-C. History lives in memory only.
// Notices about incoming events go to stderr next to the logs.
func run(ctx context.Context, s *tracker.Session) error {
	lin := liner.NewLiner()
	defer lin.Close()
	lin.SetCtrlCAborts(true)

	r := &repl{s: s, out: os.Stdout}
	go r.watch(ctx, os.Stderr)
	lin.SetCompleter(r.complete)
	fmt.Fprintln(r.out, "VoyageWatch tracker. Type help for commands.")

	for {
		line, err := lin.Prompt(r.prompt())
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(r.out)
				return nil
			}
			return fmt.Errorf("read prompt: %w", err)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		lin.AppendHistory(line)

		if err := r.exec(line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintf(r.out, "error: %v\n", err)
		}
	}
}
