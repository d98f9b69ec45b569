// =============================================================================
// X12 EDI Validator - Watch Command
// =============================================================================
//
// This file defines the 'watch' command, which validates files as they
// arrive in the input directory. Files already present at startup are
// processed first.
//
// COMMAND USAGE:
//   edivalidator watch [flags]
//
// FLAGS:
//   --settle  : Quiet period after the last write before a file is processed
//   --level   : Override parsing.validation_level
//   --partner : Override parsing.trading_partner_id
//
// Stop with Ctrl+C.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/x12-edi-validator/internal/converter"
	"github.com/ginjaninja78/x12-edi-validator/internal/logger"
	"github.com/ginjaninja78/x12-edi-validator/pkg/utils"
)

var (
	watchSettle  time.Duration
	watchLevel   string
	watchPartner string
)

// watchCmd represents the 'watch' command.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Validate files as they arrive in the input directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchSettle, "settle", 500*time.Millisecond, "Wait this long after the last write before processing a file")
	watchCmd.Flags().StringVar(&watchLevel, "level", "", "Validation level: basic, standard, strict or complete")
	watchCmd.Flags().StringVar(&watchPartner, "partner", "", "Trading partner ID whose agreements apply")
}

// runWatch processes existing files, then reacts to file system events
// until interrupted.
func runWatch(cmd *cobra.Command) error {
	cfg, closeLog, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	conv, cleanup, err := newConverter(cfg, parserOverrides{level: watchLevel, partner: watchPartner})
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(cfg.InputDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", cfg.InputDir, err)
	}

	fmt.Println("=== X12 EDI Validator ===")
	fmt.Printf("Watching %s (Ctrl+C to stop)\n", cfg.InputDir)

	existing, err := fileManager(cfg).DiscoverInputFiles("")
	if err != nil {
		return fmt.Errorf("failed to discover input files: %w", err)
	}
	if len(existing) > 0 {
		fmt.Printf("Processing %d existing file(s)...\n", len(existing))
		processFiles(ctx, conv, existing, cfg.MaxConcurrency)
	}

	return watchLoop(ctx, watcher, conv, cfg.MaxConcurrency, watchSettle)
}

// watchLoop debounces write events per file and processes each file once
// it has been quiet for settle.
func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, conv *converter.Converter, concurrency int, settle time.Duration) error {
	if concurrency < 1 {
		concurrency = 1
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]*time.Timer)
		wg      sync.WaitGroup
		sem     = make(chan struct{}, concurrency)
	)
	defer func() {
		mu.Lock()
		for _, t := range pending {
			if t.Stop() {
				wg.Done()
			}
		}
		mu.Unlock()
		wg.Wait()
	}()

	schedule := func(path string) {
		mu.Lock()
		defer mu.Unlock()

		if t, ok := pending[path]; ok && t.Stop() {
			t.Reset(settle)
			return
		}

		var timer *time.Timer
		wg.Add(1)
		timer = time.AfterFunc(settle, func() {
			defer wg.Done()

			mu.Lock()
			if pending[path] == timer {
				delete(pending, path)
			}
			mu.Unlock()

			if ctx.Err() != nil || !utils.FileExists(path) {
				return
			}

			sem <- struct{}{}
			defer func() { <-sem }()
			printResult(conv.Run(ctx, path))
		})
		pending[path] = timer
	}

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nStopping watcher...")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !utils.IsEDIFile(filepath.Base(event.Name)) {
				continue
			}
			logger.Debug("Event %s on %s", event.Op, event.Name)
			schedule(event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}
