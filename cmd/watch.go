package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kamal-hamza/docusage/internal/core/domain"
	"github.com/kamal-hamza/docusage/pkg/ui"
)

var (
	watchQuiet   bool
	watchInitial bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Upload files as they appear in a directory",
	Long: `Watch a directory and upload new or changed files automatically.

Each file is uploaded once per content: saving the same bytes again does
not create a duplicate. The watcher stops when the session ends, for
example when the backend rejects the token.

Examples:
  docusage watch ~/Scans
  docusage watch ./inbox --initial`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVarP(&watchQuiet, "quiet", "q", false, "Only print errors")
	watchCmd.Flags().BoolVar(&watchInitial, "initial", false, "Upload files already in the directory on start")
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return reportError(domain.NewValidationError("watch", "dir", dir+" is not a directory"))
	}
	if !controller.Session().Present() {
		return reportError(domain.WrapError(domain.ErrAuthRequired, "watch", "You need to log in first.", nil))
	}

	ctx, stop := signal.NotifyContext(getContext(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory: %w", err)
	}

	if !watchQuiet {
		fmt.Println(ui.FormatRocket("Watching for new documents..."))
		fmt.Println(ui.FormatMuted("Directory: " + dir))
		fmt.Println(ui.FormatMuted("Press Ctrl+C to stop"))
		fmt.Println()
	}

	w := newUploadWatcher(ctx, appConfig.WatchDebounce())
	defer w.stopAll()

	if watchInitial {
		entries, _ := os.ReadDir(dir)
		for _, e := range entries {
			if e.Type().IsRegular() && watchable(e.Name()) {
				w.schedule(filepath.Join(dir, e.Name()))
			}
		}
	}

	// Event loop
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watchable(filepath.Base(event.Name)) {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				w.schedule(event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			appLogger.Warn("watcher error", zap.Error(err))

		case err := <-w.fatal:
			return err

		case <-ctx.Done():
			if !watchQuiet {
				fmt.Println()
				fmt.Println(ui.FormatMuted("Watcher stopped"))
			}
			return nil
		}
	}
}

// watchable filters out hidden, temporary and partial-download files
func watchable(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".tmp", ".part", ".crdownload", ".swp":
		return false
	}
	return true
}

// uploadWatcher debounces events per path and uploads one file at a time
type uploadWatcher struct {
	ctx      context.Context
	debounce time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
	queue  chan string
	fatal  chan error
	done   chan struct{}
}

func newUploadWatcher(ctx context.Context, debounce time.Duration) *uploadWatcher {
	w := &uploadWatcher{
		ctx:      ctx,
		debounce: debounce,
		timers:   make(map[string]*time.Timer),
		queue:    make(chan string, 64),
		fatal:    make(chan error, 1),
		done:     make(chan struct{}),
	}
	go w.run()
	return w
}

// schedule (re)starts the debounce timer for path
func (w *uploadWatcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		select {
		case w.queue <- path:
		case <-w.done:
		}
	})
}

func (w *uploadWatcher) stopAll() {
	w.mu.Lock()
	for _, t := range w.timers {
		t.Stop()
	}
	w.mu.Unlock()
	close(w.done)
}

func (w *uploadWatcher) run() {
	for {
		select {
		case path := <-w.queue:
			if err := w.upload(path); err != nil {
				select {
				case w.fatal <- err:
				default:
				}
				return
			}
		case <-w.done:
			return
		}
	}
}

// upload returns an error only when watching cannot continue
func (w *uploadWatcher) upload(path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}

	res, err := syncService.UploadPath(w.ctx, path, false)
	switch {
	case err != nil && (errors.Is(err, domain.ErrSessionInvalid) || errors.Is(err, domain.ErrAuthRequired)):
		return reportError(err)
	case err != nil && res == nil:
		fmt.Println(ui.FormatError(filepath.Base(path) + ": " + domain.Message(err)))
		return nil
	case res.Skipped:
		if !watchQuiet {
			fmt.Println(ui.FormatMuted("Unchanged: " + filepath.Base(path)))
		}
		return nil
	}

	if !watchQuiet {
		fmt.Println(ui.FormatSuccess(res.Result.Summary(filepath.Base(path))))
	}
	return nil
}
