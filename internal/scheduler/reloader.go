package scheduler

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Reloadable interface {
	Reload() error
	Path() string
}

// Reloader swaps in a new model artifact on a cron schedule, on file change,
// or both. Reloads are skipped when the artifact's mtime has not moved.
type Reloader struct {
	target   Reloadable
	logger   *zap.Logger
	schedule string
	watch    bool
	debounce time.Duration

	cron    *cron.Cron
	watcher *fsnotify.Watcher
	stop    chan struct{}
	done    chan struct{}

	mu      sync.Mutex
	running bool
	lastMod time.Time
	lastRun time.Time
	lastErr error
	reloads int
	timer   *time.Timer
}

func NewReloader(target Reloadable, schedule string, watch bool, logger *zap.Logger) *Reloader {
	r := &Reloader{
		target:   target,
		logger:   logger,
		schedule: schedule,
		watch:    watch,
		debounce: 250 * time.Millisecond,
	}
	if info, err := os.Stat(target.Path()); err == nil {
		r.lastMod = info.ModTime()
	}
	return r
}

// Enabled reports whether any reload trigger is configured.
func (r *Reloader) Enabled() bool {
	return r.schedule != "" || r.watch
}

func (r *Reloader) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running || !r.Enabled() {
		return nil
	}

	var c *cron.Cron
	if r.schedule != "" {
		c = cron.New()
		if _, err := c.AddFunc(r.schedule, func() { r.runReload("cron") }); err != nil {
			return fmt.Errorf("invalid reload schedule %q: %w", r.schedule, err)
		}
	}

	if r.watch {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("creating model watcher: %w", err)
		}
		if err := watcher.Add(filepath.Dir(r.target.Path())); err != nil {
			watcher.Close()
			return fmt.Errorf("watching model dir: %w", err)
		}
		r.watcher = watcher
		r.stop = make(chan struct{})
		r.done = make(chan struct{})
		go r.watchLoop(watcher, r.stop, r.done)
	}

	if c != nil {
		r.cron = c
		c.Start()
	}

	r.running = true
	r.logger.Info("Model reloader started",
		zap.String("path", r.target.Path()),
		zap.String("schedule", r.schedule),
		zap.Bool("watch", r.watch))
	return nil
}

func (r *Reloader) watchLoop(watcher *fsnotify.Watcher, stop, done chan struct{}) {
	defer close(done)

	path := filepath.Clean(r.target.Path())
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Has(fsnotify.Remove) {
				continue
			}
			r.logger.Debug("Model artifact changed", zap.String("op", event.Op.String()))
			r.scheduleWatchReload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			r.logger.Warn("Model watcher error", zap.Error(err))
		case <-stop:
			return
		}
	}
}

// scheduleWatchReload coalesces a burst of file events into one reload.
func (r *Reloader) scheduleWatchReload() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.debounce, func() { r.runReload("watch") })
}

func (r *Reloader) runReload(trigger string) {
	info, err := os.Stat(r.target.Path())
	if err != nil {
		r.logger.Warn("Model artifact not readable, skipping reload",
			zap.String("trigger", trigger),
			zap.Error(err))
		return
	}

	r.mu.Lock()
	if !info.ModTime().After(r.lastMod) {
		r.mu.Unlock()
		r.logger.Debug("Model artifact unchanged, skipping reload", zap.String("trigger", trigger))
		return
	}
	r.mu.Unlock()

	err = r.target.Reload()

	r.mu.Lock()
	r.lastRun = time.Now()
	r.lastErr = err
	if err == nil {
		r.lastMod = info.ModTime()
		r.reloads++
	}
	r.mu.Unlock()

	if err != nil {
		r.logger.Error("Model reload failed", zap.String("trigger", trigger), zap.Error(err))
	}
}

// ForceRun reloads now regardless of the artifact's mtime.
func (r *Reloader) ForceRun() error {
	r.logger.Info("Manually triggering model reload")
	err := r.target.Reload()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastRun = time.Now()
	r.lastErr = err
	if err == nil {
		r.reloads++
		if info, statErr := os.Stat(r.target.Path()); statErr == nil {
			r.lastMod = info.ModTime()
		}
	}
	return err
}

func (r *Reloader) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	if r.timer != nil {
		r.timer.Stop()
	}
	c, watcher, stop, done := r.cron, r.watcher, r.stop, r.done
	r.cron, r.watcher = nil, nil
	r.mu.Unlock()

	// Jobs take r.mu, so wait for them outside the lock.
	if c != nil {
		<-c.Stop().Done()
	}
	if watcher != nil {
		close(stop)
		<-done
		watcher.Close()
	}
	r.logger.Info("Model reloader stopped")
}

func (r *Reloader) GetStatus() map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := map[string]interface{}{
		"running":  r.running,
		"schedule": r.schedule,
		"watch":    r.watch,
		"last_run": r.lastRun,
		"reloads":  r.reloads,
	}
	if r.lastErr != nil {
		status["last_error"] = r.lastErr.Error()
	}
	return status
}
