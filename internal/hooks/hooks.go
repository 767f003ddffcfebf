// Package hooks runs user scripts at rotation lifecycle points.
//
// Scripts live in <dir>/<point>/ and run in name order when executable.
// Each receives HOOK_POINT, HOOK_TIMESTAMP and TMUX_ROTATE_BINARY plus the
// variables supplied by the caller.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cristianoliveira/tmux-rotate/internal/config"
	"github.com/cristianoliveira/tmux-rotate/internal/logging"
)

// Hook points.
const (
	PostRotate     = "post-rotate"
	RotationFailed = "rotation-failed"
	PostStart      = "post-start"
	PostStop       = "post-stop"
)

// Failure modes.
const (
	FailAbort  = "abort"
	FailWarn   = "warn"
	FailIgnore = "ignore"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultMaxAsync = 10
)

// ErrHookFailed wraps the error of a hook script when the failure mode is abort.
var ErrHookFailed = errors.New("hook failed")

// Options configures a Runner.
type Options struct {
	Dir         string
	FailureMode string
	Async       bool
	Timeout     time.Duration
	MaxAsync    int
	Logger      logging.Logger
	// Stderr receives script output. Defaults to os.Stderr.
	Stderr io.Writer
}

// Runner executes hook scripts. A nil *Runner runs nothing.
type Runner struct {
	opts   Options
	binary string

	mu      sync.Mutex
	pending int
	wg      sync.WaitGroup
}

// New creates a Runner.
func New(opts Options) *Runner {
	switch opts.FailureMode {
	case FailAbort, FailWarn, FailIgnore:
	default:
		opts.FailureMode = FailWarn
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxAsync <= 0 {
		opts.MaxAsync = defaultMaxAsync
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	r := &Runner{opts: opts}
	if exe, err := os.Executable(); err == nil {
		r.binary = exe
	}
	return r
}

// FromConfig creates a Runner from the hooks_* config keys.
func FromConfig(logger logging.Logger) *Runner {
	return New(Options{
		Dir:         config.Get("hooks_dir", ""),
		FailureMode: config.Get("hooks_failure_mode", FailWarn),
		Async:       config.GetBool("hooks_async", false),
		Timeout:     config.GetDuration("hooks_timeout", defaultTimeout),
		MaxAsync:    config.GetInt("hooks_max_async", defaultMaxAsync),
		Logger:      logger,
	})
}

// scripts returns the executable files of a hook point, sorted by name.
func (r *Runner) scripts(point string) []string {
	if r.opts.Dir == "" {
		return nil
	}
	dir := filepath.Join(r.opts.Dir, point)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.Mode()&0111 == 0 {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths
}

func (r *Runner) environ(point string, env map[string]string) []string {
	vars := os.Environ()
	vars = append(vars,
		"HOOK_POINT="+point,
		"HOOK_TIMESTAMP="+time.Now().Format(time.RFC3339),
	)
	if r.binary != "" {
		vars = append(vars, "TMUX_ROTATE_BINARY="+r.binary)
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		vars = append(vars, k+"="+env[k])
	}
	return vars
}

// Run executes the scripts of point. With async enabled, scripts are
// started in the background and Run returns immediately; scripts over the
// MaxAsync limit are skipped. In sync mode a failing script returns an
// error only when the failure mode is abort, which also stops the remaining
// scripts.
func (r *Runner) Run(ctx context.Context, point string, env map[string]string) error {
	if r == nil {
		return nil
	}
	scripts := r.scripts(point)
	if len(scripts) == 0 {
		return nil
	}
	r.opts.Logger.Debug("running hooks", "point", point, "count", len(scripts))
	vars := r.environ(point, env)

	for _, script := range scripts {
		if r.opts.Async {
			if !r.reserve() {
				r.opts.Logger.Warn("too many async hooks pending, skipping",
					"point", point, "script", filepath.Base(script), "max", r.opts.MaxAsync)
				continue
			}
			go r.runAsync(script, vars)
			continue
		}
		if err := r.exec(ctx, script, vars); err != nil {
			if r.report(point, script, err) {
				return err
			}
		}
	}
	return nil
}

func (r *Runner) reserve() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending >= r.opts.MaxAsync {
		return false
	}
	r.pending++
	r.wg.Add(1)
	return true
}

func (r *Runner) runAsync(script string, vars []string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.opts.Logger.Error("async hook panicked", "script", filepath.Base(script), "panic", rec)
		}
		r.mu.Lock()
		r.pending--
		r.mu.Unlock()
		r.wg.Done()
	}()
	// Detached from the caller so a finished request does not kill the script.
	if err := r.exec(context.Background(), script, vars); err != nil {
		r.report(filepath.Base(filepath.Dir(script)), script, err)
	}
}

// exec runs one script under the runner timeout.
func (r *Runner) exec(ctx context.Context, script string, vars []string) error {
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, script)
	cmd.Env = vars
	cmd.Stdout = r.opts.Stderr
	cmd.Stderr = r.opts.Stderr
	// Children of a killed script may keep the output pipes open.
	cmd.WaitDelay = time.Second
	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		err = fmt.Errorf("timed out after %s: %w", r.opts.Timeout, ctx.Err())
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrHookFailed, filepath.Base(script), err)
	}
	r.opts.Logger.Debug("hook completed", "script", filepath.Base(script), "duration", time.Since(start))
	return nil
}

// report logs err according to the failure mode and reports whether the
// caller must abort.
func (r *Runner) report(point, script string, err error) bool {
	switch r.opts.FailureMode {
	case FailAbort:
		r.opts.Logger.Error("hook failed", "point", point, "script", filepath.Base(script), "error", err)
		return true
	case FailWarn:
		r.opts.Logger.Warn("hook failed", "point", point, "script", filepath.Base(script), "error", err)
	}
	return false
}

// Pending returns the number of async scripts still running.
func (r *Runner) Pending() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}

// Wait blocks until every async script has finished.
func (r *Runner) Wait() {
	if r == nil {
		return
	}
	r.wg.Wait()
}
