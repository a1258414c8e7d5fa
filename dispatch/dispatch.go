// Package dispatch runs the external cindex/csearch binaries against a
// single on-disk index file, bounding and capturing their output.
package dispatch

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/csindex/csindexd/x"
)

// Result is the outcome of one dispatched invocation.
type Result struct {
	Success bool
	Stdout  []byte
	Stderr  []byte
}

// Dispatcher serializes "set CSEARCHINDEX, spawn" critical sections across
// every invocation it makes, since mutating the environment ahead of a
// spawn is a process-wide, racy operation.
type Dispatcher struct {
	mu sync.Mutex
}

// New returns a Dispatcher ready for concurrent use.
func New() *Dispatcher {
	return &Dispatcher{}
}

// Run executes argv with CSEARCHINDEX set to indexPath, capturing stdout
// and stderr. If maxStdoutLines or maxStderrLines is positive, the process
// is killed once that many newline-terminated lines (counting a final
// unterminated line at EOF) have been observed on the corresponding
// stream; Result.Success remains true in that case, since the kill was
// deliberate.
func (d *Dispatcher) Run(ctx context.Context, argv []string, indexPath string,
	maxStdoutLines, maxStderrLines int) (Result, error) {

	if len(argv) == 0 {
		return Result{}, errors.New("dispatch: empty argv")
	}

	d.mu.Lock()
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec
	cmd.Env = append(envWithout("CSEARCHINDEX"), "CSEARCHINDEX="+indexPath)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		d.mu.Unlock()
		return Result{}, x.WrapSpawn(err, "opening stdout pipe for %v", argv)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		d.mu.Unlock()
		return Result{}, x.WrapSpawn(err, "opening stderr pipe for %v", argv)
	}
	if err := cmd.Start(); err != nil {
		d.mu.Unlock()
		return Result{}, x.WrapSpawn(err, "starting %v", argv)
	}
	d.mu.Unlock()

	var killed atomic.Bool
	var stdoutBuf, stderrBuf bytes.Buffer

	var g errgroup.Group
	g.Go(func() error {
		return drain(&stdoutBuf, stdoutPipe, maxStdoutLines, &killed, cmd)
	})
	g.Go(func() error {
		return drain(&stderrBuf, stderrPipe, maxStderrLines, &killed, cmd)
	})

	drainErr := g.Wait()
	waitErr := cmd.Wait()

	if drainErr != nil {
		if killed.Load() {
			// A deliberate kill often surfaces as a pipe read error on the
			// other drain goroutine; that is expected, not a failure.
			glog.Infof("dispatch: drain error after deliberate kill of %v: %v", argv, drainErr)
		} else {
			return Result{}, errors.Wrap(drainErr, "draining process output")
		}
	}

	success := waitErr == nil
	if waitErr != nil && killed.Load() {
		// The process was killed deliberately because a line-count bound
		// was exceeded; report success so callers see the captured output
		// without also seeing a spurious failure.
		success = true
	} else if waitErr != nil && !killed.Load() {
		if _, ok := waitErr.(*exec.ExitError); !ok {
			return Result{}, errors.Wrap(waitErr, "waiting for process")
		}
	}

	return Result{Success: success, Stdout: stdoutBuf.Bytes(), Stderr: stderrBuf.Bytes()}, nil
}

// drain copies from r into buf, counting newlines as they arrive. Once
// maxLines is positive and reached (counting a final unterminated line on
// EOF), it sets killed and kills cmd's process.
func drain(buf *bytes.Buffer, r io.Reader, maxLines int, killed *atomic.Bool, cmd *exec.Cmd) error {
	reader := bufio.NewReaderSize(r, 32*1024)
	lines := 0
	chunk := make([]byte, 32*1024)
	sawAnyUnterminated := false

	for {
		n, err := reader.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			for _, b := range chunk[:n] {
				if b == '\n' {
					lines++
					sawAnyUnterminated = false
				} else {
					sawAnyUnterminated = true
				}
			}
		}
		if maxLines > 0 {
			total := lines
			if err == io.EOF && sawAnyUnterminated {
				total++
			}
			if total >= maxLines {
				killed.Store(true)
				if cmd.Process != nil {
					_ = cmd.Process.Kill()
				}
				// Keep draining so the writer end doesn't block, but
				// stop counting further: a kill is already in flight.
				maxLines = 0
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return errors.Wrap(err, "reading pipe")
		}
	}
}

// envWithout returns the current process environment with any existing
// binding of key removed, so a fresh binding can be appended without
// duplicate entries.
func envWithout(key string) []string {
	env := os.Environ()
	out := make([]string, 0, len(env))
	prefix := key + "="
	for _, kv := range env {
		if len(kv) >= len(prefix) && kv[:len(prefix)] == prefix {
			continue
		}
		out = append(out, kv)
	}
	return out
}
