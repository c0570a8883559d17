// Package daemon tracks a background gateway process through a state file.
package daemon

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var (
	ErrAlreadyRunning = errors.New("gateway already running")
	ErrNotRunning     = errors.New("gateway not running")
)

// State is what a running gateway records about itself.
type State struct {
	PID  int
	Addr string
}

// PIDFile stores a State as "<pid>\n<addr>\n".
type PIDFile struct {
	Path string
}

// NewPIDFile creates a PIDFile at path.
func NewPIDFile(path string) *PIDFile {
	return &PIDFile{Path: path}
}

// Write records s, creating the parent directory if needed.
func (p *PIDFile) Write(s State) error {
	if err := os.MkdirAll(filepath.Dir(p.Path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data := strconv.Itoa(s.PID) + "\n" + s.Addr + "\n"
	return os.WriteFile(p.Path, []byte(data), 0o644)
}

// Read parses the recorded state. The address line is optional.
func (p *PIDFile) Read() (State, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return State{}, err
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	var s State
	if sc.Scan() {
		s.PID, err = strconv.Atoi(strings.TrimSpace(sc.Text()))
	}
	if err != nil || s.PID <= 0 {
		return State{}, fmt.Errorf("invalid PID file content in %s", p.Path)
	}
	if sc.Scan() {
		s.Addr = strings.TrimSpace(sc.Text())
	}
	return s, nil
}

// Remove deletes the file. A missing file is not an error.
func (p *PIDFile) Remove() error {
	if err := os.Remove(p.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Running reports the recorded state and whether that process is alive.
func (p *PIDFile) Running() (State, bool) {
	s, err := p.Read()
	if err != nil {
		return State{}, false
	}
	return s, alive(s.PID)
}

// Acquire records the current process as the gateway listening on addr.
// A stale file from a dead process is replaced.
func (p *PIDFile) Acquire(addr string) error {
	if s, ok := p.Running(); ok && s.PID != os.Getpid() {
		return fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, s.PID)
	}
	return p.Write(State{PID: os.Getpid(), Addr: addr})
}

// Release removes the file if it still belongs to the current process.
func (p *PIDFile) Release() error {
	s, err := p.Read()
	if err != nil || s.PID != os.Getpid() {
		return nil
	}
	return p.Remove()
}

// Stop asks the recorded process to terminate and waits up to grace for it
// to exit before killing it. The file is removed once the process is gone.
func (p *PIDFile) Stop(ctx context.Context, grace time.Duration) (State, error) {
	s, ok := p.Running()
	if !ok {
		_ = p.Remove()
		return s, ErrNotRunning
	}
	if err := terminate(s.PID); err != nil {
		return s, fmt.Errorf("signal pid %d: %w", s.PID, err)
	}

	if !waitExit(ctx, s.PID, grace) {
		if err := kill(s.PID); err != nil {
			return s, fmt.Errorf("kill pid %d: %w", s.PID, err)
		}
		waitExit(ctx, s.PID, grace)
	}
	return s, p.Remove()
}

func waitExit(ctx context.Context, pid int, grace time.Duration) bool {
	deadline := time.NewTimer(grace)
	defer deadline.Stop()
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		if !alive(pid) {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return false
		case <-tick.C:
		}
	}
}
