// Package sim supervises a locally launched physics simulator and exposes it
// through the same bridge protocol as the remote rig.
package sim

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/roverlab/robogym/internal/monitoring"
)

// terminateGrace is how long Terminate waits after SIGTERM before escalating
// to SIGKILL on the process group.
const terminateGrace = 5 * time.Second

// Launcher runs the simulator in its own process group so the whole tree
// (physics server, render client, helper nodes) can be released together.
// The process is a scoped resource: Launch acquires it, Terminate releases
// it, and Terminate is safe on every shutdown path.
type Launcher struct {
	cmd  *exec.Cmd
	done chan struct{}

	mu         sync.Mutex
	waitErr    error
	terminated bool
}

// Launch starts the simulator command and begins watching for its exit.
func Launch(command []string) (*Launcher, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("empty simulator command")
	}

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting simulator: %w", err)
	}

	l := &Launcher{cmd: cmd, done: make(chan struct{})}
	go l.wait()

	monitoring.Logf("sim: launched %q (pid %d)", command[0], cmd.Process.Pid)
	return l, nil
}

// wait reaps the process and closes the done channel. It is the only place
// that calls Wait, so the exit status is collected exactly once.
func (l *Launcher) wait() {
	err := l.cmd.Wait()
	l.mu.Lock()
	l.waitErr = err
	l.mu.Unlock()
	close(l.done)
}

// Done is closed when the simulator process exits, normally or not.
func (l *Launcher) Done() <-chan struct{} {
	return l.done
}

// ExitError returns the error from the process exit, if any.
func (l *Launcher) ExitError() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.waitErr
}

// Terminate releases the simulator process tree: SIGTERM to the process
// group, then SIGKILL if it has not exited within the grace period.
// Idempotent.
func (l *Launcher) Terminate() error {
	l.mu.Lock()
	if l.terminated {
		l.mu.Unlock()
		return nil
	}
	l.terminated = true
	l.mu.Unlock()

	select {
	case <-l.done:
		return nil // already exited
	default:
	}

	pgid := l.cmd.Process.Pid
	if err := syscall.Kill(-pgid, syscall.SIGTERM); err != nil {
		return fmt.Errorf("signalling simulator group: %w", err)
	}

	select {
	case <-l.done:
	case <-time.After(terminateGrace):
		monitoring.Logf("sim: process group %d ignored SIGTERM, killing", pgid)
		syscall.Kill(-pgid, syscall.SIGKILL)
		<-l.done
	}
	return nil
}
