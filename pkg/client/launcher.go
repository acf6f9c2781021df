package client

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Launcher starts the model server in the background. It is invoked once per client
// construction and its error is ignored by the client.
type Launcher interface {
	Launch(ctx context.Context) error
}

// NoopLauncher never starts anything. Use it when the server is managed elsewhere and in tests.
type NoopLauncher struct{}

func (NoopLauncher) Launch(context.Context) error { return nil }

// LauncherFunc adapts a function to Launcher.
type LauncherFunc func(ctx context.Context) error

func (f LauncherFunc) Launch(ctx context.Context) error { return f(ctx) }

// ProcessLauncher spawns the server binary detached, with stdout and stderr discarded.
// The client never waits for readiness and never terminates the process.
type ProcessLauncher struct {
	Bin  string
	Args []string
	// Addr, when set, is probed first; a listening server skips the spawn.
	Addr string

	publisher EventPublisher
	log       zerolog.Logger
}

// NewProcessLauncher constructs a launcher for bin with args, probing addr before spawning.
func NewProcessLauncher(bin string, args []string, addr string) *ProcessLauncher {
	return &ProcessLauncher{
		Bin:       bin,
		Args:      append([]string(nil), args...),
		Addr:      addr,
		publisher: noopPublisher{},
		log:       zerolog.Nop(),
	}
}

// Launch starts the process and returns without waiting for it. The child is reaped
// by a background goroutine.
func (l *ProcessLauncher) Launch(ctx context.Context) error {
	if strings.TrimSpace(l.Bin) == "" {
		return fmt.Errorf("launch: empty server binary")
	}
	if l.Addr != "" && isListening(ctx, l.Addr) {
		l.log.Debug().Str("addr", l.Addr).Msg("server already listening; launch skipped")
		l.publish(Event{Name: "launch_skipped", Fields: map[string]any{"addr": l.Addr}})
		return nil
	}
	// Not CommandContext: the server must outlive ctx.
	cmd := exec.Command(l.Bin, l.Args...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", l.Bin, err)
	}
	pid := cmd.Process.Pid
	l.log.Debug().Str("bin", l.Bin).Int("pid", pid).Msg("server launched")
	l.publish(Event{Name: "launch_start", Fields: map[string]any{"pid": pid, "bin": l.Bin}})
	go func() {
		err := cmd.Wait()
		l.log.Debug().Int("pid", pid).Err(err).Msg("server exited")
	}()
	return nil
}

func (l *ProcessLauncher) publish(e Event) {
	if l.publisher == nil {
		return
	}
	l.publisher.Publish(e)
}

// setPublisher installs an EventPublisher for emitting launcher events.
func (l *ProcessLauncher) setPublisher(p EventPublisher) {
	if p == nil {
		l.publisher = noopPublisher{}
		return
	}
	l.publisher = p
}

func (l *ProcessLauncher) setLogger(log zerolog.Logger) { l.log = log }

// isListening reports whether something accepts TCP connections on addr.
func isListening(ctx context.Context, addr string) bool {
	d := net.Dialer{Timeout: 200 * time.Millisecond}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
