package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Controller drives one versoview instance. Each window owns exactly one
// instance; the controller is shared by every dispatcher handle issued for
// that window and is safe for concurrent use.
type Controller struct {
	cmd       *exec.Cmd
	transport *Transport
	group     *errgroup.Group
	cancel    context.CancelFunc
	logger    zerolog.Logger
}

// LaunchOptions locate and configure the versoview executable. Path is
// required; the rest apply process-wide defaults.
type LaunchOptions struct {
	Path         string
	ResourcesDir string
	DevtoolsPort uint16
	Logger       zerolog.Logger
}

// Launch spawns a versoview instance and connects its control transport.
// The returned controller is live but has no webview until Init is called.
func Launch(opts LaunchOptions) (*Controller, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("versoview executable path is not set")
	}
	if _, err := os.Stat(opts.Path); err != nil {
		return nil, fmt.Errorf("versoview executable not found: %w", err)
	}

	var args []string
	if opts.ResourcesDir != "" {
		args = append(args, "--resources-directory", opts.ResourcesDir)
	}
	if opts.DevtoolsPort != 0 {
		args = append(args, "--devtools-port", strconv.Itoa(int(opts.DevtoolsPort)))
	}

	cmd := exec.Command(opts.Path, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open versoview stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open versoview stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open versoview stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start versoview: %w", err)
	}

	logger := opts.Logger.With().Int("pid", cmd.Process.Pid).Logger()
	transport := NewTransport(stdout, stdin, logger)

	g, ctx := errgroup.WithContext(context.Background())
	ctx, cancel := context.WithCancel(ctx)

	c := &Controller{
		cmd:       cmd,
		transport: transport,
		group:     g,
		cancel:    cancel,
		logger:    logger,
	}

	g.Go(func() error {
		return transport.ReadLoop(ctx)
	})
	g.Go(func() error {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			logger.Debug().Str("stream", "stderr").Msg(scanner.Text())
		}
		return nil
	})
	g.Go(func() error {
		err := cmd.Wait()
		// Once the process is gone, no reply will ever arrive; fail the
		// waiters instead of letting them block.
		transport.Close()
		cancel()
		if err != nil {
			return fmt.Errorf("versoview exited: %w", err)
		}
		return nil
	})

	logger.Debug().Str("path", opts.Path).Msg("versoview started")
	return c, nil
}

// Wait blocks until the versoview process and its pipes are fully torn down
// and returns the first error observed.
func (c *Controller) Wait() error {
	return c.group.Wait()
}

// Alive reports whether the control transport is still usable.
func (c *Controller) Alive() bool {
	return !c.transport.IsClosed()
}

// InFlight returns the number of controller calls still awaiting an engine
// reply. A nonzero value at teardown means some other goroutine is still
// using this controller.
func (c *Controller) InFlight() int {
	return c.transport.Pending()
}

// Exit asks the versoview instance to shut itself down.
func (c *Controller) Exit() error {
	return c.transport.Notify("exit", nil)
}

// Kill force-terminates the versoview process without a shutdown exchange.
func (c *Controller) Kill() error {
	c.cancel()
	c.transport.Close()
	if c.cmd.Process == nil {
		return nil
	}
	if err := c.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to kill versoview: %w", err)
	}
	return nil
}
