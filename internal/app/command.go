package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/five82/homedash/internal/cache"
	"github.com/five82/homedash/internal/config"
	"github.com/five82/homedash/internal/homeapi"
	"github.com/five82/homedash/internal/logging"
	"github.com/five82/homedash/internal/logtail"
)

// ErrUsage is returned for an unknown command or wrong arguments.
var ErrUsage = errors.New("usage")

// Usage describes the one-shot commands accepted by RunCommand.
const Usage = `commands:
  add-device <hostname>         register a device with the primary host
  remove-device <id>            unregister a device
  add-link <name> <url>         add a link
  add-todo <host-id> <text...>  add a todo on a host (primary or device-<id>)
  add-city <name>               track weather for a city
  delete-city <id>              stop tracking a city
  logs [n]                      print the last n lines of the dashboard log`

const defaultLogLines = 50

type command struct {
	args  int // minimum argument count
	quiet bool
	run   func(ctx context.Context, d *dashboard, args []string, out io.Writer) error
}

var commands = map[string]command{
	"add-device": {1, false, func(ctx context.Context, d *dashboard, args []string, _ io.Writer) error {
		return d.actions.AddDevice(ctx, args[0])
	}},
	"remove-device": {1, false, func(ctx context.Context, d *dashboard, args []string, _ io.Writer) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return d.actions.RemoveDevice(ctx, id)
	}},
	"add-link": {2, false, func(ctx context.Context, d *dashboard, args []string, _ io.Writer) error {
		return d.actions.AddLink(ctx, homeapi.PutLink{Name: args[0], URL: args[1]})
	}},
	"add-todo": {2, false, func(ctx context.Context, d *dashboard, args []string, _ io.Writer) error {
		// Device hosts are only known after the device list was read.
		if _, err := d.cache.Load(ctx, cache.KindDevices, d.reg.Primary()); err != nil {
			return fmt.Errorf("load devices: %w", err)
		}
		d.poller.syncDevices()
		return d.actions.AddTodo(ctx, args[0], strings.Join(args[1:], " "))
	}},
	"add-city": {1, false, func(ctx context.Context, d *dashboard, args []string, _ io.Writer) error {
		return d.actions.AddCity(ctx, strings.Join(args, " "))
	}},
	"logs": {0, true, func(_ context.Context, d *dashboard, args []string, out io.Writer) error {
		n := defaultLogLines
		if len(args) > 0 {
			var err error
			if n, err = parseID(args[0]); err != nil {
				return err
			}
		}
		return showLogs(d.cfg.LogFile, n, out)
	}},
	"delete-city": {1, false, func(ctx context.Context, d *dashboard, args []string, _ io.Writer) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return d.actions.DeleteCity(ctx, id)
	}},
}

// RunCommand runs one command against the configured hosts and writes its
// output or a confirmation to out.
func RunCommand(ctx context.Context, opts Options, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: no command given", ErrUsage)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
	if len(args)-1 < cmd.args {
		return fmt.Errorf("%w: %s needs %d argument(s)", ErrUsage, args[0], cmd.args)
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	closer, err := logging.Init(logging.Config{Level: cfg.LogLevel, Target: cfg.LogFile})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout+warmUpTimeout)
	defer cancel()

	if err := cmd.run(ctx, newDashboard(cfg), args[1:], out); err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	if !cmd.quiet {
		fmt.Fprintf(out, "%s: done\n", args[0])
	}
	return nil
}

func showLogs(path string, n int, out io.Writer) error {
	switch path {
	case config.LogStderr, config.LogDiscard:
		return fmt.Errorf("log target is %s, not a file", path)
	}
	lines, err := logtail.Read(path, n)
	if err != nil {
		return err
	}
	return logtail.Render(out, lines, false)
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id < 0 {
		return 0, fmt.Errorf("%w: invalid id %q", ErrUsage, s)
	}
	return id, nil
}
