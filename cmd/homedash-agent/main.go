package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/homedash/internal/agent"
	"github.com/five82/homedash/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	listen := flag.String("listen", ":5000", "address to serve the host API on")
	level := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	closer, err := logging.Init(logging.Config{Level: *level, Target: logging.TargetStderr})
	if err != nil {
		fmt.Fprintf(os.Stderr, "homedash-agent: %v\n", err)
		return 1
	}
	defer closer.Close()

	if err := agent.New(agent.SystemCollector{}, logging.Component("agent")).Run(ctx, *listen); err != nil {
		fmt.Fprintf(os.Stderr, "homedash-agent: %v\n", err)
		return 1
	}
	return 0
}
