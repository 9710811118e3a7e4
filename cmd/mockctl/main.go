package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"mockinterview/internal/cli/command"
	"mockinterview/internal/cli/config"
	"mockinterview/internal/cli/http"
	"mockinterview/internal/cli/repl"
	"mockinterview/internal/cli/state"
)

const defaultConfigPath = "configs/mockctl.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	baseURL := flag.String("base", "", "Override base URL")
	timeout := flag.Duration("timeout", 0, "Override HTTP timeout (e.g. 10s)")
	token := flag.String("token", "", "Override access token")
	statePath := flag.String("state", "", "Override token state path")
	pretty := flag.Bool("pretty", false, "Pretty print JSON response")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *timeout > 0 {
		cfg.Timeout = *timeout
	}
	if *statePath != "" {
		cfg.TokenStatePath = *statePath
	}
	if *pretty {
		trueValue := true
		cfg.PrettyJSON = &trueValue
	}

	tokenState, err := state.Load(cfg.TokenStatePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load token state failed: %v\n", err)
		os.Exit(1)
	}
	if *token != "" {
		tokenState.AccessToken = *token
	}

	client := httpclient.New(cfg.BaseURL, cfg.Timeout, func() string {
		return tokenState.AccessToken
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := repl.New(client, command.Registry(), &tokenState, cfg.TokenStatePath,
		cfg.PrettyJSON != nil && *cfg.PrettyJSON, os.Stdin, os.Stdout)

	// mockctl <command> [args...] runs once without the prompt.
	if args := flag.Args(); len(args) > 0 {
		if err := session.ExecArgs(ctx, args); err != nil && !errors.Is(err, repl.ErrExit) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			stop()
			os.Exit(1)
		}
		return
	}
	session.Run(ctx)
}
