// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chatptq is a terminal chat client for OpenAI-compatible chat completion
// endpoints.
//
// Usage:
//
//	chatptq              Start the TUI (default)
//	chatptq ask "..."    Ask a single question
//	chatptq chat         Line-based chat
//	chatptq history      Print the saved conversation
//	chatptq clear        Clear the saved conversation
//	chatptq config ...   Show or change settings
//	chatptq export       Write the conversation to a file
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/atotto/clipboard"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/jeranaias/chatptq/internal/cli"
	"github.com/jeranaias/chatptq/internal/cloud"
	"github.com/jeranaias/chatptq/internal/config"
	"github.com/jeranaias/chatptq/internal/logging"
	"github.com/jeranaias/chatptq/internal/netclient"
	"github.com/jeranaias/chatptq/internal/storage"
	"github.com/jeranaias/chatptq/internal/ui/chat"
	"github.com/jeranaias/chatptq/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	// A .env next to the binary may carry proxy variables.
	_ = godotenv.Load()

	cmd, args := cli.Parse(os.Args[1:])

	switch cmd {
	case cli.CmdVersion:
		cli.PrintVersion(os.Stdout)
		return
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
		return
	case cli.CmdUnknown:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args.Name)
		if s := cli.SuggestCommand(args.Name); s != "" {
			fmt.Fprintf(os.Stderr, "Did you mean: %s\n", s)
		}
		fmt.Fprintln(os.Stderr, "Run 'chatptq help' for usage.")
		os.Exit(cli.ExitUsageError)
	}

	if err := run(cmd, args); err != nil {
		cli.DisplayError(os.Stderr, err, args.JSON)
		os.Exit(cli.GetExitCode(err))
	}
}

// run wires the stack and dispatches cmd.
func run(cmd cli.Command, args cli.Args) error {
	logger, err := newLogger(cmd, args)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	registry := netclient.NewRegistry(netclient.Config{}, netclient.WithLogger(logger))
	defer registry.Close()

	storeOpts := []config.StoreOption{
		config.WithProperties(config.EnvProperties()),
		config.WithLogger(logger),
	}
	if args.ConfigPath != "" {
		storeOpts = append(storeOpts, config.WithPath(args.ConfigPath))
	}
	store := config.NewStore(registry, storeOpts...)
	if err := store.Open(); err != nil {
		// Open always leaves a usable configuration behind.
		fmt.Fprintf(os.Stderr, "%s %v\n", cli.WarningStyle.Render(styles.StatusIndicators.Warning), err)
	}

	backend, err := storage.ParseBackend(args.Store)
	if err != nil {
		return cli.NewValidationErrorWithExample("--store", args.Store, "unknown backend", "--store sqlite")
	}
	dir, err := config.Dir()
	if err != nil {
		return err
	}
	blobs, err := storage.Open(backend, dir, logger)
	if err != nil {
		return err
	}
	defer blobs.Close()

	env := &cli.Env{
		Store:     store,
		Blobs:     blobs,
		Gateway:   cloud.New(registry, cloud.WithLogger(logger)),
		Logger:    logger,
		In:        os.Stdin,
		Out:       os.Stdout,
		Err:       os.Stderr,
		Clipboard: clipboard.WriteAll,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Debug("dispatch", zap.Stringer("command", cmd), zap.String("store", string(backend)))

	switch cmd {
	case cli.CmdAsk:
		return cli.HandleAsk(ctx, env, args)
	case cli.CmdChat:
		return cli.HandleChat(ctx, env, args)
	case cli.CmdHistory:
		return cli.HandleHistory(ctx, env, args)
	case cli.CmdClear:
		return cli.HandleClear(ctx, env, args)
	case cli.CmdConfig:
		return cli.HandleConfig(ctx, env, args)
	case cli.CmdExport:
		return cli.HandleExport(ctx, env, args)
	default:
		return runTUI(ctx, env)
	}
}

// runTUI starts the full-screen chat. Edits to the config file while it runs
// are applied live.
func runTUI(ctx context.Context, env *cli.Env) error {
	sess := env.OpenSession()
	m := chat.New(styles.NewTheme(), sess, env.Store,
		chat.WithLogger(env.Logger),
		chat.WithContext(ctx),
		chat.WithClipboard(env.Clipboard),
	)

	if err := config.Watch(ctx, env.Store, func(err error) {
		m.Notify(fmt.Sprintf("Config reload failed: %v", err))
	}); err != nil {
		env.Logger.Warn("config watcher unavailable", zap.Error(err))
	}

	runErr := chat.Run(ctx, m)
	env.CloseSession(sess)
	return runErr
}

// newLogger logs to a file under the config directory for the TUI, which owns
// the terminal, and to stderr at warn level otherwise.
func newLogger(cmd cli.Command, args cli.Args) (*zap.Logger, error) {
	opts := logging.Options{Level: args.LogLevel, Format: args.LogFormat, Path: args.LogFile}
	if cmd == cli.CmdTUI {
		if opts.Path == "" {
			if dir, err := config.Dir(); err == nil {
				opts.Path = filepath.Join(dir, "chatptq.log")
			}
		}
	} else if opts.Level == "" {
		opts.Level = "warn"
	}
	return logging.New(opts)
}
