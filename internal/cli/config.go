// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Configuration command handler.
//
// Command: config [subcommand]
// Short:   Show or change settings
// Aliases: cfg
//
// Subcommands:
//   show (default)      Show every setting, API key redacted
//   get KEY             Print one setting
//   set KEY VALUE...    Change one setting and apply it
//   path                Print the config file path
//   keys                List settable keys
//
// Changes go through the same apply step as the TUI, so a bad proxy or
// an unsupported autostart request is reported here too.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeranaias/chatptq/internal/config"
	"github.com/jeranaias/chatptq/internal/ui/styles"
)

// HandleConfig handles the "config" command.
func HandleConfig(_ context.Context, env *Env, args Args) error {
	p := NewArgParser(args.Raw, "reveal")

	switch sub := p.Positional(0); sub {
	case "", "show", "list":
		return handleConfigShow(env, args.JSON)

	case "get":
		key := p.Positional(1)
		if key == "" {
			return ErrMissingArgument("key", "chatptq config get gpt_name")
		}
		cfg := env.Store.Current()
		if !p.BoolFlag("reveal") {
			cfg = cfg.Redacted()
		}
		v, err := cfg.Get(key)
		if err != nil {
			return err
		}
		if args.JSON {
			return NewJSONResponse("config get", map[string]string{key: v}).Print(env.Out)
		}
		fmt.Fprintln(env.Out, v)
		return nil

	case "set":
		key := p.Positional(1)
		if key == "" || p.PositionalCount() < 3 {
			return ErrMissingArgument("key and value", "chatptq config set fast_send_mode ShiftEnter")
		}
		return handleConfigSet(env, key, JoinPositionalArgs(p, 2), args.Quiet)

	case "path":
		path, err := env.Store.Path()
		if err != nil {
			return err
		}
		fmt.Fprintln(env.Out, path)
		return nil

	case "keys":
		for _, k := range config.Keys() {
			fmt.Fprintln(env.Out, k)
		}
		return nil

	default:
		return NewValidationErrorWithExample("subcommand", sub, "must be show, get, set, path or keys", "chatptq config show")
	}
}

func handleConfigShow(env *Env, jsonMode bool) error {
	path, err := env.Store.Path()
	if err != nil {
		return err
	}
	cfg := env.Store.Current().Redacted()

	values := make(map[string]string)
	keys := config.Keys()
	for _, k := range keys {
		v, err := cfg.Get(k)
		if err != nil {
			continue
		}
		values[k] = v
	}

	if jsonMode {
		return NewJSONResponse("config show", ConfigData{Path: path, Values: values}).Print(env.Out)
	}

	fmt.Fprintln(env.Out, TitleStyle.Render("Configuration"))
	fmt.Fprintln(env.Out, DimStyle.Render(path))
	fmt.Fprintln(env.Out)
	for _, k := range keys {
		v, ok := values[k]
		if !ok {
			continue
		}
		if v == "" {
			v = DimStyle.Render("(not set)")
		}
		fmt.Fprintf(env.Out, "%s%s\n", RenderLabel(k), ValueStyle.Render(v))
	}
	return nil
}

// handleConfigSet applies one change. A change that was saved but only
// partly applied is reported as a warning together with the error.
func handleConfigSet(env *Env, key, value string, quiet bool) error {
	err := env.Store.Set(key, value)

	var applyErr *config.ApplyError
	switch {
	case err == nil:
	case errors.As(err, &applyErr) && applyErr.Persist == nil:
		fmt.Fprintf(env.Err, "%s %s was saved, but not every part could be applied\n",
			WarningStyle.Render(styles.StatusIndicators.Warning), key)
		return err
	default:
		return err
	}

	if !quiet {
		shown, _ := env.Store.Current().Redacted().Get(key)
		fmt.Fprintf(env.Out, "%s %s = %s\n", SuccessStyle.Render(styles.StatusIndicators.Success), key, shown)
	}
	return nil
}
