// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/jeranaias/botline/internal/config"
)

// configPath is the file "config set" writes: --config or the default.
func configPath(args Args) (string, error) {
	if args.Config != "" {
		return args.Config, nil
	}
	return config.ConfigPathTOML()
}

// loadConfig returns the effective configuration: file, .env and
// environment.
func loadConfig(args Args) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if args.Config != "" {
		cfg, err = config.LoadFromPath(args.Config)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	return cfg, nil
}

// handleConfig runs without an App: it must work when the backend or the
// local state is misconfigured.
func handleConfig(cfg *config.Config, args Args, stdio IO) (any, error) {
	p := args.Parser
	switch args.Subcommand {
	case "", "show":
		values := make(map[string]any, len(config.GetAllKeys()))
		for _, key := range config.GetAllKeys() {
			v, err := cfg.Get(key)
			if err != nil {
				return nil, &ConfigError{Err: err}
			}
			values[key] = v
			if !args.JSON {
				fmt.Fprintln(stdio.Out, RenderField(key, fmt.Sprint(v)))
			}
		}
		return values, nil

	case "get":
		key := p.Positional(1)
		if key == "" {
			return nil, ErrMissingArgument("key", "botline config get api.base_url")
		}
		v, err := cfg.Get(key)
		if err != nil {
			return nil, NewValidationErrorWithExample("key", key, err.Error(), strings.Join(config.GetAllKeys(), ", "))
		}
		if !args.JSON {
			fmt.Fprintln(stdio.Out, v)
		}
		return map[string]any{key: v}, nil

	case "set":
		key, value := p.Positional(1), p.Positional(2)
		if key == "" || p.PositionalCount() < 3 {
			return nil, ErrMissingArgument("key and value", "botline config set api.base_url https://bot.example.com/api")
		}
		path, err := configPath(args)
		if err != nil {
			return nil, &ConfigError{Err: err}
		}
		saved, err := setConfigValue(path, key, value)
		if err != nil {
			return nil, err
		}
		if !args.JSON && !args.Quiet {
			fmt.Fprintf(stdio.Out, "%s %s = %v\n", SuccessStyle.Render("[OK]"), key, saved)
		}
		return map[string]any{key: saved, "path": path}, nil

	case "path":
		path, err := configPath(args)
		if err != nil {
			return nil, &ConfigError{Err: err}
		}
		if !args.JSON {
			fmt.Fprintln(stdio.Out, path)
		}
		return map[string]string{"path": path}, nil

	default:
		return nil, NewValidationErrorWithExample("subcommand", args.Subcommand,
			"unknown config subcommand", "botline config [show|get|set|path]")
	}
}

// setConfigValue changes one key in the file at path. Only the file's own
// values are rewritten so environment overrides never leak into it.
func setConfigValue(path, key, value string) (any, error) {
	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		if err := config.LoadTOML(cfg, path); err != nil {
			return nil, &ConfigError{Err: err}
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, &ConfigError{Err: err}
	}
	if err := cfg.Set(key, value); err != nil {
		return nil, NewValidationErrorWithExample("key", key, err.Error(), strings.Join(config.GetAllKeys(), ", "))
	}
	// The passphrase is never stored but validation needs it.
	cfg.Storage.Passphrase = os.Getenv("BOTLINE_STORAGE_KEY")
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Err: err}
	}
	if err := config.SaveTOML(cfg, path); err != nil {
		return nil, &ConfigError{Err: err}
	}
	return cfg.Get(key)
}
