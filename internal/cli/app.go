// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/botline/internal/api"
	"github.com/jeranaias/botline/internal/config"
	"github.com/jeranaias/botline/internal/logging"
	"github.com/jeranaias/botline/internal/router"
	"github.com/jeranaias/botline/internal/service"
	"github.com/jeranaias/botline/internal/storage"
	"github.com/jeranaias/botline/internal/store"
)

// IO is the set of streams a command talks to.
type IO struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// App is one invocation's wiring: config, storage, HTTP client, stores and
// the services commands call directly.
type App struct {
	Config *config.Config
	Logger *logrus.Logger

	Backend storage.Backend
	Client  *api.Client
	Stores  *store.Stores
	Guard   *router.Guard

	Users   *service.UserService
	Ratings *service.RatingService
	Stats   *service.StatService

	IO    IO
	JSON  bool
	Quiet bool

	in        *bufio.Reader
	now       func() time.Time
	closeLogs func() error
}

// NewApp builds an App from cfg with the global flags in args applied.
func NewApp(cfg *config.Config, args Args, stdio IO) (*App, error) {
	if args.APIURL != "" {
		cfg.API.BaseURL = args.APIURL
	}
	if args.Ephemeral {
		cfg.Storage.Backend = "memory"
		cfg.Storage.Encrypt = false
	}

	logger, closeLogs, err := logging.New(cfg.Log, logging.Options{Verbose: args.Verbose, Quiet: args.Quiet})
	if err != nil {
		return nil, &ConfigError{Err: err}
	}

	backend, err := storage.Open(cfg, logger)
	if err != nil {
		closeLogs()
		return nil, &ConfigError{Err: fmt.Errorf("failed to open local state: %w", err)}
	}

	client := api.FromConfig(cfg, backend, logger).WithUserAgent("botline/" + Version)
	stores := store.New(client, backend, cfg.Guest.MaxPrompts, logger)

	logger.WithFields(logrus.Fields{
		"api":     client.BaseURL(),
		"storage": cfg.Storage.Backend,
		"state":   stores.Auth.State(),
	}).Debug("app ready")

	return &App{
		Config:    cfg,
		Logger:    logger,
		Backend:   backend,
		Client:    client,
		Stores:    stores,
		Guard:     router.NewGuard(stores.Auth, logger),
		Users:     service.NewUserService(client),
		Ratings:   service.NewRatingService(client),
		Stats:     service.NewStatService(client),
		IO:        stdio,
		JSON:      args.JSON,
		Quiet:     args.Quiet,
		in:        bufio.NewReader(stdio.In),
		now:       time.Now,
		closeLogs: closeLogs,
	}, nil
}

// Close releases local state and the log file.
func (a *App) Close() error {
	err := a.Backend.Close()
	if cerr := a.closeLogs(); err == nil {
		err = cerr
	}
	return err
}

// Printf writes human output. It is silent in JSON mode so the envelope
// stays the only thing on stdout.
func (a *App) Printf(format string, args ...any) {
	if a.JSON {
		return
	}
	fmt.Fprintf(a.IO.Out, format, args...)
}

// Println is Printf with a trailing newline.
func (a *App) Println(args ...any) {
	if a.JSON {
		return
	}
	fmt.Fprintln(a.IO.Out, args...)
}

// Notef writes a status line unless --quiet. In JSON mode it goes to stderr.
func (a *App) Notef(format string, args ...any) {
	if a.Quiet {
		return
	}
	w := a.IO.Out
	if a.JSON {
		w = a.IO.Err
	}
	fmt.Fprintf(w, format+"\n", args...)
}
