// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package main

import (
	"context"
	"time"

	"github.com/ikmak/mongo-go-builders/builders"
	"github.com/ikmak/mongo-go-builders/internal/logger"
	"github.com/ikmak/mongo-go-builders/settings"
	"github.com/ikmak/mongo-go-builders/view"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
)

const appName = "mqlrender"

// app holds the state shared by every subcommand.
type app struct {
	configPath string
	envPath    string
	pretty     bool
	run        bool
	timeout    time.Duration

	cfg *config
	log *logger.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:          appName,
		Short:        "Render MongoDB filters and pipelines through a filtered view",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", defaultConfigFile, "path to the TOML configuration file")
	flags.StringVar(&a.envPath, "env", defaultEnvFile, "path to a .env file loaded before the configuration")
	flags.BoolVar(&a.pretty, "pretty", false, "indent the JSON output")
	flags.BoolVar(&a.run, "run", false, "run the rendered command against the configured deployment")
	flags.DurationVar(&a.timeout, "timeout", 30*time.Second, "timeout for commands sent to the deployment")

	rootCmd.AddCommand(filterCmd(a))
	rootCmd.AddCommand(pipelineCmd(a))
	rootCmd.AddCommand(settingsCmd(a))
	rootCmd.AddCommand(benchCmd(a))
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	flags := cmd.Flags()
	cfg, err := loadConfig(a.configPath, flags.Changed("config"), a.envPath, flags.Changed("env"))
	if err != nil {
		return err
	}
	if a.pretty {
		cfg.Pretty = true
	}
	a.cfg = cfg

	sink := logrus.New()
	sink.Out = cmd.ErrOrStderr()
	sink.Level = logrus.DebugLevel
	a.log = logger.New(sink, cfg.Log.MaxDocumentLength, cfg.Log.levels())
	return nil
}

// implicitFilter is the view filter from the configuration file.
func (a *app) implicitFilter() builders.FilterDefinition[bson.D] {
	if a.cfg.Filter == "" {
		return nil
	}
	return builders.FilterFromJSON[bson.D](a.cfg.Filter)
}

func (a *app) viewOptions() *view.Options {
	return view.NewOptions().SetLogger(a.log).SetOptimize(!a.cfg.NoOptimize)
}

// offlineView renders without a deployment.
func (a *app) offlineView() *view.FilteredCollection[bson.D] {
	return view.New[bson.D](nil, a.implicitFilter(), a.viewOptions())
}

// connect opens a client for the configured URI and returns a view of the
// configured collection. The caller disconnects the returned client.
func (a *app) connect(ctx context.Context) (*mongo.Client, *view.FilteredCollection[bson.D], error) {
	if a.cfg.URI == "" {
		return nil, nil, errors.Errorf("no URI configured; set uri in %s or %s", a.configPath, envURI)
	}
	u, err := settings.ParseURL(a.cfg.URI)
	if err != nil {
		return nil, nil, err
	}
	cs, err := settings.Client().SetAppName(appName).ApplyURL(u).Build()
	if err != nil {
		return nil, nil, err
	}

	dbName := a.cfg.Database
	if dbName == "" {
		dbName = u.Database()
	}
	ds, err := settings.Database(dbName).ApplyDefaults(cs).Build()
	if err != nil {
		return nil, nil, err
	}
	collSettings, err := settings.Collection(a.cfg.Collection).ApplyDefaults(ds).Build()
	if err != nil {
		return nil, nil, err
	}

	a.log.Print(logger.LevelInfo, logger.ComponentView, "connecting",
		"client", cs.String(), logger.KeyCollection, collSettings.Name())
	client, err := mongo.Connect(ctx, cs.ClientOptions().SetMonitor(a.commandMonitor()))
	if err != nil {
		return nil, nil, errors.Wrap(err, "cannot connect")
	}
	coll := client.Database(ds.Name(), ds.DatabaseOptions()).Collection(collSettings.Name(), collSettings.CollectionOptions())
	return client, view.New[bson.D](coll, a.implicitFilter(), a.viewOptions()), nil
}

// commandMonitor logs every command the driver sends.
func (a *app) commandMonitor() *event.CommandMonitor {
	return &event.CommandMonitor{
		Started: func(_ context.Context, e *event.CommandStartedEvent) {
			a.log.Print(logger.LevelDebug, logger.ComponentView, "command started",
				logger.KeyCommandName, e.CommandName,
				logger.KeyCommand, a.log.FormatDocument(e.Command))
		},
		Failed: func(_ context.Context, e *event.CommandFailedEvent) {
			a.log.Print(logger.LevelInfo, logger.ComponentView, "command failed",
				logger.KeyCommandName, e.CommandName, "failure", e.Failure)
		},
	}
}
