// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package main

import (
	"io/ioutil"
	"os"

	"github.com/ikmak/mongo-go-builders/internal/logger"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

const (
	defaultConfigFile = "mqlrender.toml"
	defaultEnvFile    = ".env"

	envURI        = "MQLRENDER_URI"
	envDatabase   = "MQLRENDER_DATABASE"
	envCollection = "MQLRENDER_COLLECTION"
)

type logConfig struct {
	All               string `toml:"all"`
	View              string `toml:"view"`
	Pipeline          string `toml:"pipeline"`
	MaxDocumentLength uint   `toml:"max_document_length"`
}

// levels returns the component levels set in the file. Components left
// empty fall back to the MQLBUILD_LOG_* environment variables.
func (lc logConfig) levels() map[logger.Component]logger.Level {
	levels := make(map[logger.Component]logger.Level)
	for component, literal := range map[logger.Component]string{
		logger.ComponentAll:      lc.All,
		logger.ComponentView:     lc.View,
		logger.ComponentPipeline: lc.Pipeline,
	} {
		if literal != "" {
			levels[component] = logger.ParseLevel(literal)
		}
	}
	return levels
}

type config struct {
	URI        string    `toml:"uri"`
	Database   string    `toml:"database"`
	Collection string    `toml:"collection"`
	Filter     string    `toml:"filter"`
	NoOptimize bool      `toml:"no_optimize"`
	Pretty     bool      `toml:"pretty"`
	Log        logConfig `toml:"log"`
}

// loadConfig reads the .env file at envPath into the environment, then the
// TOML file at path. A missing file is only an error when it was named
// explicitly. MQLRENDER_* variables override the file.
func loadConfig(path string, pathExplicit bool, envPath string, envExplicit bool) (*config, error) {
	if err := godotenv.Load(envPath); err != nil {
		if envExplicit || !os.IsNotExist(errors.Cause(err)) {
			return nil, errors.Wrapf(err, "cannot load environment file %q", envPath)
		}
	}

	cfg := &config{}
	data, err := ioutil.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "cannot parse configuration file %q", path)
		}
	case os.IsNotExist(err) && !pathExplicit:
	default:
		return nil, errors.Wrapf(err, "cannot read configuration file %q", path)
	}

	for env, dst := range map[string]*string{
		envURI:        &cfg.URI,
		envDatabase:   &cfg.Database,
		envCollection: &cfg.Collection,
	} {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			*dst = v
		}
	}
	return cfg, nil
}
