// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package main

import (
	"fmt"

	"github.com/ikmak/mongo-go-builders/settings"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func settingsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "settings",
		Short: "Print the client settings derived from the configured URI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.URI == "" {
				return errors.Errorf("no URI configured; set uri in %s or %s", a.configPath, envURI)
			}
			u, err := settings.ParseURL(a.cfg.URI)
			if err != nil {
				return err
			}
			cs, err := settings.Client().SetAppName(appName).ApplyURL(u).Build()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "url: %s\n", u)
			fmt.Fprintf(out, "client: %s\n", cs)
			fmt.Fprintf(out, "hash: %016x\n", cs.Hash())
			return nil
		},
	}
}
