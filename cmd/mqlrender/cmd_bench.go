// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ikmak/mongo-go-builders/internal/benchmark"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func benchCmd(a *app) *cobra.Command {
	var (
		runtime time.Duration
		only    []string
	)

	c := &cobra.Command{
		Use:   "bench",
		Short: "Measure render throughput",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			selected := make(map[string]bool, len(only))
			for _, name := range only {
				selected[name] = true
			}

			var summaries []benchmark.Summary
			var failed []string
			for _, bc := range benchmark.AllCases(runtime) {
				if len(selected) > 0 && !selected[bc.Name()] {
					continue
				}
				res := bc.Run(cmd.Context(), cmd.ErrOrStderr())
				if res.HasErrors() {
					failed = append(failed, res.Name)
					for _, msg := range res.ErrReport() {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", res.Name, msg)
					}
					continue
				}
				summary, err := res.Summarize()
				if err != nil {
					return err
				}
				summaries = append(summaries, summary)
			}

			data, err := json.Marshal(summaries)
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), data, a.cfg.Pretty); err != nil {
				return err
			}
			if len(failed) > 0 {
				return errors.Errorf("benchmarks failed: %v", failed)
			}
			return nil
		},
	}
	c.Flags().DurationVar(&runtime, "runtime", benchmark.MinimumRuntime, "minimum runtime of each case")
	c.Flags().StringSliceVar(&only, "case", nil, "run only the named cases")
	return c
}
