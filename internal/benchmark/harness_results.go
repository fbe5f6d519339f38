// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package benchmark

import (
	"fmt"
	"strings"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

type BenchResult struct {
	Name       string
	Trials     int
	Duration   time.Duration
	Raw        []Result
	Operations int
	hasErrors  *bool
}

type Metric struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// Summary is the throughput report of a single case.
type Summary struct {
	Name    string   `json:"test_name"`
	Trials  int      `json:"trials"`
	Metrics []Metric `json:"metrics"`
}

// Summarize computes renders-per-second statistics over the successful
// trials of r.
func (r *BenchResult) Summarize() (Summary, error) {
	timings := r.timings()
	if len(timings) == 0 {
		return Summary{}, errors.Errorf("benchmark %s has no successful trials", r.Name)
	}

	median, err := stats.Median(timings)
	if err != nil {
		return Summary{}, err
	}

	min, err := stats.Min(timings)
	if err != nil {
		return Summary{}, err
	}

	max, err := stats.Max(timings)
	if err != nil {
		return Summary{}, err
	}

	p90, err := stats.Percentile(timings, 90)
	if err != nil {
		return Summary{}, err
	}

	// The slowest trial yields the minimum throughput.
	return Summary{
		Name:   r.Name + "-throughput",
		Trials: r.Trials,
		Metrics: []Metric{
			{Name: "seconds", Value: r.roundedRuntime().Seconds()},
			{Name: "ops_per_second", Value: r.getThroughput(median)},
			{Name: "ops_per_second_min", Value: r.getThroughput(max)},
			{Name: "ops_per_second_max", Value: r.getThroughput(min)},
			{Name: "ops_per_second_p10", Value: r.getThroughput(p90)},
		},
	}, nil
}

func (s Summary) String() string {
	parts := make([]string, 0, len(s.Metrics))
	for _, m := range s.Metrics {
		parts = append(parts, fmt.Sprintf("%s=%.2f", m.Name, m.Value))
	}
	return fmt.Sprintf("%s trials=%d %s", s.Name, s.Trials, strings.Join(parts, " "))
}

func (r *BenchResult) timings() []float64 {
	out := []float64{}
	for _, r := range r.Raw {
		if r.Error != nil {
			continue
		}
		out = append(out, r.Duration.Seconds())
	}
	return out
}

func (r *BenchResult) getThroughput(data float64) float64 {
	if data == 0 {
		return 0
	}
	return float64(r.Operations) / data
}

func (r *BenchResult) roundedRuntime() time.Duration { return roundDurationMS(r.Duration) }

func (r *BenchResult) String() string {
	return fmt.Sprintf("name=%s, trials=%d, secs=%s", r.Name, r.Trials, r.Duration)
}

func (r *BenchResult) HasErrors() bool {
	if r.hasErrors == nil {
		var val bool
		for _, res := range r.Raw {
			if res.Error != nil {
				val = true
				break
			}
		}
		r.hasErrors = &val
	}

	return *r.hasErrors
}

// ErrReport lists the errors of every failed trial.
func (r *BenchResult) ErrReport() []string {
	errs := []string{}
	for _, res := range r.Raw {
		if res.Error != nil {
			errs = append(errs, res.Error.Error())
		}
	}
	return errs
}

type Result struct {
	Duration   time.Duration
	Iterations int
	Error      error
}

func roundDurationMS(d time.Duration) time.Duration {
	rounded := d.Round(time.Millisecond)
	if rounded == 1<<63-1 {
		return 0
	}
	return rounded
}
