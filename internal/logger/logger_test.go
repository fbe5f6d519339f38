// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package logger

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func newTestLogger(levels map[Component]Level) (*Logger, *test.Hook) {
	sink, hook := test.NewNullLogger()
	sink.SetLevel(logrus.DebugLevel)
	return New(sink, 0, levels), hook
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	for _, tcase := range []struct {
		literal  string
		expected Level
	}{
		{"off", LevelOff},
		{"", LevelOff},
		{"bogus", LevelOff},
		{"error", LevelInfo},
		{"WARN", LevelInfo},
		{"info", LevelInfo},
		{" debug ", LevelDebug},
		{"trace", LevelDebug},
	} {
		assert.Equal(t, tcase.expected, ParseLevel(tcase.literal), "literal %q", tcase.literal)
	}
}

func TestComponentLiteral(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ComponentView, ComponentLiteralView.Component())
	assert.Equal(t, ComponentPipeline, ComponentLiteralPipeline.Component())
	assert.Equal(t, ComponentAll, ComponentLiteral("unknown").Component())
	assert.Equal(t, "pipeline", ComponentPipeline.String())
}

func TestSelectMaxDocumentLength(t *testing.T) {
	for _, tcase := range []struct {
		name     string
		arg      uint
		expected uint
		env      map[string]string
	}{
		{
			name:     "default",
			expected: DefaultMaxDocumentLength,
		},
		{
			name:     "non-zero",
			arg:      100,
			expected: 100,
		},
		{
			name:     "valid env",
			expected: 100,
			env:      map[string]string{maxDocumentLengthEnvVar: "100"},
		},
		{
			name:     "invalid env",
			expected: DefaultMaxDocumentLength,
			env:      map[string]string{maxDocumentLengthEnvVar: "foo"},
		},
	} {
		tcase := tcase

		t.Run(tcase.name, func(t *testing.T) {
			for k, v := range tcase.env {
				t.Setenv(k, v)
			}

			assert.Equal(t, tcase.expected, selectMaxDocumentLength(tcase.arg))
		})
	}
}

func TestSelectComponentLevels(t *testing.T) {
	for _, tcase := range []struct {
		name     string
		arg      map[Component]Level
		expected map[Component]Level
		env      map[string]string
	}{
		{
			name: "default",
			expected: map[Component]Level{
				ComponentView:     LevelOff,
				ComponentPipeline: LevelOff,
			},
		},
		{
			name: "explicit",
			arg:  map[Component]Level{ComponentView: LevelDebug},
			expected: map[Component]Level{
				ComponentView:     LevelDebug,
				ComponentPipeline: LevelOff,
			},
		},
		{
			name: "explicit all",
			arg:  map[Component]Level{ComponentAll: LevelInfo, ComponentPipeline: LevelDebug},
			expected: map[Component]Level{
				ComponentView:     LevelInfo,
				ComponentPipeline: LevelDebug,
			},
		},
		{
			name: "env",
			expected: map[Component]Level{
				ComponentView:     LevelDebug,
				ComponentPipeline: LevelInfo,
			},
			env: map[string]string{
				logAllEnvVar:  "info",
				logViewEnvVar: "debug",
			},
		},
		{
			name: "explicit overrides env",
			arg:  map[Component]Level{ComponentView: LevelOff},
			expected: map[Component]Level{
				ComponentView:     LevelOff,
				ComponentPipeline: LevelOff,
			},
			env: map[string]string{logViewEnvVar: "debug"},
		},
		{
			name: "invalid env",
			expected: map[Component]Level{
				ComponentView:     LevelOff,
				ComponentPipeline: LevelOff,
			},
			env: map[string]string{
				logViewEnvVar:     "foo",
				logPipelineEnvVar: "bar",
			},
		},
	} {
		tcase := tcase

		t.Run(tcase.name, func(t *testing.T) {
			for k, v := range tcase.env {
				t.Setenv(k, v)
			}

			assert.Equal(t, tcase.expected, selectComponentLevels(tcase.arg))
		})
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	for _, tcase := range []struct {
		name     string
		arg      string
		width    uint
		expected string
	}{
		{name: "empty", arg: "", width: 0, expected: ""},
		{name: "short", arg: "foo", width: DefaultMaxDocumentLength, expected: "foo"},
		{name: "long", arg: "foo bar baz", width: 9, expected: "foo bar b..."},
		{name: "multi-byte", arg: "你好", width: 4, expected: "你..."},
	} {
		tcase := tcase

		t.Run(tcase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tcase.expected, truncate(tcase.arg, tcase.width))
		})
	}
}

func TestLogger_LevelComponentEnabled(t *testing.T) {
	t.Parallel()

	var nilLogger *Logger
	assert.False(t, nilLogger.LevelComponentEnabled(LevelInfo, ComponentView))
	assert.False(t, (&Logger{}).LevelComponentEnabled(LevelInfo, ComponentView))

	logger, _ := newTestLogger(map[Component]Level{ComponentView: LevelInfo})
	assert.False(t, logger.LevelComponentEnabled(LevelOff, ComponentView), "LevelOff is never enabled")
	assert.True(t, logger.LevelComponentEnabled(LevelInfo, ComponentView))
	assert.False(t, logger.LevelComponentEnabled(LevelDebug, ComponentView))
	assert.False(t, logger.LevelComponentEnabled(LevelInfo, ComponentPipeline))
}

func TestLogger_Print(t *testing.T) {
	t.Parallel()

	logger, hook := newTestLogger(map[Component]Level{ComponentPipeline: LevelDebug})

	kvs := KeyValues{}
	kvs.Add(KeyStageCount, 2)
	logger.Print(LevelDebug, ComponentPipeline, "pipeline rendered", kvs...)
	logger.Print(LevelDebug, ComponentView, "dropped")

	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.DebugLevel, entry.Level)
	assert.Equal(t, "pipeline rendered", entry.Message)
	assert.Equal(t, "pipeline", entry.Data[KeyComponent])
	assert.Equal(t, 2, entry.Data[KeyStageCount])

	logger.Print(LevelInfo, ComponentPipeline, "info entry")
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
}

func TestLevel_logrus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, logrus.InfoLevel, LevelInfo.logrus())
	assert.Equal(t, logrus.DebugLevel, LevelDebug.logrus())

	// The sink's own level still applies on top of component levels.
	sink, hook := test.NewNullLogger()
	sink.SetLevel(logrus.InfoLevel)
	logger := New(sink, 0, map[Component]Level{ComponentAll: LevelDebug})
	logger.Print(LevelDebug, ComponentView, "filtered by sink")
	logger.Print(LevelInfo, ComponentView, "kept")

	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, "kept", hook.LastEntry().Message)
}

func TestLogger_FormatDocument(t *testing.T) {
	t.Parallel()

	logger := &Logger{MaxDocumentLength: 10}
	got := logger.FormatDocument(bson.D{{Key: "name", Value: "a long value"}})
	assert.True(t, strings.HasSuffix(got, TruncationSuffix), got)
	assert.Equal(t, 10+len(TruncationSuffix), len(got))

	var nilLogger *Logger
	assert.Equal(t, `{"a":1}`, strings.ReplaceAll(nilLogger.FormatDocument(bson.D{{Key: "a", Value: int32(1)}}), " ", ""))
	assert.Equal(t, `[{"a":1}]`, strings.ReplaceAll(nilLogger.FormatDocuments([]bson.D{{{Key: "a", Value: int32(1)}}}), " ", ""))
}
