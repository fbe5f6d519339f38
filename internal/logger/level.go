// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package logger

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Level is an enumeration representing the supported log severity levels.
// Levels are ordered: a component set to LevelDebug also logs LevelInfo.
type Level int

const (
	// LevelOff suppresses logging.
	LevelOff Level = iota

	// LevelInfo enables logging of informational messages, such as a filtered
	// view being created.
	LevelInfo

	// LevelDebug enables logging of every rendered command and pipeline.
	LevelDebug
)

// LevelLiteral are the level names accepted from the environment. Several
// literals collapse onto the same Level.
type LevelLiteral string

const (
	LevelLiteralOff       LevelLiteral = "off"
	LevelLiteralEmergency LevelLiteral = "emergency"
	LevelLiteralAlert     LevelLiteral = "alert"
	LevelLiteralCritical  LevelLiteral = "critical"
	LevelLiteralError     LevelLiteral = "error"
	LevelLiteralWarn      LevelLiteral = "warn"
	LevelLiteralNotice    LevelLiteral = "notice"
	LevelLiteralInfo      LevelLiteral = "info"
	LevelLiteralDebug     LevelLiteral = "debug"
	LevelLiteralTrace     LevelLiteral = "trace"
)

// Level returns the Level associated with the literal. Unknown literals are
// LevelOff.
func (llevel LevelLiteral) Level() Level {
	switch llevel {
	case LevelLiteralEmergency, LevelLiteralAlert, LevelLiteralCritical,
		LevelLiteralError, LevelLiteralWarn, LevelLiteralNotice, LevelLiteralInfo:
		return LevelInfo
	case LevelLiteralDebug, LevelLiteralTrace:
		return LevelDebug
	default:
		return LevelOff
	}
}

// ParseLevel converts a case-insensitive level literal into a Level.
func ParseLevel(level string) Level {
	return parseLevel(level)
}

func parseLevel(level string) Level {
	return LevelLiteral(strings.ToLower(strings.TrimSpace(level))).Level()
}

func (level Level) logrus() logrus.Level {
	if level >= LevelDebug {
		return logrus.DebugLevel
	}
	return logrus.InfoLevel
}
