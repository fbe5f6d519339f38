// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package logger provides component-levelled logging on top of logrus.
package logger

import (
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
)

// DefaultMaxDocumentLength is the default maximum number of bytes of a
// document's extended JSON that is logged.
const DefaultMaxDocumentLength = 1000

// TruncationSuffix is appended to truncated documents.
const TruncationSuffix = "..."

const maxDocumentLengthEnvVar = "MQLBUILD_LOG_MAX_DOCUMENT_LENGTH"

// Keys used in structured log entries.
const (
	KeyComponent   = "component"
	KeyCollection  = "collection"
	KeyCommandName = "commandName"
	KeyCommand     = "command"
	KeyFilter      = "filter"
	KeyPipeline    = "pipeline"
	KeyStageCount  = "stageCount"
	KeyOutputType  = "outputType"
)

// KeyValues is a list of alternating keys and values.
type KeyValues []interface{}

// Add appends a key-value pair.
func (kvs *KeyValues) Add(key string, value interface{}) {
	*kvs = append(*kvs, key, value)
}

// Logger writes entries for enabled components to a logrus sink. The zero
// value and a nil *Logger log nothing.
type Logger struct {
	ComponentLevels   map[Component]Level
	Sink              logrus.FieldLogger
	MaxDocumentLength uint
}

// New constructs a Logger. A nil sink logs to os.Stderr through a new
// logrus.Logger. Levels missing from componentLevels are read from the
// MQLBUILD_LOG_* environment variables.
func New(sink logrus.FieldLogger, maxDocumentLength uint, componentLevels map[Component]Level) *Logger {
	if sink == nil {
		l := logrus.New()
		l.Out = os.Stderr
		// Filtering happens per component.
		l.Level = logrus.DebugLevel
		sink = l
	}

	return &Logger{
		ComponentLevels:   selectComponentLevels(componentLevels),
		Sink:              sink,
		MaxDocumentLength: selectMaxDocumentLength(maxDocumentLength),
	}
}

// LevelComponentEnabled reports whether level is enabled for component.
func (logger *Logger) LevelComponentEnabled(level Level, component Component) bool {
	if logger == nil || logger.Sink == nil || level == LevelOff {
		return false
	}
	return logger.ComponentLevels[component] >= level
}

// Print logs msg with the given key-value pairs when level is enabled for
// component.
func (logger *Logger) Print(level Level, component Component, msg string, keysAndValues ...interface{}) {
	if !logger.LevelComponentEnabled(level, component) {
		return
	}

	fields := logrus.Fields{KeyComponent: component.String()}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}

	logger.Sink.WithFields(fields).Log(level.logrus(), msg)
}

// FormatDocument renders doc as relaxed extended JSON, truncated to the
// logger's maximum document length.
func (logger *Logger) FormatDocument(doc interface{}) string {
	width := uint(DefaultMaxDocumentLength)
	if logger != nil && logger.MaxDocumentLength > 0 {
		width = logger.MaxDocumentLength
	}

	data, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return "<unprintable: " + err.Error() + ">"
	}
	return truncate(string(data), width)
}

// FormatDocuments renders each document with FormatDocument and joins them
// into a JSON array.
func (logger *Logger) FormatDocuments(docs []bson.D) string {
	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		parts = append(parts, logger.FormatDocument(doc))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func selectMaxDocumentLength(maxDocumentLength uint) uint {
	if maxDocumentLength != 0 {
		return maxDocumentLength
	}

	if env := os.Getenv(maxDocumentLengthEnvVar); env != "" {
		if n, err := strconv.ParseUint(env, 10, 32); err == nil {
			return uint(n)
		}
	}

	return DefaultMaxDocumentLength
}

// truncate cuts str to at most width bytes without splitting a multi-byte
// character, then appends TruncationSuffix.
func truncate(str string, width uint) string {
	if width == 0 || uint(len(str)) <= width {
		return str
	}

	// Back up to the start of a UTF-8 sequence.
	cut := int(width)
	for cut > 0 && str[cut]&0xC0 == 0x80 {
		cut--
	}

	return str[:cut] + TruncationSuffix
}
