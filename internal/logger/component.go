// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package logger

import (
	"os"
	"strings"
)

// Component is an enumeration representing the "components" which can be
// logged against. A Level can be configured on a per-component basis.
type Component int

const (
	// ComponentAll enables logging for all components.
	ComponentAll Component = iota

	// ComponentView enables logging of commands sent through a filtered view.
	ComponentView

	// ComponentPipeline enables logging of rendered aggregation pipelines.
	ComponentPipeline
)

// ComponentLiteral is an enumeration representing the string literal
// "components" which can be logged against.
type ComponentLiteral string

const (
	ComponentLiteralAll      ComponentLiteral = "all"
	ComponentLiteralView     ComponentLiteral = "view"
	ComponentLiteralPipeline ComponentLiteral = "pipeline"
)

// Component returns the Component for the given ComponentLiteral.
func (componentLiteral ComponentLiteral) Component() Component {
	switch componentLiteral {
	case ComponentLiteralView:
		return ComponentView
	case ComponentLiteralPipeline:
		return ComponentPipeline
	default:
		return ComponentAll
	}
}

func (component Component) String() string {
	switch component {
	case ComponentView:
		return string(ComponentLiteralView)
	case ComponentPipeline:
		return string(ComponentLiteralPipeline)
	default:
		return string(ComponentLiteralAll)
	}
}

// Environment variables used to configure a component's log level.
const (
	logAllEnvVar      = "MQLBUILD_LOG_ALL"
	logViewEnvVar     = "MQLBUILD_LOG_VIEW"
	logPipelineEnvVar = "MQLBUILD_LOG_PIPELINE"
)

var componentEnvVars = map[string]Component{
	logViewEnvVar:     ComponentView,
	logPipelineEnvVar: ComponentPipeline,
}

// getEnvComponentLevels reads the component levels from the environment.
// MQLBUILD_LOG_ALL applies to every component not set individually.
func getEnvComponentLevels() map[Component]Level {
	levels := make(map[Component]Level)

	all := parseLevel(os.Getenv(logAllEnvVar))
	for env, component := range componentEnvVars {
		level := all
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			level = parseLevel(v)
		}
		if level != LevelOff {
			levels[component] = level
		}
	}

	return levels
}

// selectComponentLevels returns a complete level map: explicit levels take
// precedence over the environment, which takes precedence over LevelOff.
func selectComponentLevels(componentLevels map[Component]Level) map[Component]Level {
	selected := make(map[Component]Level, len(componentEnvVars))
	for _, component := range componentEnvVars {
		selected[component] = LevelOff
	}
	for component, level := range getEnvComponentLevels() {
		selected[component] = level
	}

	if all, ok := componentLevels[ComponentAll]; ok {
		for component := range selected {
			selected[component] = all
		}
	}
	for component, level := range componentLevels {
		if component != ComponentAll {
			selected[component] = level
		}
	}

	return selected
}
