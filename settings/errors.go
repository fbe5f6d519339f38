// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package settings

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrFrozen is recorded when a builder is modified after Build.
var ErrFrozen = errors.New("settings builder cannot be modified after Build")

// InvalidSettingError is returned by Build when a setting has an invalid
// value.
type InvalidSettingError struct {
	Setting string
	Reason  string
}

func (ise *InvalidSettingError) Error() string {
	return fmt.Sprintf("invalid setting %s: %s", ise.Setting, ise.Reason)
}
