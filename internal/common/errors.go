// Package common defines shared constants and sentinel errors used across
// smallwins components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Validation errors.
	ErrorNoServerID = errors.New("moment has no server id")
)
