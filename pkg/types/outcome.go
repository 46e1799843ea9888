// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the configuration and result types shared across
// the converter's packages.
package types

// ConversionStatus is the terminal state of one target's conversion.
type ConversionStatus string

const (
	ConversionDone   ConversionStatus = "converted"
	ConversionFailed ConversionStatus = "failed"
)

// DeleteStatus tracks the optional original-file removal step. It is
// independent of the conversion status: a failed delete never downgrades
// a successful conversion.
type DeleteStatus string

const (
	DeleteNotAttempted DeleteStatus = "not-attempted"
	DeleteDone         DeleteStatus = "deleted"
	DeleteFailed       DeleteStatus = "delete-failed"
)
