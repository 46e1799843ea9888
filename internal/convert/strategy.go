// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import "strconv"

// Strategy is one invocation shape tried against the external tool. A
// strategy succeeds iff the subprocess exits zero. Strategies are pure
// configuration: a name plus an argv builder, no mutable state.
type Strategy struct {
	// Name identifies the shape in outcomes and reports.
	Name string

	// Args builds the argument vector (binary excluded) for one attempt.
	Args func(src, dst string, quality int) []string
}

// Strategies lists the canonical invocation shapes in priority order. The
// runner tries each in turn and stops at the first success; every attempt
// is an independent subprocess, so a later strategy overwrites whatever a
// failed earlier attempt may have left at the output path.
var Strategies = []Strategy{
	{
		Name: "direct",
		Args: func(src, dst string, quality int) []string {
			return []string{src, "-quality", strconv.Itoa(quality), dst}
		},
	},
	{
		// The HEIC: prefix forces the decoder when the tool misreads the
		// file's magic bytes.
		Name: "explicit-format",
		Args: func(src, dst string, _ int) []string {
			return []string{"HEIC:" + src, dst}
		},
	},
	{
		Name: "auto-orient",
		Args: func(src, dst string, quality int) []string {
			return []string{src, "-auto-orient", "-quality", strconv.Itoa(quality), dst}
		},
	},
}
