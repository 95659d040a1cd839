// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package turkpy translates programs written with Turkish keywords into Python.
package turkpy

import (
	"github.com/maloquacious/semver"
)

var (
	version = semver.Version{
		Major: 0,
		Minor: 3,
		Patch: 0,
		Build: semver.Commit(),
	}
)

func Version() semver.Version {
	return version
}
