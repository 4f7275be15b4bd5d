// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package sampleconfig provides a single function that returns the contents
// of the sample configuration file for axesyncd.  This is provided for tools
// that want to generate a default configuration for new installs.
package sampleconfig

import (
	_ "embed"
)

// sampleAxesyncdConf is a string containing the commented example config for
// axesyncd.
//
//go:embed sample-axesyncd.conf
var sampleAxesyncdConf string

// Axesyncd returns a string containing the commented example config for
// axesyncd.
func Axesyncd() string {
	return sampleAxesyncdConf
}
