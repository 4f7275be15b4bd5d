// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Opt in to the not-strictly-backwards-compatible behavior changes and
// security hardening of the newest supported toolchain, which newer Go
// releases would otherwise disable via GODEBUG defaults when compiling a
// module with an older go directive.  Review the release notes before
// bumping this to a new release; anything the code cannot tolerate has to
// stay excluded here instead.

//go:build go1.25

//go:debug default=go1.25

package main
