// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package version provides a single location to house the version information
// for the axesync daemon and the utilities provided in the same repository.
package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// semanticAlphabet defines the allowed characters for the pre-release and
// build metadata portions of a semantic version string.
const semanticAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-."

// semverRE parses a semantic version string into its constituent parts.
var semverRE = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)` +
	`(?:-((?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*)(?:\.(?:0|[1-9]\d*|\d*` +
	`[a-zA-Z-][0-9a-zA-Z-]*))*))?(?:\+([0-9a-zA-Z-]+(?:\.[0-9a-zA-Z-]+)*))?$`)

// These variables define the application version and follow the semantic
// versioning 2.0.0 spec (https://semver.org/).
var (
	// Version is the application version.  It is defined as a variable so
	// it can be overridden during the build process with
	// '-ldflags "-X github.com/AXErunners/axesync/internal/version.Version=fullsemver"'
	// if needed.  It MUST be a full semantic version per the semantic
	// versioning spec or the package will panic at runtime.
	Version = "0.3.0-pre"

	// These fields are the individual semantic version components set via
	// init by parsing the Version string.
	Major         uint
	Minor         uint
	Patch         uint
	PreRelease    string
	BuildMetadata string
)

// parseUint converts the passed string to an unsigned integer or returns an
// error if it is invalid.
func parseUint(s string, fieldName string) (uint, error) {
	val, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return 0, fmt.Errorf("malformed semver %s: %w", fieldName, err)
	}
	return uint(val), nil
}

// checkSemString returns an error if the passed string contains characters
// that are not in the provided alphabet.
func checkSemString(s, alphabet, fieldName string) error {
	for _, r := range s {
		if !strings.ContainsRune(alphabet, r) {
			return fmt.Errorf("malformed semver %s: %q invalid", fieldName, r)
		}
	}
	return nil
}

// parseSemVer parses various semver components from the provided string.
func parseSemVer(s string) (uint, uint, uint, string, string, error) {
	m := semverRE.FindStringSubmatch(s)
	if m == nil {
		err := fmt.Errorf("malformed version string %q: does not conform "+
			"to semver specification", s)
		return 0, 0, 0, "", "", err
	}

	major, err := parseUint(m[1], "major")
	if err != nil {
		return 0, 0, 0, "", "", err
	}
	minor, err := parseUint(m[2], "minor")
	if err != nil {
		return 0, 0, 0, "", "", err
	}
	patch, err := parseUint(m[3], "patch")
	if err != nil {
		return 0, 0, 0, "", "", err
	}

	preRel := m[4]
	if err := checkSemString(preRel, semanticAlphabet, "pre-release"); err != nil {
		return 0, 0, 0, "", "", err
	}
	build := m[5]
	if err := checkSemString(build, semanticAlphabet, "buildmetadata"); err != nil {
		return 0, 0, 0, "", "", err
	}

	return major, minor, patch, preRel, build, nil
}

func init() {
	var err error
	Major, Minor, Patch, PreRelease, BuildMetadata, err = parseSemVer(Version)
	if err != nil {
		panic(err)
	}

	// Stamp the commit hash into the build metadata when building from a
	// git checkout without explicit overrides.
	if BuildMetadata == "" {
		if commit := vcsCommitID(); commit != "" {
			BuildMetadata = commit
			Version = fmt.Sprintf("%s+%s", Version, commit)
		}
	}
}

// String returns the application version as a properly formed string per the
// semantic versioning 2.0.0 spec.
func String() string {
	return Version
}
