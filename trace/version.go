// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trace

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// WriteVersion writes this implementation's Version to dir/VERSION.
func WriteVersion(dir string) error {
	if err := os.WriteFile(VersionPath(dir), []byte(Version+"\n"), 0644); err != nil {
		return fmt.Errorf("trace: writing %s: %w", versionFile, err)
	}
	return nil
}

// CheckVersion reads dir/VERSION and refuses to proceed if its major
// or minor component differs from this implementation's, per
// spec.md §7: a trace produced by an incompatible writer must not be
// silently misread. A differing patch component is accepted.
func CheckVersion(dir string) error {
	data, err := os.ReadFile(VersionPath(dir))
	if err != nil {
		return fmt.Errorf("trace: reading %s: %w", versionFile, err)
	}
	found := strings.TrimSpace(string(data))

	gotMajor, gotMinor, _, err := splitVersion(found)
	if err != nil {
		return fmt.Errorf("trace: parsing %s %q: %w", versionFile, found, err)
	}
	wantMajor, wantMinor, _, err := splitVersion(Version)
	if err != nil {
		return fmt.Errorf("trace: parsing implementation version %q: %w", Version, err)
	}
	if gotMajor != wantMajor || gotMinor != wantMinor {
		return fmt.Errorf("trace: incompatible trace version %q, this reader is %q", found, Version)
	}
	return nil
}

func splitVersion(v string) (major, minor, patch int, err error) {
	parts := strings.SplitN(v, ".", 3)
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("expected major.minor.patch, got %q", v)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("non-numeric version component %q: %w", p, err)
		}
		nums[i] = n
	}
	return nums[0], nums[1], nums[2], nil
}
