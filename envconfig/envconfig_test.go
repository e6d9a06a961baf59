// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package envconfig

import "testing"

func TestFromEnvironDefaults(t *testing.T) {
	cfg, err := FromEnviron(nil)
	if err != nil {
		t.Fatalf("FromEnviron(nil): %v", err)
	}
	if cfg.TimeResolution != 1e-7 {
		t.Fatalf("TimeResolution = %v, want 1e-7", cfg.TimeResolution)
	}
	if cfg.StoreTID || cfg.WithNonMPI {
		t.Fatalf("expected all booleans to default false, got %+v", cfg)
	}
}

func TestFromEnvironOverrides(t *testing.T) {
	env := []string{
		"RECORDER_TIME_RESOLUTION=1e-6",
		"RECORDER_STORE_TID=1",
		"RECORDER_STORE_CALL_DEPTH=0",
		"RECORDER_TRACES_DIR=/tmp/trace",
		"RECORDER_WITH_NON_MPI=1",
		"UNRELATED=ignored",
	}
	cfg, err := FromEnviron(env)
	if err != nil {
		t.Fatalf("FromEnviron: %v", err)
	}
	if cfg.TimeResolution != 1e-6 {
		t.Fatalf("TimeResolution = %v, want 1e-6", cfg.TimeResolution)
	}
	if !cfg.StoreTID {
		t.Fatal("StoreTID should be true")
	}
	if cfg.StoreCallDepth {
		t.Fatal("StoreCallDepth should be false")
	}
	if cfg.TracesDir != "/tmp/trace" {
		t.Fatalf("TracesDir = %q", cfg.TracesDir)
	}
	if !cfg.WithNonMPI {
		t.Fatal("WithNonMPI should be true")
	}
}

func TestFromEnvironInvalidResolutionFallsBack(t *testing.T) {
	cfg, err := FromEnviron([]string{"RECORDER_TIME_RESOLUTION=-1"})
	if err == nil {
		t.Fatal("expected an error for a non-positive resolution")
	}
	if cfg.TimeResolution != 1e-7 {
		t.Fatalf("TimeResolution = %v, want the default to survive a bad override", cfg.TimeResolution)
	}
}
