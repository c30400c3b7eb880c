// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"os"
	"slices"
	"strings"
)

// iodEnvPrefix marks iod's own configuration variables (IOD_RUNTIME, ...).
const iodEnvPrefix = "IOD_"

// buildEnv returns the host environment without iod configuration variables,
// followed by extra in key order. Later entries win, so extra overrides the host.
func buildEnv(extra map[string]string) []string {
	env := FilterIODEnvVars(os.Environ())
	return append(env, EnvToSlice(extra)...)
}

// EnvToSlice converts a map of environment variables to a KEY=VALUE slice
// sorted by key.
func EnvToSlice(env map[string]string) []string {
	result := make([]string, 0, len(env))
	for k, v := range env {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

// FilterIODEnvVars drops IOD_* variables so iod configuration set for this
// process does not leak into the installer or node.
func FilterIODEnvVars(environ []string) []string {
	result := make([]string, 0, len(environ))
	for _, e := range environ {
		name, _, ok := strings.Cut(e, "=")
		if !ok {
			// Malformed env var, keep it
			result = append(result, e)
			continue
		}
		if strings.HasPrefix(strings.ToUpper(name), iodEnvPrefix) {
			continue
		}
		result = append(result, e)
	}
	return result
}
