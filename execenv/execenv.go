// Package execenv builds the environment of the child git process and
// owns the environment variables the shim uses to talk to itself.
package execenv

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

// Environment variables consumed and produced by the shim.
const (
	// EnvBypass disables all translation when set to an affirmative value.
	// The shim sets it for the child so a nested shim invocation passes
	// straight through.
	EnvBypass = "GLOBAL_GIT_BYPASS"
	// EnvRealExecutable carries the resolved git path to nested invocations.
	EnvRealExecutable = "GLOBAL_GIT_REAL_EXECUTABLE"
	// EnvDepth counts nested shim invocations.
	EnvDepth = "GLOBAL_GIT_SHIM_DEPTH"
	// EnvNoAnimation skips the welcome animation of "git global".
	EnvNoAnimation = "GLOBAL_GIT_NO_ANIMATION"
	// EnvLegacyNoAnimation is the old spelling of EnvNoAnimation.
	EnvLegacyNoAnimation = "GLOBAL_GIT_DISABLE_ANIMATION"
	// EnvConfig overrides the user configuration file path.
	EnvConfig = "GLOBAL_GIT_CONFIG"
	// EnvState overrides the statistics file path.
	EnvState = "GLOBAL_GIT_STATE"
	// EnvDebug enables pipeline tracing on stderr.
	EnvDebug = "GLOBAL_GIT_DEBUG"
)

// MaxDepth is the recursion-depth limit. A shim started with a depth
// counter at or above it refuses to run.
const MaxDepth = 3

// ErrDepthExceeded is returned by CheckDepth when the limit is reached.
var ErrDepthExceeded = errors.New("repeated shim invocation without locating real git")

// bypassValues are the spellings of an affirmative bypass marker.
var bypassValues = map[string]bool{"1": true, "true": true, "True": true}

// truthy is the wider set accepted for user-facing toggles.
var truthy = map[string]bool{
	"1": true, "true": true, "True": true, "TRUE": true,
	"yes": true, "YES": true, "on": true, "On": true,
}

// Bypassed reports whether value is an affirmative bypass marker.
func Bypassed(value string) bool {
	return bypassValues[value]
}

// Truthy reports whether value enables a user-facing toggle.
func Truthy(value string) bool {
	return truthy[value]
}

// Depth parses the recursion counter. Missing or malformed values count
// as zero.
func Depth(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// CheckDepth returns ErrDepthExceeded when depth has reached MaxDepth.
func CheckDepth(depth int) error {
	if depth >= MaxDepth {
		return ErrDepthExceeded
	}
	return nil
}

// Build returns the child environment: base with PATH rebuilt from
// pathEntries (when non-empty), the bypass marker set, the resolved
// executable hint set when realExec is known, and the depth counter set
// to depth+1. Every other variable of base passes through unchanged.
func Build(base []string, pathEntries []string, realExec string, depth int) []string {
	overrides := map[string]string{
		EnvBypass: "1",
		EnvDepth:  strconv.Itoa(depth + 1),
	}
	if len(pathEntries) > 0 {
		overrides["PATH"] = strings.Join(pathEntries, string(os.PathListSeparator))
	}
	if realExec != "" {
		overrides[EnvRealExecutable] = realExec
	}

	env := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := overrides[key]; ok {
			continue
		}
		env = append(env, kv)
	}
	// Stable order keeps the result comparable in tests.
	for _, key := range []string{"PATH", EnvBypass, EnvRealExecutable, EnvDepth} {
		if v, ok := overrides[key]; ok {
			env = append(env, key+"="+v)
		}
	}
	return env
}

// Lookup returns the value of key in env, the last assignment winning as
// it does for exec.
func Lookup(env []string, key string) (string, bool) {
	val, found := "", false
	for _, kv := range env {
		k, v, ok := strings.Cut(kv, "=")
		if ok && k == key {
			val, found = v, true
		}
	}
	return val, found
}
