// Package locate finds the genuine git executable behind the shim.
//
// The shim is installed under the same name as git and usually sits first
// on PATH, so a plain PATH lookup finds the shim itself. The resolver
// filters the shim's own directories out of the search path, rejects
// candidates that look like wrappers, and falls back to a few platform
// conventions.
//
// Wrapper detection is a heuristic: it scans the head of a candidate for
// marker strings. Renamed or repackaged wrappers can slip through; the
// recursion-depth counter of the shim is the backstop for that case.
package locate

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
)

// ErrNotFound is returned when no genuine executable could be located.
var ErrNotFound = errors.New("unable to locate the real git executable")

// sniffSize is how much of a candidate file is scanned for markers.
const sniffSize = 2048

// markers identify wrapper scripts: this shim's own names and the
// version-manager shims that typically forward to it.
var markers = [][]byte{
	[]byte("global_git"),
	[]byte("global-git"),
	[]byte("GLOBAL_GIT"),
	[]byte("load_entry_point"),
	[]byte("pyenv"),
	[]byte("PYENV"),
}

// LooksLikeShim reports whether the first bytes of the file at path
// contain a wrapper marker. Unreadable files do not look like shims.
func LooksLikeShim(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, sniffSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false
	}
	head := buf[:n]
	for _, m := range markers {
		if bytes.Contains(head, m) {
			return true
		}
	}
	return false
}

// realPath resolves symlinks, falling back to a cleaned absolute path
// when the target cannot be resolved.
func realPath(p string) string {
	if r, err := filepath.EvalSymlinks(p); err == nil {
		p = r
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// ExecutableName is the file name of git on this platform.
func ExecutableName() string {
	if runtime.GOOS == "windows" {
		return "git.exe"
	}
	return "git"
}

// ---------------------------------------------------------------------------
// Shim identity
// ---------------------------------------------------------------------------

// Shim describes where the running wrapper lives.
type Shim struct {
	// Path is the real path of the wrapper binary, empty when unknown.
	Path string
	// Dirs are the real directories that must not be searched for git.
	Dirs []string
}

// DetectShim works out the wrapper's own location from argv[0], the
// running executable and PATH lookups of its invocation names.
func DetectShim(argv0 string) Shim {
	var s Shim
	addDir := func(d string) {
		d = realPath(d)
		for _, have := range s.Dirs {
			if have == d {
				return
			}
		}
		s.Dirs = append(s.Dirs, d)
	}

	if exe, err := os.Executable(); err == nil {
		s.Path = realPath(exe)
	}

	names := []string{filepath.Base(argv0), ExecutableName()}
	for _, name := range names {
		if name == "" || name == "." || name == string(filepath.Separator) {
			continue
		}
		found, err := exec.LookPath(name)
		if err != nil {
			continue
		}
		resolved := realPath(found)
		if resolved == s.Path || LooksLikeShim(resolved) {
			if s.Path == "" {
				s.Path = resolved
			}
			addDir(filepath.Dir(found))
			addDir(filepath.Dir(resolved))
		}
	}

	if s.Path == "" && argv0 != "" {
		if p := realPath(argv0); fileExists(p) {
			s.Path = p
		}
	}
	if s.Path != "" {
		addDir(filepath.Dir(s.Path))
	}
	if strings.ContainsRune(argv0, filepath.Separator) {
		addDir(filepath.Dir(argv0))
	}
	return s
}

func (s Shim) excludes(dir string) bool {
	for _, d := range s.Dirs {
		if d == dir {
			return true
		}
	}
	return false
}

// FilterPath splits pathEnv and drops empty entries, the shim's
// directories and entries whose real path was already seen.
func FilterPath(pathEnv string, shim Shim) []string {
	var entries []string
	seen := make(map[string]bool)
	for _, chunk := range filepath.SplitList(pathEnv) {
		if chunk == "" {
			continue
		}
		real := realPath(chunk)
		if shim.excludes(real) || seen[real] {
			continue
		}
		seen[real] = true
		entries = append(entries, chunk)
	}
	return entries
}

// ---------------------------------------------------------------------------
// Resolver
// ---------------------------------------------------------------------------

// Cache holds the last successful resolution. It is advisory: the
// resolver revalidates it before every reuse and drops it on failure.
type Cache struct {
	path string
}

// Path returns the cached executable, or "".
func (c *Cache) Path() string { return c.path }

// Store records a successful resolution.
func (c *Cache) Store(p string) { c.path = p }

// Invalidate forgets the cached executable.
func (c *Cache) Invalidate() { c.path = "" }

// Request carries the environment inputs of one resolution.
type Request struct {
	// Hint is the value of the real-executable environment hint.
	Hint string
	// Filtered are the search-path entries with the shim removed.
	Filtered []string
	// PathEnv is the unfiltered search path.
	PathEnv string
	// ExecPath is git's own exec-path directory (GIT_EXEC_PATH).
	ExecPath string
}

// Resolver locates the genuine executable.
type Resolver struct {
	Shim   Shim
	Cache  *Cache
	Logger *log.Logger

	// systemLocate queries a platform locator utility; nil disables it.
	systemLocate func(ctx context.Context, name string) string
}

// NewResolver returns a resolver for the given shim identity.
func NewResolver(shim Shim, cache *Cache, logger *log.Logger) *Resolver {
	if cache == nil {
		cache = &Cache{}
	}
	return &Resolver{
		Shim:         shim,
		Cache:        cache,
		Logger:       logger,
		systemLocate: systemLocate,
	}
}

func (r *Resolver) debug(msg string, kv ...any) {
	if r.Logger != nil {
		r.Logger.Debug(msg, kv...)
	}
}

// Valid reports whether candidate can stand in for git: it exists, is an
// executable regular file, does not look like a wrapper and is not the
// shim itself.
func (r *Resolver) Valid(candidate string) bool {
	if candidate == "" {
		return false
	}
	info, err := os.Stat(candidate)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if !isExecutable(info) {
		return false
	}
	if LooksLikeShim(candidate) {
		return false
	}
	if r.Shim.Path != "" && realPath(candidate) == r.Shim.Path {
		return false
	}
	return true
}

// Resolve returns the absolute path of the genuine executable, trying in
// order: the environment hint, the cache, the filtered search path, the
// full search path, the exec-path directory and the platform locator.
func (r *Resolver) Resolve(ctx context.Context, req Request) (string, error) {
	if req.Hint != "" {
		if r.Valid(req.Hint) {
			r.debug("using executable hint", "path", req.Hint)
			return r.remember(req.Hint), nil
		}
		r.debug("ignoring stale executable hint", "path", req.Hint)
	}

	if cached := r.Cache.Path(); cached != "" {
		if r.Valid(cached) {
			r.debug("using cached executable", "path", cached)
			return cached, nil
		}
		r.debug("cached executable no longer valid", "path", cached)
		r.Cache.Invalidate()
	}

	if p := r.search(req.Filtered); p != "" {
		r.debug("found on filtered path", "path", p)
		return r.remember(p), nil
	}

	if p := r.search(filepath.SplitList(req.PathEnv)); p != "" {
		r.debug("found on full path", "path", p)
		return r.remember(p), nil
	}

	if req.ExecPath != "" {
		p := filepath.Join(req.ExecPath, ExecutableName())
		if r.Valid(p) {
			r.debug("found in exec path", "path", p)
			return r.remember(p), nil
		}
	}

	if r.systemLocate != nil {
		if p := r.systemLocate(ctx, ExecutableName()); p != "" && r.Valid(p) {
			r.debug("found by system locator", "path", p)
			return r.remember(p), nil
		}
	}

	return "", ErrNotFound
}

func (r *Resolver) remember(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	r.Cache.Store(p)
	return p
}

// search returns the first valid candidate across entries, skipping the
// shim and candidates already tried under another name.
func (r *Resolver) search(entries []string) string {
	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry == "" {
			continue
		}
		candidate := filepath.Join(entry, ExecutableName())
		if !fileExists(candidate) {
			continue
		}
		real := realPath(candidate)
		if r.Shim.Path != "" && real == r.Shim.Path {
			continue
		}
		if seen[real] {
			continue
		}
		seen[real] = true
		if r.Valid(candidate) {
			return candidate
		}
	}
	return ""
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
