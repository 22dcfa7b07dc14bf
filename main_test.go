package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/global-git/global-git/config"
	"github.com/global-git/global-git/langmeta"
	"github.com/global-git/global-git/runner"
	"github.com/global-git/global-git/state"
	"github.com/global-git/global-git/translate"
)

// isolate points every per-user path at a temporary directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("GLOBAL_GIT_CONFIG", "")
	t.Setenv("GLOBAL_GIT_STATE", filepath.Join(dir, "state.json"))
	t.Setenv("GLOBAL_GIT_BYPASS", "")
	t.Setenv("GLOBAL_GIT_SHIM_DEPTH", "")
	t.Setenv("GLOBAL_GIT_NO_ANIMATION", "1")
	return dir
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(&bytes.Buffer{}, log.Options{Level: log.DebugLevel})
}

// ---------------------------------------------------------------------------
// Shim pipeline
// ---------------------------------------------------------------------------

func TestRunDepthGuard(t *testing.T) {
	isolate(t)
	t.Setenv("GLOBAL_GIT_SHIM_DEPTH", "3")

	if got := run([]string{"git", "status"}); got != exitDepthExceeded {
		t.Fatalf("run() = %d, want %d", got, exitDepthExceeded)
	}
}

func TestRunDispatchesGlobal(t *testing.T) {
	isolate(t)

	if got := run([]string{"git", "Global", "status"}); got != 0 {
		t.Fatalf("run(global status) = %d, want 0", got)
	}
	if got := run([]string{"git", "global", "bogus"}); got != 1 {
		t.Fatalf("run(global bogus) = %d, want 1", got)
	}
}

func TestIsGlobalCommand(t *testing.T) {
	tests := []struct {
		args []string
		want bool
	}{
		{nil, false},
		{[]string{"global"}, true},
		{[]string{"GLOBAL", "stats"}, true},
		{[]string{"status"}, false},
		{[]string{"-C", "x", "global"}, false},
	}
	for _, tc := range tests {
		if got := isGlobalCommand(tc.args); got != tc.want {
			t.Fatalf("isGlobalCommand(%q) = %v, want %v", tc.args, got, tc.want)
		}
	}
}

func TestReport(t *testing.T) {
	if got := report(4, nil, "missing"); got != 4 {
		t.Fatalf("report(nil) = %d, want 4", got)
	}
	wrapped := fmt.Errorf("starting: %w", runner.ErrNotFound)
	if got := report(0, wrapped, "missing"); got != runner.ExitNotFound {
		t.Fatalf("report(ErrNotFound) = %d, want %d", got, runner.ExitNotFound)
	}
	if got := report(1, errors.New("pty"), "missing"); got != 1 {
		t.Fatalf("report(other) = %d, want 1", got)
	}
}

func testMaps() translate.Maps {
	return translate.Maps{
		Commands:       map[string]string{"schieben": "push", "verteilen": "for-each-ref", "cometer": "commit"},
		CommandSources: map[string]string{"schieben": "de", "verteilen": "de", "cometer": config.GlobalSource},
	}
}

func TestRecordInvocationAnnouncesOnce(t *testing.T) {
	store := state.Open(filepath.Join(t.TempDir(), state.FileName))
	seed := `{"usage_stats": {"total_invocations": 59, "aliases": {"schieben": {"count": 59, "label": "schieben", "language": "de", "command": "push"}}}}`
	if err := os.WriteFile(store.Path(), []byte(seed), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var out bytes.Buffer
	res := translate.Args([]string{"schieben", "origin"}, testMaps())
	recordInvocation(store, res, &out, quietLogger())

	if !strings.Contains(out.String(), "Achievement Unlocked!") || !strings.Contains(out.String(), "Push Dynamo") {
		t.Fatalf("announcement = %q, want Push Dynamo unlocked", out.String())
	}
	a := store.Achievements()
	if _, ok := a.Earned["de_push_dynamo"]; !ok {
		t.Fatalf("Earned = %v, want de_push_dynamo", a.Earned)
	}
	if want := []string{"de_push_dynamo"}; !reflect.DeepEqual(a.Notified, want) {
		t.Fatalf("Notified = %v, want %v", a.Notified, want)
	}

	out.Reset()
	recordInvocation(store, res, &out, quietLogger())
	if out.Len() != 0 {
		t.Fatalf("second announcement = %q, want none", out.String())
	}
	if got := store.Usage().Aliases["schieben"].Count; got != 61 {
		t.Fatalf("alias count = %d, want 61", got)
	}
}

func TestRecordInvocationSkipsForEachRef(t *testing.T) {
	store := state.Open(filepath.Join(t.TempDir(), state.FileName))
	recordInvocation(store, translate.Args([]string{"verteilen"}, testMaps()), &bytes.Buffer{}, quietLogger())

	if got := store.Usage().TotalInvocations; got != 0 {
		t.Fatalf("TotalInvocations = %d, want 0", got)
	}
	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Fatalf("state file written for for-each-ref: %v", err)
	}
}

func TestRecordInvocationGlobalSourceCountsAsCore(t *testing.T) {
	store := state.Open(filepath.Join(t.TempDir(), state.FileName))
	recordInvocation(store, translate.Args([]string{"cometer"}, testMaps()), &bytes.Buffer{}, quietLogger())

	u := store.Usage()
	if u.Languages[state.DefaultLanguageKey] != 1 {
		t.Fatalf("Languages = %v, want one %s", u.Languages, state.DefaultLanguageKey)
	}
	if got := u.Aliases["cometer"].Language; got != "" {
		t.Fatalf("alias language = %q, want empty", got)
	}
}

// ---------------------------------------------------------------------------
// git global
// ---------------------------------------------------------------------------

func newTestSession(t *testing.T, active ...string) (*session, *bytes.Buffer) {
	t.Helper()
	store := state.Open(filepath.Join(t.TempDir(), state.FileName))
	if len(active) > 0 {
		if err := store.SaveActiveLanguages(active); err != nil {
			t.Fatalf("SaveActiveLanguages() error = %v", err)
		}
	}
	cfg, err := config.Load("", store.ActiveLanguages)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	var out bytes.Buffer
	s := &session{
		cfg:   cfg,
		store: store,
		out:   &out,
		th:    newTheme(&out),
		width: 100,
		animate: func() bool {
			t.Error("animation played")
			return false
		},
	}
	return s, &out
}

func TestGlobalStatus(t *testing.T) {
	s, out := newTestSession(t, "es", "fr")
	if err := s.execute([]string{"status"}); err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if got, want := out.String(), "Active languages: es, fr\n"; got != want {
		t.Fatalf("status output = %q, want %q", got, want)
	}
}

func TestGlobalSwitch(t *testing.T) {
	s, out := newTestSession(t)
	if err := s.execute([]string{"switch", "German", "PT", "de"}); err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if got, want := s.store.ActiveLanguages(s.cfg.Codes()), []string{"de", "pt"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("ActiveLanguages() = %v, want %v", got, want)
	}
	if !strings.Contains(out.String(), "Active languages: de, pt") {
		t.Fatalf("switch output = %q", out.String())
	}
}

func TestGlobalSwitchErrors(t *testing.T) {
	s, _ := newTestSession(t)
	if err := s.execute([]string{"switch"}); err == nil {
		t.Fatal("switch without languages succeeded")
	}
	err := s.execute([]string{"switch", "klingon"})
	if !errors.Is(err, langmeta.ErrUnknownLanguage) {
		t.Fatalf("switch klingon error = %v, want ErrUnknownLanguage", err)
	}
}

func TestGlobalAll(t *testing.T) {
	s, _ := newTestSession(t, "es")
	if err := s.execute([]string{"all"}); err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	codes := s.cfg.Codes()
	if got := s.store.ActiveLanguages(codes); !reflect.DeepEqual(got, codes) {
		t.Fatalf("ActiveLanguages() = %v, want %v", got, codes)
	}
}

func TestGlobalShow(t *testing.T) {
	s, out := newTestSession(t)
	if err := s.execute([]string{"show", "fr"}); err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if !strings.Contains(out.String(), "French (fr)") || !strings.Contains(out.String(), "git tirer -> git pull") {
		t.Fatalf("show output = %q", out.String())
	}
	if strings.Contains(out.String(), "Spanish") {
		t.Fatalf("show fr printed other languages: %q", out.String())
	}

	if err := s.execute([]string{"show", "xx"}); !errors.Is(err, langmeta.ErrUnknownLanguage) {
		t.Fatalf("show xx error = %v, want ErrUnknownLanguage", err)
	}
}

func TestGlobalLocalizedHelp(t *testing.T) {
	s, out := newTestSession(t)
	if err := s.execute([]string{"--AYUDA"}); err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if !strings.Contains(out.String(), "Spanish (es)") || !strings.Contains(out.String(), "git cometer -> git commit") {
		t.Fatalf("localized help output = %q", out.String())
	}
}

func TestGlobalWelcome(t *testing.T) {
	t.Setenv("GLOBAL_GIT_NO_ANIMATION", "")
	t.Setenv("GLOBAL_GIT_DISABLE_ANIMATION", "")

	s, out := newTestSession(t, "es")
	if err := s.execute([]string{"--no-animation"}); err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	for _, want := range []string{"Active languages: es", "Helpful commands:", "git global switch <codes>"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("welcome output missing %q: %q", want, out.String())
		}
	}

	t.Setenv("GLOBAL_GIT_DISABLE_ANIMATION", "yes")
	out.Reset()
	if err := s.execute(nil); err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if !strings.Contains(out.String(), "Helpful commands:") {
		t.Fatalf("welcome output = %q", out.String())
	}
}

func TestGlobalStats(t *testing.T) {
	s, out := newTestSession(t)
	if err := s.execute([]string{"stats"}); err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if !strings.Contains(out.String(), "No activity yet") {
		t.Fatalf("empty stats output = %q", out.String())
	}

	for i := 0; i < 3; i++ {
		if _, err := s.store.RecordUsage("pull", "fr", "tirer"); err != nil {
			t.Fatalf("RecordUsage() error = %v", err)
		}
	}
	if _, err := s.store.RecordUsage("status", "", ""); err != nil {
		t.Fatalf("RecordUsage() error = %v", err)
	}

	out.Reset()
	if err := s.execute([]string{"stats"}); err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	for _, want := range []string{"French (fr)", "git tirer", "git pull", "Signature Moves"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("stats output missing %q: %q", want, out.String())
		}
	}
}

func TestGlobalAchievements(t *testing.T) {
	s, out := newTestSession(t)
	if _, _, err := s.store.Award([]string{"de_push_dynamo"}); err != nil {
		t.Fatalf("Award() error = %v", err)
	}

	if err := s.execute([]string{"achievements"}); err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	text := out.String()
	unlocked := strings.Index(text, "Push Dynamo")
	locked := strings.Index(text, "Locked Achievements")
	if unlocked < 0 || locked < 0 || unlocked > locked {
		t.Fatalf("showcase output = %q", text)
	}
	if !strings.Contains(text[locked:], "French Pull Marathon") {
		t.Fatalf("locked section = %q", text[locked:])
	}

	out.Reset()
	if err := s.execute([]string{"achievements", "-s"}); err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if !strings.Contains(out.String(), "Unlocked wonders:") || !strings.Contains(out.String(), "Mysteries remaining:") {
		t.Fatalf("summary output = %q", out.String())
	}
}

func TestGlobalVersionAndUnknown(t *testing.T) {
	s, out := newTestSession(t)
	if err := s.execute([]string{"version"}); err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if !strings.Contains(out.String(), "global-git version "+version) {
		t.Fatalf("version output = %q", out.String())
	}
	if err := s.execute([]string{"bogus"}); err == nil {
		t.Fatal("unknown subcommand succeeded")
	}
}

// ---------------------------------------------------------------------------
// Dashboard helpers
// ---------------------------------------------------------------------------

func TestTopEntries(t *testing.T) {
	got := topEntries(map[string]int{"a": 1, "c": 3, "b": 3, "z": 0}, 2)
	want := []entry{{"b", 3}, {"c", 3}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("topEntries() = %v, want %v", got, want)
	}
}

func TestCompactTable(t *testing.T) {
	var out bytes.Buffer
	compactTable(&out, []string{"a", "bbb", "cc"}, 56, "  ")
	if got, want := out.String(), "  a    bbb\n  cc\n"; got != want {
		t.Fatalf("compactTable() = %q, want %q", got, want)
	}

	out.Reset()
	compactTable(&out, nil, 56, "    ")
	if got, want := out.String(), "    (none recorded.)\n"; got != want {
		t.Fatalf("compactTable(nil) = %q, want %q", got, want)
	}
}

func TestFormatCount(t *testing.T) {
	if got := formatCount(1234567); got != "1,234,567" {
		t.Fatalf("formatCount() = %q, want %q", got, "1,234,567")
	}
}

func TestForeignAggregates(t *testing.T) {
	u := state.Usage{
		Languages: map[string]int{"fr": 2, state.DefaultLanguageKey: 5},
		LanguageCommandCounts: map[string]map[string]int{
			"fr":                     {"pull": 2},
			"es":                     {"pull": 1, "commit": 4},
			state.DefaultLanguageKey: {"status": 5},
		},
	}
	if got, want := foreignLanguages(u), map[string]int{"fr": 2}; !reflect.DeepEqual(got, want) {
		t.Fatalf("foreignLanguages() = %v, want %v", got, want)
	}
	if got, want := foreignCommands(u), map[string]int{"pull": 3, "commit": 4}; !reflect.DeepEqual(got, want) {
		t.Fatalf("foreignCommands() = %v, want %v", got, want)
	}
}
