package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/global-git/global-git/achievements"
	"github.com/global-git/global-git/config"
	"github.com/global-git/global-git/execenv"
	"github.com/global-git/global-git/i18n"
	"github.com/global-git/global-git/locate"
	"github.com/global-git/global-git/runner"
	"github.com/global-git/global-git/state"
	"github.com/global-git/global-git/translate"
)

// exitDepthExceeded is returned when the recursion guard trips.
const exitDepthExceeded = 126

// ---------------------------------------------------------------------------
// Shim pipeline
// ---------------------------------------------------------------------------

// run handles one invocation as git and returns the exit status.
func run(argv []string) int {
	ctx := context.Background()
	argv0, args := "", []string(nil)
	if len(argv) > 0 {
		argv0, args = argv[0], argv[1:]
	}

	bypass := execenv.Bypassed(os.Getenv(execenv.EnvBypass))
	if !bypass && isGlobalCommand(args) {
		return runGlobal(args[1:])
	}

	depth := execenv.Depth(os.Getenv(execenv.EnvDepth))
	if err := execenv.CheckDepth(depth); err != nil {
		logError("%s", i18n.T("detected repeated shim invocation without locating real git; set GLOBAL_GIT_BYPASS=1 to run the system git directly"))
		return exitDepthExceeded
	}

	logger := newDebugLogger()

	shim := locate.DetectShim(argv0)
	pathEnv := os.Getenv("PATH")
	filtered := locate.FilterPath(pathEnv, shim)
	logger.Debug("shim detected", "path", shim.Path, "dirs", shim.Dirs, "depth", depth)

	gitPath, err := locate.NewResolver(shim, nil, logger).Resolve(ctx, locate.Request{
		Hint:     os.Getenv(execenv.EnvRealExecutable),
		Filtered: filtered,
		PathEnv:  pathEnv,
		ExecPath: os.Getenv("GIT_EXEC_PATH"),
	})
	if err != nil {
		logger.Debug("git not resolved", "err", err)
	}

	env := execenv.Build(os.Environ(), filtered, gitPath, depth)
	codec := runner.NewCodec(runner.CharsetFromEnv(os.Getenv))
	r := runner.New(gitPath, env, codec, logger)

	if bypass {
		code, err := r.Bypass(ctx, args)
		return report(code, err, i18n.T("unable to locate `git` in PATH"))
	}

	store := openStore(logger)
	cfg := loadConfig(store, logger)
	res := translate.Args(args, cfg.Maps())
	if res.Command != nil {
		logger.Debug("translated subcommand",
			"from", res.Command.Original, "to", res.Command.Translated, "language", res.Command.Language)
	}

	if gitPath == "" {
		logError("%s", i18n.T("unable to locate the real `git` executable"))
		return runner.ExitNotFound
	}

	rw := translate.NewRewriter(cfg.Output)
	mode := runner.SelectMode(!rw.Empty(), runner.Detect(os.Stdin, os.Stdout))
	code, err := r.Run(ctx, mode, res.Args, rw)
	code = report(code, err, i18n.T("unable to locate the real `git` executable"))

	if store != nil {
		recordInvocation(store, res, os.Stderr, logger)
	}
	return code
}

// isGlobalCommand reports whether args address the management surface.
func isGlobalCommand(args []string) bool {
	return len(args) > 0 && strings.EqualFold(args[0], "global")
}

// report prints err, if any, and returns the exit status to use.
func report(code int, err error, notFound string) int {
	switch {
	case err == nil:
		return code
	case errors.Is(err, runner.ErrNotFound):
		logError("%s", notFound)
		return runner.ExitNotFound
	default:
		logError("%v", err)
		return code
	}
}

// openStore returns the statistics store, or nil when it has no location.
func openStore(logger *log.Logger) *state.Store {
	path, err := state.DefaultPath()
	if err != nil {
		logger.Debug("statistics disabled", "err", err)
		return nil
	}
	return state.Open(path)
}

// loadConfig loads the translation tables for the active languages. It
// never fails: a broken user file is skipped, broken defaults yield no
// translations at all.
func loadConfig(store *state.Store, logger *log.Logger) *config.Config {
	var active config.ActiveFunc
	if store != nil {
		active = store.ActiveLanguages
	}
	path := config.UserPath()
	cfg, err := config.Load(path, active)
	if err != nil {
		logger.Debug("configuration problem", "path", path, "err", err)
	}
	if cfg == nil {
		return &config.Config{}
	}
	return cfg
}

// ---------------------------------------------------------------------------
// Statistics
// ---------------------------------------------------------------------------

// recordInvocation counts a finished invocation and announces newly
// earned achievements on w. Failures are only traced.
func recordInvocation(store *state.Store, res translate.Result, w io.Writer, logger *log.Logger) {
	base := translate.BaseCommand(res.Args)
	if strings.EqualFold(base, "for-each-ref") {
		return
	}

	lang := res.Language()
	if lang == config.GlobalSource {
		lang = ""
	}

	usage, err := store.RecordUsage(base, lang, res.Alias())
	if err != nil {
		logger.Debug("recording usage failed", "err", err)
		return
	}

	pending := achievements.NewlyEarned(usage, store.Achievements().Earned)
	awarded, _, err := store.Award(pending)
	if err != nil {
		logger.Debug("awarding achievements failed", "err", err)
		return
	}
	if len(awarded) == 0 {
		return
	}

	th := newTheme(w)
	for _, id := range awarded {
		if a, ok := achievements.Lookup(id); ok {
			fmt.Fprint(w, th.unlocked(a))
		}
	}
	if err := store.MarkNotified(awarded); err != nil {
		logger.Debug("marking achievements notified failed", "err", err)
	}
}
