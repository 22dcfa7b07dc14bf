package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/global-git/global-git/config"
	"github.com/global-git/global-git/execenv"
	"github.com/global-git/global-git/globe"
	"github.com/global-git/global-git/i18n"
	"github.com/global-git/global-git/langmeta"
	"github.com/global-git/global-git/state"
)

// errNoStore is returned by commands that persist state when no state
// location could be determined.
var errNoStore = errors.New("no location for the state file")

// ---------------------------------------------------------------------------
// Session
// ---------------------------------------------------------------------------

// session carries what every "git global" command works on.
type session struct {
	cfg   *config.Config
	store *state.Store
	out   io.Writer
	th    *theme
	width int

	// animate plays the welcome animation and reports whether it was shown.
	animate func() bool
}

func newSession(out *os.File) *session {
	logger := newDebugLogger()
	store := openStore(logger)

	var active config.ActiveFunc
	if store != nil {
		active = store.ActiveLanguages
	}
	path := config.UserPath()
	cfg, err := config.Load(path, active)
	if err != nil {
		logWarning(i18n.T("ignoring configuration %s: %v"), path, err)
	}
	if cfg == nil {
		cfg = &config.Config{}
	}

	return &session{
		cfg:   cfg,
		store: store,
		out:   out,
		th:    newTheme(out),
		width: terminalWidth(out),
		animate: func() bool {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			return globe.Play(ctx, out, globe.DefaultOptions())
		},
	}
}

// terminalWidth returns the width of f, or 100 when it is not a terminal.
func terminalWidth(f *os.File) int {
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
		return w
	}
	return 100
}

// runGlobal runs "git global" with args and returns the exit status.
func runGlobal(args []string) int {
	if err := newSession(os.Stdout).execute(args); err != nil {
		logError("%v", err)
		return 1
	}
	return 0
}

func (s *session) execute(args []string) error {
	if len(args) == 1 {
		if code, ok := s.cfg.HelpLanguage(args[0]); ok {
			return s.showDetails([]string{code})
		}
	}
	if args == nil {
		// cobra falls back to os.Args for a nil slice.
		args = []string{}
	}
	root := newGlobalCmd(s)
	root.SetArgs(args)
	root.SetOut(s.out)
	return root.Execute()
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

func newGlobalCmd(s *session) *cobra.Command {
	var noAnimation bool

	root := &cobra.Command{
		Use:   "git global",
		Short: "Manage global-git's language configuration",
		Long: `git global: manage global-git's language configuration.

Commands:
  show          Display translations for languages
  languages     List all known languages
  switch        Select which languages are active
  all           Activate every language
  status        Show the current language selection
  stats         Display the usage dashboard
  achievements  Browse localized milestones`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			played := false
			if !noAnimation && !animationDisabled() && s.animate != nil {
				played = s.animate()
				if played {
					fmt.Fprintln(s.out)
				}
			}
			s.welcome(played)
		},
	}
	root.Flags().BoolVar(&noAnimation, "no-animation", false,
		"Skip the startup globe animation (env: GLOBAL_GIT_NO_ANIMATION=1)")

	root.AddCommand(
		newShowCmd(s),
		newLanguagesCmd(s),
		newSwitchCmd(s),
		newAllCmd(s),
		newStatusCmd(s),
		newStatsCmd(s),
		newAchievementsCmd(s),
		newVersionCmd(s),
	)
	return root
}

func animationDisabled() bool {
	return execenv.Truthy(os.Getenv(execenv.EnvNoAnimation)) ||
		execenv.Truthy(os.Getenv(execenv.EnvLegacyNoAnimation))
}

// addAllFlag registers the --all switch shared by show and switch.
func addAllFlag(fs *pflag.FlagSet, p *bool, usage string) {
	fs.BoolVarP(p, "all", "a", false, usage)
}

func newShowCmd(s *session) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "show [codes...]",
		Short: "Display translations for languages",
		Long: `Display the command and flag translations of the given languages
(codes such as es, fr or names such as Spanish). Without arguments the
active languages are shown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			targets := s.cfg.Active
			switch {
			case all:
				targets = s.cfg.Codes()
			case len(args) > 0:
				codes, err := langmeta.ResolveCodes(args, s.cfg.Codes())
				if err != nil {
					return err
				}
				targets = codes
			}
			return s.showDetails(targets)
		},
	}
	addAllFlag(cmd.Flags(), &all, "Display every language")
	return cmd
}

func newLanguagesCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List all known languages",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			languageList(s.out, s.cfg)
		},
	}
}

func newSwitchCmd(s *session) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "switch <codes...>",
		Short: "Select which languages are active",
		Long: `Select the languages whose translations git understands. Codes and
names are accepted; "all" or --all activates every language.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			targets := s.cfg.Codes()
			if !all {
				if len(args) == 0 {
					return errors.New(i18n.T("provide at least one language or use --all"))
				}
				codes, err := langmeta.ResolveCodes(args, s.cfg.Codes())
				if err != nil {
					return err
				}
				targets = codes
			}
			if err := s.saveActive(targets); err != nil {
				return err
			}
			logSuccess("%s", i18n.T("Active languages updated"))
			fmt.Fprintln(s.out, activeLine(targets))
			return nil
		},
	}
	addAllFlag(cmd.Flags(), &all, "Activate every language")
	return cmd
}

func newAllCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Activate every language",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			targets := s.cfg.Codes()
			if err := s.saveActive(targets); err != nil {
				return err
			}
			logSuccess("%s", i18n.T("All languages activated"))
			fmt.Fprintln(s.out, activeLine(targets))
			return nil
		},
	}
}

func newStatusCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current language selection",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(s.out, activeLine(s.cfg.Active))
		},
	}
}

func newStatsCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Display your usage dashboard",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			var u state.Usage
			if s.store != nil {
				u = s.store.Usage()
			}
			s.th.stats(s.out, u, s.cfg, s.width)
		},
	}
}

func newAchievementsCmd(s *session) *cobra.Command {
	var summary bool
	cmd := &cobra.Command{
		Use:   "achievements",
		Short: "Browse your localized milestones",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			var a state.Achievements
			if s.store != nil {
				a = s.store.Achievements()
			}
			if summary {
				s.th.achievementSummary(s.out, a)
				return
			}
			s.th.achievementShowcase(s.out, a, s.width)
		},
	}
	cmd.Flags().BoolVarP(&summary, "stats", "s", false,
		"Show counts of unlocked achievements instead of the gallery")
	return cmd
}

func newVersionCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(s.out, "global-git version %s\n", version)
			fmt.Fprintf(s.out, "  commit:    %s\n", commit)
			fmt.Fprintf(s.out, "  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *session) showDetails(codes []string) error {
	if !languageDetails(s.out, s.cfg, codes, s.width) {
		return errors.New(i18n.T("no matching languages to display"))
	}
	return nil
}

func (s *session) saveActive(codes []string) error {
	if s.store == nil {
		return fmt.Errorf("%s: %w", i18n.T("unable to update active languages"), errNoStore)
	}
	if err := s.store.SaveActiveLanguages(codes); err != nil {
		return fmt.Errorf("%s: %w", i18n.T("unable to update active languages"), err)
	}
	s.cfg.Active = codes
	return nil
}

func (s *session) welcome(animated bool) {
	w := s.out
	if !animated {
		fmt.Fprintln(w, globe.Render(nil, 0.9, 36, 16, false, 1))
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, i18n.T("Finally, you can use Git commands in Spanish/French/British/etc. without your computer yelling at you"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, activeLine(s.cfg.Active))
	fmt.Fprintln(w)
	fmt.Fprintln(w, i18n.T("Helpful commands:"))
	for _, line := range [][2]string{
		{"git global show [code...]", i18n.T("view translations for specific languages")},
		{"git global languages", i18n.T("list available languages")},
		{"git global switch <codes>", i18n.T("choose the languages Git understands")},
		{"git global all", i18n.T("enable every language")},
		{"git global stats", i18n.T("review your usage dashboard")},
	} {
		fmt.Fprintf(w, "  %-27s %s\n", line[0], line[1])
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, i18n.T("Tip: try localized help like `git global --ayuda` for Spanish translations."))
}
