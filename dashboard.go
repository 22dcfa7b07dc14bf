package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/global-git/global-git/achievements"
	"github.com/global-git/global-git/config"
	"github.com/global-git/global-git/i18n"
	"github.com/global-git/global-git/langmeta"
	"github.com/global-git/global-git/state"
)

// ANSI 256-colour indexes of the dashboard.
const (
	colorSection = "45"
	colorCommand = "81"
	colorCounter = "118"
	colorDim     = "244"
	colorLocked  = "250"
	colorLockedB = "236"
)

// numbers formats counts with thousands separators.
var numbers = message.NewPrinter(language.English)

func formatCount(n int) string {
	return numbers.Sprintf("%d", n)
}

// ---------------------------------------------------------------------------
// Theme
// ---------------------------------------------------------------------------

// theme styles text for one output stream.
type theme struct {
	r *lipgloss.Renderer
}

func newTheme(w io.Writer) *theme {
	return &theme{r: lipgloss.NewRenderer(w)}
}

func (t *theme) style(color string) lipgloss.Style {
	return t.r.NewStyle().Foreground(lipgloss.Color(color))
}

func (t *theme) bold(s, color string) string {
	return t.style(color).Bold(true).Render(s)
}

func (t *theme) plain(s, color string) string {
	return t.style(color).Render(s)
}

func (t *theme) dim(s string) string {
	return t.style(colorDim).Faint(true).Render(s)
}

func (t *theme) banner(title string) string {
	return t.r.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(lipgloss.Color(colorSection)).
		Foreground(lipgloss.Color(colorSection)).
		Bold(true).
		Padding(0, 2).
		Render(title)
}

func (t *theme) heading(title string) string {
	return "\n" + t.bold(title, colorSection)
}

// unlocked renders the announcement of a newly earned achievement.
func (t *theme) unlocked(a achievements.Achievement) string {
	accent := t.r.NewStyle().Foreground(lipgloss.Color(a.Color)).Bold(true)
	box := accent.
		Border(lipgloss.DoubleBorder()).
		BorderForeground(lipgloss.Color(a.Color)).
		Padding(0, 1).
		Render(a.Emoji + "  " + i18n.T("Achievement Unlocked!") + "\n" + a.Name)
	return "\n" + box + "\n" + accent.Render(a.Description) + "\n\n"
}

func languageColor(code string) string {
	return langmeta.Resolve(code).Color
}

// ---------------------------------------------------------------------------
// Tables
// ---------------------------------------------------------------------------

type entry struct {
	key   string
	count int
}

// topEntries returns up to limit positive counts, largest first.
func topEntries(m map[string]int, limit int) []entry {
	var out []entry
	for k, v := range m {
		if v > 0 {
			out = append(out, entry{k, v})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].key < out[j].key
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// barLine renders one row of a metric table.
func (t *theme) barLine(label string, count, maxValue, total, width int, color string) string {
	if maxValue <= 0 {
		maxValue = max(count, 1)
	}
	filled := int(float64(count)/float64(maxValue)*float64(width) + 0.5)
	if count > 0 {
		filled = max(1, min(width, filled))
	}
	bar := strings.Repeat("█", filled) + strings.Repeat(" ", max(0, width-filled))

	const labelWidth = 18
	if r := []rune(label); len(r) > labelWidth {
		label = string(r[:labelWidth-1]) + "…"
	}
	percent := 0.0
	if total > 0 {
		percent = float64(count) / float64(total) * 100
	}
	return fmt.Sprintf("  %s %s %s %s",
		t.bold(fmt.Sprintf("%-*s", labelWidth, label), color),
		t.plain(bar, color),
		t.bold(fmt.Sprintf("%8s", formatCount(count)), colorCounter),
		t.dim(fmt.Sprintf("%5.1f%%", percent)))
}

func (t *theme) metricTable(w io.Writer, entries []entry, total, width int, label, color func(string) string) {
	if len(entries) == 0 {
		fmt.Fprintln(w, t.dim("  "+i18n.T("No activity yet. Try a translated command to begin the journey!")))
		return
	}
	for _, e := range entries {
		fmt.Fprintln(w, t.barLine(label(e.key), e.count, entries[0].count, total, width, color(e.key)))
	}
}

// compactTable prints entries in up to three columns.
func compactTable(w io.Writer, entries []string, width int, indent string) {
	if len(entries) == 0 {
		fmt.Fprintln(w, indent+i18n.T("(none recorded.)"))
		return
	}
	cols := max(1, min(3, width/28))
	rows := (len(entries) + cols - 1) / cols

	widths := make([]int, cols)
	for i, e := range entries {
		widths[i%cols] = max(widths[i%cols], lipgloss.Width(e))
	}
	for row := 0; row < rows; row++ {
		var parts []string
		for col := 0; col < cols; col++ {
			i := row*cols + col
			if i >= len(entries) {
				break
			}
			cell := entries[i]
			if col < cols-1 {
				cell += strings.Repeat(" ", widths[col]-lipgloss.Width(cell))
			}
			parts = append(parts, cell)
		}
		fmt.Fprintln(w, strings.TrimRight(indent+strings.Join(parts, "   "), " "))
	}
}

// ---------------------------------------------------------------------------
// Statistics dashboard
// ---------------------------------------------------------------------------

// foreignLanguages returns the per-language counts without untranslated
// invocations.
func foreignLanguages(u state.Usage) map[string]int {
	out := make(map[string]int)
	for code, n := range u.Languages {
		if code != state.DefaultLanguageKey && n > 0 {
			out[code] = n
		}
	}
	return out
}

// foreignCommands sums translated invocations per base command.
func foreignCommands(u state.Usage) map[string]int {
	out := make(map[string]int)
	for code, cmds := range u.LanguageCommandCounts {
		if code == state.DefaultLanguageKey {
			continue
		}
		for cmd, n := range cmds {
			if n > 0 {
				out[cmd] += n
			}
		}
	}
	return out
}

func sum(m map[string]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}

func (t *theme) stats(w io.Writer, u state.Usage, cfg *config.Config, width int) {
	barWidth := max(10, min(36, width-48))
	langs := foreignLanguages(u)
	cmds := foreignCommands(u)

	fmt.Fprintln(w, t.banner(i18n.T("GitGlobal Voyager Stats")))
	fmt.Fprintln(w)

	var active []string
	for _, code := range cfg.Active {
		active = append(active, t.bold(langmeta.Label(code), languageColor(code)))
	}
	activeText := t.dim(i18n.T("None"))
	if len(active) > 0 {
		activeText = strings.Join(active, ", ")
	}
	fmt.Fprintf(w, "  %s %s\n", t.bold(i18n.T("Foreign commands relayed:"), colorSection), t.bold(formatCount(sum(langs)), colorCounter))
	fmt.Fprintf(w, "  %s %s\n", t.bold(i18n.T("Currently active languages:"), colorSection), activeText)

	fmt.Fprintln(w, t.heading(i18n.T("Language Frequency")))
	t.metricTable(w, topEntries(langs, 6), sum(langs), barWidth, langmeta.Label, languageColor)

	fmt.Fprintln(w, t.heading(i18n.T("Command Heavy Hitters")))
	t.metricTable(w, topEntries(cmds, 6), sum(cmds), barWidth,
		func(k string) string { return "git " + k },
		func(string) string { return colorCommand })

	t.favorites(w, u)
	t.signatureMoves(w, u)

	fmt.Fprintln(w)
	fmt.Fprintln(w, t.dim(i18n.T("Tip: Run commands like `git tirar` or `git confirmar` to uncover more trends.")))
}

func (t *theme) favorites(w io.Writer, u state.Usage) {
	fmt.Fprintln(w, t.heading(i18n.T("Localized Favorites")))

	counts := make(map[string]int)
	for key, a := range u.Aliases {
		if a.Language != "" && a.Language != state.DefaultLanguageKey {
			counts[key] = a.Count
		}
	}
	top := topEntries(counts, 6)
	if len(top) == 0 {
		fmt.Fprintln(w, t.dim("  "+i18n.T("Your translated catchphrases will appear here once you try them.")))
		return
	}
	for _, e := range top {
		a := u.Aliases[e.key]
		label := a.Label
		if label == "" {
			label = e.key
		}
		target := "-"
		if a.Command != "" {
			target = "git " + a.Command
		}
		color := languageColor(a.Language)
		fmt.Fprintf(w, "  %s %s ⇢ %s × %s\n",
			t.bold(fmt.Sprintf("%-22s", "git "+label), color),
			t.plain(fmt.Sprintf("%-22s", langmeta.Label(a.Language)), color),
			t.plain(fmt.Sprintf("%-18s", target), colorCommand),
			t.bold(formatCount(a.Count), colorCounter))
	}
}

func (t *theme) signatureMoves(w io.Writer, u state.Usage) {
	var moves []entry
	commandOf := make(map[string]string)
	for code, cmds := range u.LanguageCommandCounts {
		if code == state.DefaultLanguageKey {
			continue
		}
		top := topEntries(cmds, 1)
		if len(top) == 0 {
			continue
		}
		moves = append(moves, entry{code, top[0].count})
		commandOf[code] = top[0].key
	}
	if len(moves) == 0 {
		return
	}
	sort.Slice(moves, func(i, j int) bool {
		if moves[i].count != moves[j].count {
			return moves[i].count > moves[j].count
		}
		return moves[i].key < moves[j].key
	})
	if len(moves) > 4 {
		moves = moves[:4]
	}

	fmt.Fprintln(w, t.heading(i18n.T("Signature Moves")))
	for _, m := range moves {
		fmt.Fprintf(w, "  %s %s %s × %s\n",
			t.bold(langmeta.Label(m.key), languageColor(m.key)),
			i18n.T("leans on"),
			t.bold("git "+commandOf[m.key], colorCommand),
			t.bold(formatCount(m.count), colorCounter))
	}
}

// ---------------------------------------------------------------------------
// Achievements
// ---------------------------------------------------------------------------

func (t *theme) achievementSummary(w io.Writer, a state.Achievements) {
	total := len(achievements.All)
	earned := 0
	for _, def := range achievements.All {
		if _, ok := a.Earned[def.ID]; ok {
			earned++
		}
	}
	remaining := total - earned

	fmt.Fprintln(w, t.banner(i18n.T("Achievement Ledger")))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s %s / %s\n", t.bold(i18n.T("Unlocked wonders:"), colorSection),
		t.bold(formatCount(earned), colorCounter), t.dim(formatCount(total)))
	fmt.Fprintf(w, "  %s %s\n", t.bold(i18n.T("Mysteries remaining:"), colorSection),
		t.bold(formatCount(remaining), colorCounter))
	fmt.Fprintln(w)
	if remaining > 0 {
		fmt.Fprintln(w, t.dim(i18n.T("Keep exploring languages, the secrets stay hidden until you earn them!")))
	} else {
		fmt.Fprintln(w, t.bold(i18n.T("You have unlocked every achievement. A legend in every tongue!"), colorCounter))
	}
}

func (t *theme) achievementShowcase(w io.Writer, a state.Achievements, width int) {
	wrap := max(48, min(width-10, 80))
	describe := func(s lipgloss.Style, def achievements.Achievement) {
		fmt.Fprintln(w, s.Bold(true).Render("  "+def.Emoji+"  "+def.Name))
		body := s.Width(wrap).PaddingLeft(4).Render(def.Description)
		fmt.Fprintln(w, body)
	}

	fmt.Fprintln(w, t.banner(i18n.T("Achievement Showcase")))
	fmt.Fprintln(w)

	var locked []achievements.Achievement
	fmt.Fprintln(w, t.heading(i18n.T("Unlocked Achievements")))
	shown := 0
	for _, def := range achievements.All {
		award, ok := a.Earned[def.ID]
		if !ok {
			locked = append(locked, def)
			continue
		}
		shown++
		describe(t.style(def.Color), def)
		if award.AwardedAt != "" {
			fmt.Fprintln(w, t.dim("    "+i18n.T("Earned on")+" "+award.AwardedAt))
		}
		fmt.Fprintln(w)
	}
	if shown == 0 {
		fmt.Fprintln(w, t.dim("  "+i18n.T("None unlocked yet. Launch a localized command to begin your collection!")))
	}

	fmt.Fprintln(w, t.heading(i18n.T("Locked Achievements")))
	if len(locked) == 0 {
		fmt.Fprintln(w, t.bold("  "+i18n.T("You have unlocked every achievement. Phenomenal!"), colorCounter))
		return
	}
	lockedStyle := t.style(colorLocked).Background(lipgloss.Color(colorLockedB))
	for _, def := range locked {
		describe(lockedStyle, def)
		fmt.Fprintln(w)
	}
}

// ---------------------------------------------------------------------------
// Languages
// ---------------------------------------------------------------------------

// languageDetails prints the tables of each known code and reports
// whether anything was printed.
func languageDetails(w io.Writer, cfg *config.Config, codes []string, width int) bool {
	printed := false
	for _, code := range codes {
		l, ok := cfg.Language(code)
		if !ok {
			continue
		}
		printed = true
		fmt.Fprintln(w, langmeta.Label(l.Code))

		fmt.Fprintln(w, "  "+i18n.T("Commands:"))
		compactTable(w, pairs(l.Commands, "git %s -> git %s"), width, "    ")
		fmt.Fprintln(w, "  "+i18n.T("Flags:"))
		compactTable(w, pairs(l.Flags, "%s -> %s"), width, "    ")
		fmt.Fprintln(w)
	}
	return printed
}

func pairs(m map[string]string, format string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = fmt.Sprintf(format, k, m[k])
	}
	return out
}

func languageList(w io.Writer, cfg *config.Config) {
	active := make(map[string]bool)
	for _, code := range cfg.Active {
		active[code] = true
	}
	fmt.Fprintln(w, i18n.T("Available languages:"))
	for _, code := range cfg.Codes() {
		marker := " "
		if active[code] {
			marker = "*"
		}
		fmt.Fprintf(w, " %s %s\n", marker, langmeta.Label(code))
	}
	if len(active) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, i18n.T("* denotes currently active languages."))
	}
}

func activeLine(codes []string) string {
	list := i18n.T("none")
	if len(codes) > 0 {
		list = strings.Join(codes, ", ")
	}
	return i18n.T("Active languages:") + " " + list
}
