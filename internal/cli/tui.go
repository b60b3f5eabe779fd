package cli

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mapstyle/internal/app"
	"github.com/matzehuels/mapstyle/pkg/errors"
	"github.com/matzehuels/mapstyle/pkg/hover"
	"github.com/matzehuels/mapstyle/pkg/panel"
	"github.com/matzehuels/mapstyle/pkg/scene"
	"github.com/matzehuels/mapstyle/pkg/session"
	"github.com/matzehuels/mapstyle/pkg/source"
	"github.com/matzehuels/mapstyle/pkg/viewport"
	"github.com/matzehuels/mapstyle/pkg/watcher"
)

// Terminal cells stand in for pixels of the scene's viewport.
const (
	cellWidth  = 8
	cellHeight = 16
	chromeRows = 3 // style bar, slider bar, status line
	panStep    = 4 // cells per arrow key
)

// Map styles
var (
	labelStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("16")).Background(colorWhite)
	barActiveStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	barStyle       = lipgloss.NewStyle().Foreground(colorGray)
	cellPalette    = []lipgloss.Style{
		lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("36")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("172")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("141")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("107")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	}
)

// layerGlyphs draws well-known layers; others use their first letter.
var layerGlyphs = map[string]string{
	"water":     "~",
	"buildings": "#",
	"landuse":   ":",
	"earth":     ".",
	"roads":     "=",
	"pois":      "*",
}

type tuiFlags struct {
	sceneFlags
	watch        bool
	view         string
	logFile      string
	noSession    bool
	discardStale bool
}

// tuiCommand creates the interactive terminal map.
func (c *CLI) tuiCommand() *cobra.Command {
	var flags tuiFlags

	cmd := &cobra.Command{
		Use:   "tui [scene]",
		Short: "Explore a scene in the terminal",
		Long: `Explore a scene in the terminal.

Hover a feature to see its name, drag or use the arrow keys to pan, scroll
or press +/- to zoom. Number keys switch styles (0 restores the scene's own
styling), tab selects a slider and [ ] move it. The view and style are
saved on exit and restored next time.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeScene(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), scenePath(args), flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "reload when the scene or its local sources change")
	cmd.Flags().StringVar(&flags.view, "view", "", "start at #zoom/lat/lng or a named location")
	_ = cmd.RegisterFlagCompletionFunc("view", completeView)
	cmd.Flags().StringVar(&flags.logFile, "log-file", "", "write logs here while the map is on screen")
	cmd.Flags().BoolVar(&flags.noSession, "no-session", false, "do not restore or save the view")
	cmd.Flags().BoolVar(&flags.discardStale, "discard-stale", false, "drop hover results superseded by a newer move")
	flags.register(cmd)

	return cmd
}

func runTUI(ctx context.Context, location string, flags tuiFlags) error {
	// The alternate screen owns the terminal, so the app logs elsewhere.
	var logOut io.Writer = io.Discard
	if flags.logFile != "" {
		f, err := os.OpenFile(flags.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := newLogger(logOut, loggerFromContext(ctx).GetLevel())

	opts, err := appOptions(ctx, flags.sceneFlags, app.Options{
		Logger:       logger,
		DiscardStale: flags.discardStale,
	})
	if err != nil {
		return err
	}
	a, err := loadApp(ctx, location, flags.sceneFlags, opts)
	if err != nil {
		return err
	}

	var store session.Store
	if !flags.noSession {
		if store, err = openFileSessions(); err != nil {
			printWarning("Saved views disabled: %v", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	m := newTUIModel(ctx, a, store, logger)
	m.reloader = func(ctx context.Context) (*app.App, error) {
		next, err := app.Load(ctx, location, opts)
		if err != nil {
			return nil, err
		}
		return next, next.Start(ctx)
	}
	if err := m.restore(flags.view); err != nil {
		return err
	}

	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))

	if flags.watch {
		w, err := watchScene(location, a.Scene.Config(), logger, func(path string) {
			prog.Send(sceneChangedMsg{path: path})
		})
		if err != nil {
			return err
		}
		defer w.Close()
		go w.Run(ctx)
	}

	if _, err := prog.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// watchScene watches a local scene file and its local GeoJSON sources.
func watchScene(location string, cfg scene.Config, logger *log.Logger, onChange func(string)) (*watcher.Watcher, error) {
	if strings.Contains(location, "://") {
		return nil, errors.New(errors.ErrCodeUnsupported, "--watch needs a local scene file")
	}
	files := []string{location}
	base := filepath.Dir(location)
	for _, src := range cfg.Sources {
		if !strings.EqualFold(src.Type, source.TypeGeoJSON) || strings.Contains(src.URL, "://") {
			continue
		}
		p := src.URL
		if !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		files = append(files, p)
	}

	w, err := watcher.New(watcher.WithLogger(logger.WithPrefix("watch")))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(files, onChange); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

// =============================================================================
// Model
// =============================================================================

type (
	// hoverMsg carries a finished lookup back to the event loop.
	hoverMsg struct {
		app    *app.App
		result hover.Result
	}
	sceneChangedMsg struct{ path string }
	reloadedMsg     struct {
		app *app.App
		err error
	}
)

// tuiModel is the bubbletea model of the terminal map. Every App call
// happens in Update; lookups run as commands and come back as hoverMsg.
type tuiModel struct {
	ctx      context.Context
	app      *app.App
	store    session.Store
	logger   *log.Logger
	reloader func(context.Context) (*app.App, error)

	width, height int
	dragging      bool
	lastX, lastY  int
	focus         int
	status        string
}

func newTUIModel(ctx context.Context, a *app.App, store session.Store, logger *log.Logger) tuiModel {
	return tuiModel{ctx: ctx, app: a, store: store, logger: logger}
}

// restore positions the map from view, or else from the saved session.
func (m tuiModel) restore(view string) error {
	if view != "" {
		loc, err := parseView(view)
		if err != nil {
			return err
		}
		return m.app.Scene.SetCenter(loc)
	}
	if m.store == nil {
		return nil
	}
	sess, err := session.Lookup(m.ctx, m.store, session.LocalID)
	if err != nil {
		if err != session.ErrNotFound {
			m.logger.Warn("restore session", "err", err)
		}
		return nil
	}
	if err := m.app.Scene.SetCenter(sess.View); err != nil {
		m.logger.Warn("saved view rejected", "view", sess.View.Hash(), "err", err)
	}
	if sess.Style != "" {
		if err := m.app.ApplyStyle(m.ctx, sess.Style); err != nil {
			m.logger.Warn("saved style rejected", "style", sess.Style, "err", err)
		}
	}
	return nil
}

func (m tuiModel) Init() tea.Cmd {
	return nil
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.app.Scene.SetSize(m.width*cellWidth, m.mapRows()*cellHeight)
	case tea.MouseMsg:
		return m.mouse(msg)
	case tea.KeyMsg:
		return m.key(msg)
	case hoverMsg:
		// Results from before a reload belong to the old scene.
		if msg.app == m.app {
			m.app.Hover.Resolve(m.ctx, msg.result)
		}
	case sceneChangedMsg:
		m.status = "reloading " + filepath.Base(msg.path)
		return m, m.reload()
	case reloadedMsg:
		if msg.err != nil {
			m.logger.Warn("reload failed", "err", msg.err)
			m.status = "reload failed: " + errors.UserMessage(msg.err)
			return m, nil
		}
		m.swap(msg.app)
		m.status = "reloaded " + m.app.Scene.Name()
	}
	return m, nil
}

func (m tuiModel) mouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	sc := m.app.Scene
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		sc.Zoom(1)
	case msg.Button == tea.MouseButtonWheelDown:
		sc.Zoom(-1)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.dragging = true
		m.lastX, m.lastY = msg.X, msg.Y
		sc.SetPanning(true)
	case msg.Action == tea.MouseActionRelease:
		if m.dragging {
			m.dragging = false
			sc.SetPanning(false)
			m.saveSession()
		}
	case msg.Action == tea.MouseActionMotion:
		if m.dragging {
			sc.Pan(float64(msg.X-m.lastX)*cellWidth, float64(msg.Y-m.lastY)*cellHeight)
			m.lastX, m.lastY = msg.X, msg.Y
		}
		return m, m.hover(msg.X, msg.Y)
	}
	return m, nil
}

// hover issues a lookup for the cell (x, y). Moves over the chrome below
// the map clear the label.
func (m tuiModel) hover(x, y int) tea.Cmd {
	if y >= m.mapRows() {
		m.app.Hover.Clear(m.ctx)
		return nil
	}
	p := cellPixel(x, y)
	lookup := m.app.Hover.Move(m.ctx, p)
	ctx, a := m.ctx, m.app
	return func() tea.Msg {
		return hoverMsg{app: a, result: lookup(ctx)}
	}
}

func (m tuiModel) key(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sc := m.app.Scene
	switch k := msg.String(); k {
	case "q", "ctrl+c", "esc":
		m.saveSession()
		return m, tea.Quit
	case "0":
		m.applyStyle("")
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		i, _ := strconv.Atoi(k)
		if names := m.app.StyleNames(); i <= len(names) {
			m.applyStyle(names[i-1])
		}
	case "tab":
		m.focus++
	case "shift+tab":
		m.focus--
	case "[", "]", "{", "}":
		steps := map[string]int{"[": -1, "]": 1, "{": -10, "}": 10}[k]
		if c := m.focused(); c != nil {
			c.Nudge(steps)
		}
	case "up":
		sc.Pan(0, panStep*cellHeight)
	case "down":
		sc.Pan(0, -panStep*cellHeight)
	case "left":
		sc.Pan(panStep*cellWidth, 0)
	case "right":
		sc.Pan(-panStep*cellWidth, 0)
	case "+", "=":
		sc.Zoom(1)
	case "-":
		sc.Zoom(-1)
	case "r":
		if m.reloader != nil {
			m.status = "reloading"
			return m, m.reload()
		}
	}
	return m, nil
}

func (m *tuiModel) applyStyle(name string) {
	if err := m.app.ApplyStyle(m.ctx, name); err != nil {
		m.status = errors.UserMessage(err)
		return
	}
	m.focus = 0
	m.status = ""
	m.saveSession()
}

// sliders lists the panel's numeric controllers: the light folder and the
// active style's uniforms.
func (m tuiModel) sliders() []*panel.Controller {
	var out []*panel.Controller
	for _, c := range m.app.Panel.Controllers() {
		if c.Kind() == panel.KindNumber {
			out = append(out, c)
		}
	}
	return out
}

func (m tuiModel) focused() *panel.Controller {
	s := m.sliders()
	if len(s) == 0 {
		return nil
	}
	i := ((m.focus % len(s)) + len(s)) % len(s)
	return s[i]
}

func (m tuiModel) reload() tea.Cmd {
	if m.reloader == nil {
		return nil
	}
	ctx, load := m.ctx, m.reloader
	return func() tea.Msg {
		a, err := load(ctx)
		return reloadedMsg{app: a, err: err}
	}
}

// swap replaces the App after a reload, carrying over the view, the style
// and the light.
func (m *tuiModel) swap(next *app.App) {
	prev := m.app
	view := prev.Scene.View()
	if err := next.Scene.SetCenter(view.Center); err != nil {
		m.logger.Warn("keep view", "err", err)
	}
	next.Scene.SetSize(view.Width, view.Height)
	if st := prev.Styles.Active(); st != "" {
		if err := next.ApplyStyle(m.ctx, st); err != nil {
			m.logger.Warn("keep style", "style", st, "err", err)
		}
	}
	next.Light.Adopt(prev.Light)
	prev.Hover.Clear(m.ctx)
	m.app = next
	m.dragging = false
}

func (m tuiModel) saveSession() {
	if m.store == nil {
		return
	}
	sess := session.NewLocal(m.app.Scene.View().Center, session.DefaultTTL)
	sess.Style = m.app.Styles.Active()
	if err := m.store.Set(m.ctx, sess); err != nil {
		m.logger.Warn("save session", "err", err)
	}
}

func (m tuiModel) mapRows() int {
	return max(1, m.height-chromeRows)
}

// cellPixel is the viewport pixel at the center of cell (x, y).
func cellPixel(x, y int) viewport.Pixel {
	return viewport.Pixel{
		X: (float64(x) + 0.5) * cellWidth,
		Y: (float64(y) + 0.5) * cellHeight,
	}
}

// =============================================================================
// View
// =============================================================================

func (m tuiModel) View() string {
	if m.width == 0 {
		return ""
	}
	rows := m.mapRows()
	grid := m.app.Scene.Raster(m.width, rows)

	cells := make([][]string, len(grid))
	for r, row := range grid {
		cells[r] = make([]string, len(row))
		for c, cell := range row {
			cells[r][c] = renderCell(cell)
		}
	}
	for _, l := range m.app.Overlay.Labels() {
		drawLabel(cells, l)
	}

	var b strings.Builder
	for _, row := range cells {
		b.WriteString(strings.Join(row, ""))
		b.WriteByte('\n')
	}
	b.WriteString(m.styleBar())
	b.WriteByte('\n')
	b.WriteString(m.sliderBar())
	b.WriteByte('\n')
	b.WriteString(m.statusLine())
	return b.String()
}

func renderCell(c scene.Cell) string {
	if c.Layer == "" {
		return " "
	}
	glyph, ok := layerGlyphs[c.Layer]
	if !ok {
		glyph = strings.ToLower(c.Layer[:1])
	}
	h := fnv.New32a()
	h.Write([]byte(c.Style))
	return cellPalette[h.Sum32()%uint32(len(cellPalette))].Render(glyph)
}

// drawLabel writes l over the cells it covers, clipped to the grid.
func drawLabel(cells [][]string, l hover.Label) {
	row := int(l.Pos.Y / cellHeight)
	col := int(l.Pos.X / cellWidth)
	if row < 0 || row >= len(cells) || col < 0 {
		return
	}
	for i, r := range " " + l.Text + " " {
		c := col + i
		if c >= len(cells[row]) {
			break
		}
		cells[row][c] = labelStyle.Render(string(r))
	}
}

func (m tuiModel) styleBar() string {
	active := m.app.Styles.Active()
	item := func(key, name string, on bool) string {
		s := key + " " + name
		if on {
			return barActiveStyle.Render("[" + s + "]")
		}
		return barStyle.Render(" " + s + " ")
	}
	parts := []string{item("0", app.DefaultButton, active == "")}
	for i, name := range m.app.StyleNames() {
		if i >= 9 {
			break
		}
		parts = append(parts, item(strconv.Itoa(i+1), name, name == active))
	}
	parts = append(parts, StyleDim.Render("camera "+m.app.Scene.ActiveCamera()))
	return strings.Join(parts, " ")
}

func (m tuiModel) sliderBar() string {
	focused := m.focused()
	var parts []string
	for _, c := range m.sliders() {
		filled := int(c.Fraction()*8 + 0.5)
		bar := strings.Repeat("█", filled) + strings.Repeat("░", 8-filled)
		s := fmt.Sprintf("%s %s %.2f", c.Path(), bar, c.Display())
		if c == focused {
			parts = append(parts, barActiveStyle.Render("▸"+s))
		} else {
			parts = append(parts, barStyle.Render(" "+s))
		}
	}
	return strings.Join(parts, "  ")
}

func (m tuiModel) statusLine() string {
	parts := []string{StyleValue.Render(m.app.Scene.View().Center.Hash())}
	if m.status != "" {
		parts = append(parts, StyleWarning.Render(m.status))
	}
	if attr := m.app.Scene.Attribution(); attr != "" {
		parts = append(parts, StyleDim.Render(attr))
	}
	parts = append(parts, StyleDim.Render("q quit · 0-9 styles · tab [ ] sliders · arrows pan · +/- zoom"))
	return strings.Join(parts, StyleDim.Render(" │ "))
}
