package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/sirupsen/logrus"
)

const (
	defaultServerURL      = "http://127.0.0.1:5000"
	defaultPollSeconds    = 3
	defaultTimeoutSeconds = 10
	diagPaneMaxLines      = 50
)

type appConfig struct {
	serverURL      string
	pollInterval   time.Duration
	requestTimeout time.Duration
	diagLogPath    string
	altScreen      bool
}

// runMode selects the data source for assessments: operator-supplied
// slider values, or service-synthesized daily streams on a timer.
// Exactly one mode is active at any time.
type runMode int

const (
	modeManual runMode = iota
	modeAuto
)

func (m runMode) String() string {
	if m == modeAuto {
		return "auto"
	}
	return "manual"
}

type tabID int

const (
	tabDashboard tabID = iota
	tabDiagnostics
)

// sliderDef describes one bounded manual input and how its live value
// is formatted next to the control.
type sliderDef struct {
	label   string
	min     float64
	max     float64
	step    float64
	initial float64
	format  func(v float64) string
}

// sliderDefs lists the six manual inputs in wire order: screen time,
// night ratio, app diversity, typing variance, sleep irregularity,
// social withdrawal. featureValues relies on this order.
func sliderDefs() []sliderDef {
	return []sliderDef{
		{
			label: "Screen Time",
			min:   0.5, max: 17, step: 0.5, initial: 6.0,
			format: func(v float64) string { return fmt.Sprintf("%.1f h", v) },
		},
		{
			label: "Night Usage",
			min:   0, max: 1, step: 0.05, initial: 0.25,
			format: func(v float64) string { return fmt.Sprintf("%d%%", int(math.Round(v*100))) },
		},
		{
			label: "App Diversity",
			min:   1, max: 30, step: 1, initial: 12,
			format: func(v float64) string { return fmt.Sprintf("%d apps", int(v)) },
		},
		{
			label: "Typing Variance",
			min:   0, max: 300, step: 5, initial: 60,
			format: func(v float64) string { return fmt.Sprintf("%.0f ms", v) },
		},
		{
			label: "Sleep Irregularity",
			min:   0, max: 1, step: 0.05, initial: 0.20,
			format: func(v float64) string { return fmt.Sprintf("%.2f", v) },
		},
		{
			label: "Social Withdrawal",
			min:   0, max: 1, step: 0.05, initial: 0.30,
			format: func(v float64) string { return fmt.Sprintf("%.2f", v) },
		},
	}
}

type keyMap struct {
	Auto       key.Binding
	Manual     key.Binding
	Assess     key.Binding
	Reset      key.Binding
	PrevSlider key.Binding
	NextSlider key.Binding
	Decrease   key.Binding
	Increase   key.Binding
	Tab        key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Auto:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "auto simulation")),
		Manual:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "manual override")),
		Assess:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "assess")),
		Reset:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset session")),
		PrevSlider: key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/↓", "pick input")),
		NextSlider: key.NewBinding(key.WithKeys("down", "j")),
		Decrease:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/→", "adjust input")),
		Increase:   key.NewBinding(key.WithKeys("right", "l")),
		Tab:        key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "diagnostics")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Auto, k.Manual, k.Assess, k.Reset, k.Tab, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Auto, k.Manual, k.Assess, k.Reset},
		{k.PrevSlider, k.Decrease, k.Tab},
		{k.Help, k.Quit},
	}
}

type model struct {
	cfg         appConfig
	client      *analysisClient
	diag        *logrus.Logger
	diagInbound chan tea.Msg

	mode runMode
	// pollGen is the live timer generation. Bumping it orphans every
	// pending tick, which is how a loop is stopped or replaced.
	pollGen     int
	reqSeq      uint64
	lastApplied uint64
	inflight    int

	sliders     []sliderDef
	sliderVals  []float64
	sliderIndex int

	hasResult bool
	result    analysisResult
	bars      []renderedBar
	dayIndex  int
	echo      echoLog

	activeTab  tabID
	statusLine string
	diagLines  []string

	width  int
	height int

	spinner  spinner.Model
	detail   viewport.Model
	diagView viewport.Model
	keys     keyMap
	help     help.Model
	theme    uiTheme
}

type tickMsg struct {
	gen int
}

type analyzeDoneMsg struct {
	seq    uint64
	mode   runMode
	result analysisResult
	err    error
}

type resetDoneMsg struct {
	err error
}

type diagLineMsg struct {
	line string
}

type uiTheme struct {
	root        lipgloss.Style
	header      lipgloss.Style
	tabActive   lipgloss.Style
	tabInactive lipgloss.Style
	panel       lipgloss.Style
	panelTitle  lipgloss.Style
	footer      lipgloss.Style
	status      lipgloss.Style
	muted       lipgloss.Style
	sliderPick  lipgloss.Style
	sliderLabel lipgloss.Style
	sliderValue lipgloss.Style
	barFill     lipgloss.Style
	barEmpty    lipgloss.Style
	echoEntry   lipgloss.Style
	modeBadge   map[string]lipgloss.Style
	risk        map[string]lipgloss.Style
}

func newTheme() uiTheme {
	teal := lipgloss.Color("#2dd4bf")
	sky := lipgloss.Color("#38bdf8")
	amber := lipgloss.Color("#fbbf24")
	rose := lipgloss.Color("#fb7185")
	bg := lipgloss.Color("#0b1220")
	panelBg := lipgloss.Color("#111b2e")
	text := lipgloss.Color("#e2e8f0")
	muted := lipgloss.Color("#7c8db0")

	return uiTheme{
		root: lipgloss.NewStyle().
			Background(bg).
			Foreground(text).
			Padding(0, 1),
		header: lipgloss.NewStyle().
			Background(panelBg).
			Foreground(text).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(sky).
			Padding(0, 1),
		tabActive: lipgloss.NewStyle().
			Background(teal).
			Foreground(lipgloss.Color("#07201c")).
			Bold(true).
			Padding(0, 1),
		tabInactive: lipgloss.NewStyle().
			Background(lipgloss.Color("#1c2a44")).
			Foreground(muted).
			Padding(0, 1),
		panel: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(sky).
			Padding(0, 1),
		panelTitle: lipgloss.NewStyle().
			Foreground(teal).
			Bold(true),
		footer: lipgloss.NewStyle().
			Background(panelBg).
			Foreground(muted).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(teal).
			Padding(0, 1),
		status:      lipgloss.NewStyle().Foreground(sky).Bold(true),
		muted:       lipgloss.NewStyle().Foreground(muted),
		sliderPick:  lipgloss.NewStyle().Foreground(teal).Bold(true),
		sliderLabel: lipgloss.NewStyle().Foreground(sky),
		sliderValue: lipgloss.NewStyle().Foreground(text),
		barFill:     lipgloss.NewStyle().Foreground(sky),
		barEmpty:    lipgloss.NewStyle().Foreground(lipgloss.Color("#26334e")),
		echoEntry:   lipgloss.NewStyle().Foreground(text),
		modeBadge: map[string]lipgloss.Style{
			"manual": lipgloss.NewStyle().
				Foreground(lipgloss.Color("#07201c")).
				Background(teal).
				Bold(true).
				Padding(0, 1),
			"auto": lipgloss.NewStyle().
				Foreground(lipgloss.Color("#2a1604")).
				Background(amber).
				Bold(true).
				Padding(0, 1),
		},
		risk: map[string]lipgloss.Style{
			"text-low":  lipgloss.NewStyle().Foreground(teal).Bold(true),
			"text-mod":  lipgloss.NewStyle().Foreground(amber).Bold(true),
			"text-high": lipgloss.NewStyle().Foreground(rose).Bold(true),
		},
	}
}

func newModel(cfg appConfig, diag *logrus.Logger, diagInbound chan tea.Msg) model {
	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#2dd4bf"))

	detail := viewport.New(0, 0)
	diagView := viewport.New(0, 0)

	defs := sliderDefs()
	vals := make([]float64, len(defs))
	for i, def := range defs {
		vals[i] = def.initial
	}

	return model{
		cfg:         cfg,
		client:      newAnalysisClient(cfg.serverURL),
		diag:        diag,
		diagInbound: diagInbound,
		mode:        modeManual,
		sliders:     defs,
		sliderVals:  vals,
		statusLine:  "manual override ready",
		activeTab:   tabDashboard,
		spinner:     sp,
		detail:      detail,
		diagView:    diagView,
		keys:        defaultKeyMap(),
		help:        help.New(),
		theme:       newTheme(),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitDiag(m.diagInbound))
}

func tickEvery(interval time.Duration, gen int) tea.Cmd {
	if interval <= 0 {
		interval = defaultPollSeconds * time.Second
	}
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

func waitDiag(inbound chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-inbound
	}
}

// setMode is the single mode transition point. Every transition
// retires the current timer generation first, so entering manual
// leaves zero live loops and re-entering auto never doubles them.
func (m *model) setMode(target runMode) tea.Cmd {
	m.pollGen++
	if target == modeManual {
		m.mode = modeManual
		m.statusLine = "manual override ready"
		return nil
	}
	m.mode = modeAuto
	m.statusLine = "auto-simulation running"
	return tea.Batch(m.analyzeCmd(modeAuto), tickEvery(m.cfg.pollInterval, m.pollGen))
}

func (m *model) analyzeCmd(mode runMode) tea.Cmd {
	m.reqSeq++
	m.inflight++
	seq := m.reqSeq
	client := m.client
	timeout := m.cfg.requestTimeout
	var features *featureVector
	if mode == modeManual {
		v := m.featureValues()
		features = &v
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		result, err := client.Analyze(ctx, mode, features)
		return analyzeDoneMsg{seq: seq, mode: mode, result: result, err: err}
	}
}

func (m *model) resetCmd() tea.Cmd {
	client := m.client
	timeout := m.cfg.requestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return resetDoneMsg{err: client.Reset(ctx)}
	}
}

func (m model) featureValues() featureVector {
	v := m.sliderVals
	return featureVector{
		ScreenTime:        v[0],
		NightRatio:        v[1],
		AppDiversity:      v[2],
		TypingVariance:    v[3],
		SleepIrregularity: v[4],
		SocialWithdrawal:  v[5],
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tickMsg:
		if msg.gen != m.pollGen || m.mode != modeAuto {
			break // stale generation, let the old timer die
		}
		// Ticks are not serialized against in-flight requests; the
		// sequence guard resolves any overlap at application time.
		cmds = append(cmds, m.analyzeCmd(modeAuto), tickEvery(m.cfg.pollInterval, msg.gen))
	case analyzeDoneMsg:
		m.handleAnalyzeDone(msg)
	case resetDoneMsg:
		if msg.err != nil {
			m.diag.WithError(msg.err).Warn("reset request failed")
			m.statusLine = "reset failed · see diagnostics"
			break
		}
		// Raise the watermark so responses already in flight cannot
		// resurrect the cleared panel.
		m.lastApplied = m.reqSeq
		m.dayIndex = 0
		m.echo.clear()
		m.hasResult = false
		m.bars = nil
		m.detail.SetContent("")
		m.statusLine = "session reset"
	case diagLineMsg:
		m.appendDiag(msg.line)
		cmds = append(cmds, waitDiag(m.diagInbound))
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
	case tea.KeyMsg:
		return m.handleKey(msg, cmds)
	}
	return m, tea.Batch(cmds...)
}

func (m *model) handleAnalyzeDone(msg analyzeDoneMsg) {
	if m.inflight > 0 {
		m.inflight--
	}
	if msg.err != nil {
		// No retry, no panel mutation: the failure only reaches the
		// diagnostic channel and the loop keeps its cadence.
		m.diag.WithField("mode", msg.mode.String()).WithError(msg.err).Warn("analyze request failed")
		m.statusLine = "analyze failed · see diagnostics"
		return
	}
	if msg.result.Status != "success" {
		return
	}
	if msg.seq <= m.lastApplied {
		m.diag.WithFields(logrus.Fields{
			"seq":     msg.seq,
			"applied": m.lastApplied,
		}).Debug("stale analyze response discarded")
		return
	}
	bars, err := buildBars(msg.result.FeatureData)
	if err != nil {
		m.diag.WithError(err).Warn("analyze response refused")
		return
	}
	m.lastApplied = msg.seq
	m.hasResult = true
	m.result = msg.result
	m.bars = bars
	if msg.mode == modeAuto {
		m.dayIndex = msg.result.DayIndex
		if summary, ok := formatEchoSummary(msg.result.InputEcho); ok {
			m.echo.push(summary)
		}
	}
	m.detail.SetContent(m.renderDetail())
	m.statusLine = "assessment applied · risk " + msg.result.RiskLevel
}

func (m model) handleKey(msg tea.KeyMsg, cmds []tea.Cmd) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Tab):
		if m.activeTab == tabDashboard {
			m.activeTab = tabDiagnostics
		} else {
			m.activeTab = tabDashboard
		}
	case key.Matches(msg, m.keys.Auto):
		cmds = append(cmds, m.setMode(modeAuto))
	case key.Matches(msg, m.keys.Manual):
		cmds = append(cmds, m.setMode(modeManual))
	case key.Matches(msg, m.keys.Reset):
		cmds = append(cmds, m.resetCmd())
	case key.Matches(msg, m.keys.Assess):
		if m.mode == modeManual {
			cmds = append(cmds, m.analyzeCmd(modeManual))
			m.statusLine = "manual assessment requested"
		}
	default:
		if m.activeTab == tabDiagnostics {
			var cmd tea.Cmd
			m.diagView, cmd = m.diagView.Update(msg)
			cmds = append(cmds, cmd)
			break
		}
		switch {
		case key.Matches(msg, m.keys.PrevSlider):
			m.sliderIndex = (m.sliderIndex + len(m.sliders) - 1) % len(m.sliders)
		case key.Matches(msg, m.keys.NextSlider):
			m.sliderIndex = (m.sliderIndex + 1) % len(m.sliders)
		case key.Matches(msg, m.keys.Decrease):
			m.adjustSlider(-1)
		case key.Matches(msg, m.keys.Increase):
			m.adjustSlider(+1)
		}
	}
	return m, tea.Batch(cmds...)
}

func (m *model) adjustSlider(direction float64) {
	def := m.sliders[m.sliderIndex]
	m.sliderVals[m.sliderIndex] = clampFloat(
		m.sliderVals[m.sliderIndex]+direction*def.step,
		def.min,
		def.max,
	)
}

func (m *model) appendDiag(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	m.diagLines = append(m.diagLines, trimmed)
	if len(m.diagLines) > diagPaneMaxLines {
		m.diagLines = m.diagLines[len(m.diagLines)-diagPaneMaxLines:]
	}
	m.diagView.SetContent(strings.Join(m.diagLines, "\n"))
	m.diagView.GotoBottom()
}

func (m *model) resize() {
	contentWidth := maxInt(40, m.width-4)
	contentHeight := maxInt(8, m.height-10)
	rightWidth := contentWidth - m.leftPanelWidth() - 1
	m.detail.Width = maxInt(20, rightWidth-4)
	m.detail.Height = maxInt(4, contentHeight-12)
	m.diagView.Width = maxInt(20, contentWidth-4)
	m.diagView.Height = contentHeight
	m.help.Width = contentWidth
	m.detail.SetContent(m.renderDetail())
}

func (m model) leftPanelWidth() int {
	contentWidth := maxInt(40, m.width-4)
	left := int(float64(contentWidth) * 0.38)
	if left < 34 {
		left = 34
	}
	return left
}

func (m model) renderDetail() string {
	if !m.hasResult {
		return ""
	}
	text := strings.TrimSpace(m.result.Explanation)
	if cf := strings.TrimSpace(m.result.Counterfactual); cf != "" {
		if text != "" {
			text += "\n\n"
		}
		text += cf
	}
	return text
}

func (m model) View() string {
	header := m.renderHeader()
	content := m.renderContent()
	footer := m.renderFooter()
	return m.theme.root.Render(lipgloss.JoinVertical(lipgloss.Left, header, content, footer))
}

func (m model) renderHeader() string {
	tabs := []struct {
		id    tabID
		label string
	}{
		{tabDashboard, "Dashboard"},
		{tabDiagnostics, "Diagnostics"},
	}
	segments := make([]string, 0, len(tabs)+3)
	for _, tab := range tabs {
		style := m.theme.tabInactive
		if tab.id == m.activeTab {
			style = m.theme.tabActive
		}
		segments = append(segments, style.Render(tab.label))
	}
	segments = append(segments, m.theme.modeBadge[m.mode.String()].Render(strings.ToUpper(m.mode.String())))
	if m.mode == modeAuto {
		segments = append(segments, m.theme.status.Render(fmt.Sprintf(" Day %d", m.dayIndex)))
	}
	segments = append(segments, m.theme.muted.Render(" "+m.cfg.serverURL))
	joined := lipgloss.JoinHorizontal(lipgloss.Left, segments...)
	return m.theme.header.Width(maxInt(20, m.width-4)).Render(joined)
}

func (m model) renderContent() string {
	contentWidth := maxInt(40, m.width-4)
	contentHeight := maxInt(8, m.height-10)

	if m.activeTab == tabDiagnostics {
		panel := m.theme.panel.Width(contentWidth).Height(contentHeight)
		return panel.Render(m.theme.panelTitle.Render("Diagnostic Channel") + "\n" + m.diagView.View())
	}

	leftWidth := m.leftPanelWidth()
	rightWidth := contentWidth - leftWidth - 1
	echoHeight := echoLogCapacity + 2
	mainHeight := maxInt(6, contentHeight-echoHeight-2)

	left := m.theme.panel.Width(leftWidth).Height(mainHeight).Render(
		m.theme.panelTitle.Render("Behavioral Inputs") + "\n" + m.renderSliders(leftWidth-4),
	)
	right := m.theme.panel.Width(rightWidth).Height(mainHeight).Render(
		m.theme.panelTitle.Render("Risk Assessment") + "\n" + m.renderResult(rightWidth-4),
	)
	top := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	echo := m.theme.panel.Width(contentWidth).Height(echoHeight).Render(
		m.theme.panelTitle.Render("Synthetic Input Log") + "\n" + m.renderEchoLog(contentWidth-4),
	)
	return lipgloss.JoinVertical(lipgloss.Left, top, echo)
}

func (m model) renderSliders(width int) string {
	var b strings.Builder
	gaugeWidth := clampInt(width-34, 6, 24)
	for i, def := range m.sliders {
		value := m.sliderVals[i]
		marker := "  "
		labelStyle := m.theme.sliderLabel
		if i == m.sliderIndex {
			marker = "> "
			labelStyle = m.theme.sliderPick
		}
		span := def.max - def.min
		pct := 0.0
		if span > 0 {
			pct = (value - def.min) / span * 100
		}
		filled := barCells(pct, gaugeWidth)
		gauge := m.theme.barFill.Render(strings.Repeat("█", filled)) +
			m.theme.barEmpty.Render(strings.Repeat("░", gaugeWidth-filled))
		b.WriteString(fmt.Sprintf(
			"%s%s %s %s\n",
			marker,
			labelStyle.Render(padRight(def.label, 19)),
			gauge,
			m.theme.sliderValue.Render(def.format(value)),
		))
	}
	b.WriteString("\n")
	if m.mode == modeManual {
		b.WriteString(m.theme.muted.Render("enter requests one assessment from these values"))
	} else {
		b.WriteString(m.theme.muted.Render("inputs are synthesized by the service in auto mode"))
	}
	return b.String()
}

func (m model) renderResult(width int) string {
	if !m.hasResult {
		return m.theme.muted.Render(
			"No assessment yet.\n\n" +
				"Press enter for a manual assessment,\n" +
				"or a to start the auto simulation.",
		)
	}
	var b strings.Builder
	riskStyle := m.theme.risk[riskClass(m.result.RiskLevel)]
	b.WriteString("Risk " + riskStyle.Render(m.result.RiskLevel))
	b.WriteString(m.theme.muted.Render(
		fmt.Sprintf("  ·  confidence %s  ·  trend %s", formatConfidence(m.result.Confidence), m.result.Trend),
	))
	b.WriteString("\n\n")
	labelWidth := 0
	for _, bar := range m.bars {
		labelWidth = maxInt(labelWidth, runewidth.StringWidth(bar.label))
	}
	barWidth := clampInt(width-labelWidth-10, 8, 40)
	for _, bar := range m.bars {
		filled := barCells(bar.widthPct, barWidth)
		b.WriteString(fmt.Sprintf(
			"%s %s%s %s\n",
			m.theme.sliderLabel.Render(padRight(bar.label, labelWidth)),
			m.theme.barFill.Render(strings.Repeat("█", filled)),
			m.theme.barEmpty.Render(strings.Repeat("░", barWidth-filled)),
			m.theme.muted.Render(fmt.Sprintf("%.1f%%", bar.importancePct)),
		))
	}
	b.WriteString("\n")
	b.WriteString(m.detail.View())
	return b.String()
}

func (m model) renderEchoLog(width int) string {
	if len(m.echo.entries) == 0 {
		return m.theme.muted.Render("no synthetic inputs received yet")
	}
	lines := make([]string, 0, len(m.echo.entries))
	for i, entry := range m.echo.entries {
		line := fmt.Sprintf("%d· %s", i+1, entry)
		lines = append(lines, m.theme.echoEntry.Render(truncate(line, maxInt(12, width))))
	}
	return strings.Join(lines, "\n")
}

func (m model) renderFooter() string {
	status := m.theme.status.Render(m.statusLine)
	if m.inflight > 0 {
		status = m.spinner.View() + " " + m.theme.muted.Render(fmt.Sprintf("%d in flight · ", m.inflight)) + status
	}
	return m.theme.footer.Width(maxInt(20, m.width-4)).Render(status + "\n" + m.help.View(m.keys))
}

// paneHook forwards every diagnostic entry into the TUI message loop
// so the Diagnostics tab mirrors the log file.
type paneHook struct {
	inbound chan tea.Msg
}

func (h paneHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h paneHook) Fire(entry *logrus.Entry) error {
	line := entry.Time.Format("15:04:05") + " " + strings.ToUpper(entry.Level.String()[:4]) + " " + entry.Message
	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, entry.Data[k]))
		}
		line += " (" + strings.Join(parts, " ") + ")"
	}
	select {
	case h.inbound <- diagLineMsg{line: line}:
	default:
	}
	return nil
}

func newDiagLogger(path string, inbound chan tea.Msg) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetOutput(io.Discard)
	if strings.TrimSpace(path) != "" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open diagnostic log: %w", err)
		}
		logger.SetOutput(file)
	}
	logger.AddHook(paneHook{inbound: inbound})
	return logger, nil
}

func parseFlags() appConfig {
	cfg := appConfig{}
	flag.StringVar(&cfg.serverURL, "server", envOr("PHENO_TUI_SERVER", defaultServerURL), "Analysis service base URL")
	pollSeconds := envOrInt("PHENO_TUI_POLL_INTERVAL", defaultPollSeconds)
	flag.IntVar(&pollSeconds, "poll-interval", pollSeconds, "Auto-simulation tick interval seconds")
	timeoutSeconds := envOrInt("PHENO_TUI_REQUEST_TIMEOUT", defaultTimeoutSeconds)
	flag.IntVar(&timeoutSeconds, "request-timeout", timeoutSeconds, "Per-request timeout seconds")
	flag.StringVar(&cfg.diagLogPath, "diag-log", envOr("PHENO_TUI_DIAG_LOG", ""), "Optional diagnostic log file path")
	flag.BoolVar(&cfg.altScreen, "alt-screen", envOrBool("PHENO_TUI_ALT_SCREEN", true), "Use alternate screen buffer")
	flag.Parse()

	cfg.serverURL = strings.TrimRight(strings.TrimSpace(cfg.serverURL), "/")
	if cfg.serverURL == "" {
		cfg.serverURL = defaultServerURL
	}
	cfg.pollInterval = time.Duration(clampInt(pollSeconds, 1, 60)) * time.Second
	cfg.requestTimeout = time.Duration(clampInt(timeoutSeconds, 1, 120)) * time.Second
	return cfg
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func clampInt(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}

func clampFloat(value, low, high float64) float64 {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padRight(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(text) >= width {
		return runewidth.Truncate(text, width, "")
	}
	return text + strings.Repeat(" ", width-runewidth.StringWidth(text))
}

func truncate(text string, width int) string {
	return runewidth.Truncate(text, width, "…")
}

func main() {
	cfg := parseFlags()
	inbound := make(chan tea.Msg, 64)
	diag, err := newDiagLogger(cfg.diagLogPath, inbound)
	if err != nil {
		fmt.Fprintf(os.Stderr, "phenotype-tui: %v\n", err)
		os.Exit(1)
	}
	opts := []tea.ProgramOption{}
	if cfg.altScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(newModel(cfg, diag, inbound), opts...)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "phenotype-tui fatal error: %v\n", err)
		os.Exit(1)
	}
}
