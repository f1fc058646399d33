package ui

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/stopwatch"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/thesavant42/nbmfetch/internal/api"
	"github.com/thesavant42/nbmfetch/internal/models"
)

// RunLocator is what the TUI needs from the search layer
type RunLocator interface {
	FindLatest(ctx context.Context, station string, observe api.ProbeObserver) (*models.RunResult, error)
	Fetch(ctx context.Context, url string) ([]byte, error)
	Window() api.SearchWindow
}

// LocatorDeps wires the TUI to the rest of the program
type LocatorDeps struct {
	Locator   RunLocator
	Stations  []string
	OutputDir string
	Station   string // preselected; searched immediately when set
	Logger    *log.Logger
}

type locatorView int

const (
	locatorViewIdle        locatorView = iota // station list
	locatorViewSearching                      // probing the archive
	locatorViewDownloading                    // run found, fetching the CSV
	locatorViewPreview                        // CSV loaded
	locatorViewNotFound                       // window exhausted
	locatorViewError                          // download or parse failure
)

const statusDuration = 5 * time.Second

// Messages
type startSearchMsg struct {
	station string
}

type probeMsg struct {
	id    int
	event api.ProbeEvent
}

type searchDoneMsg struct {
	id  int
	run *models.RunResult
	err error
}

type downloadDoneMsg struct {
	id      int
	data    []byte
	preview *models.Preview
	err     error
}

// search tracks one in-flight search and its download; messages carrying
// another id are stale
type search struct {
	id      int
	station string
	cancel  context.CancelFunc
	events  chan api.ProbeEvent
}

// LocatorModel is the TUI model for finding and previewing the latest run
type LocatorModel struct {
	PageState

	locator   RunLocator
	logger    *log.Logger
	stations  []string
	outputDir string
	autoStart string

	stationTable table.Model
	previewTable table.Model
	spinner      spinner.Model
	stopwatch    stopwatch.Model
	progress     progress.Model

	view     locatorView
	searchID int
	active   *search

	// Search progress
	station   string
	probed    int
	total     int
	cacheHits int
	lastProbe string

	// Results
	run      *models.RunResult
	data     []byte
	preview  *models.Preview
	err      error
	lastRuns map[string]string // station -> run label found this session
}

// NewLocatorModel creates the locator TUI
func NewLocatorModel(deps LocatorDeps) LocatorModel {
	layout := DefaultLayout()

	m := LocatorModel{
		PageState: NewPageState(layout),
		locator:   deps.Locator,
		logger:    deps.Logger,
		stations:  deps.Stations,
		outputDir: deps.OutputDir,
		autoStart: deps.Station,
		spinner:   NewAppSpinner(),
		stopwatch: stopwatch.NewWithInterval(100 * time.Millisecond),
		progress:  progress.New(progress.WithDefaultGradient()),
		view:      locatorViewIdle,
		lastRuns:  make(map[string]string),
	}

	m.stationTable = InitTable(CalculateColumns(StationColumns(), cellBudget(layout.TableWidth, len(StationColumns()))), m.stationRows(), m.stationTableHeight())
	m.previewTable = InitTable(CalculateColumns(PreviewColumns(nil), cellBudget(layout.TableWidth, 1)), nil, layout.TableHeight)

	for i, s := range m.stations {
		if s == deps.Station {
			m.stationTable.SetCursor(i)
		}
	}

	return m
}

// Init implements tea.Model
func (m LocatorModel) Init() tea.Cmd {
	cmds := []tea.Cmd{StandardInit(), m.spinner.Tick}
	if m.autoStart != "" {
		station := m.autoStart
		cmds = append(cmds, func() tea.Msg {
			return startSearchMsg{station: station}
		})
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model
func (m LocatorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.ClearExpiredStatus()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if m.UpdateLayout(msg.Width, msg.Height) {
			m.resizeTables()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case stopwatch.TickMsg, stopwatch.StartStopMsg, stopwatch.ResetMsg:
		var cmd tea.Cmd
		m.stopwatch, cmd = m.stopwatch.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case startSearchMsg:
		return m.startSearch(msg.station)

	case probeMsg:
		if m.active == nil || msg.id != m.active.id {
			return m, nil
		}
		m.probed = msg.event.Index
		m.total = msg.event.Total
		if msg.event.Cached {
			m.cacheHits++
		}
		m.lastProbe = msg.event.Key.String()
		return m, waitForProbe(m.active.id, m.active.events)

	case searchDoneMsg:
		return m.handleSearchDone(msg)

	case downloadDoneMsg:
		return m.handleDownloadDone(msg)

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, nil
}

func (m LocatorModel) handleSearchDone(msg searchDoneMsg) (tea.Model, tea.Cmd) {
	if m.active == nil || msg.id != m.active.id {
		return m, nil
	}

	switch {
	case msg.err == nil:
		m.run = msg.run
		m.lastRuns[msg.run.Station] = msg.run.Label()
		m.stationTable.SetRows(m.stationRows())
		m.view = locatorViewDownloading
		return m, m.download(msg.run)

	case errors.Is(msg.err, api.ErrNotFound):
		// Exhausted: every key was probed, whatever is still buffered
		m.cancelActive()
		m.probed = m.total
		m.view = locatorViewNotFound
		return m, m.stopwatch.Stop()

	default:
		m.cancelActive()
		m.err = msg.err
		m.view = locatorViewError
		return m, m.stopwatch.Stop()
	}
}

func (m LocatorModel) handleDownloadDone(msg downloadDoneMsg) (tea.Model, tea.Cmd) {
	if m.active == nil || msg.id != m.active.id {
		return m, nil
	}
	m.cancelActive()

	if msg.err != nil {
		m.err = msg.err
		m.view = locatorViewError
		return m, m.stopwatch.Stop()
	}

	m.data = msg.data
	m.preview = msg.preview
	m.setPreviewTable()
	m.view = locatorViewPreview
	return m, m.stopwatch.Stop()
}

func (m LocatorModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if quit, cmd := HandleQuitKeys(key); quit {
		m.cancelActive()
		m.Quitting = true
		return m, cmd
	}

	switch m.view {
	case locatorViewIdle:
		if key == "enter" {
			station := m.selectedStation()
			if station == "" {
				return m, nil
			}
			return m.startSearch(station)
		}
		var cmd tea.Cmd
		m.stationTable, cmd = m.stationTable.Update(msg)
		return m, cmd

	case locatorViewSearching, locatorViewDownloading:
		if key == "esc" {
			m.cancelActive()
			m.view = locatorViewIdle
			m.SetStatus(fmt.Sprintf("Search for %s cancelled", m.station), statusDuration)
			return m, m.stopwatch.Stop()
		}

	case locatorViewPreview:
		switch key {
		case "s":
			path, err := SaveCSV(m.outputDir, m.run, m.data)
			if err != nil {
				m.SetStatus(fmt.Sprintf("Save failed: %v", err), statusDuration)
			} else {
				m.SetStatus("Saved "+path, statusDuration)
			}
			return m, nil
		case "o":
			if err := openURL(m.run.URL); err != nil {
				m.SetStatus(fmt.Sprintf("Could not open browser: %v", err), statusDuration)
			}
			return m, nil
		case "r":
			return m.startSearch(m.station)
		case "esc":
			m.view = locatorViewIdle
			return m, nil
		}
		var cmd tea.Cmd
		m.previewTable, cmd = m.previewTable.Update(msg)
		return m, cmd

	case locatorViewNotFound, locatorViewError:
		switch key {
		case "r", "enter":
			return m.startSearch(m.station)
		case "esc":
			m.view = locatorViewIdle
			return m, nil
		}
	}

	return m, nil
}

// startSearch launches a search for station and begins listening for progress
func (m LocatorModel) startSearch(station string) (tea.Model, tea.Cmd) {
	m.cancelActive()

	ctx, cancel := context.WithCancel(context.Background())
	m.searchID++
	m.active = &search{
		id:      m.searchID,
		station: station,
		cancel:  cancel,
		events:  make(chan api.ProbeEvent, 64),
	}

	m.station = station
	m.view = locatorViewSearching
	m.probed = 0
	m.total = m.locator.Window().Size()
	m.cacheHits = 0
	m.lastProbe = ""
	m.run = nil
	m.data = nil
	m.preview = nil
	m.err = nil
	m.StatusMsg = ""

	if m.logger != nil {
		m.logger.Info("Searching", "station", station)
	}

	m.stopwatch = stopwatch.NewWithInterval(100 * time.Millisecond)
	return m, tea.Batch(
		m.stopwatch.Init(),
		runSearch(ctx, m.locator, m.active),
		waitForProbe(m.active.id, m.active.events),
	)
}

// runSearch runs FindLatest, forwarding probe events until the search ends
func runSearch(ctx context.Context, locator RunLocator, s *search) tea.Cmd {
	id, station, events := s.id, s.station, s.events
	return func() tea.Msg {
		defer close(events)
		run, err := locator.FindLatest(ctx, station, func(e api.ProbeEvent) {
			select {
			case events <- e:
			case <-ctx.Done():
			}
		})
		return searchDoneMsg{id: id, run: run, err: err}
	}
}

// waitForProbe delivers the next progress event; nil once the search closed the channel
func waitForProbe(id int, events <-chan api.ProbeEvent) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return nil
		}
		return probeMsg{id: id, event: e}
	}
}

// download fetches and parses the CSV for a located run under the active search
func (m LocatorModel) download(run *models.RunResult) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.active.cancel()
	m.active.cancel = cancel

	id, locator := m.active.id, m.locator
	return func() tea.Msg {
		data, err := locator.Fetch(ctx, run.URL)
		if err != nil {
			return downloadDoneMsg{id: id, err: err}
		}
		preview, err := api.ParsePreview(data, api.PreviewRows)
		if err != nil {
			return downloadDoneMsg{id: id, err: fmt.Errorf("failed to read %s: %w", run.Filename(), err)}
		}
		return downloadDoneMsg{id: id, data: data, preview: preview}
	}
}

func (m *LocatorModel) cancelActive() {
	if m.active != nil {
		m.active.cancel()
		m.active = nil
	}
}

func (m LocatorModel) selectedStation() string {
	i := m.stationTable.Cursor()
	if i < 0 || i >= len(m.stations) {
		return ""
	}
	return m.stations[i]
}

func (m LocatorModel) stationRows() []table.Row {
	rows := make([]table.Row, len(m.stations))
	for i, s := range m.stations {
		latest := "-"
		if label, ok := m.lastRuns[s]; ok {
			latest = label
		}
		rows[i] = table.Row{strconv.Itoa(i + 1), s, latest}
	}
	return rows
}

func (m LocatorModel) stationTableHeight() int {
	return clamp(len(m.stations), 1, m.Layout.TableHeight)
}

func (m *LocatorModel) setPreviewTable() {
	specs := PreviewColumns(m.preview.Header)
	columns := CalculateColumns(specs, cellBudget(m.Layout.TableWidth, len(specs)))
	rows := make([]table.Row, len(m.preview.Rows))
	for i, record := range m.preview.Rows {
		row := make(table.Row, len(columns))
		row[0] = strconv.Itoa(i + 1)
		for j := 1; j < len(columns) && j-1 < len(record); j++ {
			row[j] = record[j-1]
		}
		rows[i] = row
	}

	// Columns must shrink before rows of a different width are set
	m.previewTable.SetRows(nil)
	m.previewTable.SetColumns(columns)
	m.previewTable.SetRows(rows)
	m.previewTable.GotoTop()
}

func (m *LocatorModel) resizeTables() {
	m.stationTable.SetColumns(CalculateColumns(StationColumns(), cellBudget(m.Layout.TableWidth, len(StationColumns()))))
	m.stationTable.SetHeight(m.stationTableHeight())
	m.previewTable.SetHeight(m.Layout.TableHeight)
	if m.preview != nil {
		m.setPreviewTable()
	}
	m.progress.Width = clamp(m.Layout.InnerWidth-4, 40, m.Layout.InnerWidth)
}

// View implements tea.Model
func (m LocatorModel) View() string {
	if m.Quitting {
		return ""
	}

	b := NewPageView(m.Layout).
		Title("NBM Latest Run Locator").
		Divider().
		Spacing(1)

	switch m.view {
	case locatorViewIdle:
		m.renderIdle(b)
	case locatorViewSearching:
		m.renderSearching(b)
	case locatorViewDownloading:
		m.renderFound(b)
		b.Spacing(1).CustomContent(m.spinner.View() + " " + AccentStyle.Render("Downloading CSV...") + "\n")
	case locatorViewPreview:
		m.renderFound(b)
		m.renderPreview(b)
	case locatorViewNotFound:
		b.Accent(fmt.Sprintf("No CSV found for %s in the last %d day(s).", m.station, m.locator.Window().DaysBack))
		b.DimText(fmt.Sprintf("%d locations checked in %s", m.probed, m.stopwatch.View()))
	case locatorViewError:
		if m.run != nil {
			m.renderFound(b)
		}
		b.Error(m.err)
	}

	return b.Status(m.StatusMsg).Help(m.helpText()).Build()
}

func (m LocatorModel) renderIdle(b *PageViewBuilder) {
	w := m.locator.Window()
	b.Text("Select a station to find its newest NBM CSV.").
		Table(m.stationTable).
		Spacing(1).
		Subtitle("Settings").
		Field("Versions", strings.Join(w.Versions, ", ")).
		Field("Days back", strconv.Itoa(w.DaysBack)).
		Field("Cycles", fmt.Sprintf("%d per day, newest first", len(w.Hours)))
}

func (m LocatorModel) renderSearching(b *PageViewBuilder) {
	percent := 0.0
	if m.total > 0 {
		percent = float64(m.probed) / float64(m.total)
	}

	b.CustomContent(m.spinner.View() + " " + AccentStyle.Render(fmt.Sprintf("Searching %s...", m.station)) + "\n\n")
	b.CustomContent(" " + m.progress.ViewAs(percent) + "\n\n")
	b.CustomContent(ProgressStyle.Render(fmt.Sprintf(" Checked: %d / %d  |  Cached: %d", m.probed, m.total, m.cacheHits)) + "\n")
	if m.lastProbe != "" {
		b.DimText(" Last: " + m.lastProbe)
	}
	b.Spacing(1).
		CustomContent(DimStyle.Render(" Elapsed: ") + NormalStyle.Render(m.stopwatch.View()) + "\n")
}

func (m LocatorModel) renderFound(b *PageViewBuilder) {
	b.Success("Found latest: " + m.run.Label()).
		Field("Station", m.run.Station).
		Field("Source", truncate(m.run.URL, m.Layout.InnerWidth-12)).
		Field("File", m.run.Filename())
}

func (m LocatorModel) renderPreview(b *PageViewBuilder) {
	b.Spacing(1).
		Accent(fmt.Sprintf("Rows: %d  Columns: %d", m.preview.RowCount, m.preview.ColumnCount))
	if len(m.preview.Rows) < m.preview.RowCount {
		b.DimText(fmt.Sprintf("Showing first %d rows", len(m.preview.Rows)))
	}
	b.Table(m.previewTable)
}

func (m LocatorModel) helpText() string {
	switch m.view {
	case locatorViewSearching, locatorViewDownloading:
		return "esc: cancel | q: quit"
	case locatorViewPreview:
		return "↑/↓: scroll | s: save CSV | o: open URL | r: search again | esc: back | q: quit"
	case locatorViewNotFound, locatorViewError:
		return "r: search again | esc: back | q: quit"
	default:
		return "↑/↓: navigate | enter: search | q: quit"
	}
}

// openURL opens a URL in the default browser (cross-platform)
func openURL(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default: // linux, freebsd, etc.
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// RunLocatorTUI starts the locator TUI and blocks until the user quits
func RunLocatorTUI(deps LocatorDeps) error {
	p := tea.NewProgram(NewLocatorModel(deps), tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	// Release anything still in flight
	if m, ok := finalModel.(LocatorModel); ok {
		m.cancelActive()
	}
	return nil
}
