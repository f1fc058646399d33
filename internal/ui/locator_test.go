package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesavant42/nbmfetch/internal/api"
	"github.com/thesavant42/nbmfetch/internal/models"
)

// fakeLocator answers searches from canned results
type fakeLocator struct {
	run      *models.RunResult
	err      error
	events   int
	data     []byte
	fetchErr error
	window   api.SearchWindow
}

func (f *fakeLocator) FindLatest(ctx context.Context, station string, observe api.ProbeObserver) (*models.RunResult, error) {
	for i := 1; i <= f.events; i++ {
		observe(api.ProbeEvent{
			Key:     models.SearchKey{Station: station, Date: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), Hour: 23 - (i-1)%24, Version: "NBM4.2"},
			Outcome: models.ProbeAbsent,
			Cached:  i == 1,
			Index:   i,
			Total:   f.window.Size(),
		})
	}
	return f.run, f.err
}

func (f *fakeLocator) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f.data, f.fetchErr
}

func (f *fakeLocator) Window() api.SearchWindow {
	return f.window
}

func testRun() *models.RunResult {
	return &models.RunResult{
		URL:     "https://archive.test/2026/10/18/NBM4.1/12/KXMR.csv",
		Station: "KXMR",
		Date:    time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC),
		Hour:    12,
		Version: "NBM4.1",
	}
}

func testCSV(rows int) []byte {
	var sb strings.Builder
	sb.WriteString("validTime,TMP,DPT\n")
	for i := 0; i < rows; i++ {
		sb.WriteString(fmt.Sprintf("2026-10-18T%02d,%d,%d\n", i%24, 50+i, 40+i))
	}
	return []byte(sb.String())
}

func newTestModel(t *testing.T, loc *fakeLocator) LocatorModel {
	t.Helper()
	if loc.window.DaysBack == 0 {
		loc.window = api.SearchWindow{DaysBack: 3, Hours: api.HoursDescending(), Versions: models.Versions}
	}
	return NewLocatorModel(LocatorDeps{
		Locator:   loc,
		Stations:  models.Stations,
		OutputDir: t.TempDir(),
	})
}

func update(t *testing.T, m LocatorModel, msg tea.Msg) (LocatorModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	lm, ok := next.(LocatorModel)
	require.True(t, ok)
	return lm, cmd
}

func viewText(m LocatorModel) string {
	return stripEscapeCodes(m.View())
}

func TestLocatorModelSearchToPreview(t *testing.T) {
	loc := &fakeLocator{run: testRun(), events: 3, data: testCSV(45)}
	m := newTestModel(t, loc)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	require.NotNil(t, m.active)
	assert.Equal(t, locatorViewSearching, m.view)
	assert.Equal(t, "KXMR", m.station)
	assert.Equal(t, 216, m.total)
	assert.Contains(t, viewText(m), "Searching KXMR...")

	done := runSearch(context.Background(), loc, m.active)()
	require.IsType(t, searchDoneMsg{}, done)

	// Progress events were buffered while the search ran
	probe := waitForProbe(m.active.id, m.active.events)()
	require.IsType(t, probeMsg{}, probe)
	m, _ = update(t, m, probe)
	assert.Equal(t, 1, m.probed)
	assert.Equal(t, 1, m.cacheHits)

	m, cmd = update(t, m, done)
	require.NotNil(t, cmd)
	assert.Equal(t, locatorViewDownloading, m.view)
	assert.Contains(t, viewText(m), "Found latest: 2026-10-18 12Z (NBM4.1)")

	m, _ = update(t, m, cmd())
	assert.Equal(t, locatorViewPreview, m.view)
	assert.Nil(t, m.active)
	require.NotNil(t, m.preview)
	assert.Equal(t, 45, m.preview.RowCount)
	assert.Equal(t, 3, m.preview.ColumnCount)
	assert.Len(t, m.previewTable.Rows(), api.PreviewRows)
	assert.Len(t, m.previewTable.Columns(), 4)

	view := viewText(m)
	assert.Contains(t, view, "Rows: 45  Columns: 3")
	assert.Contains(t, view, "KXMR_2026101812_NBM4.1.csv")
	assert.Equal(t, "2026-10-18 12Z (NBM4.1)", m.lastRuns["KXMR"])
}

func TestLocatorModelSave(t *testing.T) {
	loc := &fakeLocator{run: testRun(), data: testCSV(2)}
	m := newTestModel(t, loc)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, cmd := update(t, m, searchDoneMsg{id: m.searchID, run: loc.run})
	m, _ = update(t, m, cmd())
	require.Equal(t, locatorViewPreview, m.view)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})

	path := filepath.Join(m.outputDir, "KXMR_2026101812_NBM4.1.csv")
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, loc.data, got)
	assert.Equal(t, "Saved "+path, m.StatusMsg)
}

func TestLocatorModelNotFound(t *testing.T) {
	m := newTestModel(t, &fakeLocator{})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	err := fmt.Errorf("%w: KXMR in the last 3 day(s)", api.ErrNotFound)
	m, _ = update(t, m, searchDoneMsg{id: m.searchID, err: err})

	assert.Equal(t, locatorViewNotFound, m.view)
	assert.Nil(t, m.active)
	assert.Contains(t, viewText(m), "No CSV found for KXMR in the last 3 day(s).")

	// r searches the same station again
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	assert.NotNil(t, cmd)
	assert.Equal(t, locatorViewSearching, m.view)
	assert.Equal(t, "KXMR", m.station)
}

func TestLocatorModelNotFoundCountsWholeWindow(t *testing.T) {
	loc := &fakeLocator{events: 60, err: api.ErrNotFound}
	m := newTestModel(t, loc)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	done := runSearch(context.Background(), loc, m.active)()

	// Only part of the buffered progress is drained before the result lands
	for i := 0; i < 2; i++ {
		m, _ = update(t, m, waitForProbe(m.active.id, m.active.events)())
	}
	require.Equal(t, 2, m.probed)

	m, _ = update(t, m, done)
	assert.Equal(t, locatorViewNotFound, m.view)
	assert.Equal(t, 216, m.probed)
	assert.Contains(t, viewText(m), "216 locations checked")
}

func TestLocatorModelDownloadError(t *testing.T) {
	statusErr := &api.HTTPStatusError{URL: testRun().URL, StatusCode: 500}
	loc := &fakeLocator{run: testRun(), fetchErr: statusErr}
	m := newTestModel(t, loc)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, cmd := update(t, m, searchDoneMsg{id: m.searchID, run: loc.run})
	m, _ = update(t, m, cmd())

	assert.Equal(t, locatorViewError, m.view)
	assert.ErrorIs(t, m.err, statusErr)
	assert.Contains(t, viewText(m), "archive returned status 500")
}

func TestLocatorModelEscCancelsSearch(t *testing.T) {
	m := newTestModel(t, &fakeLocator{})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	staleID := m.searchID

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, locatorViewIdle, m.view)
	assert.Nil(t, m.active)
	assert.Equal(t, "Search for KXMR cancelled", m.StatusMsg)

	// A late result from the cancelled search is dropped
	m, cmd := update(t, m, searchDoneMsg{id: staleID, run: testRun()})
	assert.Nil(t, cmd)
	assert.Equal(t, locatorViewIdle, m.view)
	assert.Nil(t, m.run)
}

func TestLocatorModelSelectsStation(t *testing.T) {
	m := newTestModel(t, &fakeLocator{})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "X1K", m.station)
}

func TestLocatorModelPreselectedStation(t *testing.T) {
	loc := &fakeLocator{window: api.SearchWindow{DaysBack: 3, Hours: api.HoursDescending(), Versions: models.Versions}}
	m := NewLocatorModel(LocatorDeps{Locator: loc, Stations: models.Stations, Station: "KMLB"})

	assert.Equal(t, "KMLB", m.selectedStation())
	assert.NotNil(t, m.Init())
}

func TestLocatorModelQuit(t *testing.T) {
	m := newTestModel(t, &fakeLocator{})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.True(t, m.Quitting)
	assert.Nil(t, m.active)
	assert.Empty(t, m.View())
}

func TestLocatorModelIdleShowsSettings(t *testing.T) {
	m := newTestModel(t, &fakeLocator{})

	view := viewText(m)
	assert.Contains(t, view, "NBM4.2, NBM4.1, NBM4.0")
	assert.Contains(t, view, "Days back: 3")
	for _, s := range models.Stations {
		assert.Contains(t, view, s)
	}
}
