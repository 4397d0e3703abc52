package tui

import (
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/shiftclock/internal/clock"
	"github.com/sadopc/shiftclock/internal/entry"
	"github.com/sadopc/shiftclock/internal/profile"
	"github.com/sadopc/shiftclock/internal/store"
	"github.com/sadopc/shiftclock/internal/tracker"
)

const testOwner = "user-1"

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func monday(h, m int) time.Time {
	return time.Date(2024, time.March, 4, h, m, 0, 0, time.Local)
}

type testEnv struct {
	store   *store.Store
	clock   *clock.Manual
	tracker *tracker.Service
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	s := newTestStore(t)
	c := clock.NewManual(monday(9, 0))
	return testEnv{store: s, clock: c, tracker: tracker.NewService(s, c, testOwner, nil)}
}

func newTestApp(t *testing.T, env testEnv) App {
	t.Helper()
	a, err := NewApp(Deps{
		Store:     env.store,
		Tracker:   env.tracker,
		Clock:     env.clock,
		IdlePoll:  time.Second,
		ExportDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	m, cmd := a.Update(msg)
	next, ok := m.(App)
	if !ok {
		t.Fatalf("Update returned %T", m)
	}
	return next, cmd
}

// ============================================================
// Formatting helpers
// ============================================================

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{90 * time.Second, "00:01:30"},
		{7*time.Hour + 30*time.Minute + 5*time.Second, "07:30:05"},
		{-time.Minute, "00:00:00"},
	}
	for _, c := range cases {
		if got := formatDuration(c.d); got != c.want {
			t.Errorf("formatDuration(%v) = %q, want %q", c.d, got, c.want)
		}
	}
}

func TestFormatMinutes(t *testing.T) {
	cases := map[int64]string{
		0:   "0m",
		45:  "45m",
		60:  "1h 00m",
		450: "7h 30m",
		-5:  "0m",
	}
	for in, want := range cases {
		if got := formatMinutes(in); got != want {
			t.Errorf("formatMinutes(%d) = %q, want %q", in, got, want)
		}
	}
	if got := formatHours(450); got != "7.5h" {
		t.Errorf("formatHours(450) = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := truncate("a longer task name", 8); got != "a longe…" {
		t.Errorf("got %q", got)
	}
}

// ============================================================
// Form parsing
// ============================================================

func TestParseSpan(t *testing.T) {
	start, end, err := parseSpan("2024-03-04", "09:00", " 17:30 ")
	if err != nil {
		t.Fatal(err)
	}
	if !start.Equal(monday(9, 0)) || !end.Equal(monday(17, 30)) {
		t.Fatalf("got %v - %v", start, end)
	}

	if _, _, err := parseSpan("2024-03-04", "9am", "17:00"); err == nil {
		t.Fatal("expected error for bad start")
	}
	if _, _, err := parseSpan("04/03/2024", "09:00", "17:00"); err == nil {
		t.Fatal("expected error for bad date")
	}
}

func TestValidators(t *testing.T) {
	if validateDate("2024-03-04") != nil || validateDate("tomorrow") == nil {
		t.Error("validateDate")
	}
	if validateClock("23:59") != nil || validateClock("24:61") == nil {
		t.Error("validateClock")
	}
	if validateRate("0") != nil || validateRate("12.5") != nil || validateRate("-1") == nil || validateRate("x") == nil {
		t.Error("validateRate")
	}
	if validateIdleMinutes("1") != nil || validateIdleMinutes("0") == nil || validateIdleMinutes("1.5") == nil {
		t.Error("validateIdleMinutes")
	}
}

func TestParseProfile(t *testing.T) {
	p, err := parseProfile("42.5", "EUR", "15")
	if err != nil {
		t.Fatal(err)
	}
	if p.HourlyRate != 42.5 || p.Currency != "EUR" || p.IdleMinutes != 15 {
		t.Fatalf("got %+v", p)
	}

	if _, err := parseProfile("10", "XYZ", "5"); err == nil {
		t.Fatal("expected error for unsupported currency")
	}
	if _, err := parseProfile("ten", "USD", "5"); err == nil {
		t.Fatal("expected error for bad rate")
	}
}

// ============================================================
// Timer model
// ============================================================

func TestTimerModel(t *testing.T) {
	var tm timerModel
	if tm.running() || tm.onBreak() || tm.currentElapsed() != 0 {
		t.Fatal("zero timer should be idle")
	}

	e, err := entry.Start(testOwner, entry.StartParams{At: monday(9, 0)})
	if err != nil {
		t.Fatal(err)
	}
	e, err = entry.StartBreak(e, monday(12, 0))
	if err != nil {
		t.Fatal(err)
	}

	tm = timerModel{entry: &e, now: monday(12, 10)}
	if !tm.running() || !tm.onBreak() {
		t.Fatal("timer should be running and on break")
	}
	if got := tm.currentElapsed(); got != 3*time.Hour {
		t.Errorf("elapsed = %v, want 3h", got)
	}
	if got := tm.breakElapsed(); got != 10*time.Minute {
		t.Errorf("break elapsed = %v, want 10m", got)
	}
	if got := tm.startedAgo(); !strings.HasSuffix(got, "ago") {
		t.Errorf("startedAgo = %q", got)
	}
}

// ============================================================
// Feeds
// ============================================================

func TestFeedsDeliverInitialAndChanges(t *testing.T) {
	env := newTestEnv(t)
	f, err := subscribeFeeds(env.store, testOwner)
	if err != nil {
		t.Fatal(err)
	}
	defer f.close()

	msg := f.drain()
	if !msg.hasEntries || !msg.hasProjects || msg.profile == nil {
		t.Fatalf("initial delivery incomplete: %+v", msg)
	}
	if msg.profile.IdleMinutes != profile.DefaultIdleMinutes {
		t.Errorf("profile idle minutes = %d", msg.profile.IdleMinutes)
	}

	if _, err := env.tracker.StartTimer(nil, "Write docs", ""); err != nil {
		t.Fatal(err)
	}
	got, ok := f.wait()().(feedMsg)
	if !ok {
		t.Fatal("expected feedMsg")
	}
	if !got.hasEntries || len(got.entries) != 1 || got.hasProjects {
		t.Fatalf("unexpected change set: %+v", got)
	}
	if f.snap.Running() == nil {
		t.Fatal("snapshot should report the running entry")
	}
}

func TestFeedsCloseStopsWait(t *testing.T) {
	env := newTestEnv(t)
	f, err := subscribeFeeds(env.store, testOwner)
	if err != nil {
		t.Fatal(err)
	}
	f.drain()
	<-f.notify
	f.close()
	f.close()

	if msg := f.wait()(); msg != nil {
		t.Fatalf("wait after close = %v, want nil", msg)
	}
}

// ============================================================
// App
// ============================================================

func TestAppViewBeforeSize(t *testing.T) {
	a := newTestApp(t, newTestEnv(t))
	if a.View() != "Loading..." {
		t.Fatalf("got %q", a.View())
	}
}

func TestAppTabs(t *testing.T) {
	a := newTestApp(t, newTestEnv(t))
	a, _ = update(t, a, tea.WindowSizeMsg{Width: 120, Height: 40})

	view := a.View()
	for _, name := range viewNames {
		if !strings.Contains(view, name) {
			t.Errorf("header missing tab %q", name)
		}
	}
	if !strings.Contains(view, "shiftclock") {
		t.Error("header missing title")
	}

	a, _ = update(t, a, runes("5"))
	if a.activeView != viewCalendar {
		t.Fatalf("active view = %d, want calendar", a.activeView)
	}
	a, _ = update(t, a, runes("6"))
	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyTab})
	if a.activeView != viewDashboard {
		t.Fatalf("tab should wrap to dashboard, got %d", a.activeView)
	}

	for i := range viewNames {
		a.activeView = viewState(i)
		if a.View() == "" {
			t.Errorf("view %s rendered empty", viewNames[i])
		}
	}
}

func TestAppStatusMessage(t *testing.T) {
	a := newTestApp(t, newTestEnv(t))
	a, _ = update(t, a, tea.WindowSizeMsg{Width: 120, Height: 40})
	a, _ = update(t, a, statusMsg{text: "Saved", isError: true})
	if a.status != "Saved" || !a.statusErr {
		t.Fatalf("status = %q err=%v", a.status, a.statusErr)
	}
	if !strings.Contains(a.View(), "Saved") {
		t.Error("footer missing status")
	}
}

func TestAppQuit(t *testing.T) {
	a := newTestApp(t, newTestEnv(t))
	_, cmd := update(t, a, runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
	if msg := a.feeds.wait()(); msg != nil {
		t.Fatal("feeds should be closed after quit")
	}
}

func TestAppClockOutFromDashboard(t *testing.T) {
	env := newTestEnv(t)
	a := newTestApp(t, env)

	if _, err := env.tracker.StartTimer(nil, "Review", ""); err != nil {
		t.Fatal(err)
	}
	a, _ = update(t, a, a.feeds.drain())
	if !a.dashboard.isRunning() {
		t.Fatal("dashboard should show the running timer")
	}

	env.clock.Set(monday(10, 30))
	a, _ = update(t, a, tickMsg(monday(10, 30)))
	if got := a.dashboard.elapsed(); got != 90*time.Minute {
		t.Fatalf("elapsed = %v", got)
	}

	_, cmd := update(t, a, runes("x"))
	if cmd == nil {
		t.Fatal("expected clock-out command")
	}
	msg, ok := cmd().(statusMsg)
	if !ok || msg.isError {
		t.Fatalf("clock out: %+v", msg)
	}

	running, err := env.tracker.Running()
	if err != nil {
		t.Fatal(err)
	}
	if running != nil {
		t.Fatal("no entry should be running after clock out")
	}
}

func TestAppOneWriteInFlight(t *testing.T) {
	env := newTestEnv(t)
	a := newTestApp(t, env)

	if _, err := env.tracker.StartTimer(nil, "Review", ""); err != nil {
		t.Fatal(err)
	}
	a, _ = update(t, a, a.feeds.drain())
	env.clock.Set(monday(11, 0))

	// Break is pressed, then stop before the break has been saved.
	a, breakCmd := update(t, a, runes("b"))
	if breakCmd == nil {
		t.Fatal("expected break command")
	}
	a, stopCmd := update(t, a, runes("x"))
	if stopCmd == nil {
		t.Fatal("expected a status for the refused stop")
	}
	refused, ok := stopCmd().(statusMsg)
	if !ok || refused.text != busyText || refused.settled {
		t.Fatalf("stop while saving: %+v", refused)
	}
	running, err := env.tracker.Running()
	if err != nil || running == nil || running.Status != entry.StatusActive {
		t.Fatalf("refused stop must not write: %+v %v", running, err)
	}

	done, ok := breakCmd().(statusMsg)
	if !ok || done.isError || !done.settled {
		t.Fatalf("break result: %+v", done)
	}
	a, _ = update(t, a, done)
	if a.gate.busy {
		t.Fatal("gate should open once the write settles")
	}
	a, _ = update(t, a, a.feeds.drain())
	if !a.dashboard.isOnBreak() {
		t.Fatal("dashboard should show the break")
	}

	_, stopCmd = update(t, a, runes("x"))
	if msg := stopCmd().(statusMsg); msg.isError || !msg.settled {
		t.Fatalf("clock out: %+v", msg)
	}
	running, err = env.tracker.Running()
	if err != nil || running != nil {
		t.Fatalf("expected no running entry: %+v %v", running, err)
	}
}

func TestAppWriteGateSharedAcrossViews(t *testing.T) {
	env := newTestEnv(t)
	a := newTestApp(t, env)

	started, err := env.tracker.StartTimer(nil, "Review", "")
	if err != nil {
		t.Fatal(err)
	}
	a, _ = update(t, a, a.feeds.drain())

	a, stopCmd := update(t, a, runes("x"))
	if stopCmd == nil {
		t.Fatal("expected clock-out command")
	}

	// Deleting the same entry from the entries view waits for the clock out.
	a, _ = update(t, a, runes("2"))
	a, _ = update(t, a, runes("d"))
	_, delCmd := update(t, a, runes("y"))
	if delCmd == nil {
		t.Fatal("expected a status for the refused delete")
	}
	if msg := delCmd().(statusMsg); msg.text != busyText {
		t.Fatalf("delete while saving: %+v", msg)
	}
	if _, err := env.store.GetEntry(started.ID); err != nil {
		t.Fatalf("entry should still exist: %v", err)
	}

	// A plain status does not open the gate.
	a, _ = update(t, a, statusMsg{text: "Saved"})
	if !a.gate.busy {
		t.Fatal("only a settled write opens the gate")
	}
	a, _ = update(t, a, stopCmd())
	if a.gate.busy {
		t.Fatal("gate should be open after clock out settles")
	}
}

func TestAppIdlePrompt(t *testing.T) {
	env := newTestEnv(t)
	a := newTestApp(t, env)

	if _, err := env.tracker.StartTimer(nil, "Deep work", ""); err != nil {
		t.Fatal(err)
	}
	a, _ = update(t, a, a.feeds.drain())
	a.activeView = viewReports

	env.clock.Advance(2 * time.Minute)
	a, _ = update(t, a, idleTickMsg(env.clock.Now()))
	if a.dashboard.idlePrompt {
		t.Fatal("prompt raised before the threshold")
	}

	env.clock.Advance(time.Duration(profile.DefaultIdleMinutes) * time.Minute)
	a, cmd := update(t, a, idleTickMsg(env.clock.Now()))
	if cmd == nil {
		t.Fatal("idle tick should reschedule itself")
	}
	if !a.dashboard.idlePrompt {
		t.Fatal("expected idle prompt")
	}
	if a.activeView != viewDashboard {
		t.Fatal("idle prompt should bring the dashboard forward")
	}
	if !a.dashboard.idleSince.Equal(monday(9, 0)) {
		t.Errorf("idle since = %v", a.dashboard.idleSince)
	}

	// One signal per idle period.
	a.dashboard.idlePrompt = false
	env.clock.Advance(time.Minute)
	a, _ = update(t, a, idleTickMsg(env.clock.Now()))
	if a.dashboard.idlePrompt {
		t.Fatal("second signal in the same idle period")
	}

	// A key press starts a new period.
	a, _ = update(t, a, runes("?"))
	env.clock.Advance(time.Duration(profile.DefaultIdleMinutes) * time.Minute)
	a, _ = update(t, a, idleTickMsg(env.clock.Now()))
	if !a.dashboard.idlePrompt {
		t.Fatal("expected a fresh idle prompt after activity")
	}
}

func TestAppIdleIgnoredOnBreak(t *testing.T) {
	env := newTestEnv(t)
	a := newTestApp(t, env)

	e, err := env.tracker.StartTimer(nil, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.tracker.StartBreak(e.ID); err != nil {
		t.Fatal(err)
	}
	a, _ = update(t, a, a.feeds.drain())
	if a.monitor.Bound() != "" {
		t.Fatal("monitor should not be bound while on break")
	}

	env.clock.Advance(time.Hour)
	a, _ = update(t, a, idleTickMsg(env.clock.Now()))
	if a.dashboard.idlePrompt {
		t.Fatal("no idle prompt while on break")
	}
}

func TestAppProfileSetsThreshold(t *testing.T) {
	env := newTestEnv(t)
	a := newTestApp(t, env)

	if err := env.store.SaveProfile(testOwner, profile.Profile{HourlyRate: 50, Currency: "GBP", IdleMinutes: 20}); err != nil {
		t.Fatal(err)
	}
	a, _ = update(t, a, a.feeds.drain())
	if got := a.monitor.Threshold(); got != 20*time.Minute {
		t.Fatalf("threshold = %v", got)
	}
	if a.data.profile.Currency != "GBP" {
		t.Fatalf("profile not applied: %+v", a.data.profile)
	}
}

// ============================================================
// Export
// ============================================================

func TestAppExport(t *testing.T) {
	env := newTestEnv(t)
	a := newTestApp(t, env)

	if _, err := env.tracker.ManualLog(entry.ManualParams{
		Task:  "Planning",
		Start: monday(9, 0),
		End:   monday(17, 0),
	}); err != nil {
		t.Fatal(err)
	}
	a, _ = update(t, a, a.feeds.drain())

	for format, ext := range []string{".csv", ".json"} {
		msg, ok := a.doExport(format)().(exportDoneMsg)
		if !ok {
			t.Fatalf("format %d: expected exportDoneMsg", format)
		}
		if !strings.HasSuffix(msg.path, ext) {
			t.Errorf("path = %q", msg.path)
		}
		data, err := os.ReadFile(msg.path)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "Planning") {
			t.Errorf("%s export missing task", ext)
		}
	}
}

func TestAppExportEmpty(t *testing.T) {
	a := newTestApp(t, newTestEnv(t))
	msg, ok := a.doExport(0)().(statusMsg)
	if !ok || !msg.isError {
		t.Fatalf("expected error status, got %+v", msg)
	}
}

func TestAppExportPicker(t *testing.T) {
	a := newTestApp(t, newTestEnv(t))
	a, _ = update(t, a, tea.WindowSizeMsg{Width: 100, Height: 30})
	a, _ = update(t, a, runes("E"))
	if !a.exportPicking {
		t.Fatal("picker should open")
	}
	if !strings.Contains(a.View(), "Export Format") {
		t.Error("picker not rendered")
	}
	a, _ = update(t, a, runes("j"))
	if a.exportCursor != 1 {
		t.Fatalf("cursor = %d", a.exportCursor)
	}
	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	if a.exportPicking {
		t.Fatal("esc should close the picker")
	}
}

// ============================================================
// Keys & styles
// ============================================================

func TestKeyMapHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Error("short help empty")
	}
	if len(keys.FullHelp()) == 0 {
		t.Error("full help empty")
	}
}

func TestStylesRender(t *testing.T) {
	for _, s := range []string{
		panelStyle.Render("x"),
		idlePanelStyle.Render("x"),
		calendarHeaderStyle.Render("Mon"),
		calendarCellStyle.Render("4"),
	} {
		if s == "" {
			t.Error("style rendered empty")
		}
	}
}
