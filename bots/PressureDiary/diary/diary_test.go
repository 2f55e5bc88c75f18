package diary

import (
	"context"
	"testing"
	"time"

	"pressurediary/bots/PressureDiary/db"
	"pressurediary/bots/PressureDiary/metrics"
	"pressurediary/bots/PressureDiary/router"

	"github.com/jmhodges/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const usr = int64(100)

var now = time.Date(2025, 5, 12, 9, 30, 15, 0, time.UTC)

func newService(t *testing.T) (*Service, *db.Memory, clock.FakeClock) {
	t.Helper()

	m := db.NewMemory()
	clk := clock.NewFake()
	clk.Set(now)

	s := NewService(m, m, zap.NewNop().Sugar())
	s.Clock = clk
	s.Metrics = metrics.New()
	return s, m, clk
}

func count(t *testing.T, m *db.Memory, u int64) int {
	t.Helper()

	recs, err := m.List(context.Background(), u, 0)
	require.NoError(t, err)
	return len(recs)
}

func TestHandleText_NewEntry(t *testing.T) {
	s, m, _ := newService(t)
	ctx := context.Background()

	res := s.HandleText(ctx, usr, "120/80 72")
	assert.Equal(t, None, res.Err)
	assert.Equal(t, router.NewEntry, res.Intent)
	assert.Equal(t, Created, res.Outcome)

	rec, err := m.FindByID(ctx, res.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, db.Record{ID: res.Record.ID, UserID: usr, Date: "2025-05-12", Time: "09:30:15", Systolic: 120, Diastolic: 80, Pulse: 72}, *rec)

	res = s.HandleText(ctx, usr, "120/80")
	require.Equal(t, None, res.Err)
	assert.Equal(t, 0, res.Record.Pulse)

	// new entries never collapse
	assert.Equal(t, 2, count(t, m, usr))
}

func TestHandleText_NewEntryUsesTimeZone(t *testing.T) {
	s, m, clk := newService(t)
	loc := time.FixedZone("UTC+3", 3*60*60)
	s.Location = loc
	clk.Set(time.Date(2025, 5, 12, 22, 0, 0, 0, time.UTC))

	res := s.HandleText(context.Background(), usr, "120/80")
	require.Equal(t, None, res.Err)

	rec, _ := m.FindByID(context.Background(), res.Record.ID)
	assert.Equal(t, "2025-05-13", rec.Date)
	assert.Equal(t, "01:00:00", rec.Time)
}

func TestHandleText_Unrecognized(t *testing.T) {
	s, m, _ := newService(t)

	res := s.HandleText(context.Background(), usr, "abc")
	assert.Equal(t, router.Unrecognized, res.Intent)
	assert.Equal(t, BadFormat, res.Err)
	assert.Equal(t, 0, count(t, m, usr))
}

func TestHandleText_BackdatedEntryUpserts(t *testing.T) {
	s, m, _ := newService(t)
	ctx := context.Background()

	res := s.HandleText(ctx, usr, "120/80 72 2025-05-10")
	require.Equal(t, None, res.Err)
	assert.Equal(t, Created, res.Outcome)
	assert.Equal(t, "2025-05-10", res.Record.Date)
	assert.Equal(t, "09:30:15", res.Record.Time)

	res = s.HandleText(ctx, usr, "130/85 70 2025-05-10")
	require.Equal(t, None, res.Err)
	assert.Equal(t, Updated, res.Outcome)

	recs, err := m.List(ctx, usr, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "2025-05-10", recs[0].Date)
	assert.Equal(t, []int{130, 85, 70}, []int{recs[0].Systolic, recs[0].Diastolic, recs[0].Pulse})
}

func TestHandleText_BackdatedEntryUpdatesLatestOfDate(t *testing.T) {
	s, m, clk := newService(t)
	ctx := context.Background()

	// two entries made today, the later one is overwritten
	s.HandleText(ctx, usr, "120/80")
	clk.Add(time.Hour)
	later := s.HandleText(ctx, usr, "121/81")

	res := s.HandleText(ctx, usr, "140/90 80 2025-05-12")
	require.Equal(t, None, res.Err)
	assert.Equal(t, later.Record.ID, res.Record.ID)
	assert.Equal(t, 2, count(t, m, usr))
}

func TestHandleText_InvalidDate(t *testing.T) {
	s, m, _ := newService(t)

	for _, txt := range []string{"120/80 72 yesterday", "120/80 72 2025-02-30", "120/80 72 2025-5-10"} {
		res := s.HandleText(context.Background(), usr, txt)
		assert.Equal(t, router.BackdatedEntry, res.Intent, txt)
		assert.Equal(t, InvalidDate, res.Err, txt)
	}
	assert.Equal(t, 0, count(t, m, usr))
}

func TestEditLast(t *testing.T) {
	s, m, clk := newService(t)
	ctx := context.Background()

	first := s.HandleText(ctx, usr, "120/80 72")
	clk.Add(time.Minute)
	last := s.HandleText(ctx, usr, "125/85 75")

	res := s.HandleText(ctx, usr, router.LabelEdit)
	require.Equal(t, None, res.Err)
	assert.Equal(t, Pinned, res.Outcome)
	assert.Equal(t, last.Record.ID, res.Record.ID)

	res = s.HandleText(ctx, usr, "130/90 80")
	require.Equal(t, None, res.Err)
	assert.Equal(t, router.ResolveEdit, res.Intent)
	assert.Equal(t, Updated, res.Outcome)

	rec, _ := m.FindByID(ctx, last.Record.ID)
	assert.Equal(t, []int{130, 90, 80}, []int{rec.Systolic, rec.Diastolic, rec.Pulse})
	assert.Equal(t, last.Record.Time, rec.Time)

	rec, _ = m.FindByID(ctx, first.Record.ID)
	assert.Equal(t, 120, rec.Systolic)

	// the pin is consumed, the next message is a new entry
	res = s.HandleText(ctx, usr, "110/70")
	assert.Equal(t, router.NewEntry, res.Intent)
	assert.Equal(t, 3, count(t, m, usr))
}

func TestEditLast_BadFormatConsumesPin(t *testing.T) {
	s, m, _ := newService(t)
	ctx := context.Background()

	s.HandleText(ctx, usr, "120/80 72")
	require.Equal(t, Pinned, s.HandleText(ctx, usr, router.LabelEdit).Outcome)

	res := s.HandleText(ctx, usr, "oops")
	assert.Equal(t, router.ResolveEdit, res.Intent)
	assert.Equal(t, BadFormat, res.Err)

	rec, _ := m.FindLatest(ctx, usr)
	assert.Equal(t, 120, rec.Systolic)

	p, err := m.TakePin(ctx, usr)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestEditLast_PinSwallowsMenuLabels(t *testing.T) {
	s, m, _ := newService(t)
	ctx := context.Background()

	s.HandleText(ctx, usr, "120/80 72")
	s.HandleText(ctx, usr, router.LabelEdit)

	res := s.HandleText(ctx, usr, router.LabelShowDiary)
	assert.Equal(t, router.ResolveEdit, res.Intent)
	assert.Equal(t, BadFormat, res.Err)
	assert.Nil(t, res.Records)

	// a back-dated grammar is not accepted while editing either
	s.HandleText(ctx, usr, router.LabelEdit)
	res = s.HandleText(ctx, usr, "130/85 70 2025-05-10")
	assert.Equal(t, router.ResolveEdit, res.Intent)
	assert.Equal(t, BadFormat, res.Err)
	assert.Equal(t, 1, count(t, m, usr))
}

func TestEditLast_NothingToEdit(t *testing.T) {
	s, m, _ := newService(t)
	ctx := context.Background()

	res := s.HandleText(ctx, usr, router.LabelEdit)
	assert.Equal(t, NotFound, res.Err)

	p, _ := m.TakePin(ctx, usr)
	assert.Nil(t, p)
}

func TestResolveEdit_RecordDeletedMeanwhile(t *testing.T) {
	s, _, _ := newService(t)
	ctx := context.Background()

	created := s.HandleText(ctx, usr, "120/80 72")
	s.HandleText(ctx, usr, router.LabelEdit)
	require.Equal(t, Deleted, s.HandleAction(ctx, usr, router.ActionData(router.ActionDelete, created.Record.ID)).Outcome)

	res := s.HandleText(ctx, usr, "130/85")
	assert.Equal(t, router.ResolveEdit, res.Intent)
	assert.Equal(t, NotFound, res.Err)
}

func TestDeleteLast(t *testing.T) {
	s, m, _ := newService(t)
	ctx := context.Background()

	older := s.HandleText(ctx, usr, "120/80 72 2025-01-01")
	s.HandleText(ctx, usr, "125/85 75 2025-01-02")

	res := s.HandleText(ctx, usr, router.LabelDelete)
	require.Equal(t, None, res.Err)
	assert.Equal(t, Deleted, res.Outcome)
	assert.Equal(t, "2025-01-02", res.Record.Date)

	rec, _ := m.FindLatest(ctx, usr)
	assert.Equal(t, older.Record.ID, rec.ID)

	s.HandleText(ctx, usr, router.LabelDelete)
	res = s.HandleText(ctx, usr, router.LabelDelete)
	assert.Equal(t, NotFound, res.Err)
}

func TestShowDiary(t *testing.T) {
	s, _, _ := newService(t)
	ctx := context.Background()
	s.DiaryLimit = 2

	s.HandleText(ctx, usr, "120/80 72 2025-01-01")
	s.HandleText(ctx, usr, "121/80 72 2025-01-03")
	s.HandleText(ctx, usr, "122/80 72 2025-01-02")
	s.HandleText(ctx, usr+1, "150/100")

	res := s.HandleText(ctx, usr, router.LabelShowDiary)
	require.Equal(t, None, res.Err)
	assert.Equal(t, Listed, res.Outcome)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "2025-01-03", res.Records[0].Date)
	assert.Equal(t, "2025-01-02", res.Records[1].Date)
}

func TestPrompts(t *testing.T) {
	s, _, _ := newService(t)

	for label, action := range map[string]router.MenuAction{
		router.LabelNewEntry:  router.NewEntryPrompt,
		router.LabelPastEntry: router.PastEntryPrompt,
		router.LabelStart:     router.Start,
		router.LabelHelp:      router.Help,
	} {
		res := s.HandleText(context.Background(), usr, label)
		assert.Equal(t, router.Menu, res.Intent, label)
		assert.Equal(t, action, res.Action, label)
		assert.Equal(t, Prompted, res.Outcome, label)
		assert.Equal(t, None, res.Err, label)
	}
}

func TestHandleAction_Edit(t *testing.T) {
	s, m, clk := newService(t)
	ctx := context.Background()

	first := s.HandleText(ctx, usr, "120/80 72")
	clk.Add(time.Minute)
	s.HandleText(ctx, usr, "125/85 75")

	res := s.HandleAction(ctx, usr, router.ActionData(router.ActionEdit, first.Record.ID))
	require.Equal(t, None, res.Err)
	assert.Equal(t, Pinned, res.Outcome)
	assert.Equal(t, "inline_edit", res.Name())

	res = s.HandleText(ctx, usr, "100/60 50")
	require.Equal(t, None, res.Err)
	assert.Equal(t, first.Record.ID, res.Record.ID)

	rec, _ := m.FindByID(ctx, first.Record.ID)
	assert.Equal(t, 100, rec.Systolic)
}

func TestHandleAction_NewPinReplacesOld(t *testing.T) {
	s, _, clk := newService(t)
	ctx := context.Background()

	first := s.HandleText(ctx, usr, "120/80 72")
	clk.Add(time.Minute)
	second := s.HandleText(ctx, usr, "125/85 75")

	s.HandleAction(ctx, usr, router.ActionData(router.ActionEdit, first.Record.ID))
	s.HandleAction(ctx, usr, router.ActionData(router.ActionEdit, second.Record.ID))

	res := s.HandleText(ctx, usr, "100/60")
	require.Equal(t, None, res.Err)
	assert.Equal(t, second.Record.ID, res.Record.ID)
}

func TestHandleAction_ForeignOrMissingRecord(t *testing.T) {
	s, m, _ := newService(t)
	ctx := context.Background()

	other := s.HandleText(ctx, usr+1, "120/80 72")

	res := s.HandleAction(ctx, usr, router.ActionData(router.ActionDelete, other.Record.ID))
	assert.Equal(t, NotFound, res.Err)
	assert.Equal(t, 1, count(t, m, usr+1))

	res = s.HandleAction(ctx, usr, router.ActionData(router.ActionEdit, 999))
	assert.Equal(t, NotFound, res.Err)

	res = s.HandleAction(ctx, usr, "rate:1")
	assert.Equal(t, BadFormat, res.Err)
}

func TestHandleAction_DoesNotConsumePin(t *testing.T) {
	s, _, clk := newService(t)
	ctx := context.Background()

	first := s.HandleText(ctx, usr, "120/80 72")
	clk.Add(time.Minute)
	second := s.HandleText(ctx, usr, "125/85 75")

	s.HandleAction(ctx, usr, router.ActionData(router.ActionEdit, second.Record.ID))
	s.HandleAction(ctx, usr, router.ActionData(router.ActionDelete, first.Record.ID))

	res := s.HandleText(ctx, usr, "100/60")
	assert.Equal(t, router.ResolveEdit, res.Intent)
	assert.Equal(t, Updated, res.Outcome)
}

func TestResultName(t *testing.T) {
	assert.Equal(t, "menu_show_diary", (&Result{Intent: router.Menu, Action: router.ShowDiary}).Name())
	assert.Equal(t, "new_entry", (&Result{Intent: router.NewEntry}).Name())
	assert.Equal(t, "inline_delete", (&Result{Inline: router.ActionDelete}).Name())
}
