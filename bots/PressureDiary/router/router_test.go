package router

import (
	"testing"

	"pressurediary/bots/PressureDiary/db"

	"github.com/stretchr/testify/assert"
)

func TestRoute(t *testing.T) {
	tests := []struct {
		name string
		txt  string
		want Intent
	}{
		{"pressure and pulse", "120/80 72", Intent{Kind: NewEntry, Reading: Reading{120, 80, 72}}},
		{"pressure only", "120/80", Intent{Kind: NewEntry, Reading: Reading{120, 80, 0}}},
		{"extra spaces", "  120/80   72 ", Intent{Kind: NewEntry, Reading: Reading{120, 80, 72}}},
		{"zero values pass", "0/0 0", Intent{Kind: NewEntry, Reading: Reading{0, 0, 0}}},
		{"backdated", "120/80 72 2025-05-10", Intent{Kind: BackdatedEntry, Reading: Reading{120, 80, 72}, Date: "2025-05-10"}},
		{"backdated with bad date", "120/80 72 yesterday", Intent{Kind: BackdatedEntry, Reading: Reading{120, 80, 72}, Date: "yesterday"}},
		{"menu", LabelShowDiary, Intent{Kind: Menu, Action: ShowDiary}},
		{"menu edit", LabelEdit, Intent{Kind: Menu, Action: EditLastPrompt}},
		{"start", "/start", Intent{Kind: Menu, Action: Start}},
		{"text", "abc", Intent{Kind: Unrecognized}},
		{"empty", "", Intent{Kind: Unrecognized}},
		{"no slash", "120 80", Intent{Kind: Unrecognized}},
		{"three numbers in pressure", "120/80/60", Intent{Kind: Unrecognized}},
		{"negative", "-120/80", Intent{Kind: Unrecognized}},
		{"signed pulse", "120/80 +72", Intent{Kind: Unrecognized}},
		{"non-numeric pulse", "120/80 abc", Intent{Kind: Unrecognized}},
		{"non-numeric pulse with date", "120/80 abc 2025-05-10", Intent{Kind: Unrecognized}},
		{"four tokens", "120/80 72 2025-05-10 extra", Intent{Kind: Unrecognized}},
		{"overflow", "99999999999999999999/80", Intent{Kind: Unrecognized}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Route(tt.txt, nil))
		})
	}
}

func TestRoute_PinDominates(t *testing.T) {
	pin := &db.Pin{UserID: 1, RecordID: 7, Mode: db.PinModeEditing}

	for _, txt := range []string{"130/85 70", "120/80 72 2025-05-10", LabelShowDiary, "/start", "abc", ""} {
		assert.Equal(t, Intent{Kind: ResolveEdit, RecordID: 7, Text: txt}, Route(txt, pin), txt)
	}
}

func TestParseReading(t *testing.T) {
	r, ok := ParseReading("130/85 70")
	assert.True(t, ok)
	assert.Equal(t, Reading{130, 85, 70}, r)

	_, ok = ParseReading("130/85 70 2025-05-10")
	assert.False(t, ok)

	_, ok = ParseReading(LabelShowDiary)
	assert.False(t, ok)
}

func TestParseAction(t *testing.T) {
	a, ok := ParseAction(ActionData(ActionEdit, 12))
	assert.True(t, ok)
	assert.Equal(t, Action{Name: ActionEdit, RecordID: 12}, a)

	a, ok = ParseAction("delete:5")
	assert.True(t, ok)
	assert.Equal(t, Action{Name: ActionDelete, RecordID: 5}, a)

	for _, data := range []string{"", "edit", "edit:", "edit:x", "rate:5", "delete:-1", "edit:5:6"} {
		_, ok := ParseAction(data)
		assert.False(t, ok, data)
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "backdated_entry", BackdatedEntry.String())
	assert.Equal(t, "show_diary", ShowDiary.String())
}
