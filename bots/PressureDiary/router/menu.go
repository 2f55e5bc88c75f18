package router

import (
	"strconv"
	"strings"
)

type MenuAction int

const (
	NoAction MenuAction = iota
	NewEntryPrompt
	PastEntryPrompt
	ShowDiary
	DeleteLast
	EditLastPrompt
	Start
	Help
)

// Menu labels as they appear on the reply keyboard
const (
	LabelNewEntry  = "📥 New entry"
	LabelPastEntry = "🗓 Past date entry"
	LabelShowDiary = "📃 Show diary"
	LabelDelete    = "🗑 Delete last"
	LabelEdit      = "✏️ Edit last"
	LabelStart     = "/start"
	LabelHelp      = "/help"
)

var menuLabels = map[string]MenuAction{
	LabelNewEntry:  NewEntryPrompt,
	LabelPastEntry: PastEntryPrompt,
	LabelShowDiary: ShowDiary,
	LabelDelete:    DeleteLast,
	LabelEdit:      EditLastPrompt,
	LabelStart:     Start,
	LabelHelp:      Help,
}

var actionNames = map[MenuAction]string{
	NoAction:        "",
	NewEntryPrompt:  "new_entry_prompt",
	PastEntryPrompt: "past_entry_prompt",
	ShowDiary:       "show_diary",
	DeleteLast:      "delete_last",
	EditLastPrompt:  "edit_last_prompt",
	Start:           "start",
	Help:            "help",
}

func (a MenuAction) String() string {
	return actionNames[a]
}

// Inline actions attached to listed records
const (
	ActionEdit   = "edit"
	ActionDelete = "delete"
)

// Action is an inline button tap on a listed record
type Action struct {
	Name     string
	RecordID int64
}

// ActionData builds callback data for an inline button
func ActionData(name string, id int64) string {
	return name + ":" + strconv.FormatInt(id, 10)
}

// ParseAction parses "edit:<id>" and "delete:<id>"
func ParseAction(data string) (Action, bool) {
	name, id, ok := strings.Cut(data, ":")
	if !ok || (name != ActionEdit && name != ActionDelete) {
		return Action{}, false
	}

	if !reDigits.MatchString(id) {
		return Action{}, false
	}

	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return Action{}, false
	}
	return Action{Name: name, RecordID: n}, true
}
