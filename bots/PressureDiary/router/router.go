// Package router classifies incoming messages of the pressure diary. The
// router is syntactic and stateless: it sees the message text and the pin of
// the sender, and nothing else.
package router

import (
	"regexp"
	"strconv"
	"strings"

	"pressurediary/bots/PressureDiary/db"
)

type Kind int

const (
	Unrecognized Kind = iota
	ResolveEdit
	Menu
	BackdatedEntry
	NewEntry
)

var kindNames = [...]string{"unrecognized", "resolve_edit", "menu", "backdated_entry", "new_entry"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Reading is a blood pressure measurement parsed from a message
type Reading struct {
	Systolic  int
	Diastolic int
	Pulse     int // 0 if not provided
}

// Intent is the classified meaning of a message
type Intent struct {
	Kind     Kind
	Action   MenuAction // Menu
	Reading  Reading    // NewEntry, BackdatedEntry
	Date     string     // BackdatedEntry, not validated
	RecordID int64      // ResolveEdit
	Text     string     // ResolveEdit, the raw message
}

// classifier returns the intent and true if the message is of its kind
type classifier func(txt string, pin *db.Pin) (Intent, bool)

// classifiers are evaluated in order, the first match wins
var classifiers = []classifier{
	pinned,
	menu,
	backdatedEntry,
	newEntry,
}

// Route classifies the message. An existing pin dominates everything else:
// any text, even a menu label, resolves the pinned record.
func Route(txt string, pin *db.Pin) Intent {
	for _, c := range classifiers {
		if intent, ok := c(txt, pin); ok {
			return intent
		}
	}

	return Intent{Kind: Unrecognized}
}

func pinned(txt string, pin *db.Pin) (Intent, bool) {
	if pin == nil {
		return Intent{}, false
	}
	return Intent{Kind: ResolveEdit, RecordID: pin.RecordID, Text: txt}, true
}

func menu(txt string, _ *db.Pin) (Intent, bool) {
	a, ok := menuLabels[strings.TrimSpace(txt)]
	if !ok {
		return Intent{}, false
	}
	return Intent{Kind: Menu, Action: a}, true
}

func backdatedEntry(txt string, _ *db.Pin) (Intent, bool) {
	tokens := strings.Fields(txt)
	if len(tokens) != 3 {
		return Intent{}, false
	}

	r, ok := parseReading(tokens[:2])
	if !ok {
		return Intent{}, false
	}
	return Intent{Kind: BackdatedEntry, Reading: r, Date: tokens[2]}, true
}

func newEntry(txt string, _ *db.Pin) (Intent, bool) {
	r, ok := ParseReading(txt)
	if !ok {
		return Intent{}, false
	}
	return Intent{Kind: NewEntry, Reading: r}, true
}

var (
	rePressure = regexp.MustCompile(`^(\d+)/(\d+)$`)
	reDigits   = regexp.MustCompile(`^\d+$`)
)

// ParseReading parses "S/D" or "S/D P"
func ParseReading(txt string) (Reading, bool) {
	tokens := strings.Fields(txt)
	if len(tokens) < 1 || len(tokens) > 2 {
		return Reading{}, false
	}
	return parseReading(tokens)
}

func parseReading(tokens []string) (Reading, bool) {
	var r Reading

	m := rePressure.FindStringSubmatch(tokens[0])
	if m == nil {
		return r, false
	}

	var err error
	if r.Systolic, err = strconv.Atoi(m[1]); err != nil {
		return r, false
	}
	if r.Diastolic, err = strconv.Atoi(m[2]); err != nil {
		return r, false
	}

	if len(tokens) > 1 {
		if !reDigits.MatchString(tokens[1]) {
			return r, false
		}
		if r.Pulse, err = strconv.Atoi(tokens[1]); err != nil {
			return r, false
		}
	}

	return r, true
}
