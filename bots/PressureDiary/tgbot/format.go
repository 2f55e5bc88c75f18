package tgbot

import (
	"fmt"
	"strings"

	"pressurediary/bots/PressureDiary/db"
	"pressurediary/bots/PressureDiary/diary"
	"pressurediary/bots/PressureDiary/router"
)

const (
	txtWelcome = "👋 I keep your blood pressure diary. Send me a reading like 120/80 72 or choose an action below"
	txtHelp    = `Send a reading as SYS/DIA PULSE, e.g. 120/80 72. Pulse is optional.
To record another day add the date: 120/80 72 2025-05-10. A second reading for the same past day replaces the first one.

` + router.LabelNewEntry + ` - add a reading for today
` + router.LabelPastEntry + ` - add a reading for another day
` + router.LabelShowDiary + ` - list the latest readings
` + router.LabelEdit + ` - change the latest reading
` + router.LabelDelete + ` - delete the latest reading`
	txtEnterReading     = "Enter the reading as SYS/DIA PULSE (e.g. 120/80 72)"
	txtEnterPastReading = "Enter the reading and the date as SYS/DIA PULSE YYYY-MM-DD (e.g. 120/80 72 2025-05-10)"
	txtNoEntries        = "📭 You don't have any entries yet"
	txtBadFormat        = "⚠️ I couldn't read that. Make sure you use the format SYS/DIA PULSE, e.g. 120/80 72"
	txtBadEditFormat    = "⚠️ I couldn't read that, the entry is left unchanged. Choose " + router.LabelEdit + " to try again"
	txtInvalidDate      = "⚠️ That doesn't look like a date. Use YYYY-MM-DD, e.g. 2025-05-10"
	txtNotFound         = "🤷 There's no such entry"
	txtNothingToChange  = "📭 There's nothing to change yet"
	txtStorageError     = "Something went wrong, please try again later"
	txtTextExpected     = "I understand text messages only. " + txtEnterReading

	fmtSaved      = "✅ Saved: %s"
	fmtUpdated    = "✏️ Updated: %s"
	fmtDeleted    = "🗑 Deleted: %s"
	fmtEditPrompt = "Send new values for %s as SYS/DIA PULSE"
	fmtRecord     = "%s %s - %d/%d"
	fmtPulse      = ", pulse %d"
)

// reply is a text message with an optional keyboard
type reply struct {
	text     string
	keyboard any
}

// render turns the result into replies. Every result renders to at least one
// reply.
func render(res diary.Result) []reply {
	switch res.Err {
	case diary.None:
	case diary.BadFormat:
		if res.Intent == router.ResolveEdit {
			return []reply{{text: txtBadEditFormat}}
		}
		return []reply{{text: txtBadFormat}}
	case diary.InvalidDate:
		return []reply{{text: txtInvalidDate}}
	case diary.NotFound:
		if res.Intent == router.Menu {
			return []reply{{text: txtNothingToChange}}
		}
		return []reply{{text: txtNotFound}}
	default:
		return []reply{{text: txtStorageError}}
	}

	switch res.Outcome {
	case diary.Created:
		return []reply{{text: fmt.Sprintf(fmtSaved, formatRecord(res.Record))}}
	case diary.Updated:
		return []reply{{text: fmt.Sprintf(fmtUpdated, formatRecord(res.Record))}}
	case diary.Deleted:
		return []reply{{text: fmt.Sprintf(fmtDeleted, formatRecord(res.Record))}}
	case diary.Pinned:
		return []reply{{text: fmt.Sprintf(fmtEditPrompt, formatRecord(res.Record))}}
	case diary.Listed:
		return renderDiary(res.Records)
	}

	switch res.Action {
	case router.Start:
		return []reply{{text: txtWelcome, keyboard: mainKeyboard}}
	case router.Help:
		return []reply{{text: txtHelp, keyboard: mainKeyboard}}
	case router.PastEntryPrompt:
		return []reply{{text: txtEnterPastReading}}
	}
	return []reply{{text: txtEnterReading}}
}

// renderDiary sends each record in its own message with edit and delete
// buttons
func renderDiary(recs []db.Record) []reply {
	if len(recs) == 0 {
		return []reply{{text: txtNoEntries}}
	}

	replies := make([]reply, 0, len(recs))
	for i := range recs {
		replies = append(replies, reply{
			text:     formatRecord(&recs[i]),
			keyboard: recordKeyboard(recs[i].ID),
		})
	}
	return replies
}

// formatRecord formats the record as "2025-05-10 09:30 - 120/80, pulse 72"
func formatRecord(r *db.Record) string {
	if r == nil {
		return ""
	}

	tm := r.Time
	if len(tm) > 5 {
		tm = tm[:5]
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(fmtRecord, r.Date, tm, r.Systolic, r.Diastolic))
	if r.Pulse > 0 {
		sb.WriteString(fmt.Sprintf(fmtPulse, r.Pulse))
	}
	return sb.String()
}
