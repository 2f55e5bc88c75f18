package diary

import (
	"pressurediary/bots/PressureDiary/db"
	"pressurediary/bots/PressureDiary/router"
)

// ErrorKind is a user-visible failure of an operation
type ErrorKind int

const (
	None ErrorKind = iota
	BadFormat
	InvalidDate
	NotFound
	StorageError
)

var errorKindNames = [...]string{"none", "bad_format", "invalid_date", "not_found", "storage_error"}

func (k ErrorKind) String() string {
	if int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return "unknown"
}

// Outcome is what happened to the store
type Outcome int

const (
	NoOutcome Outcome = iota
	Created           // a record was inserted
	Updated           // readings of a record were overwritten
	Deleted           // a record was removed
	Pinned            // a record awaits new values from the next message
	Listed            // records were fetched for display
	Prompted          // nothing changed, the user is asked for input
)

// Result of handling one message or inline action. Every handled update
// produces a Result, failures included.
type Result struct {
	Intent  router.Kind
	Action  router.MenuAction // set for menu intents
	Inline  string            // set for inline actions: router.ActionEdit or router.ActionDelete
	Outcome Outcome
	Err     ErrorKind
	Record  *db.Record  // the affected record
	Records []db.Record // Listed
}

// Name identifies the handled intent in logs and metrics
func (r *Result) Name() string {
	switch {
	case r.Inline != "":
		return "inline_" + r.Inline
	case r.Intent == router.Menu:
		return "menu_" + r.Action.String()
	}
	return r.Intent.String()
}

func failed(res Result, kind ErrorKind) Result {
	res.Err = kind
	res.Outcome = NoOutcome
	return res
}
