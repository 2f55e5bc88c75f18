package diary

import (
	"context"
	"time"

	"pressurediary/bots/PressureDiary/db"
	"pressurediary/bots/PressureDiary/metrics"
	"pressurediary/bots/PressureDiary/router"

	"github.com/jmhodges/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const defaultDiaryLimit = 10

// Store keeps records of all users
type Store interface {
	Insert(ctx context.Context, usr int64, date, tm string, sys, dia, pulse int) (int64, error)
	FindLatest(ctx context.Context, usr int64) (*db.Record, error)
	FindByDateLatest(ctx context.Context, usr int64, date string) (*db.Record, error)
	FindByID(ctx context.Context, id int64) (*db.Record, error)
	Update(ctx context.Context, id int64, sys, dia, pulse int) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, usr int64, limit int) ([]db.Record, error)
}

// Pins keeps at most one conversation pin per user
type Pins interface {
	SetPin(ctx context.Context, p db.Pin) error
	TakePin(ctx context.Context, usr int64) (*db.Pin, error)
}

// Service is the conversation state machine of the diary. A user is either
// idle or editing a pinned record; the pin lives until the next text
// message of the user, whatever that message is.
//
// Calls for the same user must not overlap, see bot.Dispatcher.
type Service struct {
	Store      Store
	Pins       Pins
	Logger     *zap.SugaredLogger
	Clock      clock.Clock
	Location   *time.Location // the time zone "today" is computed in
	DiaryLimit int            // number of records to show, non-positive means all
	Timeout    time.Duration  // store timeout per handled update, 0 means none
	Metrics    *metrics.Metrics
}

func NewService(s Store, p Pins, l *zap.SugaredLogger) *Service {
	return &Service{
		Store:      s,
		Pins:       p,
		Logger:     l,
		Clock:      clock.New(),
		Location:   time.UTC,
		DiaryLimit: defaultDiaryLimit,
	}
}

// HandleText handles a text message: consumes the pin, if any, routes the
// message and executes the intent.
func (s *Service) HandleText(ctx context.Context, usr int64, txt string) Result {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	pin, err := s.Pins.TakePin(ctx, usr)
	if err != nil {
		s.Logger.Errorw("failed taking pin", "usr", usr, "err", err)
		return s.done(usr, failed(Result{}, StorageError))
	}

	intent := router.Route(txt, pin)
	res := Result{Intent: intent.Kind, Action: intent.Action}

	switch intent.Kind {
	case router.ResolveEdit:
		res = s.resolveEdit(ctx, usr, res, intent)
	case router.Menu:
		res = s.menu(ctx, usr, res)
	case router.BackdatedEntry:
		res = s.backdatedEntry(ctx, usr, res, intent)
	case router.NewEntry:
		res = s.newEntry(ctx, usr, res, intent.Reading)
	default:
		res = failed(res, BadFormat)
	}

	return s.done(usr, res)
}

// HandleAction handles an inline button tap on a listed record
func (s *Service) HandleAction(ctx context.Context, usr int64, data string) Result {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	a, ok := router.ParseAction(data)
	if !ok {
		s.Logger.Warnw("unknown inline action", "usr", usr, "data", data)
		return s.done(usr, failed(Result{}, BadFormat))
	}

	res := Result{Inline: a.Name}
	rec, kind := s.owned(ctx, usr, a.RecordID)
	if kind != None {
		return s.done(usr, failed(res, kind))
	}
	res.Record = rec

	switch a.Name {
	case router.ActionEdit:
		res = s.pin(ctx, usr, res)
	case router.ActionDelete:
		res = s.delete(ctx, usr, res)
	}

	return s.done(usr, res)
}

func (s *Service) newEntry(ctx context.Context, usr int64, res Result, r router.Reading) Result {
	now := s.now()
	date, tm := now.Format(db.DateLayout), now.Format(db.TimeLayout)

	id, err := s.Store.Insert(ctx, usr, date, tm, r.Systolic, r.Diastolic, r.Pulse)
	if err != nil {
		s.Logger.Errorw("failed inserting record", "usr", usr, "err", err)
		return failed(res, StorageError)
	}

	res.Outcome = Created
	res.Record = &db.Record{ID: id, UserID: usr, Date: date, Time: tm, Systolic: r.Systolic, Diastolic: r.Diastolic, Pulse: r.Pulse}
	return res
}

// backdatedEntry upserts by date: the latest record of the date is
// overwritten, a new record is inserted only when the date has none
func (s *Service) backdatedEntry(ctx context.Context, usr int64, res Result, intent router.Intent) Result {
	if _, err := time.Parse(db.DateLayout, intent.Date); err != nil {
		return failed(res, InvalidDate)
	}

	r := intent.Reading
	rec, err := s.Store.FindByDateLatest(ctx, usr, intent.Date)
	if err != nil {
		s.Logger.Errorw("failed fetching record by date", "usr", usr, "date", intent.Date, "err", err)
		return failed(res, StorageError)
	}

	if rec == nil {
		tm := s.now().Format(db.TimeLayout)
		id, err := s.Store.Insert(ctx, usr, intent.Date, tm, r.Systolic, r.Diastolic, r.Pulse)
		if err != nil {
			s.Logger.Errorw("failed inserting record", "usr", usr, "err", err)
			return failed(res, StorageError)
		}

		res.Outcome = Created
		res.Record = &db.Record{ID: id, UserID: usr, Date: intent.Date, Time: tm, Systolic: r.Systolic, Diastolic: r.Diastolic, Pulse: r.Pulse}
		return res
	}

	return s.update(ctx, usr, res, rec.ID, r)
}

// resolveEdit applies the message to the pinned record. The pin is gone
// already, so a malformed message ends the editing.
func (s *Service) resolveEdit(ctx context.Context, usr int64, res Result, intent router.Intent) Result {
	r, ok := router.ParseReading(intent.Text)
	if !ok {
		return failed(res, BadFormat)
	}

	return s.update(ctx, usr, res, intent.RecordID, r)
}

func (s *Service) update(ctx context.Context, usr int64, res Result, id int64, r router.Reading) Result {
	err := s.Store.Update(ctx, id, r.Systolic, r.Diastolic, r.Pulse)
	switch {
	case errors.Is(err, db.ErrNotFound):
		return failed(res, NotFound)
	case err != nil:
		s.Logger.Errorw("failed updating record", "usr", usr, "id", id, "err", err)
		return failed(res, StorageError)
	}

	rec, err := s.Store.FindByID(ctx, id)
	switch {
	case err != nil:
		s.Logger.Errorw("failed fetching updated record", "usr", usr, "id", id, "err", err)
		return failed(res, StorageError)
	case rec == nil:
		return failed(res, NotFound)
	}

	res.Outcome = Updated
	res.Record = rec
	return res
}

func (s *Service) menu(ctx context.Context, usr int64, res Result) Result {
	switch res.Action {
	case router.ShowDiary:
		recs, err := s.Store.List(ctx, usr, s.DiaryLimit)
		if err != nil {
			s.Logger.Errorw("failed listing records", "usr", usr, "err", err)
			return failed(res, StorageError)
		}

		res.Outcome = Listed
		res.Records = recs
		return res

	case router.DeleteLast, router.EditLastPrompt:
		rec, err := s.Store.FindLatest(ctx, usr)
		switch {
		case err != nil:
			s.Logger.Errorw("failed fetching latest record", "usr", usr, "err", err)
			return failed(res, StorageError)
		case rec == nil:
			return failed(res, NotFound)
		}

		res.Record = rec
		if res.Action == router.DeleteLast {
			return s.delete(ctx, usr, res)
		}
		return s.pin(ctx, usr, res)
	}

	res.Outcome = Prompted
	return res
}

func (s *Service) pin(ctx context.Context, usr int64, res Result) Result {
	p := db.Pin{UserID: usr, RecordID: res.Record.ID, Mode: db.PinModeEditing}
	if err := s.Pins.SetPin(ctx, p); err != nil {
		s.Logger.Errorw("failed setting pin", "usr", usr, "id", p.RecordID, "err", err)
		return failed(res, StorageError)
	}

	res.Outcome = Pinned
	return res
}

func (s *Service) delete(ctx context.Context, usr int64, res Result) Result {
	err := s.Store.Delete(ctx, res.Record.ID)
	switch {
	case errors.Is(err, db.ErrNotFound):
		return failed(res, NotFound)
	case err != nil:
		s.Logger.Errorw("failed deleting record", "usr", usr, "id", res.Record.ID, "err", err)
		return failed(res, StorageError)
	}

	res.Outcome = Deleted
	return res
}

// owned fetches the record if it exists and belongs to the user
func (s *Service) owned(ctx context.Context, usr int64, id int64) (*db.Record, ErrorKind) {
	rec, err := s.Store.FindByID(ctx, id)
	switch {
	case err != nil:
		s.Logger.Errorw("failed fetching record", "usr", usr, "id", id, "err", err)
		return nil, StorageError
	case rec == nil || rec.UserID != usr:
		return nil, NotFound
	}

	return rec, None
}

func (s *Service) now() time.Time {
	return s.Clock.Now().In(s.Location)
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.Timeout)
}

func (s *Service) done(usr int64, res Result) Result {
	if s.Metrics != nil {
		s.Metrics.Intent(res.Name())
		if res.Err != None {
			s.Metrics.Error(res.Err.String())
		}
	}

	s.Logger.Debugw("handled update", "usr", usr, "intent", res.Name(), "err", res.Err.String())
	return res
}
