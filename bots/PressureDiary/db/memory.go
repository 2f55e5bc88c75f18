package db

import (
	"context"
	"sort"
	"sync"
)

// MemoryPins keeps conversation pins in a map. Pins are lost on restart.
type MemoryPins struct {
	mux  sync.Mutex
	pins map[int64]Pin
}

func NewMemoryPins() *MemoryPins {
	return &MemoryPins{pins: make(map[int64]Pin)}
}

// SetPin stores the pin, silently replacing the previous one of the user
func (mp *MemoryPins) SetPin(_ context.Context, p Pin) error {
	mp.mux.Lock()
	defer mp.mux.Unlock()

	mp.pins[p.UserID] = p
	return nil
}

// TakePin returns the pin of the user and forgets it
func (mp *MemoryPins) TakePin(_ context.Context, usr int64) (*Pin, error) {
	mp.mux.Lock()
	defer mp.mux.Unlock()

	p, ok := mp.pins[usr]
	if !ok {
		return nil, nil
	}

	delete(mp.pins, usr)
	return &p, nil
}

// Memory represents a real database even though this is just a map
type Memory struct {
	*MemoryPins
	mux     sync.Mutex
	lastID  int64
	records map[int64]Record
}

func NewMemory() *Memory {
	return &Memory{
		MemoryPins: NewMemoryPins(),
		records:    make(map[int64]Record),
	}
}

func (m *Memory) Ping(context.Context) error {
	return nil
}

func (m *Memory) Close() {}

func (m *Memory) Insert(_ context.Context, usr int64, date, tm string, sys, dia, pulse int) (int64, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	m.lastID++
	m.records[m.lastID] = Record{
		ID:        m.lastID,
		UserID:    usr,
		Date:      date,
		Time:      tm,
		Systolic:  sys,
		Diastolic: dia,
		Pulse:     pulse,
	}

	return m.lastID, nil
}

func (m *Memory) FindLatest(_ context.Context, usr int64) (*Record, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	recs := m.sorted(func(r *Record) bool { return r.UserID == usr })
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

func (m *Memory) FindByDateLatest(_ context.Context, usr int64, date string) (*Record, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	recs := m.sorted(func(r *Record) bool { return r.UserID == usr && r.Date == date })
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

func (m *Memory) FindByID(_ context.Context, id int64) (*Record, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	r, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *Memory) Update(_ context.Context, id int64, sys, dia, pulse int) error {
	m.mux.Lock()
	defer m.mux.Unlock()

	r, ok := m.records[id]
	if !ok {
		return ErrNotFound
	}

	r.Systolic, r.Diastolic, r.Pulse = sys, dia, pulse
	m.records[id] = r
	return nil
}

func (m *Memory) Delete(_ context.Context, id int64) error {
	m.mux.Lock()
	defer m.mux.Unlock()

	if _, ok := m.records[id]; !ok {
		return ErrNotFound
	}

	delete(m.records, id)
	return nil
}

func (m *Memory) List(_ context.Context, usr int64, limit int) ([]Record, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	recs := m.sorted(func(r *Record) bool { return r.UserID == usr })
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// sorted returns matching records, the latest first. Must be called with the
// mutex held.
func (m *Memory) sorted(match func(*Record) bool) []Record {
	recs := []Record{}
	for _, r := range m.records {
		if match(&r) {
			recs = append(recs, r)
		}
	}

	sort.Slice(recs, func(i, j int) bool {
		return later(&recs[i], &recs[j])
	})
	return recs
}

// later reports whether a goes before b in (date, time, id) descending order
func later(a, b *Record) bool {
	if a.Date != b.Date {
		return a.Date > b.Date
	}
	if a.Time != b.Time {
		return a.Time > b.Time
	}
	return a.ID > b.ID
}
