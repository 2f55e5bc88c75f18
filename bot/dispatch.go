package bot

import "sync"

type queue struct {
	jobs []func()
}

// Dispatcher runs jobs of the same user one at a time in the order they were
// dispatched. Jobs of different users run in parallel. A user's goroutine
// lives while the user has pending jobs.
type Dispatcher struct {
	mu     sync.Mutex
	queues map[int64]*queue
	wg     sync.WaitGroup
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{queues: make(map[int64]*queue)}
}

// Dispatch schedules the job for the user. It never blocks.
func (d *Dispatcher) Dispatch(usr int64, job func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if q, ok := d.queues[usr]; ok {
		q.jobs = append(q.jobs, job)
		return
	}

	q := &queue{jobs: []func(){job}}
	d.queues[usr] = q

	d.wg.Add(1)
	go d.drain(usr, q)
}

func (d *Dispatcher) drain(usr int64, q *queue) {
	defer d.wg.Done()

	for {
		d.mu.Lock()
		if len(q.jobs) == 0 {
			delete(d.queues, usr)
			d.mu.Unlock()
			return
		}

		job := q.jobs[0]
		q.jobs[0] = nil
		q.jobs = q.jobs[1:]
		d.mu.Unlock()

		job()
	}
}

// Wait blocks until all dispatched jobs are done
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
