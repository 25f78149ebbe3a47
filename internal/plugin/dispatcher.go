package plugin

import (
	"context"
	"log"
	"sync"

	"github.com/ayusman/poivr/internal/trick"
)

// DefaultQueueSize is the number of events a Dispatcher buffers.
const DefaultQueueSize = 64

// Result is the outcome of running one plugin for one event.
type Result struct {
	Plugin   string
	Event    trick.Event
	Response *Response
	Err      error
}

// Dispatcher is a trick.Sink that runs the matching plugins for each event
// on its own goroutine so the frame loop never waits on a plugin. Events
// arriving while the queue is full are dropped.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	session  func() string
	onResult func(Result)

	queue  chan job
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

// job is a queued event with the session it occurred in.
type job struct {
	event   trick.Event
	session string
}

// DispatcherConfig holds the optional settings of a Dispatcher.
type DispatcherConfig struct {
	QueueSize int           // defaults to DefaultQueueSize
	Session   func() string // supplies the session ID when an event is queued
	OnResult  func(Result)  // called after every plugin run
}

// NewDispatcher creates and starts a Dispatcher.
func NewDispatcher(m *Manager, e *Executor, cfg DispatcherConfig) *Dispatcher {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		manager:  m,
		executor: e,
		session:  cfg.Session,
		onResult: cfg.OnResult,
		queue:    make(chan job, queueSize),
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go d.run(ctx)
	return d
}

// OnTrick queues e for the plugins that react to it.
func (d *Dispatcher) OnTrick(e trick.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return
	}

	j := job{event: e}
	if d.session != nil {
		j.session = d.session()
	}

	select {
	case d.queue <- j:
	default:
		log.Printf("Plugin queue full, dropping %s", e)
	}
}

// Close stops accepting events, runs the ones already queued and waits for
// the worker to finish. Plugins still running are cancelled if ctx is done
// first.
func (d *Dispatcher) Close(ctx context.Context) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	select {
	case <-d.done:
	case <-ctx.Done():
		d.cancel()
		<-d.done
	}
	d.cancel()
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)

	for j := range d.queue {
		for _, p := range d.manager.ForTrick(j.event.Kind) {
			d.execute(ctx, p, j)
		}
	}
}

func (d *Dispatcher) execute(ctx context.Context, p *Plugin, j job) {
	e := j.event
	req := &Request{Trick: e, Session: j.session, Config: p.Manifest.Config}

	resp, err := d.executor.Execute(ctx, p, req)
	switch {
	case err != nil:
		log.Printf("Plugin %s failed for %s: %v", p.Manifest.Name, e, err)
	case !resp.Success:
		log.Printf("Plugin %s rejected %s: %s", p.Manifest.Name, e, resp.Error)
	}

	if d.onResult != nil {
		d.onResult(Result{Plugin: p.Manifest.Name, Event: e, Response: resp, Err: err})
	}
}
