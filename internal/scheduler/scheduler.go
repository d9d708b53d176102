// Package scheduler runs background work for the language server: queued
// one-off tasks and periodic maintenance such as cache sweeps.
package scheduler

import (
	"errors"
	"sync"
	"time"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("mosaic.scheduler")

// ErrStopped is returned when submitting to a stopped scheduler.
var ErrStopped = errors.New("scheduler stopped")

type Task struct {
	Name    string
	Execute func() error
}

type Scheduler struct {
	taskQueue chan Task
	stopChan  chan struct{}
	done      chan struct{}
	wg        sync.WaitGroup
	periodic  sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

// NewScheduler creates a new Scheduler with the specified queue size and
// starts its worker loop.
func NewScheduler(queueSize int) *Scheduler {
	s := &Scheduler{
		taskQueue: make(chan Task, queueSize),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Scheduler) run() {
	for {
		select {
		case task := <-s.taskQueue:
			s.execute(task)
		case <-s.done:
			return
		}
	}
}

func (s *Scheduler) execute(task Task) {
	defer s.wg.Done()
	log.Debugf("executing %s", task.Name)
	if err := task.Execute(); err != nil {
		log.Warningf("task %s failed: %v", task.Name, err)
	}
}

// Submit queues a task. It blocks while the queue is full, until the
// scheduler stops.
func (s *Scheduler) Submit(task Task) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	s.wg.Add(1)
	s.mu.Unlock()

	select {
	case s.taskQueue <- task:
		return nil
	case <-s.stopChan:
		s.wg.Done()
		return ErrStopped
	}
}

// TrySubmit queues a task unless the queue is full.
func (s *Scheduler) TrySubmit(task Task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.wg.Add(1)
	select {
	case s.taskQueue <- task:
		return true
	default:
		s.wg.Done()
		log.Debugf("skipped %s, queue is full", task.Name)
		return false
	}
}

// Every queues task once per interval until the returned cancel function is
// called or the scheduler stops. A tick is skipped when the queue is full.
func (s *Scheduler) Every(interval time.Duration, task Task) (cancel func()) {
	done := make(chan struct{})
	var once sync.Once
	cancel = func() { once.Do(func() { close(done) }) }

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return cancel
	}
	s.periodic.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.periodic.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.TrySubmit(task)
			case <-done:
				return
			case <-s.stopChan:
				return
			}
		}
	}()
	return cancel
}

// Stop stops periodic tasks, waits for queued tasks to complete and stops
// the worker. Stop is idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stopChan)
	s.mu.Unlock()

	s.periodic.Wait()
	// the worker keeps consuming until every accepted task has run
	s.wg.Wait()
	close(s.done)
	log.Info("scheduler stopped")
}
