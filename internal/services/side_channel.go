package services

import (
	"context"
	"github.com/google/uuid"
	"github.com/maxaizer/jobs-finder/internal/logger"
	"github.com/maxaizer/jobs-finder/internal/metrics"
	log "github.com/sirupsen/logrus"
	"sync"
	"time"
)

const sideTaskTimeout = 30 * time.Second

type SideTask func(ctx context.Context) error

type sideTask struct {
	id   string
	name string
	run  SideTask
}

// SideChannel runs best-effort background work on a fixed pool of workers.
// Submitting never blocks: when the queue is full or closed the task is dropped.
// Task outcomes are only logged and counted.
type SideChannel struct {
	tasks   chan sideTask
	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	timeout time.Duration
}

func NewSideChannel(workers, buffer int) *SideChannel {
	if workers < 1 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}

	s := &SideChannel{
		tasks:   make(chan sideTask, buffer),
		timeout: sideTaskTimeout,
	}

	s.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go s.work()
	}
	return s
}

func (s *SideChannel) Submit(name string, task SideTask) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		metrics.SideChannelTasksCounter.WithLabelValues(name, "dropped").Inc()
		return false
	}

	select {
	case s.tasks <- sideTask{id: uuid.NewString(), name: name, run: task}:
		return true
	default:
		log.Warnf("side channel is full, dropping %s task", name)
		metrics.SideChannelTasksCounter.WithLabelValues(name, "dropped").Inc()
		return false
	}
}

// Close stops accepting tasks and waits until the queued ones are finished.
func (s *SideChannel) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.tasks)
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *SideChannel) work() {
	defer s.wg.Done()
	for task := range s.tasks {
		s.run(task)
	}
}

func (s *SideChannel) run(task sideTask) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeSync).
				Errorf("%s task %s panicked: %v", task.name, task.id, r)
			metrics.SideChannelTasksCounter.WithLabelValues(task.name, "failed").Inc()
		}
	}()

	if err := task.run(ctx); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeSync).
			Errorf("%s task %s failed: %v", task.name, task.id, err)
		metrics.SideChannelTasksCounter.WithLabelValues(task.name, "failed").Inc()
		return
	}

	log.Debugf("%s task %s done", task.name, task.id)
	metrics.SideChannelTasksCounter.WithLabelValues(task.name, "ok").Inc()
}
