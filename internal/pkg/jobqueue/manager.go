package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

const (
	BackendRedis = "redis"
	BackendLocal = "local"

	defaultStatsInterval = 5 * time.Minute
)

// Runner is a dispatcher with a worker lifecycle.
type Runner interface {
	Dispatcher
	Register(jobType JobType, maxRetries int, handler Handler)
	Start()
	Stop()
}

// Manager owns the configured queue backend and its background tasks
type Manager struct {
	queue         Runner
	backend       string
	statsInterval time.Duration
	stopCh        chan struct{}
	wg            sync.WaitGroup
	mu            sync.Mutex
	running       bool
}

// NewManager selects the queue backend. The Redis backend requires a client.
func NewManager(backend string, client *redis.Client, workers int) (*Manager, error) {
	var queue Runner
	switch backend {
	case BackendRedis, "":
		if client == nil {
			return nil, errors.New("redis queue backend requires a redis client")
		}
		queue = NewQueue(client, workers)
		backend = BackendRedis
	case BackendLocal:
		queue = NewLocalQueue(workers)
	default:
		return nil, fmt.Errorf("unsupported queue backend %q", backend)
	}
	return &Manager{queue: queue, backend: backend, statsInterval: defaultStatsInterval}, nil
}

// Queue returns the managed dispatcher
func (m *Manager) Queue() Dispatcher {
	return m.queue
}

// Backend returns the name of the active backend
func (m *Manager) Backend() string {
	return m.backend
}

// Register installs a job handler on the managed queue
func (m *Manager) Register(jobType JobType, maxRetries int, handler Handler) {
	m.queue.Register(jobType, maxRetries, handler)
}

// Start starts the job queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Infof("[JobQueue Manager] Starting %s job queue", m.backend)

	m.queue.Start()

	m.wg.Add(1)
	go m.statsWorker(m.stopCh)

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops background tasks, then the queue
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping job queue and background tasks...")
	close(m.stopCh)
	m.running = false
	m.wg.Wait()

	m.queue.Stop()
	log.Info("[JobQueue Manager] Stopped successfully")
}

// statsWorker periodically logs queue depth
func (m *Manager) statsWorker(stopCh <-chan struct{}) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			log.Info("[JobQueue Manager] Stats worker stopping")
			return
		case <-ticker.C:
			m.logStats()
		}
	}
}

func (m *Manager) logStats() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stats, err := m.queue.Stats(ctx)
	if err != nil {
		log.Errorf("[JobQueue Manager] Failed to read queue stats: %v", err)
		return
	}
	log.Infof("[JobQueue Manager] pending=%d processing=%d completed=%d failed=%d",
		stats.Pending, stats.Processing, stats.Counters[JobStatusCompleted], stats.Counters[JobStatusFailed])
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
