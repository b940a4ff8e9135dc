// Package monitor periodically samples the session registry into a status
// file, the log and playback telemetry.
package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/gridironlab/playbook/internal/influx"
	"github.com/gridironlab/playbook/internal/session"
)

// DefaultInterval is the sampling period used when none is configured
const DefaultInterval = time.Second

// StatsSource reports registry statistics
type StatsSource interface {
	Stats() session.Stats
}

// PointRecorder buffers telemetry points
type PointRecorder interface {
	Record(*influxdb2_write.Point)
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Registry   StatsSource
	Logger     *slog.Logger
	Telemetry  PointRecorder // optional
	StatusPath string        // optional status file rewritten on every sample
	Interval   time.Duration
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	last      influx.RegistrySample
	mu        sync.RWMutex
	stopChan  chan struct{}
	doneChan  chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{
		deps: deps,
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Last returns the most recent sample
func (s *Service) Last() influx.RegistrySample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Sample takes one registry snapshot, records it and returns its status text.
func (s *Service) Sample(now time.Time) (influx.RegistrySample, string) {
	st := s.deps.Registry.Stats()
	sample := influx.RegistrySample{
		Sessions: st.Sessions,
		Playing:  st.Playing,
		Dropped:  st.Dropped,
		Time:     now,
	}

	s.mu.Lock()
	s.last = sample
	s.mu.Unlock()

	if s.deps.Telemetry != nil {
		s.deps.Telemetry.Record(influx.RegistryPoint(sample))
	}

	status, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		status = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
	}
	return sample, string(status)
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.doneChan = make(chan struct{})
	stop, done := s.stopChan, s.doneChan
	s.mu.Unlock()

	var statusFile *os.File
	if s.deps.StatusPath != "" {
		f, err := os.Create(s.deps.StatusPath)
		if err != nil {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
			return fmt.Errorf("error creating status file: %w", err)
		}
		statusFile = f
	}

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()
		if statusFile != nil {
			defer statusFile.Close()
		}

		logger := s.deps.Logger
		logger.Debug("Starting status monitor", "interval", s.deps.Interval)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		var lastSessions = -1
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				sample, status := s.Sample(now)

				if statusFile != nil {
					_ = statusFile.Truncate(0)
					_, _ = statusFile.Seek(0, 0)
					_, _ = statusFile.WriteString(status + "\n")
				}
				if sample.Sessions != lastSessions {
					logger.Info("Session count changed", "sessions", sample.Sessions, "playing", sample.Playing)
					lastSessions = sample.Sessions
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for it to exit
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning || s.stopChan == nil {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	s.stopChan = nil
	done := s.doneChan
	s.mu.Unlock()
	<-done
}
