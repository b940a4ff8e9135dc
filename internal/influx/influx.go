// Package influx records playback telemetry in InfluxDB, falling back to a
// gzipped line-protocol file when the server is unreachable.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"

	"github.com/gridironlab/playbook/internal/config"
	"github.com/gridironlab/playbook/internal/queue"
)

// maxPending bounds the points buffered between flushes
const maxPending = 10000

// retentionSeconds is the expiry of a bucket created on connect
const retentionSeconds = 60 * 60 * 24 * 90

// Manager handles InfluxDB connections and writes.
type Manager struct {
	Client       influxdb2.Client
	Writer       influxdb2_api.WriteAPI
	BackupWriter *gzip.Writer
	IsValid      bool
	Logger       zerolog.Logger
	BackupPath   string

	cfg        config.InfluxConfig
	backupFile *os.File
	pending    *queue.Queue[*influxdb2_write.Point]

	mu       sync.Mutex
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewManager creates a new InfluxDB manager.
func NewManager(cfg config.InfluxConfig, log zerolog.Logger, backupPath string) *Manager {
	return &Manager{
		Logger:     log,
		BackupPath: backupPath,
		cfg:        cfg,
		pending:    queue.NewBounded[*influxdb2_write.Point](maxPending),
	}
}

// ServerURL returns the InfluxDB base URL built from the configuration
func (m *Manager) ServerURL() string {
	return fmt.Sprintf("%s://%s:%s", m.cfg.Protocol, m.cfg.Host, m.cfg.Port)
}

// Connect establishes a connection to InfluxDB. When the server does not
// answer, points go to the backup file instead.
func (m *Manager) Connect(ctx context.Context) error {
	if !m.cfg.Enabled {
		return errors.New("influx.enabled is false")
	}

	m.Client = influxdb2.NewClientWithOptions(
		m.ServerURL(),
		m.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(2500).
			SetFlushInterval(1000),
	)

	running, err := m.Client.Ping(ctx)
	if err != nil || !running {
		m.IsValid = false
		m.Logger.Warn().Err(err).Str("backupPath", m.BackupPath).
			Msg("InfluxDB unreachable, writing to backup file")
		return m.openBackup()
	}

	m.IsValid = true
	if err := m.setupOrganizationAndBucket(ctx); err != nil {
		return err
	}
	m.createWriter()
	m.Logger.Info().Str("url", m.ServerURL()).Msg("InfluxDB client initialized")
	return nil
}

func (m *Manager) openBackup() error {
	if m.BackupWriter != nil {
		return nil
	}
	file, err := os.OpenFile(m.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	m.backupFile = file
	m.BackupWriter = gzip.NewWriter(file)
	return nil
}

func (m *Manager) setupOrganizationAndBucket(ctx context.Context) error {
	orgs := m.Client.OrganizationsAPI()

	org, err := orgs.FindOrganizationByName(ctx, m.cfg.Org)
	if err != nil {
		m.Logger.Info().Str("org", m.cfg.Org).Msg("Organization not found, creating")
		org, err = orgs.CreateOrganizationWithName(ctx, m.cfg.Org)
		if err != nil {
			m.Logger.Error().Err(err).Str("org", m.cfg.Org).Msg("Error creating organization")
			return err
		}
	}

	if _, err := m.Client.BucketsAPI().FindBucketByName(ctx, m.cfg.Bucket); err == nil {
		return nil
	}
	m.Logger.Info().Str("bucket", m.cfg.Bucket).Msg("Bucket not found, creating")

	rule := domain.RetentionRuleTypeExpire
	_, err = m.Client.BucketsAPI().CreateBucketWithName(ctx, org, m.cfg.Bucket, domain.RetentionRule{
		Type:         &rule,
		EverySeconds: retentionSeconds,
	})
	if err != nil {
		m.Logger.Error().Err(err).Str("bucket", m.cfg.Bucket).Msg("Error creating bucket")
		return err
	}
	return nil
}

func (m *Manager) createWriter() {
	m.Writer = m.Client.WriteAPI(m.cfg.Org, m.cfg.Bucket)

	errorsCh := m.Writer.Errors()
	go func() {
		for writeErr := range errorsCh {
			m.Logger.Error().Err(writeErr).Str("bucket", m.cfg.Bucket).
				Msg("Error sending data to InfluxDB")
		}
	}()
}

// Record buffers a point until the next Flush. When the buffer is full the
// oldest points are discarded.
func (m *Manager) Record(point *influxdb2_write.Point) {
	m.pending.Push(point)
}

// Pending returns the number of buffered points
func (m *Manager) Pending() int {
	return m.pending.Len()
}

// Dropped returns how many buffered points were discarded
func (m *Manager) Dropped() int {
	return m.pending.Dropped()
}

// Flush writes all buffered points and returns how many were written.
func (m *Manager) Flush() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	points := m.pending.GetAndEmpty()
	for i, p := range points {
		if err := m.writePoint(p); err != nil {
			m.pending.Requeue(points[i:]...)
			return i, err
		}
	}
	if m.Writer != nil {
		m.Writer.Flush()
	}
	return len(points), nil
}

// writePoint writes a point to InfluxDB or the backup file.
// Must be called with m.mu held.
func (m *Manager) writePoint(point *influxdb2_write.Point) error {
	if m.IsValid && m.Writer != nil {
		m.Writer.WritePoint(point)
		return nil
	}
	if m.BackupWriter == nil {
		return fmt.Errorf("influxDB client not initialized and backup writer not available")
	}

	lineProtocol := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if _, err := m.BackupWriter.Write([]byte(lineProtocol)); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// Start flushes buffered points every interval until Close.
func (m *Manager) Start(interval time.Duration) {
	m.mu.Lock()
	if m.stopChan != nil {
		m.mu.Unlock()
		return
	}
	m.stopChan = make(chan struct{})
	stop := m.stopChan
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if n, err := m.Flush(); err != nil {
					m.Logger.Error().Err(err).Int("written", n).Msg("Telemetry flush failed")
				}
			}
		}
	}()
}

// Close stops the flush loop, writes what is left and releases the client
// and backup file.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.stopChan != nil {
		close(m.stopChan)
		m.stopChan = nil
	}
	m.mu.Unlock()
	m.wg.Wait()

	var errs []error
	if _, err := m.Flush(); err != nil {
		errs = append(errs, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Client != nil {
		m.Client.Close()
		m.Client = nil
		m.Writer = nil
	}
	if m.BackupWriter != nil {
		if err := m.BackupWriter.Close(); err != nil {
			errs = append(errs, err)
		}
		m.BackupWriter = nil
	}
	if m.backupFile != nil {
		if err := m.backupFile.Close(); err != nil {
			errs = append(errs, err)
		}
		m.backupFile = nil
	}
	return errors.Join(errs...)
}
