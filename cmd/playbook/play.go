package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gridironlab/playbook/internal/cache"
	"github.com/gridironlab/playbook/internal/channel"
	"github.com/gridironlab/playbook/internal/config"
	"github.com/gridironlab/playbook/internal/controls"
	"github.com/gridironlab/playbook/internal/dispatcher"
	"github.com/gridironlab/playbook/internal/driver"
	"github.com/gridironlab/playbook/internal/influx"
	"github.com/gridironlab/playbook/internal/logging"
	"github.com/gridironlab/playbook/internal/monitor"
	"github.com/gridironlab/playbook/internal/playback"
	"github.com/gridironlab/playbook/internal/session"
	"github.com/gridironlab/playbook/internal/storage"
	"github.com/gridironlab/playbook/internal/streaming"
)

// cliSession is the ID of the single viewer session of the play command
const cliSession = "cli"

// frameBuffer is the subscriber buffer of streaming and telemetry consumers
const frameBuffer = 256

func playHeadless(playID string) error {
	backend, err := initStorage()
	if err != nil {
		return err
	}
	defer closeStorage(backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(logging.WithSessionID(ctx, cliSession))
	defer cancel()

	anim := config.GetAnimationConfig()
	payloads := cache.NewPayloadCache()
	Registry = session.NewRegistry(func(id string) *session.Session {
		return session.New(session.Config{
			ID:            id,
			SpeedFps:      anim.SpeedFps,
			Loader:        backend,
			Cache:         payloads,
			Logger:        SlogManager.ForSession(id),
			PlaybackSpeed: anim.DefaultSpeed,
			LoopMode:      anim.Loop,
		})
	})
	defer Registry.CloseAll()

	sess, err := Registry.Open(cliSession)
	if err != nil {
		return err
	}
	if err := sess.Load(ctx, playID); err != nil {
		return err
	}
	setPlaylist(ctx, backend, sess, playID)

	telemetry := connectTelemetry(ctx)
	if telemetry != nil {
		defer func() {
			if err := telemetry.Close(); err != nil {
				Logger.Error("Failed to close telemetry", "error", err)
			}
		}()
	}

	// Consumers stop when the session closes its subscriptions.
	var wg sync.WaitGroup
	defer func() {
		Registry.CloseAll()
		wg.Wait()
	}()

	if err := startRenderer(&wg, sess); err != nil {
		return err
	}
	if telemetry != nil {
		if err := trackSession(&wg, sess, telemetry); err != nil {
			return err
		}
	}

	mon := monitor.NewService(monitor.Dependencies{
		Registry:   Registry,
		Logger:     Logger,
		Telemetry:  recorderOrNil(telemetry),
		StatusPath: filepath.Join(config.GetString("logsDir"), "status.txt"),
		Interval:   monitor.DefaultInterval,
	})
	if err := mon.Start(); err != nil {
		Logger.Warn("Status monitor not started", "error", err)
	}
	defer mon.Stop()

	cmdLogger := logging.NewDispatcherLogger(componentLogger("dispatcher"))
	disp, err := dispatcher.New(cmdLogger)
	if err != nil {
		return err
	}
	defer disp.Close()
	ctl := controls.New(Registry)
	ctl.Register(disp)

	drv, err := driver.New(sess, driver.NewTickerSource(anim.FrameRate),
		driver.WithLogger(logging.NewDispatcherLogger(componentLogger("driver"))),
		driver.WithOnComplete(func(st playback.AnimationState) {
			Logger.InfoContext(ctx, "Play complete", "play", st.PlayID, "duration", st.TotalDuration)
			cancel()
		}),
	)
	if err != nil {
		return err
	}
	ctl.Attach(cliSession, drv)

	if _, err := disp.Dispatch(controls.Command{Name: controls.CmdPlay}.Event(cliSession)); err != nil {
		return err
	}

	go readKeys(ctx, cancel, disp)

	if err := drv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// setPlaylist makes the plays of playID's playbook navigable with next/prev
func setPlaylist(ctx context.Context, backend storage.Backend, sess *session.Session, playID string) {
	play, err := backend.GetPlay(ctx, playID)
	if err != nil || play.PlaybookID == "" {
		return
	}
	plays, err := backend.ListPlays(ctx, play.PlaybookID)
	if err != nil {
		Logger.WarnContext(ctx, "Failed to list playbook", "playbook", play.PlaybookID, "error", err)
		return
	}
	sess.SetPlaylist(storage.PlaylistIDs(plays))
}

// startRenderer streams the session to the configured renderer, or logs
// phase changes when no renderer is enabled.
func startRenderer(wg *sync.WaitGroup, sess *session.Session) error {
	frames, err := sess.Subscribe(frameBuffer)
	if err != nil {
		return err
	}

	rc := config.GetRendererConfig()
	if !rc.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logFrames(frames)
		}()
		return nil
	}

	pub := streaming.New(streaming.Config{URL: rc.URL, Secret: rc.Secret}, Logger)
	if err := pub.Init(); err != nil {
		return fmt.Errorf("renderer: %w", err)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer pub.Close()
		if err := pub.Stream(context.Background(), sess, frames); err != nil {
			Logger.Error("Renderer stream stopped", "error", err)
		}
		if n := pub.Dropped(); n > 0 {
			Logger.Warn("Renderer messages dropped", "count", n)
		}
	}()
	return nil
}

func logFrames(frames channel.Receiver[playback.Frame]) {
	var lastPhase playback.Phase
	for f := range frames.Receive() {
		if f.Phase != lastPhase {
			Logger.Info("Phase", "play", f.PlayID, "phase", f.Phase, "time", f.CurrentTime, "progress", f.Progress)
			lastPhase = f.Phase
		}
	}
}

// connectTelemetry returns a running influx manager, or nil when telemetry
// is disabled or unavailable.
func connectTelemetry(ctx context.Context) *influx.Manager {
	ic := config.GetInfluxConfig()
	if !ic.Enabled {
		return nil
	}

	backupPath := filepath.Join(config.GetString("logsDir"),
		fmt.Sprintf("telemetry.%s.lp.gz", SessionStartTime.Format("20060102_150405")))
	m := influx.NewManager(ic, componentLogger("influx"), backupPath)
	if err := m.Connect(ctx); err != nil {
		Logger.Error("Telemetry disabled", "error", err)
		return nil
	}
	m.Start(5 * time.Second)
	return m
}

// trackSession records a playback sample per play watched in sess
func trackSession(wg *sync.WaitGroup, sess *session.Session, m *influx.Manager) error {
	frames, err := sess.Subscribe(frameBuffer)
	if err != nil {
		return err
	}
	tracker := influx.NewTracker(sess.ID(), m)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for f := range frames.Receive() {
			tracker.Observe(f, time.Now())
		}
		tracker.Finish(time.Now(), sess.Dropped())
	}()
	return nil
}

func recorderOrNil(m *influx.Manager) monitor.PointRecorder {
	if m == nil {
		return nil
	}
	return m
}

// readKeys maps stdin lines to control commands. A line holds a key name,
// optionally prefixed with "shift+".
func readKeys(ctx context.Context, cancel context.CancelFunc, disp *dispatcher.Dispatcher) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		shift := false
		if rest, ok := strings.CutPrefix(strings.ToLower(line), "shift+"); ok {
			shift = true
			line = line[len(line)-len(rest):]
		}
		if line == "" {
			line = controls.KeySpace
		}

		cmd, ok := controls.KeyCommand(line, shift)
		if !ok {
			Logger.WarnContext(ctx, "Unbound key", "key", line)
			continue
		}
		if _, err := disp.Dispatch(cmd.Event(cliSession)); err != nil {
			Logger.WarnContext(ctx, "Command failed", "command", cmd.Name, "error", err)
		}
		if cmd.Name == controls.CmdClose {
			cancel()
			return
		}
	}
}
