package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/gridironlab/playbook/internal/config"
	"github.com/gridironlab/playbook/internal/logging"
	intOtel "github.com/gridironlab/playbook/internal/otel"
	"github.com/gridironlab/playbook/internal/session"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"

	AppName string = "playbook"
)

var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// DBLogger is the zerolog logger handed to the storage layer
	DBLogger zerolog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	// LogFile receives all log output once setup has run
	LogFile *os.File

	// Registry holds the open viewer sessions
	Registry *session.Registry

	SessionStartTime time.Time = time.Now()
)

const usage = `usage: playbook <command> [args]

commands:
  timings <playID...>            print route timings as JSON
  play <playID>                  play a play headless, streaming frames to the renderer
  import <file>                  import a .json/.yaml playbook file (optionally .gz)
  export <playbookID> <file>     export a playbook to a file
  fetch <playbookID>             copy a playbook from the content service into storage
  upload <playbookID>            export a playbook and upload it to the content service
`

func setup() {
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, "info", nil)
	Logger = SlogManager.Logger()

	configDir := os.Getenv("PLAYBOOK_CONFIG_DIR")
	if configDir == "" {
		configDir = "."
	}
	if err := config.Load(configDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config", "dir", configDir)
	}

	level := config.GetString("logLevel")
	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		Logger.Error("Failed to create logs dir", "error", err, "path", logsDir)
	}

	logPath := logging.LogFilePath(logsDir, AppName, SessionStartTime)
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "path", logPath)
	} else {
		LogFile = f
	}
	if n, err := logging.RemoveOldLogs(logsDir, 7*24*time.Hour, time.Now()); err == nil && n > 0 {
		Logger.Debug("Removed old logs", "count", n)
	}

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		OTelProvider, err = intOtel.New(intOtel.Config{
			Enabled:      otelCfg.Enabled,
			ServiceName:  otelCfg.ServiceName,
			BatchTimeout: otelCfg.BatchTimeout,
			LogWriter:    LogFile,
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
		})
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
		}
	}

	var opts []logging.Option
	if config.GetBool("graylog.enabled") {
		w, err := logging.NewGELFWriter(config.GetString("graylog.address"))
		if err != nil {
			Logger.Error("Failed to set up Graylog output", "error", err)
		} else {
			opts = append(opts, logging.WithGELF(w))
		}
	}
	opts = append(opts, logging.WithContext(func() []slog.Attr {
		if Registry == nil {
			return nil
		}
		return []slog.Attr{slog.Int("openSessions", len(Registry.List()))}
	}))

	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	SlogManager.Setup(logWriter(), level, otelLogProvider, opts...)
	Logger = SlogManager.Logger()
	DBLogger = componentLogger("database")
	Logger.Info("Starting up", "version", CurrentVersion, "buildDate", BuildDate, "log", logPath)
}

// logWriter returns the log file, or nil for stdout. A nil *os.File must not
// become a non-nil io.Writer.
func logWriter() io.Writer {
	if LogFile == nil {
		return nil
	}
	return LogFile
}

// componentLogger returns a zerolog logger tagged with a component name
func componentLogger(component string) zerolog.Logger {
	return logging.NewZerolog(logWriter(), config.GetString("logLevel"), component)
}

func shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := SlogManager.Flush(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "log flush failed: %v\n", err)
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "otel shutdown failed: %v\n", err)
		}
	}
	if LogFile != nil {
		_ = LogFile.Close()
	}
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		fmt.Print(usage)
		os.Exit(2)
	}

	setup()
	err := run(strings.ToLower(args[0]), args[1:])
	shutdown()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(command string, args []string) error {
	switch command {
	case "timings":
		if len(args) == 0 {
			return fmt.Errorf("no play IDs provided")
		}
		return printTimings(args)
	case "play":
		if len(args) != 1 {
			return fmt.Errorf("play takes exactly one play ID")
		}
		return playHeadless(args[0])
	case "import":
		if len(args) != 1 {
			return fmt.Errorf("import takes exactly one file")
		}
		return importPlaybook(args[0])
	case "export":
		if len(args) != 2 {
			return fmt.Errorf("export takes a playbook ID and a file")
		}
		return exportPlaybook(args[0], args[1])
	case "fetch":
		if len(args) != 1 {
			return fmt.Errorf("fetch takes exactly one playbook ID")
		}
		return fetchPlaybook(args[0])
	case "upload":
		if len(args) != 1 {
			return fmt.Errorf("upload takes exactly one playbook ID")
		}
		return uploadPlaybook(args[0])
	default:
		fmt.Print(usage)
		return fmt.Errorf("unknown command %q", command)
	}
}
