package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/browser"
	"github.com/rs/xid"
	"github.com/spf13/cobra"

	"github.com/vmmsim/vmmsim/internal/analytics"
	"github.com/vmmsim/vmmsim/internal/eventlog"
	"github.com/vmmsim/vmmsim/internal/predictor"
	"github.com/vmmsim/vmmsim/internal/simulator"
	"github.com/vmmsim/vmmsim/internal/vmm"
	"github.com/vmmsim/vmmsim/transport/httpapi"
)

// metricsSnapshotInterval paces how often the optional ClickHouse
// recorder samples the core's metrics, independent of the 10ms access
// pace: a classroom session generates far more accesses than a
// long-term analytics table needs rows.
const metricsSnapshotInterval = time.Second

// exitCode is set by serveCmd's Run and read back by Execute, since
// cobra's Command.Run has no return value of its own.
var exitCode int

var (
	flagListenAddr    string
	flagTotalFrames   int
	flagTotalPages    int
	flagPolicy        string
	flagEnvFile       string
	flagOpenBrowser   bool
	flagJSONLogPath   string
	flagSQLitePath    string
	flagPredictorURL  string
	flagClickHouseDSN string
)

func init() {
	serveCmd.Flags().StringVar(&flagListenAddr, "listen", ":8080", "address to listen on")
	serveCmd.Flags().IntVar(&flagTotalFrames, "frames", 256, "number of physical frames")
	serveCmd.Flags().IntVar(&flagTotalPages, "pages", 1024, "number of logical pages")
	serveCmd.Flags().StringVar(&flagPolicy, "policy", "clock", "replacement policy: fifo, lru, clock")
	serveCmd.Flags().StringVar(&flagEnvFile, "env-file", "", "optional .env file loaded into the process environment; its values are not applied to these flags")
	serveCmd.Flags().BoolVar(&flagOpenBrowser, "open", false, "open the dashboard URL in the default browser")
	serveCmd.Flags().StringVar(&flagJSONLogPath, "json-log", "", "optional path to append newline-delimited JSON events")
	serveCmd.Flags().StringVar(&flagSQLitePath, "sqlite", "", "optional path to a SQLite database for event/metrics recording")
	serveCmd.Flags().StringVar(&flagPredictorURL, "predictor-url", "", "optional base URL of a remote learned predictor; falls back to the built-in rule-based predictor when unset")
	serveCmd.Flags().StringVar(&flagClickHouseDSN, "clickhouse-dsn", "", "optional ClickHouse address (host:port) for long-term metrics-snapshot recording; disabled unless set")

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the simulator behind the HTTP+SSE control surface.",
	Run: func(_ *cobra.Command, _ []string) {
		exitCode = runServe()
	},
}

// runServe wires the core, its event sinks, the producer loop and the
// HTTP adapter together, then blocks until SIGINT/SIGTERM. It returns
// the process exit code: 0 on clean shutdown, 1 on startup failure
// (bind error, config error), per the external interfaces section.
func runServe() int {
	if flagEnvFile != "" {
		if err := godotenv.Load(flagEnvFile); err != nil {
			log.Printf("vmmsimd: loading env file %s: %v", flagEnvFile, err)
		}
	}

	policy, err := vmm.ParsePolicyKind(flagPolicy)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	cfg := vmm.Config{
		TotalFrames:         flagTotalFrames,
		PageSize:            4096,
		TotalPages:          flagTotalPages,
		ReplacementPolicy:   policy,
		EnableAIPredictions: false,
	}

	// core is assigned after channelSink is built, but onDrop only ever
	// fires from a later Publish call, by which point core is set: the
	// two are declared in this order purely because the sink needs a
	// callback before the core it reports drops against exists yet.
	var core *vmm.VMM

	channelSink := eventlog.NewChannelSink(eventlog.DefaultCapacity, func() {
		if core != nil {
			core.RecordDroppedEvent()
		}
	})

	sinks := []vmm.Sink{channelSink}

	if flagJSONLogPath != "" {
		f, err := os.OpenFile(flagJSONLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		defer f.Close()

		sinks = append(sinks, eventlog.NewJSONFileWriter(f))
	}

	if flagSQLitePath != "" {
		sqliteWriter, err := eventlog.NewSQLiteWriter(flagSQLitePath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		defer sqliteWriter.Close()

		sinks = append(sinks, sqliteWriter)
	}

	var pred vmm.Predictor
	if flagPredictorURL != "" {
		pred = predictor.NewRemotePredictor(flagPredictorURL, 0)
	}

	var chRecorder *analytics.ClickHouseRecorder
	if flagClickHouseDSN != "" {
		chRecorder, err = analytics.NewClickHouseRecorder(flagClickHouseDSN, "default", "", "", xid.New().String())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		defer chRecorder.Close()
	}

	core, err = vmm.New(cfg, pred, eventlog.NewMultiSink(sinks...))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	metricsStop := make(chan struct{})
	defer close(metricsStop)

	if chRecorder != nil {
		go recordMetricsSnapshots(core, chRecorder, metricsStop)
	}

	defaults := simulator.DefaultDefaults()
	defaults.VMM.TotalFrames = flagTotalFrames
	defaults.VMM.TotalPages = flagTotalPages
	defaults.VMM.ReplacementPolicy = policy

	sim := simulator.New(core, defaults)
	server := httpapi.NewServer(sim, channelSink)

	httpServer := &http.Server{
		Addr:              flagListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		log.Printf("vmmsimd: listening on %s", flagListenAddr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	if flagOpenBrowser {
		url := "http://localhost" + flagListenAddr
		if err := browser.OpenURL(url); err != nil {
			log.Printf("vmmsimd: opening browser: %v", err)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		fmt.Fprintln(os.Stderr, err)
		return 1
	case <-sigCh:
		log.Println("vmmsimd: shutting down")
	}

	sim.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	return 0
}

// recordMetricsSnapshots samples core's metrics once per
// metricsSnapshotInterval and hands each snapshot to recorder, until
// stop is closed. It runs for the lifetime of the process when a
// ClickHouse DSN is configured, independent of whether a simulation is
// currently running.
func recordMetricsSnapshots(core *vmm.VMM, recorder *analytics.ClickHouseRecorder, stop <-chan struct{}) {
	ticker := time.NewTicker(metricsSnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			recorder.Record(time.Now().UnixMilli(), core.Snapshot())
		}
	}
}
