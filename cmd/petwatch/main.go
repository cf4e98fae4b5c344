// petwatch - automated pet monitoring with a pan/tilt camera.
// Scans the room on a schedule, tracks cats and dogs with a proportional
// controller, and posts captured stills to Slack.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-co-op/gocron/v2"

	"github.com/petwatch/go-petwatch/internal/config"
	"github.com/petwatch/go-petwatch/internal/log"
	"github.com/petwatch/go-petwatch/pkg/camera"
	"github.com/petwatch/go-petwatch/pkg/capture"
	"github.com/petwatch/go-petwatch/pkg/detect"
	"github.com/petwatch/go-petwatch/pkg/notify"
	"github.com/petwatch/go-petwatch/pkg/servo"
	"github.com/petwatch/go-petwatch/pkg/tracking"
	"github.com/petwatch/go-petwatch/pkg/web"
)

func main() {
	once := flag.Bool("once", false, "Run a single monitoring cycle and exit")
	dryRun := flag.Bool("dry-run", false, "Log servo commands instead of driving hardware")
	selfTest := flag.Bool("self-test", false, "Run the startup checks and exit")
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	level := cfg.LogLevel
	if *debug {
		level = "debug"
	}
	log.Init(level, cfg.LogFile)

	if err := run(cfg, *once, *dryRun, *selfTest); err != nil {
		log.Error("petwatch exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, once, dryRun, selfTestOnly bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Servo output: real PCA9685 over I2C, or a recorder in dry-run mode.
	var out servo.Output
	if dryRun {
		mock := servo.NewMockOutput()
		mock.Verbose = true
		out = mock
		log.Info("dry run: servo hardware disabled")
	} else {
		var err error
		out, err = servo.NewPCA9685(cfg.I2CBus, servo.I2CAddr)
		if err != nil {
			return fmt.Errorf("servo init: %w", err)
		}
	}
	act := servo.NewActuator(out, cfg.Servo())
	defer act.Close()

	cam, err := camera.OpenWebcam(cfg.Camera())
	if err != nil {
		return fmt.Errorf("camera init: %w", err)
	}
	defer cam.Close()

	yolo, err := detect.NewYOLO(cfg.Detect())
	if err != nil {
		return fmt.Errorf("detector init: %w", err)
	}
	finder := detect.NewPetFinder(yolo, cfg.MinConfidence, cfg.FrameWidth, cfg.FrameHeight)
	defer finder.Close()

	pipeline, err := capture.NewPipeline(cfg.Capture())
	if err != nil {
		return fmt.Errorf("capture init: %w", err)
	}

	var slack *notify.Slack
	var notifier tracking.Notifier
	if cfg.NotificationsEnabled() {
		slack, err = notify.NewSlack(cfg.Notify())
		if err != nil {
			return fmt.Errorf("slack init: %w", err)
		}
		notifier = slack
	} else {
		log.Warn("slack not configured, notifications disabled")
	}

	monitor, err := tracking.NewMonitor(cfg.Tracking(), act, cam, finder, pipeline, notifier)
	if err != nil {
		return fmt.Errorf("monitor init: %w", err)
	}

	if err := startupSelfTest(ctx, act, cam, slack); err != nil {
		return fmt.Errorf("self test: %w", err)
	}
	if selfTestOnly {
		log.Info("self test passed")
		return nil
	}

	// One cycle at a time, whether scheduled, triggered, or manual.
	var cycleMu sync.Mutex
	runCycle := func() {
		if !cycleMu.TryLock() {
			log.Warn("cycle skipped, previous cycle still running")
			return
		}
		defer cycleMu.Unlock()

		found, err := monitor.RunCycle(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("monitoring cycle failed", "err", err)
			return
		}
		log.Info("monitoring cycle done", "found", found)
	}

	if once {
		runCycle()
		return nil
	}

	server := web.NewServer(cfg.WebPort)
	monitor.SetStatusSink(server)
	server.OnTrigger = func() error {
		if !cycleMu.TryLock() {
			return errors.New("cycle already running")
		}
		cycleMu.Unlock()
		go runCycle()
		return nil
	}
	server.StartAsync()
	defer server.Shutdown()

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("scheduler init: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.ScheduleInterval),
		gocron.NewTask(runCycle),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("schedule job: %w", err)
	}
	scheduler.Start()
	log.Info("petwatch running", "interval", cfg.ScheduleInterval, "port", cfg.WebPort)

	<-ctx.Done()
	log.Info("shutting down")

	if err := scheduler.Shutdown(); err != nil {
		log.Warn("scheduler shutdown", "err", err)
	}
	// Wait for an in-flight cycle to unwind; RunCycle recenters on its way out.
	cycleMu.Lock()
	cycleMu.Unlock()
	return nil
}

// startupSelfTest proves out each collaborator before the first cycle:
// Slack credentials, a frame from the camera, and a servo move to center.
// Any failure is fatal; a monitor that cannot see or move is useless.
func startupSelfTest(ctx context.Context, act *servo.Actuator, cam camera.Source, slack *notify.Slack) error {
	if slack != nil {
		if err := slack.TestConnection(ctx); err != nil {
			return err
		}
	}
	if _, err := cam.CaptureJPEG(); err != nil {
		return fmt.Errorf("camera check: %w", err)
	}
	if err := act.Center(); err != nil {
		return fmt.Errorf("servo check: %w", err)
	}
	log.Info("startup self test passed")
	return nil
}
