package tracking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/petwatch/go-petwatch/internal/log"
	"github.com/petwatch/go-petwatch/internal/metrics"
	"github.com/petwatch/go-petwatch/pkg/detect"
	"github.com/petwatch/go-petwatch/pkg/servo"
)

// ErrAborted is returned when a cycle is abandoned after repeated
// consecutive hardware failures.
var ErrAborted = errors.New("tracking: cycle aborted after repeated hardware errors")

// State identifies the monitor's position in the scan/track cycle.
type State int

const (
	StateIdle State = iota
	StateScanning
	StateTracking
	StateCapturing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateTracking:
		return "tracking"
	case StateCapturing:
		return "capturing"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// FrameSource yields one JPEG frame per call.
type FrameSource interface {
	CaptureJPEG() ([]byte, error)
}

// PetDetector returns at most one pet detection per frame, already
// filtered by class and confidence threshold.
type PetDetector interface {
	Best(jpeg []byte) (*detect.Detection, error)
}

// Actuator commands one servo axis; angles are clamped by the implementation.
type Actuator interface {
	SetAngle(ch servo.Channel, degrees float64) error
}

// CaptureMeta describes the subject handed to the capture pipeline.
type CaptureMeta struct {
	Class      string
	Confidence float64
	Pose       Pose
	Taken      time.Time
}

// Capturer stores raw frames as still images and returns their references.
type Capturer interface {
	Save(ctx context.Context, frames [][]byte, meta CaptureMeta) ([]string, error)
}

// Notifier forwards stored images with a free-text summary.
type Notifier interface {
	Notify(ctx context.Context, refs []string, summary string) error
}

// StatusSink receives live monitor updates, e.g. for a dashboard.
type StatusSink interface {
	MonitorUpdate(st Status)
	MonitorLog(kind, msg string)
}

// Status is a snapshot of the monitor for observers.
type Status struct {
	CycleID        string  `json:"cycle_id"`
	State          string  `json:"state"`
	Pan            float64 `json:"pan"`
	Tilt           float64 `json:"tilt"`
	LastClass      string  `json:"last_class"`
	LastConfidence float64 `json:"last_confidence"`
	CyclesRun      int     `json:"cycles_run"`
	PetsFound      int     `json:"pets_found"`
}

// Monitor drives the Idle -> Scanning -> Tracking -> Capturing state
// machine for one cycle at a time. A single goroutine executes each
// control step to completion; the actuator and camera are owned
// exclusively by the monitor for the lifetime of a cycle.
type Monitor struct {
	cfg        Config
	actuator   Actuator
	source     FrameSource
	detector   PetDetector
	capturer   Capturer
	notifier   Notifier
	clock      clock.Clock
	controller *Controller
	plan       *ScanPlan

	mu            sync.RWMutex
	state         State
	pose          Pose
	session       *Session
	sink          StatusSink
	cycleID       string
	cyclesRun     int
	petsFound     int
	lastDetection *detect.Detection

	// Per-cycle working state, touched only by the cycle goroutine.
	visited    int
	hwErrors   int
	lastStepAt time.Time
}

// NewMonitor validates the configuration and assembles the orchestrator.
// notifier may be nil to disable notifications.
func NewMonitor(cfg Config, act Actuator, source FrameSource, det PetDetector, cap Capturer, not Notifier) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	plan, err := NewScanPlan(cfg)
	if err != nil {
		return nil, err
	}
	return &Monitor{
		cfg:        cfg,
		actuator:   act,
		source:     source,
		detector:   det,
		capturer:   cap,
		notifier:   not,
		clock:      clock.New(),
		controller: NewController(cfg),
		plan:       plan,
		state:      StateIdle,
		pose:       Pose{Pan: servo.CenterAngle, Tilt: servo.CenterAngle},
	}, nil
}

// SetClock replaces the time source. Tests use a mock clock.
func (m *Monitor) SetClock(c clock.Clock) {
	m.clock = c
}

// SetStatusSink attaches a live status observer.
func (m *Monitor) SetStatusSink(s StatusSink) {
	m.mu.Lock()
	m.sink = s
	m.mu.Unlock()
}

// State returns the current state.
func (m *Monitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Pose returns the last successfully commanded pan/tilt angles.
func (m *Monitor) Pose() Pose {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pose
}

// Snapshot returns the current status.
func (m *Monitor) Snapshot() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.statusLocked()
}

func (m *Monitor) statusLocked() Status {
	st := Status{
		CycleID:   m.cycleID,
		State:     m.state.String(),
		Pan:       m.pose.Pan,
		Tilt:      m.pose.Tilt,
		CyclesRun: m.cyclesRun,
		PetsFound: m.petsFound,
	}
	if m.lastDetection != nil {
		st.LastClass = m.lastDetection.Class
		st.LastConfidence = m.lastDetection.Confidence
	}
	return st
}

// RunCycle executes one full monitoring cycle: sweep the scan grid until a
// pet is found, track it for the configured duration, capture and forward
// stills, then return to idle. It reports whether a pet was found.
//
// Per-step hardware and detection errors are logged and absorbed; only a
// run of consecutive hardware failures or context cancellation aborts the
// cycle early.
func (m *Monitor) RunCycle(ctx context.Context) (bool, error) {
	m.beginCycle()
	metrics.CyclesTotal.Inc()
	log.Info("monitoring cycle started", "cycle", m.cycleID, "waypoints", m.plan.Len())

	found := false
	for {
		state := m.State()
		if state == StateIdle {
			break
		}
		if err := ctx.Err(); err != nil {
			m.endCycle(found)
			return found, err
		}

		var err error
		switch state {
		case StateScanning:
			err = m.stepScan(ctx)
		case StateTracking:
			err = m.stepTrack(ctx)
		case StateCapturing:
			found, err = m.stepCapture(ctx)
		}
		if err != nil {
			m.endCycle(found)
			return found, err
		}
	}

	m.endCycle(found)
	return found, nil
}

// beginCycle resets per-cycle state and enters Scanning.
func (m *Monitor) beginCycle() {
	m.mu.Lock()
	m.cycleID = uuid.NewString()[:8]
	m.session = nil
	m.lastDetection = nil
	m.cyclesRun++
	m.mu.Unlock()

	m.visited = 0
	m.hwErrors = 0
	m.plan.Reset()
	m.controller.Reset()
	m.lastStepAt = m.clock.Now()
	m.transition(StateScanning)
}

// endCycle recenters the mount and returns to Idle.
func (m *Monitor) endCycle(found bool) {
	if found {
		m.mu.Lock()
		m.petsFound++
		m.mu.Unlock()
		metrics.PetsFoundTotal.Inc()
	}
	m.recenter()
	m.transition(StateIdle)
	log.Info("monitoring cycle finished", "cycle", m.cycleID, "found", found)
}

// stepScan commands the next waypoint, dwells, and evaluates one frame.
func (m *Monitor) stepScan(ctx context.Context) error {
	wp := m.plan.Next()

	// The tilt axis only moves between rows; give it the longer settle.
	dwell := m.cfg.PanDwell
	if wp.Tilt != m.Pose().Tilt {
		dwell = m.cfg.TiltDwell
	}
	if err := m.applyPose(Pose{Pan: wp.Pan, Tilt: wp.Tilt}); err != nil {
		return err
	}
	if err := m.dwell(ctx, dwell); err != nil {
		return err
	}

	det := m.observe()
	m.visited++
	now := m.clock.Now()
	m.lastStepAt = now

	if det != nil {
		log.Info("pet detected during scan",
			"cycle", m.cycleID, "class", det.Class, "confidence", det.Confidence,
			"pan", wp.Pan, "tilt", wp.Tilt)
		m.logSink("detect", fmt.Sprintf("%s found at pan=%.1f tilt=%.1f", det.Class, wp.Pan, wp.Tilt))

		m.mu.Lock()
		m.session = NewSession(now)
		m.lastDetection = det
		m.mu.Unlock()

		m.controller.Reset()
		m.transition(StateTracking)
		return nil
	}

	if m.visited >= m.plan.Len() {
		// Full sweep with zero detections: nothing out there.
		log.Info("scan complete, no pet found", "cycle", m.cycleID)
		m.transition(StateIdle)
	}
	return nil
}

// stepTrack evaluates one tracking step: servo toward the detection, or
// hold through a transient miss, or fall back to scanning once the target
// is lost for longer than the grace period.
func (m *Monitor) stepTrack(ctx context.Context) error {
	if err := m.dwell(ctx, m.cfg.TrackInterval); err != nil {
		return err
	}

	det := m.observe()
	now := m.clock.Now()
	dt := now.Sub(m.lastStepAt)
	m.lastStepAt = now

	m.mu.RLock()
	session := m.session
	pose := m.pose
	m.mu.RUnlock()

	if det != nil {
		next := m.controller.Update(pose, *det, dt)
		if err := m.applyPose(next); err != nil {
			return err
		}
		session.Seen(now)

		m.mu.Lock()
		m.lastDetection = det
		m.mu.Unlock()

		if session.Elapsed(now) >= m.cfg.TrackingDuration {
			log.Info("tracking duration reached, capturing",
				"cycle", m.cycleID, "tracked", session.Elapsed(now))
			m.transition(StateCapturing)
		}
		return nil
	}

	if session.SinceSeen(now) > m.cfg.LostTimeout {
		// Subject gone. Resume the sweep rather than hold forever; a
		// fresh full wrap with no detections is required before the
		// cycle can end empty.
		log.Info("target lost, resuming scan",
			"cycle", m.cycleID, "unseen", session.SinceSeen(now))
		m.logSink("track", "target lost, resuming scan")

		m.mu.Lock()
		m.session = nil
		m.mu.Unlock()

		m.visited = 0
		m.transition(StateScanning)
		return nil
	}

	// Transient detector miss: hold position and stay in Tracking.
	return nil
}

// stepCapture grabs the stills, hands them to the image pipeline, and
// notifies. Collaborator failures are logged but never reopen tracking;
// the cycle completes either way.
func (m *Monitor) stepCapture(ctx context.Context) (bool, error) {
	frames := make([][]byte, 0, m.cfg.CaptureCount)
	for i := 0; i < m.cfg.CaptureCount; i++ {
		if i > 0 {
			if err := m.dwell(ctx, m.cfg.CaptureInterval); err != nil {
				return true, err
			}
		}
		jpeg, err := m.source.CaptureJPEG()
		if err != nil {
			log.Warn("capture frame grab failed", "cycle", m.cycleID, "err", err)
			metrics.CaptureErrorsTotal.Inc()
			continue
		}
		frames = append(frames, jpeg)
	}

	m.mu.RLock()
	det := m.lastDetection
	pose := m.pose
	m.mu.RUnlock()

	meta := CaptureMeta{Pose: pose, Taken: m.clock.Now()}
	if det != nil {
		meta.Class = det.Class
		meta.Confidence = det.Confidence
	}

	var refs []string
	if len(frames) > 0 {
		var err error
		refs, err = m.capturer.Save(ctx, frames, meta)
		if err != nil {
			log.Error("capture pipeline failed", "cycle", m.cycleID, "err", err)
			metrics.CaptureErrorsTotal.Inc()
		}
	}

	if len(refs) > 0 && m.notifier != nil {
		summary := fmt.Sprintf("Pet detected (%s, confidence %.2f) at %s",
			meta.Class, meta.Confidence, meta.Taken.Format("2006-01-02 15:04:05"))
		if err := m.notifier.Notify(ctx, refs, summary); err != nil {
			log.Error("notification failed", "cycle", m.cycleID, "err", err)
			metrics.UploadErrorsTotal.Inc()
		} else {
			log.Info("notification sent", "cycle", m.cycleID, "images", len(refs))
		}
	}

	m.transition(StateIdle)
	return true, nil
}

// observe grabs one frame and runs detection. Any failure is logged and
// treated as "no detection" for this step.
func (m *Monitor) observe() *detect.Detection {
	jpeg, err := m.source.CaptureJPEG()
	if err != nil {
		log.Warn("frame grab failed", "cycle", m.cycleID, "err", err)
		metrics.DetectionErrorsTotal.Inc()
		return nil
	}
	metrics.FramesTotal.Inc()

	det, err := m.detector.Best(jpeg)
	if err != nil {
		log.Warn("detection failed", "cycle", m.cycleID, "err", err)
		metrics.DetectionErrorsTotal.Inc()
		return nil
	}
	if det != nil {
		metrics.DetectionsTotal.Inc()
	}
	return det
}

// applyPose commands the axes whose target differs from the last
// successfully issued angle. A failed axis is logged, counted toward the
// consecutive-error budget, and leaves the recorded pose untouched; any
// success resets the budget. Returns ErrAborted once the budget is spent.
func (m *Monitor) applyPose(target Pose) error {
	m.mu.RLock()
	current := m.pose
	m.mu.RUnlock()

	apply := func(ch servo.Channel, want, have float64) {
		if want == have {
			return
		}
		if err := m.actuator.SetAngle(ch, want); err != nil {
			m.hwErrors++
			log.Warn("servo command failed",
				"cycle", m.cycleID, "channel", ch.String(), "degrees", want,
				"consecutive", m.hwErrors, "err", err)
			metrics.ServoErrorsTotal.Inc()
			return
		}
		m.hwErrors = 0
		m.mu.Lock()
		switch ch {
		case servo.Pan:
			m.pose.Pan = want
		case servo.Tilt:
			m.pose.Tilt = want
		}
		m.mu.Unlock()
	}

	apply(servo.Pan, target.Pan, current.Pan)
	apply(servo.Tilt, target.Tilt, current.Tilt)
	m.publish()

	if m.hwErrors >= m.cfg.MaxHardwareErrors {
		return fmt.Errorf("%w: %d consecutive failures", ErrAborted, m.hwErrors)
	}
	return nil
}

// recenter returns the mount to neutral at the end of a cycle. Best
// effort: a failure here is logged and dropped, the cycle is over anyway.
func (m *Monitor) recenter() {
	center := Pose{Pan: servo.CenterAngle, Tilt: servo.CenterAngle}
	if err := m.actuator.SetAngle(servo.Pan, center.Pan); err != nil {
		log.Warn("recenter pan failed", "err", err)
		return
	}
	if err := m.actuator.SetAngle(servo.Tilt, center.Tilt); err != nil {
		log.Warn("recenter tilt failed", "err", err)
		return
	}
	m.mu.Lock()
	m.pose = center
	m.mu.Unlock()
}

// dwell pauses for d, honoring cancellation. All waiting goes through the
// clock so tests can drive time.
func (m *Monitor) dwell(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := m.clock.Timer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// transition moves the state machine and publishes the change.
func (m *Monitor) transition(next State) {
	m.mu.Lock()
	prev := m.state
	m.state = next
	m.mu.Unlock()

	if prev != next {
		log.Debug("state transition", "cycle", m.cycleID, "from", prev.String(), "to", next.String())
	}
	metrics.MonitorState.Set(float64(next))
	m.publish()
}

// publish pushes a status snapshot to the sink, if attached.
func (m *Monitor) publish() {
	m.mu.RLock()
	sink := m.sink
	st := m.statusLocked()
	m.mu.RUnlock()

	if sink != nil {
		sink.MonitorUpdate(st)
	}
}

// logSink forwards a human-readable event to the sink, if attached.
func (m *Monitor) logSink(kind, msg string) {
	m.mu.RLock()
	sink := m.sink
	m.mu.RUnlock()
	if sink != nil {
		sink.MonitorLog(kind, msg)
	}
}
