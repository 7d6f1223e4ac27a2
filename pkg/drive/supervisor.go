package drive

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/esp-rover/go-rover/internal/log"
	"github.com/esp-rover/go-rover/pkg/kinematics"
	"github.com/esp-rover/go-rover/pkg/motor"
	"github.com/esp-rover/go-rover/pkg/rover"
	"github.com/esp-rover/go-rover/pkg/safety"
)

// MotorDriver is the actuation surface the supervisor drives.
// Implemented by *motor.Driver.
type MotorDriver interface {
	Write(rover.Wheels) error
	StopAll() error
	Status() [motor.NumWheels]motor.WheelStatus
	Active() bool
}

// Interlock is the supervisor's view of the safety monitor.
type Interlock interface {
	State() safety.State
	TriggerEmergencyStop()
}

// Config holds the supervisor tunables.
type Config struct {
	PollInterval time.Duration // bounded dequeue wait per cycle
	MotorTimeout time.Duration // default auto-stop deadline for non-continuous motion
	DefaultSpeed int           // initial speed preset (PWM)
}

// DefaultConfig returns the stock supervisor configuration.
func DefaultConfig() Config {
	return Config{
		PollInterval: 100 * time.Millisecond,
		MotorTimeout: 2 * time.Second,
		DefaultSpeed: rover.SpeedNormalPWM,
	}
}

// MotorSnapshot is the motion-side status exposed to external collaborators.
type MotorSnapshot struct {
	Wheels       [motor.NumWheels]motor.WheelStatus
	MotorsActive bool

	SafetyLockout bool
	EmergencyStop bool

	LastCommandID uuid.UUID
	LastCommand   string
	LastCommandAt time.Time
	SpeedPreset   int

	Executed     uint64
	Rejected     uint64
	LastRejected string
}

// Supervisor is the single consumer of the command queue. Each cycle it
// dequeues at most one intent, dispatches it under the interlock rules, and
// runs the motor timeout watchdog whether or not anything arrived.
type Supervisor struct {
	cfg    Config
	queue  *Queue
	driver MotorDriver
	lock   Interlock
	log    *slog.Logger

	mu            sync.Mutex
	speedPreset   int
	motorsActive  bool
	current       rover.Intent // active movement, for the watchdog deadline
	lastCommand   rover.Intent
	lastCommandAt time.Time
	executed      uint64
	rejected      uint64
	lastRejected  rover.Intent

	stop    chan struct{}
	running bool
}

// NewSupervisor wires the consumer loop. Zero-value Config fields fall back
// to defaults.
func NewSupervisor(cfg Config, queue *Queue, driver MotorDriver, lock Interlock) *Supervisor {
	def := DefaultConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.MotorTimeout <= 0 {
		cfg.MotorTimeout = def.MotorTimeout
	}
	if cfg.DefaultSpeed <= 0 {
		cfg.DefaultSpeed = def.DefaultSpeed
	}
	return &Supervisor{
		cfg:         cfg,
		queue:       queue,
		driver:      driver,
		lock:        lock,
		log:         log.Component("drive"),
		speedPreset: cfg.DefaultSpeed,
		stop:        make(chan struct{}),
	}
}

// Enqueue validates an intent and hands it to the queue. This is the ingest
// point for external producers. An emergency stop never enters the queue:
// it triggers synchronously, even when the queue is full.
func (s *Supervisor) Enqueue(in rover.Intent) error {
	if !in.Kind.Valid() {
		return rover.ErrInvalidCommand
	}
	if in.Kind == rover.EmergencyStop {
		s.TriggerEmergencyStop()
		s.recordExecuted(in, time.Now(), false)
		return nil
	}
	return s.queue.Enqueue(in)
}

// Run blocks in the consumer loop until Stop is called.
func (s *Supervisor) Run() {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	s.log.Info("motion supervisor started", "poll", s.cfg.PollInterval)

	for {
		select {
		case <-s.stop:
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			s.log.Info("motion supervisor stopped")
			return
		default:
		}

		if in, ok := s.queue.Dequeue(s.cfg.PollInterval); ok {
			s.dispatch(in, time.Now())
		}
		s.checkTimeout(time.Now())
	}
}

// Stop halts the consumer loop. The motors are not touched; callers stop
// them explicitly during shutdown.
func (s *Supervisor) Stop() {
	close(s.stop)
}

// dispatch executes one intent under the interlock rules.
func (s *Supervisor) dispatch(in rover.Intent, now time.Time) {
	// Stop and EmergencyStop run even while locked out: the system must
	// always accept a command to zero.
	switch in.Kind {
	case rover.EmergencyStop:
		s.TriggerEmergencyStop()
		s.recordExecuted(in, now, false)
		return
	case rover.Stop:
		if err := s.driver.StopAll(); err != nil {
			s.log.Error("stop write failed", "error", err)
		}
		s.recordExecuted(in, now, false)
		return
	}

	if s.lock.State() != safety.Armed {
		s.mu.Lock()
		s.rejected++
		s.lastRejected = in
		s.mu.Unlock()
		s.log.Warn("intent rejected by interlock",
			"kind", in.Kind.String(), "id", in.ID)
		return
	}

	if preset, ok := in.Kind.SpeedPreset(); ok {
		s.mu.Lock()
		s.speedPreset = preset
		s.mu.Unlock()
		s.recordExecuted(in, now, false)
		s.log.Info("speed preset changed", "preset", preset)
		return
	}

	speed := in.Speed
	if speed == 0 {
		s.mu.Lock()
		speed = s.speedPreset
		s.mu.Unlock()
	}
	wheels, err := kinematics.ForKind(in.Kind, speed)
	if err != nil {
		s.mu.Lock()
		s.rejected++
		s.lastRejected = in
		s.mu.Unlock()
		s.log.Warn("unroutable intent", "kind", in.Kind.String(), "error", err)
		return
	}

	if err := s.driver.Write(wheels); err != nil {
		// Degraded wheels are surfaced through status; the command still
		// counts as dispatched.
		s.log.Error("motor write failed", "error", err)
	}
	s.recordExecuted(in, now, !wheels.IsZero())
	s.log.Debug("intent dispatched",
		"kind", in.Kind.String(),
		"fl", wheels.FrontLeft, "fr", wheels.FrontRight,
		"bl", wheels.BackLeft, "br", wheels.BackRight)
}

func (s *Supervisor) recordExecuted(in rover.Intent, now time.Time, active bool) {
	s.mu.Lock()
	s.executed++
	s.lastCommand = in
	s.lastCommandAt = now
	s.motorsActive = active
	if active {
		s.current = in
	}
	s.mu.Unlock()
}

// checkTimeout is the watchdog: non-continuous motion must end by its
// deadline even if no further intents ever arrive. Runs every cycle.
func (s *Supervisor) checkTimeout(now time.Time) {
	s.mu.Lock()
	if !s.motorsActive || s.current.Continuous {
		s.mu.Unlock()
		return
	}
	deadline := s.cfg.MotorTimeout
	if s.current.Duration > 0 {
		deadline = s.current.Duration
	}
	expired := now.Sub(s.lastCommandAt) > deadline
	if expired {
		s.motorsActive = false
	}
	s.mu.Unlock()

	if !expired {
		return
	}
	if !s.driver.Active() {
		// Already zeroed elsewhere, e.g. a safety force-stop.
		return
	}
	s.log.Info("motor timeout, stopping", "deadline", deadline)
	if err := s.driver.StopAll(); err != nil {
		s.log.Error("timeout stop failed", "error", err)
	}
}

// TriggerEmergencyStop flips the interlock, force-stops the motors, and
// flushes queued motion. It bypasses the queue entirely so cancellation
// never waits behind queued intents. Synchronous; always succeeds.
func (s *Supervisor) TriggerEmergencyStop() {
	s.lock.TriggerEmergencyStop()
	if err := s.driver.StopAll(); err != nil {
		s.log.Error("emergency stop write failed", "error", err)
	}
	flushed := s.queue.Drain()

	s.mu.Lock()
	s.motorsActive = false
	s.mu.Unlock()
	s.log.Warn("emergency stop", "flushed_intents", flushed)
}

// Status returns the motion-side status snapshot.
func (s *Supervisor) Status() MotorSnapshot {
	st := s.lock.State()

	s.mu.Lock()
	defer s.mu.Unlock()
	snap := MotorSnapshot{
		Wheels:        s.driver.Status(),
		MotorsActive:  s.motorsActive,
		SafetyLockout: st != safety.Armed,
		EmergencyStop: st == safety.EmergencyStop,
		LastCommandAt: s.lastCommandAt,
		SpeedPreset:   s.speedPreset,
		Executed:      s.executed,
		Rejected:      s.rejected,
	}
	if s.executed > 0 {
		snap.LastCommandID = s.lastCommand.ID
		snap.LastCommand = s.lastCommand.Kind.String()
	}
	if s.rejected > 0 {
		snap.LastRejected = s.lastRejected.Kind.String()
	}
	return snap
}
