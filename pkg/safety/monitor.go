package safety

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/esp-rover/go-rover/internal/log"
)

// Stopper force-stops the motors. Implemented by *motor.Driver.
type Stopper interface {
	StopAll() error
}

// Config holds the monitor tunables.
type Config struct {
	Interval           time.Duration // safety check period
	TiltThreshold      float64       // degrees; max(|roll|, |pitch|) above this trips
	BatteryLow         float64       // volts; warning tier and recovery floor
	BatteryCritical    float64       // volts; hard cutoff
	MinSafeStreak      int           // consecutive safe samples required for recovery
	CalibrationSamples int           // IMU bias averaging window
}

// DefaultConfig returns the stock rover safety configuration.
func DefaultConfig() Config {
	return Config{
		Interval:           50 * time.Millisecond,
		TiltThreshold:      80.0,
		BatteryLow:         3.3,
		BatteryCritical:    3.0,
		MinSafeStreak:      10,
		CalibrationSamples: 100,
	}
}

// Monitor is the safety control loop. It samples orientation and battery on
// a fixed period, owns all writes to the interlock State, and force-stops
// the motors on any violation. It runs independently of the motion
// supervisor so a runaway command can always be interrupted.
type Monitor struct {
	cfg     Config
	imu     IMU
	batt    BatteryGauge
	stopper Stopper
	log     *slog.Logger

	mu           sync.Mutex
	state        State
	reason       string
	enteredAt    time.Time
	cal          calibration
	orient       Orientation
	maxTilt      float64
	safeStreak   int
	lastSafe     time.Time
	lastVoltage  float64
	battCritical bool
	confirmed    bool
	drain        func() int

	lastBattWarn time.Time
	lastIMUWarn  time.Time

	stop    chan struct{}
	running bool
}

// NewMonitor creates a safety monitor over the given sensors and motor
// stopper. The monitor starts Armed; call Run to start checking.
func NewMonitor(cfg Config, imu IMU, batt BatteryGauge, stopper Stopper) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	return &Monitor{
		cfg:     cfg,
		imu:     imu,
		batt:    batt,
		stopper: stopper,
		log:     log.Component("safety"),
		state:   Armed,
		stop:    make(chan struct{}),
	}
}

// SetDrainHook installs the queue flush invoked on successful recovery, so
// intents that piled up during lockout do not replay on re-arm.
func (m *Monitor) SetDrainHook(drain func() int) {
	m.mu.Lock()
	m.drain = drain
	m.mu.Unlock()
}

// Run calibrates the IMU and then blocks in the check loop until Stop.
func (m *Monitor) Run() {
	if err := m.Calibrate(m.cfg.CalibrationSamples); err != nil {
		// Without calibration tilt readings are untrusted; keep checking
		// battery and report uncalibrated in status.
		m.log.Error("imu calibration failed", "error", err)
	}

	m.mu.Lock()
	m.running = true
	m.lastSafe = time.Now()
	m.mu.Unlock()
	m.log.Info("safety monitor started",
		"interval", m.cfg.Interval,
		"tilt_threshold_deg", m.cfg.TiltThreshold)

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			m.mu.Lock()
			m.running = false
			m.mu.Unlock()
			m.log.Info("safety monitor stopped")
			return
		case now := <-ticker.C:
			m.tick(now)
		}
	}
}

// Stop halts the check loop.
func (m *Monitor) Stop() {
	close(m.stop)
}

// tick runs one safety check cycle.
func (m *Monitor) tick(now time.Time) {
	m.checkTilt(now)
	m.checkBattery(now)
}

func (m *Monitor) checkTilt(now time.Time) {
	m.mu.Lock()
	calibrated := m.cal.done
	m.mu.Unlock()
	if !calibrated {
		return
	}

	o, err := m.sample(now)
	if err != nil {
		m.warnIMU(now, err)
		return
	}

	tilt := math.Max(math.Abs(o.Roll), math.Abs(o.Pitch))

	m.mu.Lock()
	m.orient = o
	if tilt > m.maxTilt {
		m.maxTilt = tilt
	}

	var forceStop bool
	switch {
	case tilt > m.cfg.TiltThreshold:
		// Violation: never count toward the safe streak, and trip the
		// interlock if motion is still permitted.
		m.safeStreak = 0
		if m.state == Armed {
			m.toLockoutLocked(ReasonTilt, now)
			forceStop = true
		}
	case tilt < m.cfg.TiltThreshold/2:
		m.safeStreak++
		m.lastSafe = now
	}
	roll, pitch := o.Roll, o.Pitch
	m.mu.Unlock()

	if forceStop {
		m.log.Warn("tilt lockout",
			"roll_deg", fmt.Sprintf("%.1f", roll),
			"pitch_deg", fmt.Sprintf("%.1f", pitch),
			"threshold_deg", m.cfg.TiltThreshold)
		m.forceStop()
	}
}

func (m *Monitor) checkBattery(now time.Time) {
	v, err := m.batt.Voltage()
	if err != nil {
		m.log.Warn("battery read failed", "error", err)
		return
	}

	m.mu.Lock()
	m.lastVoltage = v
	var forceStop bool
	if v < m.cfg.BatteryCritical {
		// EmergencyStop outranks a battery lockout; everything else trips.
		if m.state == Armed || (m.state == Lockout && m.reason != ReasonBatteryCritical) {
			m.toLockoutLocked(ReasonBatteryCritical, now)
		}
		forceStop = !m.battCritical
		m.battCritical = true
	} else {
		m.battCritical = false
	}
	warn := v >= m.cfg.BatteryCritical && v < m.cfg.BatteryLow &&
		now.Sub(m.lastBattWarn) > 10*time.Second
	if warn {
		m.lastBattWarn = now
	}
	m.mu.Unlock()

	if forceStop {
		m.log.Warn("battery critical", "voltage", fmt.Sprintf("%.2f", v))
		m.forceStop()
	}
	if warn {
		m.log.Warn("battery low", "voltage", fmt.Sprintf("%.2f", v))
	}
}

// toLockoutLocked transitions to Lockout and resets the recovery session.
// Caller holds m.mu. EmergencyStop is never downgraded.
func (m *Monitor) toLockoutLocked(reason string, now time.Time) {
	if m.state == EmergencyStop {
		return
	}
	m.state = Lockout
	m.reason = reason
	m.enteredAt = now
	m.safeStreak = 0
	m.confirmed = false
}

// TriggerEmergencyStop transitions to EmergencyStop from any state and
// force-stops the motors. Synchronous; always succeeds.
func (m *Monitor) TriggerEmergencyStop() {
	now := time.Now()
	m.mu.Lock()
	m.state = EmergencyStop
	if m.reason == "" || m.reason == ReasonTilt {
		m.reason = ReasonManual
	}
	m.enteredAt = now
	m.safeStreak = 0
	m.confirmed = false
	m.mu.Unlock()

	m.log.Warn("emergency stop activated")
	m.forceStop()
}

// AttemptRecovery gates the transition back to Armed. It requires the
// explicit confirmation signal plus all preconditions: upright, a stable
// streak of safe samples, and battery above the low threshold, regardless
// of which trigger caused the lockout. The first failing precondition is
// returned; the interlock stays engaged.
func (m *Monitor) AttemptRecovery(confirmed bool) error {
	v, battErr := m.batt.Voltage()

	m.mu.Lock()
	if m.state == Armed {
		m.mu.Unlock()
		return ErrNotLockedOut
	}
	m.confirmed = confirmed
	if !confirmed {
		m.mu.Unlock()
		return ErrRecoveryNotConfirmed
	}

	tilt := math.Max(math.Abs(m.orient.Roll), math.Abs(m.orient.Pitch))
	if tilt >= m.cfg.TiltThreshold/2 {
		m.mu.Unlock()
		return fmt.Errorf("%w: tilt %.1f°, need < %.1f°",
			ErrRecoveryTilted, tilt, m.cfg.TiltThreshold/2)
	}
	if m.safeStreak < m.cfg.MinSafeStreak {
		streak := m.safeStreak
		m.mu.Unlock()
		return fmt.Errorf("%w: %d of %d", ErrRecoveryUnstable, streak, m.cfg.MinSafeStreak)
	}
	if battErr != nil {
		m.mu.Unlock()
		return fmt.Errorf("%w: voltage unknown: %v", ErrRecoveryLowBattery, battErr)
	}
	if v < m.cfg.BatteryLow {
		m.mu.Unlock()
		return fmt.Errorf("%w: %.2fV, need >= %.2fV", ErrRecoveryLowBattery, v, m.cfg.BatteryLow)
	}

	m.state = Armed
	m.reason = ""
	m.safeStreak = 0
	m.confirmed = false
	drain := m.drain
	m.mu.Unlock()

	flushed := 0
	if drain != nil {
		flushed = drain()
	}
	m.log.Info("safety recovery complete", "flushed_intents", flushed)
	return nil
}

// Armed reports whether motion is permitted. This is the motor driver's
// write gate.
func (m *Monitor) Armed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == Armed
}

// State returns the current interlock state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Status returns a consistent snapshot for status queries.
func (m *Monitor) Status() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sinceSafe time.Duration
	if !m.lastSafe.IsZero() {
		sinceSafe = time.Since(m.lastSafe)
	}
	return Snapshot{
		State:           m.state,
		Reason:          m.reason,
		EnteredAt:       m.enteredAt,
		Orientation:     m.orient,
		MaxTiltDetected: m.maxTilt,
		SafeStreak:      m.safeStreak,
		SinceLastSafe:   sinceSafe,
		BatteryVoltage:  m.lastVoltage,
		Calibrated:      m.cal.done,
		TiltThreshold:   m.cfg.TiltThreshold,
		BatteryLow:      m.cfg.BatteryLow,
		BatteryCritical: m.cfg.BatteryCritical,
	}
}

// forceStop zeroes the motors through the stopper, outside the state lock.
// Stopping always wins: it runs even if the state transition already
// happened on an earlier tick.
func (m *Monitor) forceStop() {
	if m.stopper == nil {
		return
	}
	if err := m.stopper.StopAll(); err != nil {
		m.log.Error("forced stop failed", "error", err)
	}
}

func (m *Monitor) warnIMU(now time.Time, err error) {
	m.mu.Lock()
	warn := now.Sub(m.lastIMUWarn) > 10*time.Second
	if warn {
		m.lastIMUWarn = now
	}
	m.mu.Unlock()
	if warn {
		m.log.Warn("imu read failed", "error", err)
	}
}
