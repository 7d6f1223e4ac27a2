package drive

import (
	"sync"
	"testing"
	"time"

	"github.com/esp-rover/go-rover/pkg/motor"
	"github.com/esp-rover/go-rover/pkg/rover"
	"github.com/esp-rover/go-rover/pkg/safety"
)

// fakeInterlock is a settable safety view for supervisor tests.
type fakeInterlock struct {
	mu       sync.Mutex
	state    safety.State
	triggers int
}

func (f *fakeInterlock) State() safety.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeInterlock) Armed() bool {
	return f.State() == safety.Armed
}

func (f *fakeInterlock) TriggerEmergencyStop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = safety.EmergencyStop
	f.triggers++
}

func (f *fakeInterlock) set(s safety.State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

func newTestSupervisor(lock *fakeInterlock) (*Supervisor, *motor.MockBus, *Queue) {
	bus := &motor.MockBus{}
	driver := motor.NewDriver(bus, lock)
	queue := NewQueue(DefaultQueueCapacity)
	s := NewSupervisor(DefaultConfig(), queue, driver, lock)
	return s, bus, queue
}

func TestSupervisor_DispatchForward(t *testing.T) {
	lock := &fakeInterlock{state: safety.Armed}
	s, bus, _ := newTestSupervisor(lock)

	s.dispatch(rover.NewIntent(rover.Forward, 150), time.Now())

	want := [motor.NumWheels]int{150, 150, 150, 150}
	if got := bus.LastSpeeds(); got != want {
		t.Errorf("bus speeds: got %v, want %v", got, want)
	}
	snap := s.Status()
	if !snap.MotorsActive {
		t.Error("MotorsActive: got false")
	}
	if snap.LastCommand != "forward" {
		t.Errorf("LastCommand: got %q, want forward", snap.LastCommand)
	}
}

func TestSupervisor_ZeroSpeedUsesPreset(t *testing.T) {
	lock := &fakeInterlock{state: safety.Armed}
	s, bus, _ := newTestSupervisor(lock)

	s.dispatch(rover.NewIntent(rover.SetSpeedFast, 0), time.Now())
	s.dispatch(rover.NewIntent(rover.Forward, 0), time.Now())

	want := [motor.NumWheels]int{rover.SpeedFastPWM, rover.SpeedFastPWM, rover.SpeedFastPWM, rover.SpeedFastPWM}
	if got := bus.LastSpeeds(); got != want {
		t.Errorf("bus speeds: got %v, want %v", got, want)
	}
	if snap := s.Status(); snap.SpeedPreset != rover.SpeedFastPWM {
		t.Errorf("SpeedPreset: got %d, want %d", snap.SpeedPreset, rover.SpeedFastPWM)
	}
}

func TestSupervisor_RejectsMotionUnderLockout(t *testing.T) {
	lock := &fakeInterlock{state: safety.Lockout}
	s, bus, _ := newTestSupervisor(lock)

	s.dispatch(rover.NewIntent(rover.Forward, 150), time.Now())

	if bus.WriteCount() != 0 {
		t.Errorf("lockout dispatch reached the bus: %d writes", bus.WriteCount())
	}
	snap := s.Status()
	if snap.Rejected != 1 {
		t.Errorf("Rejected: got %d, want 1", snap.Rejected)
	}
	if snap.LastRejected != "forward" {
		t.Errorf("LastRejected: got %q, want forward", snap.LastRejected)
	}
	if !snap.SafetyLockout {
		t.Error("SafetyLockout: got false")
	}
}

func TestSupervisor_StopAllowedUnderLockout(t *testing.T) {
	lock := &fakeInterlock{state: safety.Lockout}
	s, bus, _ := newTestSupervisor(lock)

	s.dispatch(rover.NewIntent(rover.Stop, 0), time.Now())

	if bus.WriteCount() != int(motor.NumWheels) {
		t.Errorf("stop under lockout: %d writes, want %d", bus.WriteCount(), motor.NumWheels)
	}
	if got := bus.LastSpeeds(); got != [motor.NumWheels]int{} {
		t.Errorf("stop wrote non-zero: %v", got)
	}
	if snap := s.Status(); snap.Rejected != 0 {
		t.Errorf("Rejected: got %d, want 0", snap.Rejected)
	}
}

func TestSupervisor_RepeatedStopIdempotent(t *testing.T) {
	lock := &fakeInterlock{state: safety.Armed}
	s, bus, _ := newTestSupervisor(lock)

	for i := 0; i < 3; i++ {
		s.dispatch(rover.NewIntent(rover.Stop, 0), time.Now())
	}

	if got := bus.LastSpeeds(); got != [motor.NumWheels]int{} {
		t.Errorf("speeds: got %v, want zeros", got)
	}
	snap := s.Status()
	if snap.MotorsActive {
		t.Error("MotorsActive after stop: got true")
	}
	for wheel, ws := range snap.Wheels {
		if ws.Status != motor.StatusStopped {
			t.Errorf("wheel %s: got %s, want stopped", motor.Wheel(wheel), ws.Status)
		}
	}
}

func TestSupervisor_WatchdogStopsAfterDefaultTimeout(t *testing.T) {
	lock := &fakeInterlock{state: safety.Armed}
	s, bus, _ := newTestSupervisor(lock)
	s.cfg.MotorTimeout = 10 * time.Millisecond

	s.dispatch(rover.NewIntent(rover.Forward, 150), time.Now())

	// Before the deadline nothing happens.
	s.checkTimeout(time.Now())
	if got := bus.LastSpeeds(); got == [motor.NumWheels]int{} {
		t.Fatal("motors stopped before the deadline")
	}

	s.checkTimeout(time.Now().Add(20 * time.Millisecond))
	if got := bus.LastSpeeds(); got != [motor.NumWheels]int{} {
		t.Errorf("speeds after timeout: got %v, want zeros", got)
	}
	if snap := s.Status(); snap.MotorsActive {
		t.Error("MotorsActive after timeout: got true")
	}
}

func TestSupervisor_WatchdogHonorsIntentDuration(t *testing.T) {
	lock := &fakeInterlock{state: safety.Armed}
	s, bus, _ := newTestSupervisor(lock)

	in := rover.NewIntent(rover.Forward, 150)
	in.Duration = 50 * time.Millisecond
	s.dispatch(in, time.Now())

	// The default timeout has not passed, but the intent's own deadline has.
	s.checkTimeout(time.Now().Add(60 * time.Millisecond))
	if got := bus.LastSpeeds(); got != [motor.NumWheels]int{} {
		t.Errorf("speeds after duration: got %v, want zeros", got)
	}
}

func TestSupervisor_WatchdogIgnoresContinuous(t *testing.T) {
	lock := &fakeInterlock{state: safety.Armed}
	s, bus, _ := newTestSupervisor(lock)
	s.cfg.MotorTimeout = 10 * time.Millisecond

	in := rover.NewIntent(rover.Forward, 150)
	in.Continuous = true
	s.dispatch(in, time.Now())

	s.checkTimeout(time.Now().Add(time.Hour))
	if got := bus.LastSpeeds(); got == [motor.NumWheels]int{} {
		t.Error("continuous motion was stopped by the watchdog")
	}
}

func TestSupervisor_EmergencyStopFlushesQueue(t *testing.T) {
	lock := &fakeInterlock{state: safety.Armed}
	s, bus, queue := newTestSupervisor(lock)

	for i := 0; i < 5; i++ {
		queue.Enqueue(rover.NewIntent(rover.Forward, 150))
	}
	s.TriggerEmergencyStop()

	if queue.Len() != 0 {
		t.Errorf("queue after emergency stop: %d intents left", queue.Len())
	}
	if lock.triggers != 1 {
		t.Errorf("interlock triggers: got %d, want 1", lock.triggers)
	}
	if got := bus.LastSpeeds(); got != [motor.NumWheels]int{} {
		t.Errorf("speeds: got %v, want zeros", got)
	}
	snap := s.Status()
	if !snap.EmergencyStop {
		t.Error("EmergencyStop flag: got false")
	}
}

func TestSupervisor_EmergencyStopIntentWorksUnderLockout(t *testing.T) {
	lock := &fakeInterlock{state: safety.Lockout}
	s, _, _ := newTestSupervisor(lock)

	s.dispatch(rover.NewIntent(rover.EmergencyStop, 0), time.Now())

	if lock.State() != safety.EmergencyStop {
		t.Errorf("state: got %s, want emergency_stop", lock.State())
	}
}

func TestSupervisor_EnqueueRejectsInvalidKind(t *testing.T) {
	lock := &fakeInterlock{state: safety.Armed}
	s, _, queue := newTestSupervisor(lock)

	in := rover.NewIntent(rover.Forward, 100)
	in.Kind = rover.Kind(99)
	if err := s.Enqueue(in); err == nil {
		t.Error("invalid kind accepted")
	}
	if queue.Len() != 0 {
		t.Errorf("queue: got %d intents, want 0", queue.Len())
	}
}

func TestSupervisor_RunDispatchesFromQueue(t *testing.T) {
	lock := &fakeInterlock{state: safety.Armed}
	s, bus, _ := newTestSupervisor(lock)
	s.cfg.PollInterval = 5 * time.Millisecond

	go s.Run()
	defer s.Stop()

	if err := s.Enqueue(rover.NewIntent(rover.TurnRight, 120)); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	want := [motor.NumWheels]int{120, -120, 120, -120}
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if bus.LastSpeeds() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Errorf("bus speeds: got %v, want %v", bus.LastSpeeds(), want)
}

func TestSupervisor_EnqueueEmergencyStopBypassesFullQueue(t *testing.T) {
	lock := &fakeInterlock{state: safety.Armed}
	s, bus, queue := newTestSupervisor(lock)

	for queue.Len() < queue.Cap() {
		queue.Enqueue(rover.NewIntent(rover.Forward, 150))
	}

	if err := s.Enqueue(rover.NewIntent(rover.EmergencyStop, 0)); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if lock.triggers != 1 {
		t.Errorf("interlock triggers: got %d, want 1", lock.triggers)
	}
	if queue.Len() != 0 {
		t.Errorf("queue after emergency stop: %d intents left", queue.Len())
	}
	if got := bus.LastSpeeds(); got != [motor.NumWheels]int{} {
		t.Errorf("speeds: got %v, want zeros", got)
	}
	if snap := s.Status(); !snap.EmergencyStop {
		t.Error("EmergencyStop flag: got false")
	}
}

func TestSupervisor_WatchdogSkipsAlreadyStoppedMotors(t *testing.T) {
	lock := &fakeInterlock{state: safety.Armed}
	s, bus, _ := newTestSupervisor(lock)
	s.cfg.MotorTimeout = 10 * time.Millisecond

	s.dispatch(rover.NewIntent(rover.Forward, 150), time.Now())

	// A safety force-stop zeroes the motors before the deadline passes.
	lock.set(safety.Lockout)
	s.driver.StopAll()
	writes := bus.WriteCount()

	s.checkTimeout(time.Now().Add(20 * time.Millisecond))
	if bus.WriteCount() != writes {
		t.Errorf("watchdog wrote to stopped motors: %d extra writes", bus.WriteCount()-writes)
	}
	if snap := s.Status(); snap.MotorsActive {
		t.Error("MotorsActive after deadline: got true")
	}
}
