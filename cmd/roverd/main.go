// roverd is the motion-control daemon. It wires the command queue, the
// motion supervisor, the motor driver, and the safety monitor, then runs
// the two control loops until a shutdown signal arrives.
//
// Configuration is environment driven:
//
//	ROVER_BUS=mock|serial    motor bus backend (default mock)
//	ROVER_SERIAL_DEV=...     serial bridge device
//	TILT_THRESHOLD_DEG=80    lockout tilt threshold
//	LOG_LEVEL=debug|info|... log level
//
// The I2C backend is constructed directly on hardware builds where a
// drivers.I2C bus exists; roverd itself runs hosted and offers the mock and
// serial backends.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/esp-rover/go-rover/internal/config"
	"github.com/esp-rover/go-rover/internal/log"
	"github.com/esp-rover/go-rover/pkg/drive"
	"github.com/esp-rover/go-rover/pkg/motor"
	"github.com/esp-rover/go-rover/pkg/safety"
)

func main() {
	log.Init(os.Getenv("LOG_LEVEL"))
	logger := log.Component("roverd")

	bus, err := openBus()
	if err != nil {
		logger.Error("motor bus init failed", "error", err)
		os.Exit(1)
	}
	defer bus.Close()

	driver := motor.NewDriver(bus, nil)

	safetyCfg := safety.DefaultConfig()
	safetyCfg.Interval = config.SafetyInterval()
	safetyCfg.TiltThreshold = config.TiltThreshold()
	safetyCfg.BatteryLow = config.BatteryLow()
	safetyCfg.BatteryCritical = config.BatteryCritical()

	// Bench sensors: hosted roverd has no IMU or fuel gauge. On the rover
	// these are the M5 IMU and AXP gauge wired in by the hardware build.
	monitor := safety.NewMonitor(safetyCfg, benchIMU{}, benchBattery{}, driver)
	driver.SetGate(monitor)

	queue := drive.NewQueue(config.QueueCapacity())
	driveCfg := drive.DefaultConfig()
	driveCfg.MotorTimeout = config.MotorTimeout()
	supervisor := drive.NewSupervisor(driveCfg, queue, driver, monitor)
	monitor.SetDrainHook(queue.Drain)

	go monitor.Run()
	go supervisor.Run()
	logger.Info("roverd running", "bus", config.Bus())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	supervisor.Stop()
	monitor.Stop()
	if err := driver.StopAll(); err != nil {
		logger.Error("final stop failed", "error", err)
	}
}

func openBus() (motor.Bus, error) {
	switch config.Bus() {
	case "serial":
		return motor.OpenSerialBus(config.SerialDevice(), config.SerialBaud())
	default:
		return &motor.MockBus{}, nil
	}
}

// benchIMU reports a level, stationary attitude for bench runs.
type benchIMU struct{}

func (benchIMU) Accel() (x, y, z float64, err error) { return 0, 0, 1, nil }
func (benchIMU) Gyro() (x, y, z float64, err error)  { return 0, 0, 0, nil }

// benchBattery reports a healthy pack for bench runs.
type benchBattery struct{}

func (benchBattery) Voltage() (float64, error) { return 4.1, nil }
