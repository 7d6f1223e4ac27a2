// Package config provides configuration helpers for go-rover commands.
package config

import (
	"os"
	"strconv"
	"time"
)

// Default rover configuration.
const (
	DefaultBus        = "mock"
	DefaultSerialDev  = "/dev/ttyUSB0"
	DefaultSerialBaud = 115200
	DefaultQueueCap   = 10
)

// Bus returns the motor bus backend from ROVER_BUS ("mock" or "serial").
func Bus() string {
	if bus := os.Getenv("ROVER_BUS"); bus != "" {
		return bus
	}
	return DefaultBus
}

// SerialDevice returns the serial bridge device from ROVER_SERIAL_DEV.
func SerialDevice() string {
	if dev := os.Getenv("ROVER_SERIAL_DEV"); dev != "" {
		return dev
	}
	return DefaultSerialDev
}

// SerialBaud returns the serial bridge baud rate from ROVER_SERIAL_BAUD.
func SerialBaud() int {
	return intEnv("ROVER_SERIAL_BAUD", DefaultSerialBaud)
}

// QueueCapacity returns the command queue capacity from ROVER_QUEUE_CAP.
func QueueCapacity() int {
	return intEnv("ROVER_QUEUE_CAP", DefaultQueueCap)
}

// TiltThreshold returns the lockout tilt threshold in degrees
// from TILT_THRESHOLD_DEG.
func TiltThreshold() float64 {
	return floatEnv("TILT_THRESHOLD_DEG", 80.0)
}

// BatteryLow returns the low-battery warning voltage from BATTERY_LOW_V.
func BatteryLow() float64 {
	return floatEnv("BATTERY_LOW_V", 3.3)
}

// BatteryCritical returns the critical cutoff voltage from BATTERY_CRITICAL_V.
func BatteryCritical() float64 {
	return floatEnv("BATTERY_CRITICAL_V", 3.0)
}

// MotorTimeout returns the default auto-stop deadline from MOTOR_TIMEOUT_MS.
func MotorTimeout() time.Duration {
	return msEnv("MOTOR_TIMEOUT_MS", 2000*time.Millisecond)
}

// SafetyInterval returns the safety check period from SAFETY_CHECK_INTERVAL_MS.
func SafetyInterval() time.Duration {
	return msEnv("SAFETY_CHECK_INTERVAL_MS", 50*time.Millisecond)
}

func intEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func msEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Millisecond
		}
	}
	return def
}
