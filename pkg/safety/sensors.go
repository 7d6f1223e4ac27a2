package safety

import (
	"fmt"
	"math"
	"time"
)

// IMU is the orientation sensor feed the monitor samples. Readings are raw;
// the monitor applies its own bias calibration on top.
type IMU interface {
	// Accel returns acceleration in g along x, y, z.
	Accel() (x, y, z float64, err error)
	// Gyro returns angular rate in degrees per second around x, y, z.
	Gyro() (x, y, z float64, err error)
}

// BatteryGauge reports the pack voltage in volts.
type BatteryGauge interface {
	Voltage() (float64, error)
}

// calibration holds sensor bias offsets measured while the rover is level
// and stationary.
type calibration struct {
	accelX, accelY, accelZ float64
	gyroX, gyroY, gyroZ    float64
	done                   bool
}

// Calibrate averages n samples to measure sensor bias. The rover must be
// level and stationary while this runs; 1 g is subtracted from the Z axis.
// Until calibration completes the monitor does not trust tilt readings.
func (m *Monitor) Calibrate(n int) error {
	if n <= 0 {
		n = m.cfg.CalibrationSamples
	}
	if n <= 0 {
		n = DefaultConfig().CalibrationSamples
	}
	var ax, ay, az, gx, gy, gz float64
	for i := 0; i < n; i++ {
		x, y, z, err := m.imu.Accel()
		if err != nil {
			return fmt.Errorf("safety: calibrate accel: %w", err)
		}
		ax += x
		ay += y
		az += z
		x, y, z, err = m.imu.Gyro()
		if err != nil {
			return fmt.Errorf("safety: calibrate gyro: %w", err)
		}
		gx += x
		gy += y
		gz += z
	}
	fn := float64(n)

	m.mu.Lock()
	m.cal = calibration{
		accelX: ax / fn,
		accelY: ay / fn,
		accelZ: az/fn - 1.0, // gravity stays
		gyroX:  gx / fn,
		gyroY:  gy / fn,
		gyroZ:  gz / fn,
		done:   true,
	}
	m.mu.Unlock()

	m.log.Info("imu calibrated", "samples", n)
	return nil
}

// sample reads the IMU, applies calibration, and derives roll/pitch from the
// accelerometer and yaw by integrating the gyro Z rate over the monitor
// period. Yaw wraps to [-180, 180].
func (m *Monitor) sample(now time.Time) (Orientation, error) {
	ax, ay, az, err := m.imu.Accel()
	if err != nil {
		return Orientation{}, fmt.Errorf("safety: read accel: %w", err)
	}
	_, _, gz, err := m.imu.Gyro()
	if err != nil {
		return Orientation{}, fmt.Errorf("safety: read gyro: %w", err)
	}

	m.mu.Lock()
	cal := m.cal
	yaw := m.orient.Yaw
	m.mu.Unlock()

	ax -= cal.accelX
	ay -= cal.accelY
	az -= cal.accelZ
	gz -= cal.gyroZ

	roll := math.Atan2(ay, az) * 180.0 / math.Pi
	pitch := math.Atan2(-ax, math.Sqrt(ay*ay+az*az)) * 180.0 / math.Pi

	yaw += gz * m.cfg.Interval.Seconds()
	if yaw > 180.0 {
		yaw -= 360.0
	}
	if yaw < -180.0 {
		yaw += 360.0
	}

	return Orientation{Roll: roll, Pitch: pitch, Yaw: yaw, SampledAt: now}, nil
}
