// Package rover defines the shared vocabulary of the motion core: movement
// intents, wheel output vectors, and the PWM speed presets. The drive,
// kinematics, motor, and safety packages all speak these types.
package rover

// PWM speed limits and presets. The presets are selected by the speed
// intents and used as the default for intents that carry no speed.
const (
	MaxSpeedPWM = 255

	SpeedSlowPWM   = 100
	SpeedNormalPWM = 150
	SpeedFastPWM   = 200
)
