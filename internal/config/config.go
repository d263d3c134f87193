// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ColonelBlimp/tonecast/internal/audio"
	"github.com/ColonelBlimp/tonecast/internal/dsp"
	"github.com/ColonelBlimp/tonecast/internal/imaging"
	"github.com/ColonelBlimp/tonecast/internal/session"
	"github.com/lestrrat-go/strftime"
	"github.com/spf13/viper"
)

const (
	AppName       = "tonecast"
	ConfigType    = "yaml"
	DefaultConfig = `# tonecast configuration

# Audio device settings
device_index: -1            # capture device, -1 for default (see 'tonecast devices')
playback_device_index: -1   # playback device, -1 for default
sample_rate: 48000          # Audio sample rate in Hz
channels: 1                 # Capture channels, mixed down to mono
buffer_size: 1024           # Frames per audio callback

# Receive
calibration_seconds: 2      # Leading audio used to measure room noise (0 = skip)
lock_fallback_seconds: 6    # No lock for this long drops the noise profile
weak_signal_seconds: 2.5    # No lock for this long at a low level warns once
weak_signal_level: 3        # Input level (percent) considered weak
lock_min_snr: 0             # Noise-normalized power a lock tone needs (0 = off)
agc_enabled: true           # Boost weak input toward agc_target_rms
agc_target_rms: 0.085       # AGC target level
agc_max_gain: 28            # AGC gain ceiling
output_dir: "received"      # Where received images are written
output_pattern: "tonecast-%Y%m%d-%H%M%S.png"  # strftime file name pattern

# Send
preset: "normal"            # fast (24x18), normal (32x24), slow (40x30)
volume: 92                  # Output volume percent (0-100)
lead_in_seconds: 0.25       # Silence before the tones

# Output
debug: false                # Enable debug logging
`
)

// Settings holds all application configuration
type Settings struct {
	// Audio device settings
	DeviceIndex         int     `mapstructure:"device_index"`
	PlaybackDeviceIndex int     `mapstructure:"playback_device_index"`
	SampleRate          float64 `mapstructure:"sample_rate"`
	Channels            int     `mapstructure:"channels"`
	BufferSize          int     `mapstructure:"buffer_size"`

	// Receive
	CalibrationSeconds  float64 `mapstructure:"calibration_seconds"`
	LockFallbackSeconds float64 `mapstructure:"lock_fallback_seconds"`
	WeakSignalSeconds   float64 `mapstructure:"weak_signal_seconds"`
	WeakSignalLevel     int     `mapstructure:"weak_signal_level"`
	LockMinSNR          float64 `mapstructure:"lock_min_snr"`
	AGCEnabled          bool    `mapstructure:"agc_enabled"`
	AGCTargetRMS        float64 `mapstructure:"agc_target_rms"`
	AGCMaxGain          float64 `mapstructure:"agc_max_gain"`
	OutputDir           string  `mapstructure:"output_dir"`
	OutputPattern       string  `mapstructure:"output_pattern"`

	// Send
	Preset        string  `mapstructure:"preset"`
	Volume        int     `mapstructure:"volume"`
	LeadInSeconds float64 `mapstructure:"lead_in_seconds"`

	// Output
	Debug bool `mapstructure:"debug"`
}

// Init initializes Viper with defaults and config file.
// Config file search order: current directory, then ~/.config/tonecast/
func Init() error {
	viper.SetDefault("device_index", -1)
	viper.SetDefault("playback_device_index", -1)
	viper.SetDefault("sample_rate", 48000)
	viper.SetDefault("channels", 1)
	viper.SetDefault("buffer_size", 1024)
	viper.SetDefault("calibration_seconds", 2.0)
	viper.SetDefault("lock_fallback_seconds", 6.0)
	viper.SetDefault("weak_signal_seconds", 2.5)
	viper.SetDefault("weak_signal_level", 3)
	viper.SetDefault("lock_min_snr", 0.0)
	viper.SetDefault("agc_enabled", true)
	viper.SetDefault("agc_target_rms", 0.085)
	viper.SetDefault("agc_max_gain", 28.0)
	viper.SetDefault("output_dir", "received")
	viper.SetDefault("output_pattern", "tonecast-%Y%m%d-%H%M%S.png")
	viper.SetDefault("preset", "normal")
	viper.SetDefault("volume", 92)
	viper.SetDefault("lead_in_seconds", 0.25)
	viper.SetDefault("debug", false)

	viper.SetConfigType(ConfigType)

	// Priority order: current directory first, then XDG config
	viper.AddConfigPath(".")

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	viper.AddConfigPath(filepath.Join(configDir, AppName))

	// Try .config.yaml first (hidden file), then config.yaml
	viper.SetConfigName(".config")
	if err = viper.ReadInConfig(); err != nil {
		viper.SetConfigName("config")
		err = viper.ReadInConfig()
	}

	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("read config: %w", err)
		}
		// No config found - create default in ~/.config/tonecast/
		if err = ensureConfigExists(filepath.Join(configDir, AppName)); err != nil {
			return err
		}
		if err = viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	return nil
}

func ensureConfigExists(configPath string) error {
	configFile := filepath.Join(configPath, "config.yaml")

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err = os.MkdirAll(configPath, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		if err = os.WriteFile(configFile, []byte(DefaultConfig), 0644); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
	}
	return nil
}

// Get returns the current settings
func Get() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &s, nil
}

// Validate checks that all settings are within acceptable ranges
func (s *Settings) Validate() error {
	var errs []error

	// Audio device settings
	if s.SampleRate < 8000 || s.SampleRate > 192000 {
		errs = append(errs, fmt.Errorf("sample_rate must be between 8000 and 192000 Hz, got %v", s.SampleRate))
	}
	if s.Channels < 1 || s.Channels > 2 {
		errs = append(errs, fmt.Errorf("channels must be 1 or 2, got %d", s.Channels))
	}
	if s.BufferSize < 64 || s.BufferSize > 8192 || !isPowerOfTwo(s.BufferSize) {
		errs = append(errs, fmt.Errorf("buffer_size must be a power of 2 between 64 and 8192, got %d", s.BufferSize))
	}
	if s.DeviceIndex < -1 {
		errs = append(errs, fmt.Errorf("device_index must be -1 or a device number, got %d", s.DeviceIndex))
	}
	if s.PlaybackDeviceIndex < -1 {
		errs = append(errs, fmt.Errorf("playback_device_index must be -1 or a device number, got %d", s.PlaybackDeviceIndex))
	}

	// Receive
	if s.CalibrationSeconds < 0 || s.CalibrationSeconds > 30 {
		errs = append(errs, fmt.Errorf("calibration_seconds must be between 0 and 30, got %v", s.CalibrationSeconds))
	}
	if s.LockFallbackSeconds <= 0 {
		errs = append(errs, fmt.Errorf("lock_fallback_seconds must be positive, got %v", s.LockFallbackSeconds))
	}
	if s.WeakSignalSeconds <= 0 {
		errs = append(errs, fmt.Errorf("weak_signal_seconds must be positive, got %v", s.WeakSignalSeconds))
	}
	if s.WeakSignalLevel < 0 || s.WeakSignalLevel > 100 {
		errs = append(errs, fmt.Errorf("weak_signal_level must be between 0 and 100, got %d", s.WeakSignalLevel))
	}
	if s.LockMinSNR < 0 {
		errs = append(errs, fmt.Errorf("lock_min_snr must not be negative, got %v", s.LockMinSNR))
	}
	if s.AGCTargetRMS <= 0 || s.AGCTargetRMS >= 1 {
		errs = append(errs, fmt.Errorf("agc_target_rms must be between 0 and 1 exclusive, got %v", s.AGCTargetRMS))
	}
	if s.AGCMaxGain < 1 || s.AGCMaxGain > 100 {
		errs = append(errs, fmt.Errorf("agc_max_gain must be between 1 and 100, got %v", s.AGCMaxGain))
	}
	if s.OutputDir == "" {
		errs = append(errs, errors.New("output_dir must not be empty"))
	}
	if _, err := strftime.New(s.OutputPattern); err != nil || s.OutputPattern == "" {
		errs = append(errs, fmt.Errorf("output_pattern %q is not a valid strftime pattern", s.OutputPattern))
	}

	// Send
	if _, err := imaging.LookupPreset(s.Preset); err != nil {
		errs = append(errs, fmt.Errorf("preset must be one of %v, got %q", imaging.PresetNames(), s.Preset))
	}
	if s.Volume < 0 || s.Volume > 100 {
		errs = append(errs, fmt.Errorf("volume must be between 0 and 100, got %d", s.Volume))
	}
	if s.LeadInSeconds < 0 || s.LeadInSeconds > 10 {
		errs = append(errs, fmt.Errorf("lead_in_seconds must be between 0 and 10, got %v", s.LeadInSeconds))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// CaptureConfig returns the audio settings for the capture device.
func (s *Settings) CaptureConfig() audio.Config {
	return audio.Config{
		DeviceIndex: s.DeviceIndex,
		SampleRate:  uint32(s.SampleRate),
		Channels:    uint32(s.Channels),
		BufferSize:  uint32(s.BufferSize),
	}
}

// PlaybackConfig returns the audio settings for the playback device.
func (s *Settings) PlaybackConfig() audio.Config {
	cfg := s.CaptureConfig()
	cfg.DeviceIndex = s.PlaybackDeviceIndex
	return cfg
}

// ReceiverConfig returns the receive session settings for input at sampleRate.
func (s *Settings) ReceiverConfig(sampleRate float64) session.ReceiverConfig {
	return session.ReceiverConfig{
		SampleRate:      sampleRate,
		Calibration:     seconds(s.CalibrationSeconds),
		LockFallback:    seconds(s.LockFallbackSeconds),
		WeakSignalAfter: seconds(s.WeakSignalSeconds),
		WeakSignalLevel: s.WeakSignalLevel,
		LockMinSNR:      s.LockMinSNR,
		AGCEnabled:      s.AGCEnabled,
		AGC: dsp.AGCConfig{
			TargetRMS: s.AGCTargetRMS,
			MaxGain:   s.AGCMaxGain,
		},
	}
}

// LeadIn returns the configured transmit lead-in.
func (s *Settings) LeadIn() time.Duration {
	return seconds(s.LeadInSeconds)
}
