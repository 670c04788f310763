// Package config loads the daemon's process settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sweeney/freeze-guard/internal/freeze"
)

// Config is the process configuration. Device credentials and the stored
// location live in the device config file at ConfigPath, not here.
type Config struct {
	Device     string `envconfig:"DEVICE_NAME" default:"Triton" validate:"required,excludesall=/#+"`
	Broker     string `envconfig:"MQTT_BROKER" default:"tcp://localhost:1883" validate:"required,url"`
	ALPN       string `envconfig:"MQTT_ALPN"`
	ConfigPath string `envconfig:"CONFIG_PATH" default:"config.json" validate:"required"`
	Mode       string `envconfig:"MODEL_MODE" default:"conduction" validate:"oneof=conduction convection"`

	WarnLevel1 float64 `envconfig:"WARN_LEVEL1" default:"32" validate:"gtefield=WarnLevel2"`
	WarnLevel2 float64 `envconfig:"WARN_LEVEL2" default:"10" validate:"gtefield=WarnLevel3"`
	WarnLevel3 float64 `envconfig:"WARN_LEVEL3" default:"0"`

	WeatherBaseURL   string        `envconfig:"WEATHER_BASE_URL" default:"https://api.weather.gov" validate:"required,url"`
	WeatherUserAgent string        `envconfig:"WEATHER_USER_AGENT" default:"freeze-guard/1.0" validate:"required"`
	WeatherTimeout   time.Duration `envconfig:"WEATHER_TIMEOUT" default:"10s" validate:"gt=0"`

	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	GPIOChip string `envconfig:"GPIO_CHIP" default:"gpiochip0"`
	PinValve int    `envconfig:"PIN_VALVE" default:"17" validate:"gte=-1"`
	PinPump  int    `envconfig:"PIN_PUMP" default:"27" validate:"gte=-1"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
}

// ModelMode returns the parsed freeze model mode.
func (c Config) ModelMode() freeze.Mode {
	m, err := freeze.ParseMode(c.Mode)
	if err != nil {
		return freeze.Conduction
	}
	return m
}

// Thresholds returns the advisory warning levels.
func (c Config) Thresholds() freeze.Thresholds {
	return freeze.Thresholds{Level1: c.WarnLevel1, Level2: c.WarnLevel2, Level3: c.WarnLevel3}
}

// GPIOEnabled reports whether any output pin is configured.
func (c Config) GPIOEnabled() bool {
	return c.PinValve >= 0 || c.PinPump >= 0
}

// SlogLevel maps LogLevel to a slog level.
func (c Config) SlogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return l
}

// String renders the settings for the startup log line.
func (c Config) String() string {
	return fmt.Sprintf("device=%s broker=%s mode=%s http=%q gpio=%s valve=%d pump=%d",
		c.Device, c.Broker, c.Mode, c.HTTPAddr, c.GPIOChip, c.PinValve, c.PinPump)
}
