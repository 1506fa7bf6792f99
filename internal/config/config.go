// Package config loads the node configuration from YAML.
//
// Load starts from Default and overlays the file, so a config file only
// needs the keys it changes. Validate checks without mutating; Normalize
// applies derived settings and must only be called after Validate.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Transport kinds.
const (
	TransportMQTT   = "mqtt"
	TransportSerial = "serial"
)

type Config struct {
	Node      NodeConfig      `yaml:"node"`
	Pulse     PulseConfig     `yaml:"pulse"`
	Timing    TimingConfig    `yaml:"timing"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Transport TransportConfig `yaml:"transport"`
	Pins      PinsConfig      `yaml:"pins"`
	Sensors   SensorsConfig   `yaml:"sensors"`
	HTTP      string          `yaml:"http"`
	Heartbeat Duration        `yaml:"heartbeat"`

	// Quick shortens the report intervals for bench testing.
	Quick bool `yaml:"quick"`
}

// ---- NODE ----

type NodeConfig struct {
	ID uint8 `yaml:"id"`
}

// ---- PULSE ----

type PulseConfig struct {
	DebounceSamples int     `yaml:"debounce_samples"`
	LitersPerPulse  float64 `yaml:"liters_per_pulse"`
}

// ---- TIMING ----

type TimingConfig struct {
	TickRate     int      `yaml:"tick_rate"`    // Hz
	ServiceRate  int      `yaml:"service_rate"` // Hz
	ReadyTimeout Duration `yaml:"ready_timeout"`
}

// ---- SCHEDULE ----

type ScheduleConfig struct {
	MinReport     Duration `yaml:"min_report"`
	Hourly        Duration `yaml:"hourly"`
	Light         Duration `yaml:"light"`
	Battery       Duration `yaml:"battery"`
	Climate       Duration `yaml:"climate"`
	ClimateSettle Duration `yaml:"climate_settle"`
}

// ---- TRANSPORT ----

type TransportConfig struct {
	Kind   string       `yaml:"kind"`
	MQTT   MQTTConfig   `yaml:"mqtt"`
	Serial SerialConfig `yaml:"serial"`
}

type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	OutPrefix   string `yaml:"out_prefix"`
	InPrefix    string `yaml:"in_prefix"`
	SystemTopic string `yaml:"system_topic"`
	OutboxSize  int    `yaml:"outbox_size"`
}

type SerialConfig struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

// ---- PINS ----

// PinsConfig holds BCM line offsets. A negative output pin disables it.
type PinsConfig struct {
	Contact    int `yaml:"contact"`
	Mirror     int `yaml:"mirror"`
	Awake      int `yaml:"awake"`
	LightPower int `yaml:"light_power"`
}

// ---- SENSORS ----

type SensorsConfig struct {
	Enabled    bool          `yaml:"enabled"` // master switch for the i2c bus
	ADCAddress uint8         `yaml:"adc_address"`
	Light      LightConfig   `yaml:"light"`
	Battery    BatteryConfig `yaml:"battery"`
	Climate    ClimateConfig `yaml:"climate"`
}

type LightConfig struct {
	Enabled bool    `yaml:"enabled"`
	Channel int     `yaml:"channel"`
	Supply  float64 `yaml:"supply_volts"`
}

type BatteryConfig struct {
	Enabled bool    `yaml:"enabled"`
	Channel int     `yaml:"channel"`
	Divider float64 `yaml:"divider"`
	EmptyMV uint16  `yaml:"empty_mv"`
	FullMV  uint16  `yaml:"full_mv"`
}

type ClimateConfig struct {
	Enabled bool  `yaml:"enabled"`
	Address uint8 `yaml:"address"`
}

// Default returns the production configuration.
func Default() *Config {
	return &Config{
		Node:  NodeConfig{ID: 2},
		Pulse: PulseConfig{DebounceSamples: 4, LitersPerPulse: 10},
		Timing: TimingConfig{
			TickRate:     100,
			ServiceRate:  1,
			ReadyTimeout: Duration(10 * time.Second),
		},
		Schedule: ScheduleConfig{
			MinReport:     Duration(5 * time.Minute),
			Hourly:        Duration(time.Hour),
			Light:         Duration(30 * time.Minute),
			Battery:       Duration(12 * time.Hour),
			Climate:       Duration(5 * time.Minute),
			ClimateSettle: Duration(10 * time.Millisecond),
		},
		Transport: TransportConfig{
			Kind: TransportMQTT,
			MQTT: MQTTConfig{
				Broker:      "tcp://localhost:1883",
				OutPrefix:   "my/2/stat",
				InPrefix:    "my/cmnd",
				SystemTopic: "energy/gas-meter/system",
				OutboxSize:  64,
			},
			Serial: SerialConfig{Device: "/dev/ttyUSB0", Baud: 115200},
		},
		Pins: PinsConfig{Contact: 17, Mirror: 27, Awake: 22, LightPower: 23},
		Sensors: SensorsConfig{
			Enabled:    true,
			ADCAddress: 0x48,
			Light:      LightConfig{Enabled: true, Channel: 0, Supply: 3.3},
			Battery:    BatteryConfig{Enabled: true, Channel: 1, Divider: 1, EmptyMV: 2000, FullMV: 3000},
			Climate:    ClimateConfig{Enabled: true, Address: 0x76},
		},
		HTTP:      ":8080",
		Heartbeat: Duration(15 * time.Minute),
	}
}

// Load reads path over the defaults. Unknown keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Duration is a time.Duration written as a Go duration string ("5m").
type Duration time.Duration

// D returns d as a time.Duration.
func (d Duration) D() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", value.Line)
	}
	v, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func defaultClientID(node uint8) string {
	return fmt.Sprintf("gas-meter-%d", node)
}
