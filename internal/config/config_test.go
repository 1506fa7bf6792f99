package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestDefault_Validates(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestDefault_Values(t *testing.T) {
	cfg := Default()
	if cfg.Node.ID != 2 {
		t.Errorf("node id = %d, want 2", cfg.Node.ID)
	}
	if cfg.Schedule.MinReport.D() != 5*time.Minute {
		t.Errorf("min_report = %v, want 5m", cfg.Schedule.MinReport)
	}
	if cfg.Schedule.Hourly.D() != time.Hour {
		t.Errorf("hourly = %v, want 1h", cfg.Schedule.Hourly)
	}
	if cfg.Schedule.Battery.D() != 12*time.Hour {
		t.Errorf("battery = %v, want 12h", cfg.Schedule.Battery)
	}
	if cfg.Schedule.ClimateSettle.D() != 10*time.Millisecond {
		t.Errorf("climate_settle = %v, want 10ms", cfg.Schedule.ClimateSettle)
	}
	if cfg.Pulse.LitersPerPulse != 10 {
		t.Errorf("liters_per_pulse = %v, want 10", cfg.Pulse.LitersPerPulse)
	}
	if cfg.Timing.TickRate != 100 || cfg.Timing.ServiceRate != 1 {
		t.Errorf("rates = %d/%d, want 100/1", cfg.Timing.TickRate, cfg.Timing.ServiceRate)
	}
	if cfg.Transport.Kind != TransportMQTT {
		t.Errorf("transport = %q, want mqtt", cfg.Transport.Kind)
	}
}

func TestParse_OverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
node:
  id: 7
schedule:
  min_report: 90s
transport:
  kind: serial
  serial:
    device: /dev/ttyAMA0
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Node.ID != 7 {
		t.Errorf("node id = %d, want 7", cfg.Node.ID)
	}
	if cfg.Schedule.MinReport.D() != 90*time.Second {
		t.Errorf("min_report = %v, want 90s", cfg.Schedule.MinReport)
	}
	if cfg.Schedule.Hourly.D() != time.Hour {
		t.Errorf("hourly = %v, want default 1h", cfg.Schedule.Hourly)
	}
	if cfg.Transport.Serial.Device != "/dev/ttyAMA0" {
		t.Errorf("device = %q", cfg.Transport.Serial.Device)
	}
	if cfg.Transport.Serial.Baud != 115200 {
		t.Errorf("baud = %d, want default 115200", cfg.Transport.Serial.Baud)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Node.ID != Default().Node.ID {
		t.Errorf("empty document should yield defaults")
	}
}

func TestParse_UnknownKey(t *testing.T) {
	_, err := Parse([]byte("nodes:\n  id: 3\n"))
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestParse_BadDuration(t *testing.T) {
	_, err := Parse([]byte("schedule:\n  hourly: soon\n"))
	if err == nil {
		t.Fatal("expected error for bad duration")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error %q should name the line", err)
	}
}

func TestDuration_MarshalRoundTrip(t *testing.T) {
	out, err := yaml.Marshal(struct {
		D Duration `yaml:"d"`
	}{Duration(150 * time.Second)})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if got := strings.TrimSpace(string(out)); got != "d: 2m30s" {
		t.Errorf("got %q, want %q", got, "d: 2m30s")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gas-meter.yaml")
	if err := os.WriteFile(path, []byte("pulse:\n  liters_per_pulse: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pulse.LitersPerPulse != 1 {
		t.Errorf("liters_per_pulse = %v, want 1", cfg.Pulse.LitersPerPulse)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"node zero", func(c *Config) { c.Node.ID = 0 }, "node.id"},
		{"node broadcast", func(c *Config) { c.Node.ID = 255 }, "node.id"},
		{"debounce", func(c *Config) { c.Pulse.DebounceSamples = 0 }, "debounce_samples"},
		{"liters", func(c *Config) { c.Pulse.LitersPerPulse = 0 }, "liters_per_pulse"},
		{"tick rate", func(c *Config) { c.Timing.TickRate = 0 }, "tick_rate"},
		{"service above tick", func(c *Config) { c.Timing.ServiceRate = 200 }, "service_rate"},
		{"zero interval", func(c *Config) { c.Schedule.Light = 0 }, "schedule.light"},
		{"interval past wrap", func(c *Config) { c.Schedule.Battery = Duration(1200 * time.Hour) }, "schedule.battery"},
		{"settle too long", func(c *Config) { c.Schedule.ClimateSettle = c.Schedule.Climate }, "climate_settle"},
		{"unknown transport", func(c *Config) { c.Transport.Kind = "lora" }, "transport.kind"},
		{"no broker", func(c *Config) { c.Transport.MQTT.Broker = "" }, "broker"},
		{"no outbox", func(c *Config) { c.Transport.MQTT.OutboxSize = 0 }, "outbox_size"},
		{"no serial device", func(c *Config) {
			c.Transport.Kind = TransportSerial
			c.Transport.Serial.Device = ""
		}, "serial.device"},
		{"no contact", func(c *Config) { c.Pins.Contact = -1 }, "pins.contact"},
		{"pin clash", func(c *Config) { c.Pins.Awake = c.Pins.Contact }, "pins.awake"},
		{"light channel", func(c *Config) { c.Sensors.Light.Channel = 4 }, "light.channel"},
		{"channel clash", func(c *Config) { c.Sensors.Battery.Channel = c.Sensors.Light.Channel }, "battery.channel"},
		{"battery range", func(c *Config) { c.Sensors.Battery.FullMV = c.Sensors.Battery.EmptyMV }, "full_mv"},
		{"climate address", func(c *Config) { c.Sensors.Climate.Address = 0x80 }, "climate.address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidate_DisabledOutputPins(t *testing.T) {
	cfg := Default()
	cfg.Pins.Mirror = -1
	cfg.Pins.Awake = -1
	cfg.Pins.LightPower = -1
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_DoesNotMutate(t *testing.T) {
	cfg := Default()
	cfg.Quick = true
	before := *cfg
	if err := Validate(cfg); err != nil {
		t.Fatal(err)
	}
	if *cfg != before {
		t.Error("Validate mutated the config")
	}
}

func TestNormalize_Quick(t *testing.T) {
	cfg := Default()
	cfg.Quick = true
	Normalize(cfg)

	if cfg.Schedule.MinReport.D() != 60*time.Second {
		t.Errorf("min_report = %v, want 60s", cfg.Schedule.MinReport)
	}
	if cfg.Schedule.Battery.D() != 5*time.Minute {
		t.Errorf("battery = %v, want 5m", cfg.Schedule.Battery)
	}
	if cfg.Schedule.Climate.D() != 60*time.Second {
		t.Errorf("climate = %v, want 60s", cfg.Schedule.Climate)
	}
	if cfg.Schedule.Light.D() != 2*time.Minute {
		t.Errorf("light = %v, want 2m", cfg.Schedule.Light)
	}
	if cfg.Schedule.Hourly.D() != time.Hour {
		t.Errorf("hourly = %v, quick mode must not change it", cfg.Schedule.Hourly)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("quick config invalid: %v", err)
	}
}

func TestNormalize_NotQuick(t *testing.T) {
	cfg := Default()
	Normalize(cfg)
	if cfg.Schedule.MinReport.D() != 5*time.Minute {
		t.Errorf("min_report changed to %v", cfg.Schedule.MinReport)
	}
}

func TestNormalize_ClientID(t *testing.T) {
	cfg := Default()
	cfg.Node.ID = 9
	Normalize(cfg)
	if cfg.Transport.MQTT.ClientID != "gas-meter-9" {
		t.Errorf("client id = %q", cfg.Transport.MQTT.ClientID)
	}

	cfg = Default()
	cfg.Transport.MQTT.ClientID = "custom"
	Normalize(cfg)
	if cfg.Transport.MQTT.ClientID != "custom" {
		t.Errorf("explicit client id overwritten: %q", cfg.Transport.MQTT.ClientID)
	}
}

func TestNormalize_Nil(t *testing.T) {
	Normalize(nil)
}
