package config

import (
	"fmt"
	"time"

	"github.com/sweeney/gas-meter/internal/logic"
)

// Validate checks configuration correctness.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	// node
	if cfg.Node.ID == 0 || cfg.Node.ID == 255 {
		return fmt.Errorf("node.id: %d is reserved (use 1-254)", cfg.Node.ID)
	}

	// pulse
	if cfg.Pulse.DebounceSamples < 1 {
		return fmt.Errorf("pulse.debounce_samples: must be at least 1, got %d", cfg.Pulse.DebounceSamples)
	}
	if cfg.Pulse.LitersPerPulse <= 0 {
		return fmt.Errorf("pulse.liters_per_pulse: must be positive, got %v", cfg.Pulse.LitersPerPulse)
	}

	// timing
	if cfg.Timing.TickRate < 1 || cfg.Timing.TickRate > 1000 {
		return fmt.Errorf("timing.tick_rate: must be 1-1000 Hz, got %d", cfg.Timing.TickRate)
	}
	if cfg.Timing.ServiceRate < 1 || cfg.Timing.ServiceRate > cfg.Timing.TickRate {
		return fmt.Errorf("timing.service_rate: must be 1-%d Hz, got %d", cfg.Timing.TickRate, cfg.Timing.ServiceRate)
	}
	if cfg.Timing.ReadyTimeout.D() < 0 {
		return fmt.Errorf("timing.ready_timeout: must not be negative")
	}

	// schedule
	intervals := []struct {
		name string
		d    Duration
	}{
		{"schedule.min_report", cfg.Schedule.MinReport},
		{"schedule.hourly", cfg.Schedule.Hourly},
		{"schedule.light", cfg.Schedule.Light},
		{"schedule.battery", cfg.Schedule.Battery},
		{"schedule.climate", cfg.Schedule.Climate},
	}
	for _, iv := range intervals {
		if err := checkInterval(iv.name, iv.d.D()); err != nil {
			return err
		}
	}
	if cfg.Schedule.ClimateSettle.D() < 0 || cfg.Schedule.ClimateSettle.D() >= cfg.Schedule.Climate.D() {
		return fmt.Errorf("schedule.climate_settle: must be between 0 and schedule.climate")
	}

	// transport
	switch cfg.Transport.Kind {
	case TransportMQTT:
		if cfg.Transport.MQTT.Broker == "" {
			return fmt.Errorf("transport.mqtt.broker: required")
		}
		if cfg.Transport.MQTT.OutPrefix == "" || cfg.Transport.MQTT.InPrefix == "" {
			return fmt.Errorf("transport.mqtt: out_prefix and in_prefix are required")
		}
		if cfg.Transport.MQTT.OutboxSize < 1 {
			return fmt.Errorf("transport.mqtt.outbox_size: must be at least 1, got %d", cfg.Transport.MQTT.OutboxSize)
		}
	case TransportSerial:
		if cfg.Transport.Serial.Device == "" {
			return fmt.Errorf("transport.serial.device: required")
		}
		if cfg.Transport.Serial.Baud < 0 {
			return fmt.Errorf("transport.serial.baud: must not be negative")
		}
	default:
		return fmt.Errorf("transport.kind: unknown %q (want %q or %q)", cfg.Transport.Kind, TransportMQTT, TransportSerial)
	}

	// pins
	if cfg.Pins.Contact < 0 {
		return fmt.Errorf("pins.contact: required")
	}
	used := map[int]string{cfg.Pins.Contact: "contact"}
	for _, p := range []struct {
		name string
		pin  int
	}{
		{"mirror", cfg.Pins.Mirror},
		{"awake", cfg.Pins.Awake},
		{"light_power", cfg.Pins.LightPower},
	} {
		if p.pin < 0 {
			continue
		}
		if other, ok := used[p.pin]; ok {
			return fmt.Errorf("pins.%s: line %d already used by %s", p.name, p.pin, other)
		}
		used[p.pin] = p.name
	}

	// sensors
	s := cfg.Sensors
	if s.Light.Enabled || s.Battery.Enabled {
		if s.ADCAddress > 0x7F {
			return fmt.Errorf("sensors.adc_address: 0x%02x is not a 7-bit address", s.ADCAddress)
		}
	}
	if s.Light.Enabled {
		if s.Light.Channel < 0 || s.Light.Channel > 3 {
			return fmt.Errorf("sensors.light.channel: must be 0-3, got %d", s.Light.Channel)
		}
		if s.Light.Supply <= 0 {
			return fmt.Errorf("sensors.light.supply_volts: must be positive")
		}
	}
	if s.Battery.Enabled {
		if s.Battery.Channel < 0 || s.Battery.Channel > 3 {
			return fmt.Errorf("sensors.battery.channel: must be 0-3, got %d", s.Battery.Channel)
		}
		if s.Light.Enabled && s.Battery.Channel == s.Light.Channel {
			return fmt.Errorf("sensors.battery.channel: %d already used by light", s.Battery.Channel)
		}
		if s.Battery.Divider <= 0 {
			return fmt.Errorf("sensors.battery.divider: must be positive")
		}
		if s.Battery.FullMV <= s.Battery.EmptyMV {
			return fmt.Errorf("sensors.battery: full_mv (%d) must exceed empty_mv (%d)", s.Battery.FullMV, s.Battery.EmptyMV)
		}
	}
	if s.Climate.Enabled && s.Climate.Address > 0x7F {
		return fmt.Errorf("sensors.climate.address: 0x%02x is not a 7-bit address", s.Climate.Address)
	}

	if cfg.Heartbeat.D() < 0 {
		return fmt.Errorf("heartbeat: must not be negative")
	}

	return nil
}

func checkInterval(name string, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%s: must be positive, got %v", name, d)
	}
	if d > logic.MaxInterval {
		return fmt.Errorf("%s: %v exceeds the %v clock window", name, d, logic.MaxInterval)
	}
	return nil
}
