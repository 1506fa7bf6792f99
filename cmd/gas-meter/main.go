// Command gas-meter counts gas meter pulses on a GPIO contact and reports
// consumption, battery, light and climate readings to a MySensors controller.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/sweeney/gas-meter/internal/config"
	"github.com/sweeney/gas-meter/internal/gpio"
	"github.com/sweeney/gas-meter/internal/logic"
	"github.com/sweeney/gas-meter/internal/mqtt"
	"github.com/sweeney/gas-meter/internal/node"
	"github.com/sweeney/gas-meter/internal/power"
	"github.com/sweeney/gas-meter/internal/report"
	"github.com/sweeney/gas-meter/internal/serialgw"
	"github.com/sweeney/gas-meter/internal/status"
	"github.com/sweeney/gas-meter/internal/tick"
	"github.com/sweeney/gas-meter/internal/web"
)

func main() {
	cfgPath := flag.String("config", "", "YAML config file (defaults are used if empty)")
	broker := flag.String("broker", "", "MQTT broker address (overrides config)")
	nodeID := flag.Uint("node-id", 0, "MySensors node id (overrides config)")
	pinContact := flag.Int("pin-contact", gpio.PinContact, "BCM pin number for the meter contact (overrides config)")
	httpAddr := flag.String("http", ":8080", "HTTP status address, empty to disable (overrides config)")
	quick := flag.Bool("quick", false, "Use short report intervals for bench testing")
	printState := flag.Bool("print-state", false, "Print current contact state and exit")

	flag.Parse()

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg, err := loadConfig(*cfgPath, set, overrides{
		broker:     *broker,
		nodeID:     *nodeID,
		pinContact: *pinContact,
		httpAddr:   *httpAddr,
		quick:      *quick,
	})
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := run(cfg, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// overrides holds the command-line values that take precedence over the
// config file when the flag was given explicitly.
type overrides struct {
	broker     string
	nodeID     uint
	pinContact int
	httpAddr   string
	quick      bool
}

// loadConfig loads path (or the defaults), applies the flags named in set,
// then validates and normalizes.
func loadConfig(path string, set map[string]bool, o overrides) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	}

	if set["broker"] {
		cfg.Transport.MQTT.Broker = o.broker
	}
	if set["node-id"] {
		if o.nodeID > 255 {
			return nil, fmt.Errorf("node-id: %d out of range", o.nodeID)
		}
		cfg.Node.ID = uint8(o.nodeID)
	}
	if set["pin-contact"] {
		cfg.Pins.Contact = o.pinContact
	}
	if set["http"] {
		cfg.HTTP = o.httpAddr
	}
	if set["quick"] {
		cfg.Quick = o.quick
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	config.Normalize(cfg)
	return cfg, nil
}

func run(cfg *config.Config, printState bool) error {
	// Initialize GPIO
	contact, err := gpio.NewRealReader(cfg.Pins.Contact)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer contact.Close()

	// Print state mode
	if printState {
		closed, err := contact.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Printf("contact: %s\n", status.ContactString(closed))
		return nil
	}

	outs := openOutputs(cfg.Pins)
	defer outs.Close()

	bootID := uuid.NewString()

	// Initialize transport
	tr, err := openTransport(cfg, bootID)
	if err != nil {
		return fmt.Errorf("init transport: %w", err)
	}
	defer tr.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(timeNow(), bootID, statusConfig(cfg))
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}
	tracker.SetConnected(tr.IsConnected())
	publishSystem(tr, tracker, "STARTUP", "")

	// Pulse detection runs on the tick goroutine.
	counter := &logic.PulseCounter{}
	detector := logic.NewPulseDetector(cfg.Pulse.DebounceSamples, counter, outs.mirror())
	s := &sampler{reader: contact}
	ticker := tick.NewTicker(cfg.Timing.TickRate, func() { detector.Tick(s.sample()) })

	mgr := power.NewManager(power.Config{
		TickRate:     cfg.Timing.TickRate,
		ServiceRate:  cfg.Timing.ServiceRate,
		ReadyTimeout: cfg.Timing.ReadyTimeout.D(),
	}, tr, power.TickIdler{Source: ticker}, outs.awake)

	sens, closeSensors := openSensors(cfg.Sensors, outs.lightPower)
	defer closeSensors()

	sched := node.NewScheduler(nodeConfig(cfg), ticker, counter, tr, mgr, sens)

	// Start HTTP status server
	if cfg.HTTP != "" {
		srv := web.New(cfg.HTTP, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP)
	}

	log.Printf("started: node=%d transport=%s liters_per_pulse=%v min_report=%v quick=%v boot=%s",
		cfg.Node.ID, cfg.Transport.Kind, cfg.Pulse.LitersPerPulse, cfg.Schedule.MinReport, cfg.Quick, bootID)

	sched.Startup()
	ticker.Start()
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(daemon{
		power:     mgr,
		scheduler: sched,
		detector:  detector,
		transport: tr,
		tracker:   tracker,
		heartbeat: cfg.Heartbeat.D(),
		now:       timeNow,
	}, sigCh)
}

// transport is what the daemon needs from either gateway.
type transport interface {
	node.Transport
	power.Transport
	Messages() <-chan report.Message
	IsConnected() bool
	Close() error
}

// systemPublisher is implemented by transports that carry lifecycle events.
type systemPublisher interface {
	PublishSystem(event mqtt.SystemEvent) error
}

var (
	_ transport       = (*mqtt.RealTransport)(nil)
	_ transport       = (*serialgw.Gateway)(nil)
	_ systemPublisher = (*mqtt.RealTransport)(nil)
)

func openTransport(cfg *config.Config, bootID string) (transport, error) {
	switch cfg.Transport.Kind {
	case config.TransportSerial:
		g, err := serialgw.Open(serialgw.Config{
			Device: cfg.Transport.Serial.Device,
			Baud:   cfg.Transport.Serial.Baud,
			Node:   cfg.Node.ID,
		})
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		m := cfg.Transport.MQTT
		t, err := mqtt.NewRealTransport(mqtt.Config{
			Broker:   m.Broker,
			ClientID: m.ClientID,
			Topics: mqtt.Topics{
				Out:  m.OutPrefix,
				In:   m.InPrefix,
				Node: cfg.Node.ID,
			},
			SystemTopic: m.SystemTopic,
			BootID:      bootID,
			OutboxSize:  m.OutboxSize,
		})
		if err != nil {
			return nil, err
		}
		return t, nil
	}
}

func nodeConfig(cfg *config.Config) node.Config {
	return node.Config{
		LitersPerPulse:    cfg.Pulse.LitersPerPulse,
		MinReportInterval: cfg.Schedule.MinReport.D(),
		HourlyInterval:    cfg.Schedule.Hourly.D(),
		LightInterval:     cfg.Schedule.Light.D(),
		BatteryInterval:   cfg.Schedule.Battery.D(),
		ClimateInterval:   cfg.Schedule.Climate.D(),
		ClimateSettle:     cfg.Schedule.ClimateSettle.D(),
	}
}

func statusConfig(cfg *config.Config) status.Config {
	endpoint := cfg.Transport.MQTT.Broker
	if cfg.Transport.Kind == config.TransportSerial {
		endpoint = cfg.Transport.Serial.Device
	}
	return status.Config{
		NodeID:         cfg.Node.ID,
		Transport:      cfg.Transport.Kind,
		Endpoint:       endpoint,
		LitersPerPulse: cfg.Pulse.LitersPerPulse,
		TickRate:       cfg.Timing.TickRate,
		DebounceTicks:  cfg.Pulse.DebounceSamples,
		MinReportMs:    cfg.Schedule.MinReport.D().Milliseconds(),
		HourlyMs:       cfg.Schedule.Hourly.D().Milliseconds(),
		HeartbeatMs:    cfg.Heartbeat.D().Milliseconds(),
		HTTPPort:       cfg.HTTP,
		Quick:          cfg.Quick,
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
