package serialgw

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/tarm/serial"

	"github.com/sweeney/gas-meter/internal/report"
)

// ErrClosed is returned by operations on a closed gateway.
var ErrClosed = errors.New("serialgw: closed")

// Config holds serial port settings.
type Config struct {
	Device string
	Baud   int
	Node   uint8
}

// Gateway is a transport over a serial link. Writes are synchronous, so the
// link is ready whenever no write is in progress.
type Gateway struct {
	node uint8
	port io.ReadWriteCloser
	msgs chan report.Message
	done chan struct{}

	mu       sync.Mutex
	writing  bool
	disabled bool
	closed   bool
	lines    uint64
}

// Open opens the serial device and starts reading from it.
func Open(cfg Config) (*Gateway, error) {
	if cfg.Baud == 0 {
		cfg.Baud = 115200
	}
	port, err := serial.OpenPort(&serial.Config{Name: cfg.Device, Baud: cfg.Baud})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Device, err)
	}
	return New(port, cfg.Node), nil
}

// New wraps an open port.
func New(port io.ReadWriteCloser, node uint8) *Gateway {
	g := &Gateway{
		node: node,
		port: port,
		msgs: make(chan report.Message, 16),
		done: make(chan struct{}),
	}
	go g.readLoop()
	return g
}

func (g *Gateway) readLoop() {
	defer close(g.done)
	sc := bufio.NewScanner(g.port)
	for sc.Scan() {
		msg, err := ParseLine(sc.Text())
		if err != nil {
			log.Printf("serialgw: %v", err)
			continue
		}
		if msg.Node != g.node {
			continue
		}
		select {
		case g.msgs <- msg:
		default:
			log.Printf("serialgw: inbound queue full, dropping %q", sc.Text())
		}
	}
	if err := sc.Err(); err != nil && !g.isClosed() {
		log.Printf("serialgw: read: %v", err)
	}
}

func (g *Gateway) isClosed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

func (g *Gateway) write(line string) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrClosed
	}
	g.disabled = false
	g.writing = true
	g.mu.Unlock()

	_, err := io.WriteString(g.port, line)

	g.mu.Lock()
	g.writing = false
	if err == nil {
		g.lines++
	}
	g.mu.Unlock()
	if err != nil {
		return fmt.Errorf("serialgw: write: %w", err)
	}
	return nil
}

// Submit writes one report line.
func (g *Gateway) Submit(r report.Report) error {
	return g.write(FormatReport(g.node, r))
}

// Request writes a value request line.
func (g *Gateway) Request(p report.Param) error {
	return g.write(FormatRequest(g.node, p))
}

// IsReady reports whether no write is in progress.
func (g *Gateway) IsReady() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.writing
}

// Enable marks the link awake.
func (g *Gateway) Enable() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}
	g.disabled = false
	return nil
}

// Disable marks the link asleep. The wire stays up; the next write wakes
// it again.
func (g *Gateway) Disable() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.disabled = true
	return nil
}

// Disabled reports the sleep state.
func (g *Gateway) Disabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.disabled
}

// Messages returns inbound messages addressed to this node.
func (g *Gateway) Messages() <-chan report.Message {
	return g.msgs
}

// IsConnected reports whether the port is open.
func (g *Gateway) IsConnected() bool {
	return !g.isClosed()
}

// Lines returns the number of lines written.
func (g *Gateway) Lines() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lines
}

// Close closes the port and waits briefly for the reader to stop.
func (g *Gateway) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	g.mu.Unlock()

	err := g.port.Close()
	select {
	case <-g.done:
	case <-time.After(time.Second):
		log.Printf("serialgw: reader did not stop after close")
	}
	return err
}
