package epd7in3e

import (
	"errors"
	"fmt"
	"image"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// spidev rejects transfers above its default buffer size.
const maxTxSize = 4096

// ErrBusyTimeout is returned when the panel does not report idle in time.
var ErrBusyTimeout = errors.New("panel busy timeout")

// Pins names the GPIO lines wired to the panel. Names are resolved with
// gpioreg, e.g. "GPIO17". CS and Power are optional.
type Pins struct {
	Reset string
	DC    string
	CS    string
	Busy  string
	Power string
}

// Config describes how the panel is attached.
type Config struct {
	// Port is a spireg port name; empty selects the first registered port.
	Port        string
	SpeedHz     int
	Pins        Pins
	BusyTimeout time.Duration
}

type txer interface {
	Tx(w, r []byte) error
}

type outPin interface {
	Out(l gpio.Level) error
}

type inPin interface {
	Read() gpio.Level
}

// Device is an attached panel.
type Device struct {
	conn  txer
	port  spi.PortCloser
	rst   outPin
	dc    outPin
	cs    outPin
	pwr   outPin
	busy  inPin
	sleep func(time.Duration)
	now   func() time.Time

	busyTimeout time.Duration
	asleep      bool
}

// Open initialises the periph host, connects the SPI port and claims the
// GPIO lines.
func Open(cfg Config) (*Device, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	port, err := spireg.Open(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("open spi port %q: %w", cfg.Port, err)
	}
	conn, err := port.Connect(physic.Frequency(cfg.SpeedHz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("connect spi: %w", err)
	}

	d, err := claimPins(conn, cfg)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	d.port = port
	return d, nil
}

func claimPins(conn spi.Conn, cfg Config) (*Device, error) {
	rst, err := outputPin(cfg.Pins.Reset, gpio.High, true)
	if err != nil {
		return nil, err
	}
	dc, err := outputPin(cfg.Pins.DC, gpio.Low, true)
	if err != nil {
		return nil, err
	}
	cs, err := outputPin(cfg.Pins.CS, gpio.High, false)
	if err != nil {
		return nil, err
	}
	pwr, err := outputPin(cfg.Pins.Power, gpio.High, false)
	if err != nil {
		return nil, err
	}
	busy := gpioreg.ByName(cfg.Pins.Busy)
	if busy == nil {
		return nil, fmt.Errorf("gpio %q not found", cfg.Pins.Busy)
	}
	if err := busy.In(gpio.Float, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("gpio %s input: %w", cfg.Pins.Busy, err)
	}
	return newDevice(conn, rst, dc, cs, pwr, busy, cfg.BusyTimeout), nil
}

func outputPin(name string, initial gpio.Level, required bool) (outPin, error) {
	if name == "" {
		if required {
			return nil, errors.New("gpio pin name is empty")
		}
		return nil, nil
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio %q not found", name)
	}
	if err := p.Out(initial); err != nil {
		return nil, fmt.Errorf("gpio %s output: %w", name, err)
	}
	return p, nil
}

func newDevice(conn txer, rst, dc, cs, pwr outPin, busy inPin, busyTimeout time.Duration) *Device {
	if busyTimeout <= 0 {
		busyTimeout = time.Minute
	}
	return &Device{
		conn:        conn,
		rst:         rst,
		dc:          dc,
		cs:          cs,
		pwr:         pwr,
		busy:        busy,
		sleep:       time.Sleep,
		now:         time.Now,
		busyTimeout: busyTimeout,
	}
}

type register struct {
	cmd  byte
	data []byte
}

var initSequence = []register{
	{0xAA, []byte{0x49, 0x55, 0x20, 0x08, 0x09, 0x18}},
	{0x01, []byte{0x3F}},
	{0x00, []byte{0x5F, 0x69}},
	{0x03, []byte{0x00, 0x54, 0x00, 0x44}},
	{0x05, []byte{0x40, 0x1F, 0x1F, 0x2C}},
	{0x06, []byte{0x6F, 0x1F, 0x17, 0x49}},
	{0x08, []byte{0x6F, 0x1F, 0x1F, 0x22}},
	{0x30, []byte{0x03}},
	{0x50, []byte{0x3F}},
	{0x60, []byte{0x02, 0x00}},
	{0x61, []byte{0x03, 0x20, 0x01, 0xE0}},
	{0x84, []byte{0x01}},
	{0xE3, []byte{0x2F}},
}

const (
	cmdPowerOn      = 0x04
	cmdPowerOff     = 0x02
	cmdRefresh      = 0x12
	cmdDataStart    = 0x10
	cmdDeepSleep    = 0x07
	deepSleepMagic  = 0xA5
	busyPollPeriod  = 5 * time.Millisecond
	sleepSettleTime = 2 * time.Second
)

// Init powers the panel, resets it and loads the controller registers.
func (d *Device) Init() error {
	if err := d.write(d.pwr, gpio.High); err != nil {
		return err
	}
	if err := d.reset(); err != nil {
		return err
	}
	if err := d.waitIdle(); err != nil {
		return err
	}
	d.sleep(30 * time.Millisecond)
	for _, reg := range initSequence {
		if err := d.send(reg.cmd, reg.data...); err != nil {
			return err
		}
	}
	if err := d.send(cmdPowerOn); err != nil {
		return err
	}
	if err := d.waitIdle(); err != nil {
		return err
	}
	d.asleep = false
	return nil
}

// Clear paints the whole panel white.
func (d *Device) Clear() error {
	return d.Display(Fill(White))
}

// Buffer converts img into the packed controller layout.
func (d *Device) Buffer(img image.Image) ([]byte, error) {
	return Pack(img)
}

// Display uploads a packed frame and refreshes the panel.
func (d *Device) Display(buf []byte) error {
	if len(buf) != BufferSize {
		return fmt.Errorf("frame buffer is %d bytes, want %d", len(buf), BufferSize)
	}
	if d.asleep {
		if err := d.Init(); err != nil {
			return err
		}
	}
	if err := d.command(cmdDataStart); err != nil {
		return err
	}
	if err := d.data(buf); err != nil {
		return err
	}
	return d.refresh()
}

func (d *Device) refresh() error {
	if err := d.send(cmdPowerOn); err != nil {
		return err
	}
	if err := d.waitIdle(); err != nil {
		return err
	}
	if err := d.send(cmdRefresh, 0x00); err != nil {
		return err
	}
	if err := d.waitIdle(); err != nil {
		return err
	}
	if err := d.send(cmdPowerOff, 0x00); err != nil {
		return err
	}
	return d.waitIdle()
}

// Sleep puts the controller into deep sleep. Display re-initialises it.
func (d *Device) Sleep() error {
	if err := d.send(cmdDeepSleep, deepSleepMagic); err != nil {
		return err
	}
	d.sleep(sleepSettleTime)
	d.asleep = true
	return nil
}

// Shutdown sleeps the panel, drops the control lines and releases the SPI
// port.
func (d *Device) Shutdown() error {
	err := d.Sleep()
	for _, pin := range []outPin{d.rst, d.dc, d.pwr} {
		if werr := d.write(pin, gpio.Low); werr != nil && err == nil {
			err = werr
		}
	}
	if d.port != nil {
		if cerr := d.port.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close spi port: %w", cerr)
		}
		d.port = nil
	}
	return err
}

func (d *Device) reset() error {
	steps := []struct {
		level gpio.Level
		hold  time.Duration
	}{
		{gpio.High, 20 * time.Millisecond},
		{gpio.Low, 2 * time.Millisecond},
		{gpio.High, 20 * time.Millisecond},
	}
	for _, step := range steps {
		if err := d.write(d.rst, step.level); err != nil {
			return err
		}
		d.sleep(step.hold)
	}
	return nil
}

// waitIdle blocks while the busy line is low.
func (d *Device) waitIdle() error {
	deadline := d.now().Add(d.busyTimeout)
	for d.busy.Read() == gpio.Low {
		if !d.now().Before(deadline) {
			return fmt.Errorf("%w after %s", ErrBusyTimeout, d.busyTimeout)
		}
		d.sleep(busyPollPeriod)
	}
	return nil
}

func (d *Device) send(cmd byte, payload ...byte) error {
	if err := d.command(cmd); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	return d.data(payload)
}

func (d *Device) command(cmd byte) error {
	if err := d.write(d.dc, gpio.Low); err != nil {
		return err
	}
	return d.transfer([]byte{cmd})
}

func (d *Device) data(payload []byte) error {
	if err := d.write(d.dc, gpio.High); err != nil {
		return err
	}
	for start := 0; start < len(payload); start += maxTxSize {
		end := min(start+maxTxSize, len(payload))
		if err := d.transfer(payload[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) transfer(w []byte) error {
	if err := d.write(d.cs, gpio.Low); err != nil {
		return err
	}
	err := d.conn.Tx(w, nil)
	if werr := d.write(d.cs, gpio.High); werr != nil && err == nil {
		err = werr
	}
	if err != nil {
		return fmt.Errorf("spi write: %w", err)
	}
	return nil
}

func (d *Device) write(pin outPin, level gpio.Level) error {
	if pin == nil {
		return nil
	}
	if err := pin.Out(level); err != nil {
		return fmt.Errorf("gpio write: %w", err)
	}
	return nil
}
