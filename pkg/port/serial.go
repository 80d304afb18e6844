package port

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate is used by both the IMU and the motor controller UARTs.
const DefaultBaudRate = 115200

// Config describes a serial device.
type Config struct {
	Device   string
	BaudRate int
	// ReadTimeout bounds a single Read so the pump can observe cancellation
	// without closing the port. Zero blocks until data arrives.
	ReadTimeout time.Duration
}

var (
	defaultIMU = Config{
		Device:   "/dev/ttyUSB0",
		BaudRate: DefaultBaudRate,
	}
	defaultODrive = Config{
		Device:   "/dev/ttyACM0",
		BaudRate: DefaultBaudRate,
	}
)

func init() {
	fromEnv(&defaultIMU, "MONOWHEEL_IMU_PORT", "MONOWHEEL_IMU_BAUD")
	fromEnv(&defaultODrive, "MONOWHEEL_ODRIVE_PORT", "MONOWHEEL_ODRIVE_BAUD")
}

func fromEnv(c *Config, deviceVar, baudVar string) {
	if val := os.Getenv(deviceVar); val != "" {
		c.Device = val
	}
	if val := os.Getenv(baudVar); val != "" {
		if baud, err := strconv.Atoi(val); err == nil {
			c.BaudRate = baud
		}
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultIMU.Device, "imu", defaultIMU.Device, "Serial device of the IMU.")
	flag.IntVar(&defaultIMU.BaudRate, "imu-baud", defaultIMU.BaudRate, "Baud rate of the IMU.")
	flag.StringVar(&defaultODrive.Device, "odrive", defaultODrive.Device, "Serial device of the ODrive.")
	flag.IntVar(&defaultODrive.BaudRate, "odrive-baud", defaultODrive.BaudRate, "Baud rate of the ODrive.")
}

// IMU gets the default IMU port config.
func IMU() *Config {
	return &defaultIMU
}

// ODrive gets the default ODrive port config.
func ODrive() *Config {
	return &defaultODrive
}

// Open opens the serial port in 8N1 mode.
func (c *Config) Open() (serial.Port, error) {
	if c.Device == "" {
		return nil, fmt.Errorf("serial device not specified")
	}
	mode := &serial.Mode{
		BaudRate: c.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(c.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.Device, err)
	}
	if c.ReadTimeout > 0 {
		if err := p.SetReadTimeout(c.ReadTimeout); err != nil {
			p.Close()
			return nil, fmt.Errorf("set read timeout on %s: %w", c.Device, err)
		}
	}
	return p, nil
}

// List enumerates the serial devices present on the host.
func List() ([]string, error) {
	return serial.GetPortsList()
}
