// Package config holds the YAML configuration of the host tools.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"sumobot/host/serial"
)

// ---- MONITOR (rangemon) ----

type Monitor struct {
	Serial     serial.Config     `yaml:"serial"`
	Thresholds map[string]uint16 `yaml:"thresholds"` // position -> mm
	Publish    *PublishConfig    `yaml:"publish"`
	EventDump  bool              `yaml:"event_dump"`
}

// ---- BENCH (rangebench) ----

type Bench struct {
	Mode     string        `yaml:"mode"` // identify | scratch | single | multi
	Position string        `yaml:"position"`
	Interval time.Duration `yaml:"interval"`

	Bus     BusConfig      `yaml:"bus"`
	GPIO    GPIOConfig     `yaml:"gpio"`
	Sensors []SensorConfig `yaml:"sensors"`

	BootDelay         time.Duration `yaml:"boot_delay"`
	FirstCycleTimeout time.Duration `yaml:"first_cycle_timeout"`
	Retries           uint32        `yaml:"retries"`

	Thresholds map[string]uint16 `yaml:"thresholds"`
	Publish    *PublishConfig    `yaml:"publish"`
}

type BusConfig struct {
	Backend string `yaml:"backend"` // periph | i2cdev
	Name    string `yaml:"name"`    // periph bus name, "" for the first bus
	Device  string `yaml:"device"`  // /dev/i2c-N for i2cdev
}

type GPIOConfig struct {
	Backend string `yaml:"backend"` // periph | rpio
}

type SensorConfig struct {
	Position string `yaml:"position"`
	Address  uint8  `yaml:"address"`
	XShut    string `yaml:"xshut"` // line name, e.g. "GPIO17"
	IRQ      string `yaml:"irq"`
}

// ---- PUBLISH ----

type PublishConfig struct {
	Endpoint  string `yaml:"endpoint"`
	UnitID    uint8  `yaml:"unit_id"`
	Address   uint16 `yaml:"address"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

const (
	ModeIdentify = "identify"
	ModeScratch  = "scratch"
	ModeSingle   = "single"
	ModeMulti    = "multi"

	BusPeriph = "periph"
	BusI2CDev = "i2cdev"

	GPIOPeriph = "periph"
	GPIORpio   = "rpio"
)

// LoadMonitor reads a rangemon configuration file
func LoadMonitor(path string) (*Monitor, error) {
	cfg := &Monitor{}
	if err := load(path, cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return cfg, nil
}

// LoadBench reads a rangebench configuration file
func LoadBench(path string) (*Bench, error) {
	cfg := &Bench{}
	if err := load(path, cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return cfg, nil
}

func load(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
