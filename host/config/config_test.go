package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sumobot/core"
	"sumobot/drivers/vl53l0x"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func benchSensors() []SensorConfig {
	return []SensorConfig{
		{Position: "front", XShut: "GPIO17", IRQ: "GPIO27"},
		{Position: "front-left", XShut: "GPIO22", IRQ: "GPIO23"},
		{Position: "front-right", XShut: "GPIO24", IRQ: "GPIO25"},
	}
}

func TestLoadMonitorDefaults(t *testing.T) {
	path := writeFile(t, `
serial:
  device: /dev/ttyACM0
thresholds:
  front: 150
publish:
  endpoint: 127.0.0.1:502
`)
	cfg, err := LoadMonitor(path)
	if err != nil {
		t.Fatalf("LoadMonitor failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cfg.Serial.Baud != 115200 || cfg.Serial.ReadTimeout != 100*time.Millisecond {
		t.Errorf("serial defaults not applied: %+v", cfg.Serial)
	}
	if cfg.Publish.UnitID != 1 || cfg.Publish.Timeout() != time.Second {
		t.Errorf("publish defaults not applied: %+v", cfg.Publish)
	}
	if Threshold(cfg.Thresholds, vl53l0x.Front) != 150 || Threshold(cfg.Thresholds, vl53l0x.FrontLeft) != 0 {
		t.Errorf("thresholds = %v", cfg.Thresholds)
	}
}

func TestLoadBench(t *testing.T) {
	path := writeFile(t, `
mode: multi
interval: 20ms
bus:
  backend: i2cdev
gpio:
  backend: rpio
sensors:
  - {position: front, address: 0x40, xshut: GPIO17, irq: GPIO27}
  - {position: front-left, xshut: GPIO22, irq: GPIO23}
  - {position: front-right, xshut: GPIO24, irq: GPIO25}
first_cycle_timeout: 500ms
`)
	cfg, err := LoadBench(path)
	if err != nil {
		t.Fatalf("LoadBench failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cfg.Bus.Device != "/dev/i2c-1" || cfg.Interval != 20*time.Millisecond {
		t.Errorf("bench = %+v", cfg)
	}

	pins := map[string]core.GPIOPin{"GPIO17": 17, "GPIO27": 27, "GPIO22": 22, "GPIO23": 23, "GPIO24": 24, "GPIO25": 25}
	reg, err := cfg.Registry(func(name string) (core.GPIOPin, error) { return pins[name], nil })
	if err != nil {
		t.Fatalf("Registry failed: %v", err)
	}
	if reg[vl53l0x.Front].Address != 0x40 || reg[vl53l0x.FrontRight].Address != 0x32 {
		t.Errorf("addresses = %#x %#x", reg[vl53l0x.Front].Address, reg[vl53l0x.FrontRight].Address)
	}
	if reg[vl53l0x.FrontLeft].XShut != 22 || reg[vl53l0x.FrontLeft].IRQ != 23 {
		t.Errorf("front-left lines = %+v", reg[vl53l0x.FrontLeft])
	}
	if got := cfg.DriverConfig(reg).FirstCycleTimeout; got != 500*time.Millisecond {
		t.Errorf("FirstCycleTimeout = %v", got)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := LoadBench(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}
	if _, err := LoadMonitor(writeFile(t, "serial: [")); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestBenchValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b *Bench)
		want   string
	}{
		{"valid", func(b *Bench) {}, ""},
		{"identify needs no sensors", func(b *Bench) { b.Mode = ModeIdentify; b.Sensors = nil }, ""},
		{"unknown mode", func(b *Bench) { b.Mode = "sweep" }, "unknown mode"},
		{"single needs position", func(b *Bench) { b.Mode = ModeSingle }, "unknown position"},
		{"bus backend", func(b *Bench) { b.Bus.Backend = "spi" }, "bus backend"},
		{"gpio backend", func(b *Bench) { b.GPIO.Backend = "sysfs" }, "gpio backend"},
		{"missing sensor", func(b *Bench) { b.Sensors = b.Sensors[:2] }, "entries"},
		{"duplicate position", func(b *Bench) { b.Sensors[2].Position = "front" }, "listed twice"},
		{"shared line", func(b *Bench) { b.Sensors[1].IRQ = "GPIO17" }, "GPIO17"},
		{"default address", func(b *Bench) { b.Sensors[0].Address = 0x29 }, "factory default"},
		{"duplicate address", func(b *Bench) { b.Sensors[0].Address = 0x31 }, "assigned twice"},
		{"threshold position", func(b *Bench) { b.Thresholds = map[string]uint16{"rear": 100} }, "unknown position"},
		{"threshold range", func(b *Bench) { b.Thresholds = map[string]uint16{"front": 9000} }, "out of range"},
		{"publish endpoint", func(b *Bench) { b.Publish = &PublishConfig{} }, "endpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Bench{Sensors: benchSensors()}
			b.Normalize()
			tt.mutate(b)

			err := b.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestMonitorValidate(t *testing.T) {
	m := &Monitor{}
	m.Normalize()
	if err := m.Validate(); err == nil {
		t.Error("expected error without a serial device")
	}
}
