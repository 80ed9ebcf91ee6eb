//go:build linux

// rangebench runs the sensing stack on a Linux board wired to the sensors,
// either as one of the bring-up test loops or as the full multi-sensor
// ranging loop.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sumobot/core"
	"sumobot/drivers/vl53l0x"
	"sumobot/host/config"
	"sumobot/host/linux"
	"sumobot/host/publish"
)

var (
	cfgPath = flag.String("config", "rangebench.yaml", "YAML configuration file")
	mode    = flag.String("mode", "", "Override the configured mode (identify|scratch|single|multi)")
	debug   = flag.Bool("debug", false, "Print driver trace output")
)

// lineDriver is a GPIO backend that can look lines up by name
type lineDriver interface {
	core.GPIODriver
	Resolve(name string) (core.GPIOPin, error)
	Close() error
}

// busCloser is an I2C backend
type busCloser interface {
	core.I2CBus
	Close() error
}

func main() {
	flag.Parse()
	log.SetPrefix("rangebench: ")

	cfg, err := config.LoadBench(*cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *mode != "" {
		cfg.Mode = *mode
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}

	core.SetDebugWriter(func(s string) { log.Print(s) })
	core.SetDebugEnabled(*debug)

	bus, err := openBus(cfg.Bus)
	if err != nil {
		log.Fatalf("i2c: %v", err)
	}
	defer bus.Close()

	gpio, err := openGPIO(cfg.GPIO)
	if err != nil {
		log.Fatalf("gpio: %v", err)
	}
	defer gpio.Close()
	core.SetGPIODriver(gpio)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	tick := time.NewTicker(cfg.Interval)
	defer tick.Stop()

	benchMode, _ := vl53l0x.ParseBenchMode(cfg.Mode)
	step, closeStep, err := buildStep(benchMode, cfg, bus, gpio)
	if err != nil {
		core.DumpEventRing()
		log.Fatalf("%s: %v", cfg.Mode, err)
	}
	defer closeStep()

	for {
		select {
		case <-stop:
			if *debug {
				core.DumpEventRing()
			}
			return
		case <-tick.C:
			step()
		}
	}
}

func openBus(c config.BusConfig) (busCloser, error) {
	if c.Backend == config.BusI2CDev {
		return linux.OpenDevBus(c.Device), nil
	}
	return linux.OpenPeriphBus(c.Name)
}

func openGPIO(c config.GPIOConfig) (lineDriver, error) {
	if c.Backend == config.GPIORpio {
		return linux.NewRpioGPIO()
	}
	return linux.NewPeriphGPIO()
}

// buildStep prepares the sensors for mode and returns the loop body
func buildStep(mode vl53l0x.BenchMode, cfg *config.Bench, bus core.I2CBus, gpio lineDriver) (func(), func(), error) {
	nop := func() {}

	if mode == vl53l0x.BenchIdentify || mode == vl53l0x.BenchScratch {
		// one sensor on the factory address, the others are not wired
		if len(cfg.Sensors) > 0 {
			pin, err := gpio.Resolve(cfg.Sensors[0].XShut)
			if err != nil {
				return nil, nop, err
			}
			if err := gpio.ConfigureOutput(pin); err != nil {
				return nil, nop, err
			}
			if err := gpio.SetPin(pin, true); err != nil {
				return nil, nop, err
			}
		}
		core.Delay(1000)
		if mode == vl53l0x.BenchIdentify {
			return func() { log.Print(vl53l0x.IdentifyStep(bus)) }, nop, nil
		}
		return func() { log.Print(vl53l0x.ScratchStep(bus)) }, nop, nil
	}

	reg, err := cfg.Registry(gpio.Resolve)
	if err != nil {
		return nil, nop, err
	}
	for _, sc := range reg {
		if err := gpio.ConfigureOutput(sc.XShut); err != nil {
			return nil, nop, err
		}
		if err := gpio.ConfigureInputPullUp(sc.IRQ); err != nil {
			return nil, nop, err
		}
	}

	sensors := vl53l0x.New(bus, gpio, cfg.DriverConfig(reg))
	if err := sensors.BringUpAndCalibrate(); err != nil {
		return nil, nop, err
	}
	log.Print("sensors ready")

	if mode == vl53l0x.BenchSingle {
		pos, _ := vl53l0x.ParsePosition(cfg.Position)
		return func() {
			mm, err := sensors.ReadSingle(pos)
			log.Print(vl53l0x.RangeLine(mm, err))
		}, nop, nil
	}

	var th [vl53l0x.NumPositions]uint16
	for _, pos := range vl53l0x.Positions {
		th[pos] = config.Threshold(cfg.Thresholds, pos)
	}

	var pub *publish.Publisher
	if cfg.Publish != nil {
		pub, err = publish.Dial(publish.Config{
			Endpoint: cfg.Publish.Endpoint,
			UnitID:   cfg.Publish.UnitID,
			Address:  cfg.Publish.Address,
			Timeout:  cfg.Publish.Timeout(),
		})
		if err != nil {
			return nil, nop, err
		}
	}

	step := func() {
		ranges, fresh, err := sensors.ReadMulti()
		if !fresh && err == nil {
			return
		}
		log.Print(vl53l0x.MultiLine(ranges, fresh, err))
		if pub == nil {
			return
		}
		r := publish.Reading{
			Cycle:  sensors.Cycles(),
			Fresh:  fresh,
			Error:  err != nil,
			Alerts: publish.Alerts(ranges, th),
			Ranges: ranges,
		}
		if err := pub.Publish(r); err != nil {
			log.Printf("publish failed: %v", err)
		}
	}
	return step, func() {
		if pub != nil {
			pub.Close()
		}
	}, nil
}
