// rangemon prints the report stream of the sensing firmware and optionally
// publishes each range report to a Modbus server.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"sumobot/core"
	"sumobot/drivers/vl53l0x"
	"sumobot/host/config"
	"sumobot/host/mcu"
	"sumobot/host/publish"
	"sumobot/protocol"
)

var (
	cfgPath = flag.String("config", "", "YAML configuration file")
	device  = flag.String("device", "/dev/ttyACM0", "Serial device path (without -config)")
	quiet   = flag.Bool("quiet", false, "Only print alerts, errors and traces")
)

func main() {
	flag.Parse()
	log.SetPrefix("rangemon: ")

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	m := mcu.NewMCU()
	if err := m.ConnectWithConfig(&cfg.Serial); err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer m.Close()
	log.Printf("listening on %s", cfg.Serial.Device)

	var pub *publish.Publisher
	if cfg.Publish != nil {
		pub, err = publish.Dial(publish.Config{
			Endpoint: cfg.Publish.Endpoint,
			UnitID:   cfg.Publish.UnitID,
			Address:  cfg.Publish.Address,
			Timeout:  cfg.Publish.Timeout(),
		})
		if err != nil {
			log.Fatalf("publish: %v", err)
		}
		defer pub.Close()
		log.Printf("publishing to %s unit %d at %d", cfg.Publish.Endpoint, cfg.Publish.UnitID, cfg.Publish.Address)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	mon := &monitor{thresholds: thresholds(cfg.Thresholds), quiet: *quiet}
	for {
		select {
		case <-sigs:
			st, decodeErrs := m.Health()
			log.Printf("frames=%d crc_errors=%d seq_gaps=%d decode_errors=%d",
				st.Frames, st.CRCErrors, st.SeqGaps, decodeErrs)
			return
		default:
		}

		rep, err := m.Next(time.Second)
		if err != nil {
			if err == protocol.ErrTransportClosed {
				log.Fatalf("link closed")
			}
			continue
		}

		line, reading, ok := mon.handle(rep.Msg)
		if line != "" {
			fmt.Println(line)
		}
		if ok && pub != nil {
			if err := pub.Publish(reading); err != nil {
				log.Printf("publish failed: %v", err)
			}
		}
	}
}

func loadConfig() (*config.Monitor, error) {
	var cfg *config.Monitor
	if *cfgPath != "" {
		var err error
		if cfg, err = config.LoadMonitor(*cfgPath); err != nil {
			return nil, err
		}
	} else {
		cfg = &config.Monitor{}
		cfg.Serial.Device = *device
		cfg.Normalize()
	}
	return cfg, cfg.Validate()
}

func thresholds(th map[string]uint16) [vl53l0x.NumPositions]uint16 {
	var out [vl53l0x.NumPositions]uint16
	for _, pos := range vl53l0x.Positions {
		out[pos] = config.Threshold(th, pos)
	}
	return out
}

// monitor turns decoded messages into output lines and publishable readings
type monitor struct {
	thresholds [vl53l0x.NumPositions]uint16
	quiet      bool
	lastError  bool
}

func (mon *monitor) handle(msg any) (string, publish.Reading, bool) {
	switch v := msg.(type) {
	case *protocol.Hello:
		return "firmware " + v.Version, publish.Reading{}, false

	case *protocol.InitResult:
		if v.OK {
			return "sensors ready", publish.Reading{}, false
		}
		return fmt.Sprintf("INIT FAILED: %s (%s, %s)",
			vl53l0x.InitKind(v.Kind), vl53l0x.Position(v.Position), v.Step), publish.Reading{}, false

	case *protocol.RangeError:
		mon.lastError = true
		kind := vl53l0x.RangeKind(v.Kind)
		if kind == vl53l0x.RangeBus {
			return fmt.Sprintf("RANGE ERROR: %s (%s, %s)", kind, vl53l0x.Position(v.Position), v.Step),
				publish.Reading{Error: true}, false
		}
		return "RANGE ERROR: " + kind.String(), publish.Reading{Error: true}, false

	case *protocol.RangeReport:
		return mon.report(v)

	case *protocol.Trace:
		return "trace: " + v.Text, publish.Reading{}, false

	case *protocol.Event:
		return fmt.Sprintf("event %s id=%d clock=%d v1=%d v2=%d",
			core.EventName(v.Type), v.ID, v.Clock, v.Value1, v.Value2), publish.Reading{}, false
	}
	return "", publish.Reading{}, false
}

func (mon *monitor) report(v *protocol.RangeReport) (string, publish.Reading, bool) {
	r := publish.Reading{Cycle: v.Cycle, Fresh: v.Fresh, Error: mon.lastError}
	mon.lastError = false
	for i := 0; i < len(v.Ranges) && i < vl53l0x.NumPositions; i++ {
		r.Ranges[i] = v.Ranges[i]
	}
	r.Alerts = publish.Alerts(r.Ranges, mon.thresholds)

	if mon.quiet && r.Alerts == 0 {
		return "", r, true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "cycle %d", v.Cycle)
	if !v.Fresh {
		b.WriteString(" (stale)")
	}
	for _, pos := range vl53l0x.Positions {
		b.WriteString("  ")
		b.WriteString(pos.String())
		b.WriteByte('=')
		if r.Ranges[pos] == vl53l0x.OutOfRange {
			b.WriteString("--")
		} else {
			fmt.Fprintf(&b, "%dmm", r.Ranges[pos])
		}
		if r.Alerts&(1<<uint(pos)) != 0 {
			b.WriteByte('!')
		}
	}
	return b.String(), r, true
}
