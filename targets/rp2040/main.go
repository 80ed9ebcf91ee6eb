//go:build rp2040

package main

import (
	"errors"
	"machine"
	"time"

	"github.com/jangala-dev/tinygo-uartx/uartx"

	"sumobot/core"
	"sumobot/drivers/vl53l0x"
	"sumobot/protocol"
)

// Board wiring
const (
	i2cSDA  = machine.GPIO4
	i2cSCL  = machine.GPIO5
	i2cFreq = 400 * machine.KHz

	traceTX   = machine.GPIO0
	traceRX   = machine.GPIO1
	traceBaud = 115200

	rangePeriodMS     = 50
	firstCycleTimeout = 500 * time.Millisecond
)

var (
	xshutPins = [vl53l0x.NumPositions]core.GPIOPin{10, 11, 12}
	irqPins   = [vl53l0x.NumPositions]core.GPIOPin{13, 14, 15}
)

// testMode selects a bring-up test loop instead of normal ranging
const testMode = vl53l0x.BenchOff

// testPosition is the sensor used by the single-sensor test loops
const testPosition = vl53l0x.Front

var (
	outputBuffer *protocol.ScratchOutput
	transport    *protocol.Transport

	sensors    *vl53l0x.Sensors
	rangeTimer core.Timer

	consecutiveWriteFailures uint32
)

func main() {
	machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})

	InitUSB()
	InitClock()
	initTrace()

	outputBuffer = protocol.NewScratchOutput()
	transport = protocol.NewTransport(outputBuffer)
	transport.SetFlushCallback(writeUSB)
	transport.SendMessage(protocol.MsgHello, (&protocol.Hello{Version: protocol.Version}).Encode)

	ctl, err := newDWController(machine.I2C0, i2cSDA, i2cSCL, i2cFreq)
	if err != nil {
		trace("[I2C] configure failed: " + err.Error())
		idle()
	}
	bus := core.NewBus(ctl, core.BusConfig{})
	core.SetI2CBus(bus)

	gpio := newRPGPIODriver()
	core.SetGPIODriver(gpio)
	for i := range xshutPins {
		gpio.ConfigureOutput(xshutPins[i])
		gpio.ConfigureInputPullUp(irqPins[i])
	}

	if testMode != vl53l0x.BenchOff {
		runBench(testMode, bus, gpio)
	}

	cfg := vl53l0x.DefaultConfig(vl53l0x.NewRegistry(xshutPins, irqPins))
	cfg.FirstCycleTimeout = firstCycleTimeout
	sensors = vl53l0x.New(bus, gpio, cfg)
	if err := sensors.BringUpAndCalibrate(); err != nil {
		reportInit(err)
		sendEvents()
		idle()
	}
	reportInit(nil)

	rangeTimer = core.Timer{WakeTime: core.GetTime(), Handler: rangeTask}
	core.ScheduleTimer(&rangeTimer)

	for {
		UpdateSystemTime()
		core.TimerDispatch()
		USBDrainInput()
		if len(outputBuffer.Result()) > 0 {
			writeUSB()
		}
		time.Sleep(100 * time.Microsecond)
	}
}

// rangeTask reports one ReadMulti per period. Stale results are not sent.
func rangeTask(t *core.Timer) uint8 {
	ranges, fresh, err := sensors.ReadMulti()
	if fresh {
		rep := protocol.RangeReport{Cycle: sensors.Cycles(), Fresh: true, Ranges: ranges[:]}
		transport.SendMessage(protocol.MsgRangeReport, rep.Encode)
	}
	if err != nil {
		reportRangeError(err)
	}
	t.WakeTime += core.TimerFromMS(rangePeriodMS)
	return core.SF_RESCHEDULE
}

func reportInit(err error) {
	res := protocol.InitResult{OK: err == nil}
	var ie *vl53l0x.InitError
	if errors.As(err, &ie) {
		res.Kind = uint8(ie.Kind)
		res.Position = uint8(ie.Position)
		res.Step = ie.Step
	}
	if err != nil {
		trace("[VL53L0X] init failed: " + err.Error())
	}
	transport.SendMessage(protocol.MsgInitResult, res.Encode)
}

func reportRangeError(err error) {
	var msg protocol.RangeError
	var re *vl53l0x.RangeError
	if errors.As(err, &re) {
		msg.Kind = uint8(re.Kind)
		msg.Position = uint8(re.Position)
		msg.Step = re.Step
	}
	transport.SendMessage(protocol.MsgRangeError, msg.Encode)
}

// sendEvents forwards the event ring to the host
func sendEvents() {
	var events [core.EventRingSize]core.Event
	n := core.Events(events[:])
	for _, evt := range events[:n] {
		msg := protocol.Event{Type: evt.Type, ID: evt.ID, Clock: evt.Clock, Value1: evt.Value1, Value2: evt.Value2}
		transport.SendMessage(protocol.MsgEvent, msg.Encode)
	}
}

// runBench runs one of the bring-up test loops forever
func runBench(mode vl53l0x.BenchMode, bus core.I2CBus, gpio core.GPIODriver) {
	trace("[BENCH] " + mode.String())

	if mode == vl53l0x.BenchIdentify || mode == vl53l0x.BenchScratch {
		vl53l0x.PowerOne(gpio, vl53l0x.NewRegistry(xshutPins, irqPins), testPosition, 1000)
	}

	var step func() string
	switch mode {
	case vl53l0x.BenchIdentify:
		step = func() string { return vl53l0x.IdentifyStep(bus) }
	case vl53l0x.BenchScratch:
		step = func() string { return vl53l0x.ScratchStep(bus) }
	default:
		// the bring-up sequence expects every sensor held in standby
		for _, p := range xshutPins {
			gpio.SetPin(p, false)
		}
		s := vl53l0x.New(bus, gpio, vl53l0x.DefaultConfig(vl53l0x.NewRegistry(xshutPins, irqPins)))
		if err := s.BringUpAndCalibrate(); err != nil {
			reportInit(err)
			idle()
		}
		if mode == vl53l0x.BenchSingle {
			step = func() string { return vl53l0x.RangeLine(s.ReadSingle(testPosition)) }
		} else {
			step = func() string { return vl53l0x.MultiLine(s.ReadMulti()) }
		}
	}

	for {
		trace(step())
		core.Delay(1000)
	}
}

// initTrace sends debug output to UART0
func initTrace() {
	uartx.UART0.Configure(uartx.UARTConfig{BaudRate: traceBaud, TX: traceTX, RX: traceRX})
	core.SetDebugWriter(func(s string) {
		uartx.UART0.Write([]byte(s))
		uartx.UART0.Write([]byte("\r\n"))
	})
	core.SetDebugEnabled(true)
}

// trace writes to the UART and mirrors the line into the report stream
func trace(s string) {
	core.DebugPrintln(s)
	if transport != nil {
		transport.SendMessage(protocol.MsgTrace, (&protocol.Trace{Text: s}).Encode)
	}
}

// idle keeps the stream flushed after a fatal error
func idle() {
	for {
		if len(outputBuffer.Result()) > 0 {
			writeUSB()
		}
		USBDrainInput()
		time.Sleep(10 * time.Millisecond)
	}
}

// writeUSB drains the output buffer to USB. After repeated failures the
// host is assumed gone and pending frames are dropped.
func writeUSB() {
	result := outputBuffer.Result()
	written := 0
	for written < len(result) {
		n, err := USBWriteBytes(result[written:])
		if err != nil || n == 0 {
			consecutiveWriteFailures++
			if consecutiveWriteFailures > 10 {
				consecutiveWriteFailures = 0
				outputBuffer.Reset()
				transport.Reset()
			}
			return
		}
		written += n
	}
	consecutiveWriteFailures = 0
	outputBuffer.Reset()
}
