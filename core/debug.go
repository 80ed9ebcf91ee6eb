package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Event captures a sensing-stack event for post-mortem analysis
type Event struct {
	Type   uint8  // Event type code
	ID     uint8  // Bus address or sensor position
	Clock  uint32 // System clock at event
	Value1 uint32 // Context-dependent value
	Value2 uint32 // Context-dependent value
}

// Event type codes
const (
	EvtBusError    = 1 // Bus transfer failed: ID=addr, v1=phase, v2=1 on timeout
	EvtBringUp     = 2 // Sensor readdressed: ID=position, v1=new address
	EvtCalibrated  = 3 // Sensor calibrated: ID=position, v1=spad count, v2=aperture
	EvtCycleStart  = 4 // Multi-sensor cycle started: v1=cycle number
	EvtCycleDone   = 5 // Multi-sensor cycle completed: v1=cycle number
	EvtSensorReady = 6 // Sensor interrupt: ID=position
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Event ring buffer (non-blocking, for post-mortem)
	eventRing     [EventRingSize]Event
	eventRingHead uint8
	eventsEnabled bool = true

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	debugChan = make(chan string, 16) // Buffer 16 messages
	go debugOutputWorker()
}

// debugOutputWorker runs in background, drains debug channel
func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer
// Blocks if debug is enabled (use DebugAsync for non-blocking)
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for async output (non-blocking)
// Returns immediately even if channel is full (drops message)
func DebugAsync(msg string) {
	if debugEnabled && debugChan != nil {
		select {
		case debugChan <- msg:
		default:
			// Channel full, drop message
		}
	}
}

// RecordEvent captures an event in the ring buffer.
// Safe to call from interrupt handlers.
func RecordEvent(eventType, id uint8, value1, value2 uint32) {
	if !eventsEnabled {
		return
	}
	state := DisableInterrupts()
	idx := eventRingHead
	eventRing[idx] = Event{
		Type:   eventType,
		ID:     id,
		Clock:  GetTime(),
		Value1: value1,
		Value2: value2,
	}
	eventRingHead = (idx + 1) % EventRingSize
	RestoreInterrupts(state)
}

// Events copies the ring into dst, oldest first, and returns the count
func Events(dst []Event) int {
	state := DisableInterrupts()
	defer RestoreInterrupts(state)

	n := 0
	start := eventRingHead
	for i := uint8(0); i < EventRingSize && n < len(dst); i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.Type == 0 {
			continue // Empty slot
		}
		dst[n] = evt
		n++
	}
	return n
}

// EventName returns the trace label of an event type
func EventName(eventType uint8) string {
	switch eventType {
	case EvtBusError:
		return "BUS_ERROR"
	case EvtBringUp:
		return "BRING_UP"
	case EvtCalibrated:
		return "CALIBRATED"
	case EvtCycleStart:
		return "CYCLE_START"
	case EvtCycleDone:
		return "CYCLE_DONE"
	case EvtSensorReady:
		return "SENSOR_READY"
	default:
		return "UNKNOWN"
	}
}

// DumpEventRing outputs the event ring (call on shutdown/error)
func DumpEventRing() {
	if debugPrintln == nil {
		return
	}

	var events [EventRingSize]Event
	n := Events(events[:])

	debugPrintln("[EVENT] === Event Ring Dump ===")
	for _, evt := range events[:n] {
		debugPrintln("[EVENT] " + EventName(evt.Type) +
			" id=" + Utoa(uint32(evt.ID)) +
			" clock=" + Utoa(evt.Clock) +
			" v1=" + Utoa(evt.Value1) +
			" v2=" + Utoa(evt.Value2))
	}
	debugPrintln("[EVENT] === End Dump ===")
}

// ClearEventRing clears the event buffer
func ClearEventRing() {
	state := DisableInterrupts()
	defer RestoreInterrupts(state)

	for i := range eventRing {
		eventRing[i] = Event{}
	}
	eventRingHead = 0
}
