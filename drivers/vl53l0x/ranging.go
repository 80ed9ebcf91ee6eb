package vl53l0x

import (
	"runtime"
	"time"

	"sumobot/core"
)

// StartMulti starts a measurement on every sensor. Completion is signalled
// through the interrupt lines; ReadMulti collects the results.
func (s *Sensors) StartMulti() error {
	if !s.ready {
		return &RangeError{Kind: NotInitialized}
	}
	n, ok := s.cycle.begin()
	if !ok {
		return &RangeError{Kind: MeasureOngoing}
	}
	core.RecordEvent(core.EvtCycleStart, 0, n, 0)

	for _, pos := range Positions {
		if err := s.devs[pos].startRange(); err != nil {
			s.cycle.abort()
			return &RangeError{Kind: RangeBus, Position: pos, Step: stepRangeStart, Err: err}
		}
	}
	return nil
}

// ReadMulti returns the latest range of every sensor in millimetres. fresh is
// true when the values come from a cycle completed since the last call, in
// which case the next cycle has been started. The first call blocks until the
// first cycle completes, bounded by Config.FirstCycleTimeout.
//
// When restarting fails after a successful read the fresh values are
// returned together with the error. A failed read keeps the cache and
// restarts the cycle so the next call does not trip over cleared sensors.
func (s *Sensors) ReadMulti() (ranges [NumPositions]uint16, fresh bool, err error) {
	if !s.ready {
		return s.ranges, false, &RangeError{Kind: NotInitialized}
	}
	if s.cycle.status() == NotStarted {
		if err := s.StartMulti(); err != nil {
			return s.ranges, false, err
		}
		if err := s.awaitCycle(); err != nil {
			return s.ranges, false, err
		}
	}
	if s.cycle.status() != Done {
		return s.ranges, false, nil
	}

	var latest [NumPositions]uint16
	for _, pos := range Positions {
		r, err := s.devs[pos].readRange()
		if err != nil {
			s.restartCycle()
			return s.ranges, false, &RangeError{Kind: RangeBus, Position: pos, Step: stepRangeResult, Err: err}
		}
		latest[pos] = r
	}
	s.ranges = latest

	if err := s.StartMulti(); err != nil {
		return s.ranges, true, err
	}
	return s.ranges, true, nil
}

// awaitCycle spins until the running cycle completes
func (s *Sensors) awaitCycle() error {
	timeout := s.cfg.FirstCycleTimeout
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for s.cycle.status() != Done {
		if timeout > 0 && time.Now().After(deadline) {
			return &RangeError{Kind: FirstCycleTimeout}
		}
		runtime.Gosched()
	}
	return nil
}

// ReadSingle measures one sensor by polling its status register. The sensor
// is shared with the multi cycle: a measuring cycle refuses the call, and a
// completed but unread cycle is dropped and started again afterwards. A
// failed restart is returned with the reading.
func (s *Sensors) ReadSingle(pos Position) (uint16, error) {
	if pos >= NumPositions {
		return OutOfRange, &RangeError{Kind: RangeBus, Position: pos, Err: errPositionUnknown}
	}
	if !s.ready {
		return OutOfRange, &RangeError{Kind: NotInitialized}
	}
	st := s.cycle.status()
	if st == Measuring {
		return OutOfRange, &RangeError{Kind: MeasureOngoing}
	}
	resume := st == Done
	s.cycle.abort()

	d := &s.devs[pos]
	if err := d.startRange(); err != nil {
		if resume {
			s.restartCycle()
		}
		return OutOfRange, &RangeError{Kind: RangeBus, Position: pos, Step: stepRangeStart, Err: err}
	}
	r, err := d.readRange()
	if err != nil {
		if resume {
			s.restartCycle()
		}
		return OutOfRange, &RangeError{Kind: RangeBus, Position: pos, Step: stepRangeResult, Err: err}
	}
	if resume {
		return r, s.restartCycle()
	}
	return r, nil
}

// restartCycle drops the current cycle, clears every pending sensor
// interrupt so each line can fall again, and starts the next cycle. On
// failure the cycle is left NotStarted.
func (s *Sensors) restartCycle() error {
	s.cycle.abort()
	for _, pos := range Positions {
		if err := s.devs[pos].clearInterrupt(); err != nil {
			return &RangeError{Kind: RangeBus, Position: pos, Step: stepRangeStart, Err: err}
		}
	}
	return s.StartMulti()
}

// onSampleReady runs in interrupt context and performs no bus transfers
func (s *Sensors) onSampleReady(pos Position) {
	accepted, completed := s.cycle.markDone(pos)
	if !accepted {
		return
	}
	core.RecordEvent(core.EvtSensorReady, uint8(pos), 0, 0)
	if completed {
		core.RecordEvent(core.EvtCycleDone, 0, s.cycle.completed.Load(), 0)
	}
}

// Ranges returns the cached ranges without touching the bus
func (s *Sensors) Ranges() [NumPositions]uint16 {
	return s.ranges
}

// Cycles returns the number of completed multi cycles
func (s *Sensors) Cycles() uint32 {
	return s.cycle.completed.Load()
}

// Status returns a snapshot of the cycle state
func (s *Sensors) Status() StatusSnapshot {
	return s.cycle.snapshot()
}
