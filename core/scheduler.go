package core

// Timer represents a scheduled event
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	Next     *Timer
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

var timerList *Timer

// ScheduleTimer adds a timer to the schedule
func ScheduleTimer(t *Timer) {
	state := DisableInterrupts()
	defer RestoreInterrupts(state)

	insertTimer(t)
}

// insertTimer inserts a timer in sorted order by WakeTime
func insertTimer(t *Timer) {
	if timerList == nil || TimerBefore(t.WakeTime, timerList.WakeTime) {
		t.Next = timerList
		timerList = t
		return
	}

	current := timerList
	for current.Next != nil && TimerBefore(current.Next.WakeTime, t.WakeTime) {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// popDue removes the first timer due at now, or returns nil
func popDue(now uint32) *Timer {
	state := DisableInterrupts()
	defer RestoreInterrupts(state)

	if timerList == nil || TimerBefore(now, timerList.WakeTime) {
		return nil
	}
	t := timerList
	timerList = t.Next
	t.Next = nil
	return t
}

// TimerDispatch runs every timer due at the current time. Handlers run with
// interrupts enabled since they may perform blocking bus transfers.
func TimerDispatch() {
	now := GetTime()

	// Rescheduled timers go back in after the pass so a handler that is
	// running behind cannot starve the main loop.
	var resched *Timer
	for {
		t := popDue(now)
		if t == nil {
			break
		}
		if t.Handler(t) == SF_RESCHEDULE {
			t.Next = resched
			resched = t
		}
	}
	for resched != nil {
		next := resched.Next
		resched.Next = nil
		ScheduleTimer(resched)
		resched = next
	}
}

// CancelTimers drops every scheduled timer
func CancelTimers() {
	state := DisableInterrupts()
	defer RestoreInterrupts(state)

	for t := timerList; t != nil; {
		next := t.Next
		t.Next = nil
		t = next
	}
	timerList = nil
}
