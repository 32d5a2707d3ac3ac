// Package debounce implements the sustained-condition filter used by the
// mission phase guards. A guard that must hold for N ticks arms a Timer on
// the first true observation and confirms once the condition has persisted.
package debounce

// Timer tracks one guard condition's persistence. The zero value is an idle,
// unarmed timer. Timer carries no reference to a clock; callers feed it the
// control loop's tick counter.
type Timer struct {
	armed     bool
	startTick uint64
}

// Armed reports whether the timer is counting toward confirmation.
func (t *Timer) Armed() bool {
	return t.armed
}

// Confirm advances the timer for a tick on which the guard condition held.
// On the first such tick it arms and returns false. Once the condition has
// persisted for at least threshold ticks it returns true and disarms, so the
// next Confirm sequence re-arms from scratch.
func (t *Timer) Confirm(tick uint64, threshold uint64) bool {
	if !t.armed {
		t.armed = true
		t.startTick = tick
		return false
	}
	if tick-t.startTick >= threshold {
		t.armed = false
		return true
	}
	return false
}

// Cancel disarms without confirming. Called when the guard condition went
// false before the persistence window elapsed, rolling back a false positive.
func (t *Timer) Cancel() {
	t.armed = false
}
