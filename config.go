package warehouse

// Config holds process-wide toggles for the warehouse package.
var Config config = config{}

type config struct {
	debug bool
}

// SetDebug toggles debug-mode invariant maintenance. When enabled, rows
// freed by a swap-remove have their entity-epoch slot reset to Start(),
// matching section 3's note that indices at or beyond an archetype's length
// are "meaningless" and debug builds reset them rather than leaving stale
// values that a bug could accidentally read as real history.
func (c *config) SetDebug(enabled bool) {
	c.debug = enabled
}

// Debug reports the current debug-mode setting.
func (c *config) Debug() bool {
	return c.debug
}
