package prer

// Exported aliases for testing internal state from the
// prer_test package.

// ConfigForTest exposes the effective configuration
// after defaults.
func ConfigForTest(w *Workflow) Config {
	return w.cfg
}

// SleepForTest exposes sleep.
var SleepForTest = sleep
