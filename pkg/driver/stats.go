package driver

// Stats
// counters of one driver, read on the loop thread.
type Stats struct {
	Submitted  uint64
	Completed  uint64
	Flushes    uint64
	Cancels    uint64
	Parks      uint64
	Wakeups    uint64
	Controls   uint64
	Orphans    uint64
	SubmitErrs uint64
}
