package gateway

// Reset stops periodic flushing and returns the gateway to its
// uninitialized state.
func Reset() {
	m.Lock()
	defer m.Unlock()

	stop()
	current, initialized, stop = nil, false, func() {}
}
