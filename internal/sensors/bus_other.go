//go:build !linux

package sensors

// OpenBus returns ErrNoBus on non-linux platforms.
func OpenBus() (Bus, error) {
	return nil, ErrNoBus
}
