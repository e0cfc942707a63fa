// Package wifi_manager defines interfaces for dependency injection.
package wifi_manager

import "time"

// CommandResult holds the outcome of one external tool invocation.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	// Err is set when the command could not be run at all or was killed by
	// its timeout; a non-zero exit alone does not set it.
	Err error
}

// Failed reports whether the invocation either errored or exited non-zero.
func (r CommandResult) Failed() bool {
	return r.Err != nil || r.ExitCode != 0
}

// CommandRunner abstracts shelling out to OS tools so tests can substitute
// a scripted fake. Every invocation carries its own hard timeout.
type CommandRunner interface {
	Run(timeout time.Duration, name string, args ...string) CommandResult
}

// ScannerInterface defines the methods for network scanning operations.
type ScannerInterface interface {
	Scan() ([]NetworkInfo, error)
}

// LinkProberInterface defines the methods for link introspection.
type LinkProberInterface interface {
	CurrentLink() LinkStatus
}

// SupplicantInterface defines the methods for rewriting the client
// configuration file.
type SupplicantInterface interface {
	UpsertNetworkBlock(ssid, password string) bool
}

// HotspotControllerInterface defines the methods for hotspot lifecycle
// operations.
type HotspotControllerInterface interface {
	Start(ssid, password string, channel int) bool
	Stop() bool
}

// addrLister abstracts the interface address lookup so tests can fake it.
type addrLister interface {
	IPv4Addr(iface string) (string, error)
}
