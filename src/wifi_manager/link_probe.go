// Package wifi_manager implements the LinkProbe for current-link
// introspection.
package wifi_manager

import (
	"os"
	"strings"
)

// LinkProbe queries the OS for the presently associated network, the
// interface's IPv4 address, and the signal quality. The three sub-queries
// fail independently; none aborts the others.
type LinkProbe struct {
	runner CommandRunner
	addrs  addrLister
	iface  string
	// procWirelessPath is the kernel's wireless status table, injectable
	// for tests.
	procWirelessPath string
}

// NewLinkProbe returns a LinkProbe for the given wireless interface.
func NewLinkProbe(runner CommandRunner, iface string) *LinkProbe {
	return &LinkProbe{
		runner:           runner,
		addrs:            newNetlinkAddrLister(),
		iface:            iface,
		procWirelessPath: "/proc/net/wireless",
	}
}

// CurrentLink returns a fresh snapshot of the active connection. It is
// never cached here; callers own any caching.
func (p *LinkProbe) CurrentLink() LinkStatus {
	var status LinkStatus

	res := p.runner.Run(serviceTimeout, "iwgetid", "-r")
	if res.Failed() {
		logger.WithField("stderr", strings.TrimSpace(res.Stderr)).Debug("No associated network reported")
	} else {
		status.SSID = strings.TrimSpace(res.Stdout)
	}

	ip, err := p.addrs.IPv4Addr(p.iface)
	if err != nil {
		logger.WithError(err).Debug("Failed to get IP address")
	} else {
		status.IPAddress = ip
	}

	if signal, ok := p.signalStrength(); ok {
		status.SignalStrength = signal
	}

	status.Connected = status.SSID != "" && status.IPAddress != ""
	return status
}

// signalStrength reads the interface's row from the kernel's fixed-column
// wireless status table and returns the link quality token.
func (p *LinkProbe) signalStrength() (string, bool) {
	data, err := os.ReadFile(p.procWirelessPath)
	if err != nil {
		logger.WithError(err).Debug("Failed to read wireless status table")
		return "", false
	}

	for _, line := range strings.Split(string(data), "\n") {
		if !strings.Contains(line, p.iface) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 4 {
			return strings.TrimSuffix(fields[3], "."), true
		}
		break
	}

	return "", false
}

// Ensure LinkProbe implements LinkProberInterface
var _ LinkProberInterface = (*LinkProbe)(nil)
