//go:build !linux
// +build !linux

package wifi_manager

import "errors"

// stubAddrLister is used on non-Linux platforms where rtnetlink is not
// available; address lookups always report no address.
type stubAddrLister struct{}

func newNetlinkAddrLister() addrLister {
	return stubAddrLister{}
}

func (stubAddrLister) IPv4Addr(iface string) (string, error) {
	return "", errors.New("interface address lookup is only supported on linux")
}
