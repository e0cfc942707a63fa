//go:build linux
// +build linux

package wifi_manager

import (
	"fmt"

	"github.com/vishvananda/netlink"
)

// netlinkAddrLister resolves interface addresses via rtnetlink.
type netlinkAddrLister struct{}

func newNetlinkAddrLister() addrLister {
	return netlinkAddrLister{}
}

func (netlinkAddrLister) IPv4Addr(iface string) (string, error) {
	link, err := netlink.LinkByName(iface)
	if err != nil {
		return "", fmt.Errorf("interface %s not found: %w", iface, err)
	}

	addrs, err := netlink.AddrList(link, netlink.FAMILY_V4)
	if err != nil {
		return "", fmt.Errorf("failed to list addresses on %s: %w", iface, err)
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("no IPv4 address on %s", iface)
	}

	return addrs[0].IP.String(), nil
}
