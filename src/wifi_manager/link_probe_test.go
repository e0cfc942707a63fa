package wifi_manager

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProcWireless = `Inter-| sta-|   Quality        |   Discarded packets               | Missed | WE
 face | tus | link level noise |  nwid  crypt   frag  retry   misc | beacon | 22
 wlan0: 0000   54.  -56.  -256        0      0      0      0      0        0
`

type fakeAddrLister struct {
	ip  string
	err error
}

func (f fakeAddrLister) IPv4Addr(iface string) (string, error) {
	return f.ip, f.err
}

func probeFixture(t *testing.T, fr *fakeRunner, addrs addrLister) *LinkProbe {
	t.Helper()
	procPath := filepath.Join(t.TempDir(), "wireless")
	require.NoError(t, os.WriteFile(procPath, []byte(sampleProcWireless), 0644))
	return &LinkProbe{
		runner:           fr,
		addrs:            addrs,
		iface:            "wlan0",
		procWirelessPath: procPath,
	}
}

func TestCurrentLinkConnected(t *testing.T) {
	fr := newFakeRunner()
	fr.on("iwgetid -r", CommandResult{Stdout: "HomeNet\n"})

	p := probeFixture(t, fr, fakeAddrLister{ip: "192.168.1.50"})
	link := p.CurrentLink()

	assert.Equal(t, "HomeNet", link.SSID)
	assert.Equal(t, "192.168.1.50", link.IPAddress)
	assert.Equal(t, "-56", link.SignalStrength)
	assert.True(t, link.Connected)
}

func TestCurrentLinkNoSSIDMeansNotConnected(t *testing.T) {
	fr := newFakeRunner()
	fr.on("iwgetid -r", CommandResult{ExitCode: 255})

	p := probeFixture(t, fr, fakeAddrLister{ip: "192.168.1.50"})
	link := p.CurrentLink()

	// The SSID query failed independently; the address query still ran.
	assert.Empty(t, link.SSID)
	assert.Equal(t, "192.168.1.50", link.IPAddress)
	assert.False(t, link.Connected)
}

func TestCurrentLinkNoAddressMeansNotConnected(t *testing.T) {
	fr := newFakeRunner()
	fr.on("iwgetid -r", CommandResult{Stdout: "HomeNet\n"})

	p := probeFixture(t, fr, fakeAddrLister{err: errors.New("no IPv4 address on wlan0")})
	link := p.CurrentLink()

	assert.Equal(t, "HomeNet", link.SSID)
	assert.Empty(t, link.IPAddress)
	assert.False(t, link.Connected)
}

func TestCurrentLinkMissingWirelessTable(t *testing.T) {
	fr := newFakeRunner()
	fr.on("iwgetid -r", CommandResult{Stdout: "HomeNet\n"})

	p := probeFixture(t, fr, fakeAddrLister{ip: "192.168.1.50"})
	p.procWirelessPath = filepath.Join(t.TempDir(), "missing")
	link := p.CurrentLink()

	// Signal strength is best-effort; the rest of the snapshot survives.
	assert.Empty(t, link.SignalStrength)
	assert.True(t, link.Connected)
}

func TestSignalStrengthMissingInterfaceRow(t *testing.T) {
	fr := newFakeRunner()
	p := probeFixture(t, fr, fakeAddrLister{})
	p.iface = "wlan1"

	_, ok := p.signalStrength()
	assert.False(t, ok)
}
