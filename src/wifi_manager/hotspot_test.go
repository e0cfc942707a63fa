package wifi_manager

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func hotspotFixture() (*HotspotController, *fakeRunner) {
	fr := newFakeRunner()
	return NewHotspotController(fr, "/usr/local/lib/loop/hotspot.sh", "wlan0"), fr
}

func TestHotspotStartSuccess(t *testing.T) {
	hc, fr := hotspotFixture()

	assert.True(t, hc.Start("LOOP-Setup", "loopsetup", 6))
	assert.Equal(t, 1, fr.commandCount("sudo /usr/local/lib/loop/hotspot.sh start LOOP-Setup loopsetup 6"))
}

func TestHotspotStartNonZeroExit(t *testing.T) {
	hc, fr := hotspotFixture()
	fr.on("sudo /usr/local/lib/loop/hotspot.sh start", CommandResult{ExitCode: 1, Stderr: "hostapd failed"})

	assert.False(t, hc.Start("LOOP-Setup", "loopsetup", 6))
}

func TestHotspotStartInvocationError(t *testing.T) {
	hc, fr := hotspotFixture()
	fr.on("sudo /usr/local/lib/loop/hotspot.sh start", CommandResult{Err: errors.New("no such file or directory")})

	assert.False(t, hc.Start("LOOP-Setup", "loopsetup", 6))
}

func TestHotspotStopSuccessRestartsDhcpcd(t *testing.T) {
	hc, fr := hotspotFixture()

	assert.True(t, hc.Stop())
	assert.Equal(t, 1, fr.commandCount("sudo /usr/local/lib/loop/hotspot.sh stop"))
	assert.Equal(t, 1, fr.commandCount("sudo systemctl restart dhcpcd"))
	// No manual fallback on the success path.
	assert.Zero(t, fr.commandCount("sudo systemctl stop hostapd"))
}

func TestHotspotStopDhcpcdFailureDoesNotFlipResult(t *testing.T) {
	hc, fr := hotspotFixture()
	fr.on("sudo systemctl restart dhcpcd", CommandResult{ExitCode: 1})

	assert.True(t, hc.Stop())
}

func TestHotspotStopFallbackIssuesAllCleanupCommands(t *testing.T) {
	hc, fr := hotspotFixture()
	fr.on("sudo /usr/local/lib/loop/hotspot.sh stop", CommandResult{ExitCode: 1, Stderr: "script exploded"})
	// The first cleanup command failing must not stop the rest.
	fr.on("sudo systemctl stop hostapd", CommandResult{ExitCode: 5})

	assert.False(t, hc.Stop())
	assert.Equal(t, 1, fr.commandCount("sudo systemctl stop hostapd"))
	assert.Equal(t, 1, fr.commandCount("sudo systemctl stop dnsmasq"))
	assert.Equal(t, 1, fr.commandCount("sudo ip addr flush dev wlan0"))
	// dhcpcd is only restarted when the helper confirms the stop.
	assert.Zero(t, fr.commandCount("sudo systemctl restart dhcpcd"))
}
