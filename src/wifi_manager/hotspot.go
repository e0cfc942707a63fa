// Package wifi_manager implements the HotspotController for access-point
// lifecycle management.
package wifi_manager

import (
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// HotspotController brings the access-point and DHCP/DNS service pair up
// or down through an external helper script, with a manual command
// fallback for the stop path.
type HotspotController struct {
	runner CommandRunner
	script string
	iface  string
}

// NewHotspotController returns a HotspotController using the given helper
// script.
func NewHotspotController(runner CommandRunner, script, iface string) *HotspotController {
	return &HotspotController{runner: runner, script: script, iface: iface}
}

// Start brings the hotspot up via the helper script. Exit code zero is the
// sole success signal; the caller is responsible for flipping mode state.
func (hc *HotspotController) Start(ssid, password string, channel int) bool {
	logger.WithFields(logrus.Fields{
		"ssid":    ssid,
		"channel": channel,
	}).Info("Starting WiFi hotspot")

	res := hc.runner.Run(helperTimeout, "sudo", hc.script, "start", ssid, password, strconv.Itoa(channel))
	if res.Err != nil {
		logger.WithError(res.Err).Error("Failed to execute hotspot helper script")
		return false
	}
	if res.ExitCode != 0 {
		logger.WithFields(logrus.Fields{
			"exit_code": res.ExitCode,
			"stderr":    strings.TrimSpace(res.Stderr),
		}).Error("Hotspot helper script failed")
		return false
	}

	logger.WithField("ssid", ssid).Info("Hotspot started")
	return true
}

// Stop brings the hotspot down. If the helper script fails, a manual
// cleanup sequence is issued unconditionally and Stop returns false to
// signal that automatic confirmation was not obtained, even though the
// device is assumed to be out of hotspot mode afterwards.
func (hc *HotspotController) Stop() bool {
	logger.Info("Stopping WiFi hotspot")

	res := hc.runner.Run(helperTimeout, "sudo", hc.script, "stop")
	if res.Err == nil && res.ExitCode == 0 {
		logger.Info("Hotspot stopped via helper script")
		// Rejoin a normal network afterwards. Best effort; its failure
		// does not flip the stop result.
		if r := hc.runner.Run(serviceTimeout, "sudo", "systemctl", "restart", "dhcpcd"); r.Failed() {
			logger.WithField("stderr", strings.TrimSpace(r.Stderr)).Warn("Failed to restart dhcpcd after hotspot stop")
		}
		return true
	}

	logger.WithFields(logrus.Fields{
		"error":  res.Err,
		"stderr": strings.TrimSpace(res.Stderr),
	}).Warn("Hotspot helper script failed, falling back to manual stop")

	// Each command is issued even if an earlier one fails; idempotent
	// best-effort cleanup beats leaving the device in an unknown state.
	for _, argv := range [][]string{
		{"sudo", "systemctl", "stop", "hostapd"},
		{"sudo", "systemctl", "stop", "dnsmasq"},
		{"sudo", "ip", "addr", "flush", "dev", hc.iface},
	} {
		if r := hc.runner.Run(serviceTimeout, argv[0], argv[1:]...); r.Failed() {
			logger.WithFields(logrus.Fields{
				"command": strings.Join(argv, " "),
				"stderr":  strings.TrimSpace(r.Stderr),
			}).Warn("Manual hotspot cleanup command failed")
		}
	}

	return false
}

// Ensure HotspotController implements HotspotControllerInterface
var _ HotspotControllerInterface = (*HotspotController)(nil)
