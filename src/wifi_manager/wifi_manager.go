// Package wifi_manager implements the WifiManager, the connectivity
// orchestrator for the LOOP device.
package wifi_manager

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/loop-device/loop-connectivity-go/src/config_manager"
)

// Init builds a WifiManager wired to the real OS tools, using paths and
// credentials from the device configuration.
func Init(cm *config_manager.ConfigManager) (*WifiManager, error) {
	cfg := cm.GetConfig()
	runner := NewExecRunner()

	wm := &WifiManager{
		scanner:    NewScanner(runner, cfg.Wifi.Interface),
		probe:      NewLinkProbe(runner, cfg.Wifi.Interface),
		supplicant: NewSupplicantConfig(cfg.Wifi.SupplicantConf),
		hotspot:    NewHotspotController(runner, cfg.Wifi.HotspotScript, cfg.Wifi.Interface),
		runner:     runner,
		cm:         cm,

		mode:               ModeDisconnected,
		configuredSSID:     cfg.Wifi.SSID,
		configuredPassword: cfg.Wifi.Password,

		iface:          cfg.Wifi.Interface,
		hotspotSSID:    cfg.Wifi.HotspotSSID,
		hotspotPass:    cfg.Wifi.HotspotPassword,
		hotspotChannel: cfg.Wifi.HotspotChannel,

		pollAttempts: connectPollAttempts,
		pollInterval: connectPollInterval,
		settleDelay:  serviceSettleDelay,
	}

	logger.WithField("interface", wm.iface).Info("WiFi manager initialized")
	return wm, nil
}

// Scan surveys nearby networks. A total failure to run the scan yields an
// empty result, logged and never propagated.
func (wm *WifiManager) Scan() []NetworkInfo {
	networks, err := wm.scanner.Scan()
	if err != nil {
		logger.WithError(err).Error("Failed to scan networks")
		return []NetworkInfo{}
	}
	return networks
}

// CurrentLink returns a fresh snapshot of the active connection.
func (wm *WifiManager) CurrentLink() LinkStatus {
	return wm.probe.CurrentLink()
}

// Connect associates the device with the given network as a client. It
// blocks for up to the service settle delay plus the full poll budget.
func (wm *WifiManager) Connect(ssid, password string) bool {
	wm.opMu.Lock()
	defer wm.opMu.Unlock()
	return wm.connect(ssid, password)
}

// ConnectConfigured connects using the stored credentials, for unattended
// reconnect. Fails without side effects when no SSID is configured.
func (wm *WifiManager) ConnectConfigured() bool {
	wm.mu.RLock()
	ssid, password := wm.configuredSSID, wm.configuredPassword
	wm.mu.RUnlock()

	if ssid == "" {
		logger.Info("No WiFi SSID configured")
		return false
	}

	wm.opMu.Lock()
	defer wm.opMu.Unlock()
	return wm.connect(ssid, password)
}

// connect runs the connection sequence. Callers must hold opMu.
func (wm *WifiManager) connect(ssid, password string) bool {
	if wm.getMode() == ModeHotspot {
		logger.Info("Hotspot is active, stopping it first")
		if !wm.stopHotspot() {
			// Proceeding beats refusing to ever leave hotspot mode.
			logger.Warn("Hotspot stop was not confirmed, attempting connection anyway")
		}
	}

	logger.WithField("ssid", ssid).Info("Attempting to connect")

	if !wm.supplicant.UpsertNetworkBlock(ssid, password) {
		logger.WithField("ssid", ssid).Error("Failed to update supplicant configuration")
		return false
	}

	// Fire and forget; the poll loop below is the only success signal.
	if res := wm.runner.Run(serviceTimeout, "sudo", "systemctl", "restart", "wpa_supplicant"); res.Failed() {
		logger.WithField("stderr", strings.TrimSpace(res.Stderr)).Debug("wpa_supplicant restart reported failure")
	}
	time.Sleep(wm.settleDelay)
	if res := wm.runner.Run(serviceTimeout, "sudo", "wpa_cli", "-i", wm.iface, "reconfigure"); res.Failed() {
		logger.WithField("stderr", strings.TrimSpace(res.Stderr)).Debug("wpa_cli reconfigure reported failure")
	}

	for attempt := 0; attempt < wm.pollAttempts; attempt++ {
		time.Sleep(wm.pollInterval)
		link := wm.probe.CurrentLink()

		if link.Connected && link.SSID == ssid {
			wm.mu.Lock()
			wm.mode = ModeClient
			wm.currentSSID = ssid
			wm.ipAddress = link.IPAddress
			wm.configuredSSID = ssid
			wm.configuredPassword = password
			wm.mu.Unlock()

			if wm.cm != nil {
				if err := wm.cm.UpdateWifiCredentials(ssid, password); err != nil {
					logger.WithError(err).Warn("Failed to persist WiFi credentials")
				}
			}

			logger.WithFields(logrus.Fields{
				"ssid": ssid,
				"ip":   link.IPAddress,
			}).Info("Successfully connected")
			return true
		}
	}

	wm.mu.Lock()
	wm.mode = ModeDisconnected
	wm.currentSSID = ""
	wm.ipAddress = ""
	wm.mu.Unlock()

	logger.WithField("ssid", ssid).Warn("Failed to connect within timeout")
	return false
}

// StartHotspot brings up the self-hosted access point. On failure the
// state is left unchanged.
func (wm *WifiManager) StartHotspot() bool {
	wm.opMu.Lock()
	defer wm.opMu.Unlock()

	if !wm.hotspot.Start(wm.hotspotSSID, wm.hotspotPass, wm.hotspotChannel) {
		return false
	}

	wm.mu.Lock()
	wm.mode = ModeHotspot
	wm.currentSSID = ""
	wm.ipAddress = hotspotGatewayIP
	wm.mu.Unlock()

	logger.WithField("ssid", wm.hotspotSSID).Info("Hotspot mode active")
	return true
}

// StopHotspot tears down the access point. The mode is forced to
// non-hotspot regardless of the controller's result: an ambiguous
// hardware state must not be represented as "still hotspot".
func (wm *WifiManager) StopHotspot() bool {
	wm.opMu.Lock()
	defer wm.opMu.Unlock()
	return wm.stopHotspot()
}

// stopHotspot runs the stop sequence. Callers must hold opMu.
func (wm *WifiManager) stopHotspot() bool {
	ok := wm.hotspot.Stop()

	wm.mu.Lock()
	if wm.mode == ModeHotspot {
		wm.mode = ModeDisconnected
		wm.ipAddress = ""
	}
	wm.mu.Unlock()

	return ok
}

// Status combines the stored mode state with a fresh link probe. It never
// mutates state.
func (wm *WifiManager) Status() Status {
	link := wm.probe.CurrentLink()

	wm.mu.RLock()
	defer wm.mu.RUnlock()
	return Status{
		Mode:           wm.mode.String(),
		CurrentSSID:    wm.currentSSID,
		IPAddress:      wm.ipAddress,
		ConfiguredSSID: wm.configuredSSID,
		HotspotSSID:    wm.hotspotSSID,
		SignalStrength: link.SignalStrength,
		Link:           link,
	}
}

// Shutdown stops the hotspot if it is active. Idempotent.
func (wm *WifiManager) Shutdown() {
	wm.opMu.Lock()
	defer wm.opMu.Unlock()

	if wm.getMode() == ModeHotspot {
		wm.stopHotspot()
	}
	logger.Info("WiFi manager shut down")
}

// Busy reports whether a mutating operation is currently in flight.
func (wm *WifiManager) Busy() bool {
	if wm.opMu.TryLock() {
		wm.opMu.Unlock()
		return false
	}
	return true
}

func (wm *WifiManager) getMode() Mode {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	return wm.mode
}
