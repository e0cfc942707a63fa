// Package wifi_manager defines types for managing the LOOP device's
// wireless connectivity: client-mode association and hotspot fallback.
package wifi_manager

import (
	"sync"
	"time"

	"github.com/loop-device/loop-connectivity-go/src/config_manager"
)

// Timing constants for external tool invocations.
const (
	scanTimeout         = 10 * time.Second
	scanSettleDelay     = 2 * time.Second
	serviceTimeout      = 10 * time.Second
	serviceSettleDelay  = 2 * time.Second
	helperTimeout       = 30 * time.Second
	connectPollAttempts = 30
	connectPollInterval = 1 * time.Second
)

// hotspotGatewayIP is the address the device serves on while in hotspot mode.
const hotspotGatewayIP = "192.168.24.1"

// Mode is the connectivity mode of the device. Client and hotspot are
// mutually exclusive by construction.
type Mode int

const (
	ModeDisconnected Mode = iota
	ModeClient
	ModeHotspot
)

func (m Mode) String() string {
	switch m {
	case ModeClient:
		return "client"
	case ModeHotspot:
		return "hotspot"
	default:
		return "disconnected"
	}
}

// NetworkInfo represents one Wi-Fi network discovered by a survey scan.
type NetworkInfo struct {
	BSSID string `json:"bssid"`
	SSID  string `json:"ssid"`
	// Quality is a 0-100 percentage derived from the radio's current/max
	// ratio. QualityKnown is false when the ratio was absent or malformed;
	// such networks sort as quality 0.
	Quality      int  `json:"quality"`
	QualityKnown bool `json:"quality_known"`
	Encrypted    bool `json:"encrypted"`
}

// LinkStatus is an on-demand snapshot of the active connection. Empty
// strings mean the corresponding value could not be determined.
type LinkStatus struct {
	SSID           string `json:"ssid"`
	IPAddress      string `json:"ip_address"`
	SignalStrength string `json:"signal_strength"`
	// Connected is derived: true iff both SSID and IPAddress are present.
	Connected bool `json:"connected"`
}

// Status combines the manager's stored state with a fresh link probe.
type Status struct {
	Mode           string     `json:"mode"`
	CurrentSSID    string     `json:"current_ssid"`
	IPAddress      string     `json:"ip_address"`
	ConfiguredSSID string     `json:"configured_ssid"`
	HotspotSSID    string     `json:"hotspot_ssid"`
	SignalStrength string     `json:"signal_strength"`
	Link           LinkStatus `json:"link"`
}

// WifiManager orchestrates scanning, client-mode connection and hotspot
// lifecycle against a single radio interface.
type WifiManager struct {
	scanner    ScannerInterface
	probe      LinkProberInterface
	supplicant SupplicantInterface
	hotspot    HotspotControllerInterface
	runner     CommandRunner
	cm         *config_manager.ConfigManager

	// opMu serializes mutating operations (connect, start/stop hotspot);
	// mu guards the state fields so reads can interleave safely.
	opMu sync.Mutex
	mu   sync.RWMutex

	mode               Mode
	currentSSID        string
	ipAddress          string
	configuredSSID     string
	configuredPassword string

	iface          string
	hotspotSSID    string
	hotspotPass    string
	hotspotChannel int

	pollAttempts int
	pollInterval time.Duration
	settleDelay  time.Duration
}
