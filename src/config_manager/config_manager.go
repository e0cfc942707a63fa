// Package config_manager loads and persists the LOOP device configuration.
package config_manager

import (
	"os"
	"path/filepath"
	"sync"

	yaml "github.com/goccy/go-yaml"
	"github.com/pkg/errors"
)

// CurrentConfigVersion is the latest version of the config.yaml format.
const CurrentConfigVersion = "v0.0.1"

// WifiConfig holds the wireless connectivity parameters.
type WifiConfig struct {
	Interface       string `yaml:"interface"`
	SSID            string `yaml:"ssid"`
	Password        string `yaml:"password"`
	HotspotSSID     string `yaml:"hotspot_ssid"`
	HotspotPassword string `yaml:"hotspot_password"`
	HotspotChannel  int    `yaml:"hotspot_channel"`
	SupplicantConf  string `yaml:"supplicant_conf"`
	HotspotScript   string `yaml:"hotspot_script"`
}

// Config holds the configuration parameters.
type Config struct {
	ConfigVersion string     `yaml:"config_version"`
	Wifi          WifiConfig `yaml:"wifi"`
}

// NewDefaultConfig returns the configuration used on first boot.
func NewDefaultConfig() *Config {
	return &Config{
		ConfigVersion: CurrentConfigVersion,
		Wifi: WifiConfig{
			Interface:       "wlan0",
			HotspotSSID:     "LOOP-Setup",
			HotspotPassword: "loopsetup",
			HotspotChannel:  6,
			SupplicantConf:  "/etc/wpa_supplicant/wpa_supplicant.conf",
			HotspotScript:   "/usr/local/lib/loop/hotspot.sh",
		},
	}
}

// ConfigManager guards concurrent access to the persisted configuration.
type ConfigManager struct {
	filePath string
	mu       sync.RWMutex
	config   *Config
}

// NewConfigManager loads the configuration at filePath, creating it with
// defaults when missing.
func NewConfigManager(filePath string) (*ConfigManager, error) {
	cm := &ConfigManager{filePath: filePath}
	config, err := cm.EnsureDefaultConfig()
	if err != nil {
		return nil, err
	}
	cm.config = config
	return cm, nil
}

// EnsureDefaultConfig loads the config file, writing the defaults first if
// the file does not exist yet.
func (cm *ConfigManager) EnsureDefaultConfig() (*Config, error) {
	if _, err := os.Stat(cm.filePath); os.IsNotExist(err) {
		config := NewDefaultConfig()
		if err := cm.SaveConfig(config); err != nil {
			return nil, errors.Wrap(err, "failed to write default config")
		}
		return config, nil
	}
	return cm.LoadConfig()
}

// LoadConfig reads and parses the config file.
func (cm *ConfigManager) LoadConfig() (*Config, error) {
	data, err := os.ReadFile(cm.filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", cm.filePath)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file %s", cm.filePath)
	}
	if config.ConfigVersion == "" {
		config.ConfigVersion = CurrentConfigVersion
	}
	return &config, nil
}

// SaveConfig writes the configuration to disk. The credentials it carries
// warrant owner-only permissions.
func (cm *ConfigManager) SaveConfig(config *Config) error {
	if err := os.MkdirAll(filepath.Dir(cm.filePath), 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(cm.filePath, data, 0600); err != nil {
		return errors.Wrapf(err, "failed to write config file %s", cm.filePath)
	}
	return nil
}

// GetConfig returns the in-memory configuration.
func (cm *ConfigManager) GetConfig() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// UpdateWifiCredentials stores new client credentials and persists them
// for unattended reconnect after a reboot.
func (cm *ConfigManager) UpdateWifiCredentials(ssid, password string) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.config.Wifi.SSID = ssid
	cm.config.Wifi.Password = password
	return cm.SaveConfig(cm.config)
}
