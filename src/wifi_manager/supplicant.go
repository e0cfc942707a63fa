// Package wifi_manager implements the supplicant configuration rewriter.
package wifi_manager

import (
	"fmt"
	"os"
	"strings"
)

// SupplicantConfig rewrites the block-structured wpa_supplicant
// configuration file.
type SupplicantConfig struct {
	path string
}

// NewSupplicantConfig returns a SupplicantConfig for the given file path.
func NewSupplicantConfig(path string) *SupplicantConfig {
	return &SupplicantConfig{path: path}
}

// UpsertNetworkBlock rewrites the configuration so that exactly one
// network block exists for the given SSID. Blocks for other SSIDs and all
// non-block lines are preserved byte-for-byte in their original order; an
// existing block for the target SSID is dropped and a fresh one appended.
// The whole new text is assembled in memory before a single write, so no
// partial file is ever produced. Returns false on any I/O failure.
func (sc *SupplicantConfig) UpsertNetworkBlock(ssid, password string) bool {
	data, err := os.ReadFile(sc.path)
	if err != nil && !os.IsNotExist(err) {
		logger.WithError(err).Error("Failed to read supplicant configuration")
		return false
	}

	var kept []string
	var block []string
	var blockSSID string
	inBlock := false

	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case !inBlock && strings.HasPrefix(trimmed, "network={"):
			inBlock = true
			block = []string{line}
			blockSSID = ""
		case inBlock && trimmed == "}":
			block = append(block, line)
			if blockSSID != ssid {
				kept = append(kept, block...)
			}
			inBlock = false
		case inBlock:
			block = append(block, line)
			if strings.HasPrefix(trimmed, "ssid=") {
				blockSSID = strings.Trim(strings.TrimPrefix(trimmed, "ssid="), "\"")
			}
		default:
			kept = append(kept, line)
		}
	}
	if inBlock {
		// Unterminated block: keep it untouched rather than guess.
		kept = append(kept, block...)
	}

	text := strings.Join(kept, "\n")
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}

	var b strings.Builder
	b.WriteString(text)
	b.WriteString("\nnetwork={\n")
	fmt.Fprintf(&b, "    ssid=%q\n", ssid)
	if password != "" {
		fmt.Fprintf(&b, "    psk=%q\n", password)
	} else {
		b.WriteString("    key_mgmt=NONE\n")
	}
	b.WriteString("    priority=1\n")
	b.WriteString("}\n")

	if err := os.WriteFile(sc.path, []byte(b.String()), 0600); err != nil {
		logger.WithError(err).Error("Failed to write supplicant configuration")
		return false
	}
	// Tighten permissions on pre-existing files too; WriteFile only applies
	// the mode when it creates the file.
	if err := os.Chmod(sc.path, 0600); err != nil {
		logger.WithError(err).Warn("Failed to tighten supplicant configuration permissions")
	}

	logger.WithField("ssid", ssid).Info("Updated supplicant configuration")
	return true
}

// Ensure SupplicantConfig implements SupplicantInterface
var _ SupplicantInterface = (*SupplicantConfig)(nil)
