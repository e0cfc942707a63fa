// Package wifi_manager implements the Scanner for Wi-Fi network surveys.
package wifi_manager

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Scanner runs the radio survey command and parses its output.
type Scanner struct {
	runner      CommandRunner
	iface       string
	settleDelay time.Duration
}

// NewScanner returns a Scanner for the given wireless interface.
func NewScanner(runner CommandRunner, iface string) *Scanner {
	return &Scanner{runner: runner, iface: iface, settleDelay: scanSettleDelay}
}

// Scan triggers a radio survey and returns the discovered networks sorted
// by descending quality. The survey command is invoked twice: the first
// call kicks off the scan, the second reads the settled results.
func (s *Scanner) Scan() ([]NetworkInfo, error) {
	logger.WithField("interface", s.iface).Info("Starting Wi-Fi network scan")

	if res := s.runner.Run(scanTimeout, "sudo", "iwlist", s.iface, "scan"); res.Err != nil {
		return nil, fmt.Errorf("failed to trigger scan: %w", res.Err)
	}
	time.Sleep(s.settleDelay)

	res := s.runner.Run(scanTimeout, "sudo", "iwlist", s.iface, "scan")
	if res.Err != nil {
		return nil, fmt.Errorf("failed to read scan results: %w", res.Err)
	}

	networks := parseSurvey(res.Stdout)
	logger.WithField("network_count", len(networks)).Info("Finished Wi-Fi network scan")
	return networks, nil
}

// parseSurvey parses the line-oriented iwlist survey output. Each stanza
// begins with a cell/address marker; fields within a stanza are optional
// and may appear in any order. A malformed field is skipped, never fatal.
func parseSurvey(raw string) []NetworkInfo {
	var networks []NetworkInfo
	var current *NetworkInfo

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.Contains(line, "Cell") && strings.Contains(line, "Address:"):
			if current != nil {
				networks = append(networks, *current)
			}
			current = &NetworkInfo{}
			if idx := strings.Index(line, "Address: "); idx >= 0 {
				current.BSSID = strings.TrimSpace(line[idx+len("Address: "):])
			}

		case current == nil:
			// Preamble before the first cell marker.

		case strings.Contains(line, "ESSID:"):
			essid := strings.Trim(strings.SplitN(line, "ESSID:", 2)[1], "\"")
			if essid != "" {
				current.SSID = essid
			}

		case strings.Contains(line, "Quality="):
			if quality, ok := parseQualityRatio(line); ok {
				current.Quality = quality
				current.QualityKnown = true
			} else {
				logger.WithField("line", line).Debug("Failed to parse quality ratio")
			}

		case strings.Contains(line, "Encryption key:"):
			current.Encrypted = strings.Contains(strings.ToLower(line), "on")
		}
	}
	if current != nil {
		networks = append(networks, *current)
	}

	// Best quality first; unknown quality sorts as 0 and ties keep their
	// stanza order.
	sort.SliceStable(networks, func(i, j int) bool {
		return networks[i].Quality > networks[j].Quality
	})

	return networks
}

// parseQualityRatio extracts a 0-100 percentage from a "Quality=cur/max"
// token. Returns ok=false for anything it cannot parse.
func parseQualityRatio(line string) (int, bool) {
	part := strings.SplitN(line, "Quality=", 2)[1]
	part = strings.SplitN(part, " ", 2)[0]

	ratio := strings.SplitN(part, "/", 2)
	if len(ratio) != 2 {
		return 0, false
	}
	cur, err := strconv.Atoi(ratio[0])
	if err != nil {
		return 0, false
	}
	max, err := strconv.Atoi(ratio[1])
	if err != nil || max == 0 {
		return 0, false
	}

	return int(float64(cur) / float64(max) * 100), true
}

// Ensure Scanner implements ScannerInterface
var _ ScannerInterface = (*Scanner)(nil)
