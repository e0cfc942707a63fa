package wifi_manager

import (
	"sync"
	"time"
)

const pingFailureThreshold = 4

// NetworkMonitor watches internet connectivity and drives unattended
// recovery: reconnect with stored credentials, then hotspot fallback.
type NetworkMonitor struct {
	runner   CommandRunner
	manager  *WifiManager
	interval time.Duration

	mu            sync.Mutex
	pingFailures  int
	pingSuccesses int

	recoverChan chan struct{}
	stopChan    chan struct{}
	stopOnce    sync.Once
}

// NewNetworkMonitor returns a monitor for the given manager.
func NewNetworkMonitor(manager *WifiManager, runner CommandRunner) *NetworkMonitor {
	return &NetworkMonitor{
		runner:      runner,
		manager:     manager,
		interval:    30 * time.Second,
		recoverChan: make(chan struct{}, 1), // Buffered channel
		stopChan:    make(chan struct{}),
	}
}

// Start begins the periodic connectivity checks.
func (nm *NetworkMonitor) Start() {
	logger.Info("Starting network monitor")
	go func() {
		ticker := time.NewTicker(nm.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				nm.checkConnectivity()
			case <-nm.recoverChan:
				nm.recover()
			case <-nm.stopChan:
				return
			}
		}
	}()
}

// Stop halts the monitor. Safe to call more than once.
func (nm *NetworkMonitor) Stop() {
	nm.stopOnce.Do(func() {
		logger.Info("Stopping network monitor")
		close(nm.stopChan)
	})
}

func (nm *NetworkMonitor) checkConnectivity() {
	if nm.manager.Busy() {
		logger.Debug("Mutating operation in progress, skipping connectivity check")
		return
	}

	res := nm.runner.Run(serviceTimeout, "ping", "-c", "1", "-W", "2", "8.8.8.8")
	online := !res.Failed()

	nm.mu.Lock()
	defer nm.mu.Unlock()

	if online {
		nm.pingSuccesses++
		nm.pingFailures = 0
		logger.WithField("consecutive_successes", nm.pingSuccesses).Debug("Connectivity check successful")
		return
	}

	nm.pingFailures++
	nm.pingSuccesses = 0
	logger.WithField("consecutive_failures", nm.pingFailures).Warn("Connectivity check failed")

	if nm.pingFailures >= pingFailureThreshold {
		logger.Warn("Connectivity failure threshold reached, triggering recovery")
		// Non-blocking send; a recovery attempt may already be pending.
		select {
		case nm.recoverChan <- struct{}{}:
		default:
		}
		// Spend the failures so the connection attempt gets a grace period
		// before the next trigger.
		nm.pingFailures = 0
	}
}

// recover attempts an unattended reconnect with the stored credentials
// and falls back to hotspot mode when that fails.
func (nm *NetworkMonitor) recover() {
	logger.Info("Connectivity loss detected, attempting recovery")

	if nm.manager.ConnectConfigured() {
		logger.Info("Reconnected to configured network")
		return
	}

	if nm.manager.getMode() == ModeHotspot {
		logger.Info("Hotspot already active, no fallback needed")
		return
	}

	logger.Warn("Reconnect failed, falling back to hotspot mode")
	if !nm.manager.StartHotspot() {
		logger.Error("Hotspot fallback failed")
	}
}

// IsConnected reports whether the last connectivity check succeeded.
func (nm *NetworkMonitor) IsConnected() bool {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	return nm.pingSuccesses > 0
}
