package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/oklog/run"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/loop-device/loop-connectivity-go/src/config_manager"
	"github.com/loop-device/loop-connectivity-go/src/wifi_manager"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "loopnet",
	Short: "loopnet - WiFi connectivity control for the LOOP device",
	Long: `loopnet manages the LOOP device's network connectivity: scanning for
networks, joining one as a client, or hosting a setup hotspot.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for nearby WiFi networks",
	RunE: func(cmd *cobra.Command, args []string) error {
		wm, err := newManager()
		if err != nil {
			return err
		}
		networks := wm.Scan()
		if len(networks) == 0 {
			fmt.Println("No networks found")
			return nil
		}
		fmt.Printf("%-34s %-20s %8s  %s\n", "SSID", "BSSID", "QUALITY", "SECURITY")
		for _, n := range networks {
			quality := "?"
			if n.QualityKnown {
				quality = fmt.Sprintf("%d%%", n.Quality)
			}
			security := "open"
			if n.Encrypted {
				security = "encrypted"
			}
			ssid := n.SSID
			if ssid == "" {
				ssid = "<hidden>"
			}
			fmt.Printf("%-34s %-20s %8s  %s\n", ssid, n.BSSID, quality, security)
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current connectivity status",
	RunE: func(cmd *cobra.Command, args []string) error {
		wm, err := newManager()
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(wm.Status(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var connectCmd = &cobra.Command{
	Use:   "connect <ssid> [password]",
	Short: "Connect to a WiFi network as a client",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		wm, err := newManager()
		if err != nil {
			return err
		}
		password := ""
		if len(args) > 1 {
			password = args[1]
		}
		if !wm.Connect(args[0], password) {
			return fmt.Errorf("failed to connect to %q", args[0])
		}
		fmt.Printf("Connected to %s\n", args[0])
		return nil
	},
}

var hotspotCmd = &cobra.Command{
	Use:   "hotspot",
	Short: "Hotspot operations",
	Long:  "Start or stop the device's self-hosted setup hotspot",
}

var hotspotStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start hotspot mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		wm, err := newManager()
		if err != nil {
			return err
		}
		if !wm.StartHotspot() {
			return fmt.Errorf("failed to start hotspot")
		}
		fmt.Println("Hotspot started")
		return nil
	},
}

var hotspotStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop hotspot mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		wm, err := newManager()
		if err != nil {
			return err
		}
		if !wm.StopHotspot() {
			// Cleanup was issued but the helper did not confirm it.
			fmt.Println("Hotspot stop not confirmed, manual cleanup issued")
			return nil
		}
		fmt.Println("Hotspot stopped")
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the connectivity daemon",
	Long: `Connects with the configured credentials (falling back to hotspot mode),
then keeps watch: periodic connectivity checks with unattended recovery,
and reconnection when the config file's credentials change.`,
	RunE: runServe,
}

func newManager() (*wifi_manager.WifiManager, error) {
	cm, err := config_manager.NewConfigManager(configPath)
	if err != nil {
		return nil, err
	}
	return wifi_manager.Init(cm)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := wifi_manager.GetLogger()

	cm, err := config_manager.NewConfigManager(configPath)
	if err != nil {
		return err
	}
	wm, err := wifi_manager.Init(cm)
	if err != nil {
		return err
	}
	defer wm.Shutdown()

	var g run.Group

	g.Add(run.SignalHandler(context.Background(), syscall.SIGINT, syscall.SIGTERM))

	// Boot-time connection attempt with hotspot fallback.
	{
		stop := make(chan struct{})
		g.Add(func() error {
			if !wm.ConnectConfigured() {
				log.Warn("Initial connection failed, starting setup hotspot")
				wm.StartHotspot()
			}
			<-stop
			return nil
		}, func(error) {
			close(stop)
		})
	}

	// Connectivity watchdog with unattended recovery.
	{
		monitor := wifi_manager.NewNetworkMonitor(wm, wifi_manager.NewExecRunner())
		stop := make(chan struct{})
		g.Add(func() error {
			monitor.Start()
			<-stop
			return nil
		}, func(error) {
			monitor.Stop()
			close(stop)
		})
	}

	// Reconnect when the config file's credentials change.
	{
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create config watcher: %w", err)
		}
		g.Add(func() error {
			return watchConfig(watcher, cm, wm)
		}, func(error) {
			watcher.Close()
		})
	}

	// Periodic status log; the cache keeps overlapping reads from
	// re-probing the radio.
	{
		cache := wifi_manager.NewStatusCache(10 * time.Second)
		stop := make(chan struct{})
		g.Add(func() error {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					st := cache.Get(wm.Status)
					log.WithFields(logrus.Fields{
						"mode":      st.Mode,
						"ssid":      st.CurrentSSID,
						"ip":        st.IPAddress,
						"connected": st.Link.Connected,
					}).Info("Connectivity status")
				case <-stop:
					return nil
				}
			}
		}, func(error) {
			close(stop)
		})
	}

	log.Info("loopnet daemon starting")
	err = g.Run()
	if _, ok := err.(run.SignalError); ok {
		log.WithField("reason", err).Info("loopnet daemon stopping")
		return nil
	}
	return err
}

func watchConfig(watcher *fsnotify.Watcher, cm *config_manager.ConfigManager, wm *wifi_manager.WifiManager) error {
	log := wifi_manager.GetLogger()

	// Watch the directory: editors and atomic writers replace the file,
	// which would drop a watch on the file itself.
	if err := watcher.Add(filepath.Dir(configPath)); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	last := cm.GetConfig().Wifi
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != configPath || !event.Op.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			config, err := cm.LoadConfig()
			if err != nil {
				log.WithError(err).Warn("Ignoring unreadable config change")
				continue
			}
			wifi := config.Wifi
			if wifi.SSID != "" && (wifi.SSID != last.SSID || wifi.Password != last.Password) {
				log.WithField("ssid", wifi.SSID).Info("Config credentials changed, reconnecting")
				wm.Connect(wifi.SSID, wifi.Password)
			}
			last = wifi
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("Config watcher error")
		}
	}
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "/etc/loop/config.yaml", "path to the device config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	hotspotCmd.AddCommand(hotspotStartCmd, hotspotStopCmd)
	rootCmd.AddCommand(scanCmd, statusCmd, connectCmd, hotspotCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
