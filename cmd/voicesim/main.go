// Command voicesim drives the voice call layer against the simulated
// platform engine. It exists for manual verification of call setup,
// routing and parameter handling without device hardware, and serves the
// layer's Prometheus metrics while running.
package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/opd-ai/voicehal/config"
	"github.com/opd-ai/voicehal/engine"
	"github.com/opd-ai/voicehal/features"
	"github.com/opd-ai/voicehal/metrics"
	"github.com/opd-ai/voicehal/routing"
	"github.com/opd-ai/voicehal/voice"
)

func main() {
	root := &cobra.Command{
		Use:           "voicesim",
		Short:         "Drive the voice call layer against a simulated engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCommand())
	root.AddCommand(newMatchCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "voicesim:", err)
		os.Exit(1)
	}
}

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "run",
		Short:         "Run a scripted voice call scenario",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runScenario,
	}
	cmd.Flags().String("route", "speaker", "Initial playback route (comma-separated device names)")
	cmd.Flags().String("switch-to", "wired_headset", "Playback route to switch to mid-call (empty to skip)")
	cmd.Flags().String("params", "", "Extra parameter string applied before the call (e.g. tty_mode=tty_hco)")
	cmd.Flags().Float64("volume", 0.8, "Voice volume applied before the call")
	cmd.Flags().Duration("hold", 2*time.Second, "How long to hold the call up")
	cmd.Flags().Bool("call-screen", false, "Run the call in call-screen mode")
	return cmd
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	logrus.SetLevel(level)

	route, err := parseRoute(mustString(cmd, "route"))
	if err != nil {
		return err
	}

	sim := engine.NewSimEngine()
	ctrl, err := voice.NewController(sim)
	if err != nil {
		return err
	}
	defer ctrl.Shutdown()

	ctrl.SetMetrics(metrics.New(nil))
	ctrl.SetUSBCaptureSupported(cfg.USBCapture)
	ctrl.SetExtDisplay(cfg.ExtDisplayController, cfg.ExtDisplayStream)
	ctrl.SetPrimaryStream(routing.TableMapper{
		ExtController: cfg.ExtDisplayController,
		ExtStream:     cfg.ExtDisplayStream,
	})
	ctrl.SetHooks(&features.Hooks{
		PerfLockAcquire: func() { logrus.Debug("perf lock acquired") },
		PerfLockRelease: func() { logrus.Debug("perf lock released") },
	})

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	if extra := mustString(cmd, "params"); extra != "" {
		if err := ctrl.SetParameters(extra); err != nil {
			return fmt.Errorf("applying parameters: %w", err)
		}
	}
	if err := ctrl.SetVoiceVolume(mustFloat(cmd, "volume")); err != nil {
		return err
	}

	mode := voice.ModeInCall
	if on, _ := cmd.Flags().GetBool("call-screen"); on {
		mode = voice.ModeCallScreen
	}
	if err := ctrl.SetMode(mode); err != nil {
		return err
	}
	if err := ctrl.SetParameters(fmt.Sprintf("vsid=%d;call_state=2", uint32(voice.VSIDVoice))); err != nil {
		return err
	}
	if err := ctrl.RouteStream(route); err != nil {
		return err
	}

	hold, _ := cmd.Flags().GetDuration("hold")
	time.Sleep(hold / 2)

	if target := mustString(cmd, "switch-to"); target != "" {
		switchRoute, err := parseRoute(target)
		if err != nil {
			return err
		}
		if err := ctrl.RouteStream(switchRoute); err != nil {
			return err
		}
	}

	time.Sleep(hold / 2)

	if err := ctrl.SetParameters(fmt.Sprintf("vsid=%d;call_state=1", uint32(voice.VSIDVoice))); err != nil {
		return err
	}
	if err := ctrl.SetMode(voice.ModeNormal); err != nil {
		return err
	}

	fmt.Println("engine operations:")
	for _, op := range sim.Ops() {
		fmt.Println("  " + op)
	}
	if open := sim.OpenStreams(); open != 0 {
		return fmt.Errorf("%d engine stream(s) leaked", open)
	}
	return nil
}

func newMatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "match <route>",
		Short:         "Print the capture devices matching a playback route",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			playback, err := parseRoute(args[0])
			if err != nil {
				return err
			}
			usb, _ := cmd.Flags().GetBool("usb-capture")
			capture := routing.MatchingCaptureDevices(playback, usb)
			fmt.Printf("playback %s -> capture %s\n", playback, capture)
			if capture.Contains(routing.DeviceNone) {
				return fmt.Errorf("route is invalid: unmatched playback device")
			}
			return nil
		},
	}
	cmd.Flags().Bool("usb-capture", false, "Treat the USB capture path as available")
	return cmd
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	logrus.WithFields(logrus.Fields{
		"function": "serveMetrics",
		"addr":     addr,
	}).Info("Serving Prometheus metrics")

	if err := http.ListenAndServe(addr, mux); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "serveMetrics",
			"error":    err.Error(),
		}).Error("Metrics endpoint failed")
	}
}

func parseRoute(s string) (routing.DeviceSet, error) {
	var route routing.DeviceSet
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		dev, ok := routing.ParseDevice(name)
		if !ok {
			return nil, fmt.Errorf("unknown device name %q", name)
		}
		route = append(route, dev)
	}
	return route, nil
}

func mustString(cmd *cobra.Command, flag string) string {
	v, _ := cmd.Flags().GetString(flag)
	return v
}

func mustFloat(cmd *cobra.Command, flag string) float64 {
	v, _ := cmd.Flags().GetFloat64(flag)
	return v
}
