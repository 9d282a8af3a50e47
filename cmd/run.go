package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"wirecrab/internal/capture"
	"wirecrab/internal/config"
	"wirecrab/internal/discovery"
	"wirecrab/internal/dns"
	"wirecrab/internal/hosts"
	"wirecrab/internal/log"
	"wirecrab/internal/metrics"
	"wirecrab/internal/models"
	"wirecrab/internal/reporting"
	"wirecrab/internal/tui"
)

func runCapture(ctx context.Context, cfg *config.Config) error {
	if err := log.Init(cfg.Log); err != nil {
		return err
	}
	logger := log.For("main")

	if cfg.Metrics.Listen != "" {
		srv := metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path)
		if err := srv.Start(); err != nil {
			return err
		}
		defer func() {
			if err := srv.Stop(context.Background()); err != nil {
				logger.WithError(err).Warn("metrics server did not stop cleanly")
			}
		}()
	}

	source := cfg.Capture.PcapFile
	if source == "" {
		if _, err := discovery.FindDevice(cfg.Interface); err != nil {
			return err
		}
		source = cfg.Interface
	}

	trafficFilter := cfg.Capture.TrafficFilter
	if trafficFilter == "" {
		trafficFilter = capture.PortFilter(cfg.Capture.TrafficPorts)
	}

	trafficHandle, err := capture.Open(handleOptions(cfg, trafficFilter))
	if err != nil {
		return err
	}
	defer trafficHandle.Close()

	dnsHandle, err := capture.Open(handleOptions(cfg, cfg.Capture.DNSFilter))
	if err != nil {
		return err
	}
	defer dnsHandle.Close()

	trafficCh := make(chan models.TrafficObservation, cfg.Capture.Buffer)
	dnsCh := make(chan *dns.Message, cfg.Capture.Buffer)
	trafficLoop := capture.NewTrafficLoop(trafficCh)
	dnsLoop := capture.NewDNSLoop(dnsCh)

	go func() {
		if err := trafficLoop.Run(trafficHandle); err != nil {
			logger.WithError(err).Error("traffic loop failed")
		}
	}()
	go func() {
		if err := dnsLoop.Run(dnsHandle); err != nil {
			logger.WithError(err).Error("dns loop failed")
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		lookup  hosts.LookupFunc
		reverse <-chan models.ReverseResult
	)
	if cfg.Resolver.Enabled {
		pool := dns.NewLookupPool(
			dns.NewResolver(cfg.Resolver.Server, cfg.Resolver.Timeout),
			cfg.Resolver.Workers, cfg.Resolver.Queue,
		)
		pool.Start(ctx)
		lookup = pool.Submit
		reverse = pool.Results()
	}

	logger.WithFields(logrus.Fields{
		"source":         source,
		"traffic_filter": trafficFilter,
		"dns_filter":     cfg.Capture.DNSFilter,
		"resolver":       cfg.Resolver.Enabled,
	}).Info("capture started")

	table := hosts.NewTable(lookup)
	model := tui.NewHostModel(table, tui.Sources{
		Traffic: trafficCh,
		DNS:     dnsCh,
		Reverse: reverse,
	}, tui.Options{
		Interface: source,
		Ports:     describeFilter(cfg),
		Refresh:   cfg.UI.Refresh,
		Stats: func() (capture.Stats, capture.Stats) {
			return trafficLoop.Stats(), dnsLoop.Stats()
		},
	})

	started := time.Now()
	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run ui: %w", err)
	}
	if m, ok := final.(tui.HostModel); ok {
		if m.Running() {
			logger.Warn("ui stopped without a quit request")
		}
		table = m.Hosts()
	}
	logger.WithField("hosts", table.Len()).Info("capture stopped")

	if cfg.Report.Path == "" {
		return nil
	}
	session := reporting.Session{
		Interface: source,
		Started:   started,
		Ended:     time.Now(),
		Traffic:   trafficLoop.Stats(),
		DNS:       dnsLoop.Stats(),
	}
	if err := reporting.GenerateSessionReport(cfg.Report.Path, session, table.Entries()); err != nil {
		return err
	}
	fmt.Printf("Report written to %s\n", cfg.Report.Path)
	return nil
}

func handleOptions(cfg *config.Config, filter string) capture.Options {
	return capture.Options{
		Device:      cfg.Interface,
		PcapFile:    cfg.Capture.PcapFile,
		SnapLen:     cfg.Capture.SnapLen,
		Promiscuous: cfg.Capture.Promiscuous,
		Timeout:     cfg.Capture.Timeout,
		Filter:      filter,
	}
}

func describeFilter(cfg *config.Config) string {
	if cfg.Capture.TrafficFilter != "" {
		return cfg.Capture.TrafficFilter
	}
	return capture.DescribePorts(cfg.Capture.TrafficPorts)
}
