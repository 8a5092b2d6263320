package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gomsg/config"
	"gomsg/pkg/server"
	"gomsg/placement"
	"gomsg/storage"
)

var (
	configPath string
	dataDir    string
	port       int
	host       string
	nodeID     string
	bootstrap  bool
	join       string
	clustered  bool
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gomsg-placement",
		Short: "Region- and rack-aware ensemble placement service",
		RunE:  run,
	}
	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "Path to configuration file")
	flags.StringVar(&dataDir, "data-dir", "./data", "Topology cache data directory")
	flags.IntVar(&port, "port", 9000, "Server port")
	flags.StringVar(&host, "host", "localhost", "Server host")
	flags.StringVar(&nodeID, "node-id", "", "Node ID for the membership watcher")
	flags.BoolVar(&bootstrap, "bootstrap", false, "Bootstrap the membership-agreement raft group")
	flags.StringVar(&join, "join", "", "Join an existing membership-agreement group")
	flags.BoolVar(&clustered, "cluster", false, "Enable the embedded membership watcher")
	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	log := logrus.New()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		cfg = config.GetDefaultConfig()
		log.WithError(err).Warn("using default configuration")
	}

	if dataDir != "./data" {
		cfg.Storage.DataDir = dataDir
	}
	if port != 9000 {
		cfg.Server.Port = port
	}
	if host != "localhost" {
		cfg.Server.Host = host
	}
	if clustered {
		cfg.Cluster.Enabled = true
		if nodeID != "" {
			cfg.Cluster.NodeID = nodeID
		}
		if bootstrap {
			cfg.Cluster.Bootstrap = true
		}
		if join != "" {
			cfg.Cluster.JoinAddresses = []string{join}
		}
	}

	var resolver placement.Resolver
	if cfg.Placement.DNSResolverClass != "" {
		resolver = placement.NewDNSRackResolver(cfg.Placement.DNSResolverClass, "racks.internal")
	}

	cache, err := storage.NewTopologyCache(cfg.Storage.DataDir, resolver)
	if err != nil {
		log.WithError(err).Fatal("failed to open topology cache")
	}
	defer cache.Close()

	var reporter placement.Reporter
	if cfg.Metrics.Enabled {
		reporter = placement.NewPrometheusReporter(prometheus.DefaultRegisterer)
	}

	policy, err := placement.NewPolicy(placement.Config{
		RegionsToWrite:             cfg.Placement.RegionsToWrite,
		MinRegionsForDurability:    cfg.Placement.MinRegionsForDurability,
		EnableValidation:           cfg.Placement.EnableValidation,
		DNSResolverClass:           cfg.Placement.DNSResolverClass,
		RemoteNodeReorderThreshold: cfg.Placement.RemoteNodeReorderThreshold,
		Seed:                       cfg.Placement.Seed,
	}, cache, reporter)
	if err != nil {
		log.WithError(err).Fatal("failed to construct placement policy")
	}
	defer policy.Close()

	srv, err := server.NewServer(cfg, policy, log)
	if err != nil {
		log.WithError(err).Fatal("failed to create server")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("received shutdown signal")
		cancel()
	}()

	log.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("starting gomsg-placement")

	if err := srv.Start(ctx); err != nil {
		log.WithError(err).Fatal("server error")
	}

	log.Info("gomsg-placement stopped")
	return nil
}
