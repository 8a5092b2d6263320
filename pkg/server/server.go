package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"

	"gomsg/config"
	"gomsg/pkg/cluster"
	"gomsg/placement"
)

// Server represents the gRPC server hosting the placement service,
// re-themed from the teacher's kv/queue/stream-serving Server.
type Server struct {
	config *config.Config
	log    *logrus.Logger
	grpc   *grpc.Server

	policy        *placement.Policy
	service       *PlacementService
	watcher       *cluster.Watcher
	watcherCtx    context.Context
	watcherCancel context.CancelFunc
}

// NewServer creates a new server instance around a placement.Policy.
func NewServer(cfg *config.Config, policy *placement.Policy, log *logrus.Logger) (*Server, error) {
	if log == nil {
		log = logrus.New()
	}

	opts := []grpc.ServerOption{
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle:     15 * time.Second,
			MaxConnectionAge:      30 * time.Second,
			MaxConnectionAgeGrace: 5 * time.Second,
			Time:                  5 * time.Second,
			Timeout:               1 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.MaxRecvMsgSize(4 * 1024 * 1024),
		grpc.MaxSendMsgSize(4 * 1024 * 1024),
	}

	grpcServer := grpc.NewServer(opts...)

	srv := &Server{
		config:  cfg,
		log:     log,
		grpc:    grpcServer,
		policy:  policy,
		service: NewPlacementService(policy),
	}

	if cfg.Cluster.Enabled {
		watcher, err := cluster.NewWatcher(cluster.WatcherConfig{
			Self: cluster.Config{
				NodeID:       cfg.Cluster.NodeID,
				Address:      cfg.Cluster.BindAddr,
				HeartbeatTTL: time.Duration(cfg.Cluster.HeartbeatTTL) * time.Second,
			},
		}, policy, log)
		if err != nil {
			return nil, fmt.Errorf("membership watcher start: %w", err)
		}
		srv.watcher = watcher
	}

	RegisterPlacementServiceServer(grpcServer, srv.service)

	return srv, nil
}

// Start starts the server, including the membership watcher if
// clustering is enabled, and blocks until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	s.log.WithField("address", address).Info("starting placement server")

	if s.watcher != nil {
		s.watcherCtx, s.watcherCancel = context.WithCancel(ctx)
		go s.watcher.Run(s.watcherCtx)
	}

	go func() {
		if err := s.grpc.Serve(listener); err != nil {
			s.log.WithError(err).Error("grpc server error")
		}
	}()

	<-ctx.Done()
	return s.Stop()
}

// Stop stops the server gracefully.
func (s *Server) Stop() error {
	s.log.Info("stopping placement server")

	if s.watcherCancel != nil {
		s.watcherCancel()
	}
	if s.watcher != nil {
		s.watcher.Close()
	}
	s.policy.Close()

	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info("server stopped gracefully")
	case <-time.After(30 * time.Second):
		s.log.Warn("force stopping server")
		s.grpc.Stop()
	}

	return nil
}

// Health reports whether the server is able to serve placement
// requests.
func (s *Server) Health() bool {
	return s.policy != nil
}
