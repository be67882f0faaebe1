// Package grpcserver runs the optional gRPC listener that reports service
// health over grpc.health.v1 while the database answers pings.
package grpcserver

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the name health clients may query besides the empty name.
const ServiceName = "devfolio.API"

// Pinger reports storage reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wraps a grpc.Server exposing the health service.
type Server struct {
	srv    *grpc.Server
	health *health.Server
	db     Pinger
	every  time.Duration
	log    *zap.Logger
}

// New builds the server. The status starts as NOT_SERVING until the first
// successful ping. reflect registers server reflection for local tooling.
func New(db Pinger, every time.Duration, reflect bool, log *zap.Logger) *Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoverUnary(log),
			LoggingUnary(log),
		),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	if reflect {
		reflection.Register(srv)
	}
	s := &Server{srv: srv, health: hs, db: db, every: every, log: log}
	s.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

func (s *Server) set(st healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// check pings once and publishes the result.
func (s *Server) check(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		s.log.Warn("health ping failed", zap.Error(err))
		s.set(healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}
	s.set(healthpb.HealthCheckResponse_SERVING)
}

// Watch pings the database every interval until ctx is done.
func (s *Server) Watch(ctx context.Context) {
	s.check(ctx)
	t := time.NewTicker(s.every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.check(ctx)
		}
	}
}

// Serve blocks serving on lis.
func (s *Server) Serve(lis net.Listener) error {
	s.log.Info("grpc health listening", zap.String("addr", lis.Addr().String()))
	return s.srv.Serve(lis)
}

// Stop drains in-flight calls, forcing a stop when ctx expires first.
func (s *Server) Stop(ctx context.Context) {
	s.health.Shutdown()
	done := make(chan struct{})
	go func() {
		s.srv.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.srv.Stop()
	}
}
