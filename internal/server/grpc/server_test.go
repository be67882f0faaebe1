package grpcserver

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

type flakyDB struct{ down atomic.Bool }

func (f *flakyDB) Ping(context.Context) error {
	if f.down.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func startHealth(t *testing.T, db Pinger, every time.Duration) (*Server, healthpb.HealthClient) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := New(db, every, false, zaptest.NewLogger(t))
	go func() { _ = s.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Stop(ctx)
	})
	return s, healthpb.NewHealthClient(conn)
}

func servingStatus(t *testing.T, c healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := c.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestHealth_FollowsPing(t *testing.T) {
	db := &flakyDB{}
	s, client := startHealth(t, db, time.Hour)

	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, servingStatus(t, client, ""))

	s.check(context.Background())
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, servingStatus(t, client, ""))
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, servingStatus(t, client, ServiceName))

	db.down.Store(true)
	s.check(context.Background())
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, servingStatus(t, client, ServiceName))
}

func TestHealth_WatchUntilCancelled(t *testing.T) {
	db := &flakyDB{}
	s, client := startHealth(t, db, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Watch(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return servingStatus(t, client, "") == healthpb.HealthCheckResponse_SERVING
	}, time.Second, 5*time.Millisecond)

	db.down.Store(true)
	require.Eventually(t, func() bool {
		return servingStatus(t, client, "") == healthpb.HealthCheckResponse_NOT_SERVING
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
