package grpcserver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

type fakeAddr struct{}

func (fakeAddr) Network() string { return "tcp" }
func (fakeAddr) String() string  { return "127.0.0.1:12345" }

var checkInfo = &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

func TestLoggingUnary_LogsMetadata(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	ic := LoggingUnary(zap.New(core))
	ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: fakeAddr{}})

	resp, err := ic(ctx, "req", checkInfo, func(context.Context, any) (any, error) { return "ok", nil })
	require.NoError(t, err)
	require.Equal(t, "ok", resp)

	wantErr := status.Error(codes.Unavailable, "db down")
	_, err = ic(ctx, "req", checkInfo, func(context.Context, any) (any, error) { return nil, wantErr })
	require.ErrorIs(t, err, wantErr)

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, zapcore.InfoLevel, entries[0].Level)
	require.Equal(t, "127.0.0.1:12345", entries[0].ContextMap()["peer"])
	require.Equal(t, "/grpc.health.v1.Health/Check", entries[0].ContextMap()["method"])
	require.Equal(t, zapcore.WarnLevel, entries[1].Level)
	require.Equal(t, "Unavailable", entries[1].ContextMap()["code"])
}

func TestRecoverUnary(t *testing.T) {
	t.Parallel()

	ic := RecoverUnary(zaptest.NewLogger(t))

	_, err := ic(context.Background(), "req", checkInfo, func(context.Context, any) (any, error) { panic("oh no") })
	st, ok := status.FromError(err)
	require.True(t, ok)
	require.Equal(t, codes.Internal, st.Code())

	resp, err := ic(context.Background(), "req", checkInfo, func(context.Context, any) (any, error) { return 42, nil })
	require.NoError(t, err)
	require.Equal(t, 42, resp)

	plain := errors.New("plain")
	_, err = ic(context.Background(), "req", checkInfo, func(context.Context, any) (any, error) { return nil, plain })
	require.ErrorIs(t, err, plain)
}
