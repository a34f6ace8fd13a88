package grpcapi

import (
	"context"
	"net"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
	"gorm.io/gorm"

	"github.com/Leganyst/service-marketplace/internal/db/dbtest"
	"github.com/Leganyst/service-marketplace/internal/model"
	"github.com/Leganyst/service-marketplace/internal/service"
)

type testEnv struct {
	conn   *grpc.ClientConn
	client *DiscoveryClient
	db     *gorm.DB
	f      *dbtest.Fixture
	logs   *observer.ObservedLogs
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := dbtest.New(t)
	f := dbtest.Seed(t, db)
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	srv := NewServer(logger, service.NewDiscoveryService(db, nil, logger))
	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.GracefulStop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &testEnv{conn: conn, client: NewDiscoveryClient(conn), db: db, f: f, logs: logs}
}

func request(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestListProviders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sp := dbtest.NewAccount(t, env.db, "sp@test.com", "Paulo Sampa", model.RoleProvider)
	spProfile := dbtest.NewProviderProfile(t, env.db, sp.ID, dbtest.Float(-23.5505), dbtest.Float(-46.6333))

	resp, err := env.client.ListProviders(ctx, request(t, map[string]any{
		"latitude":         -22.9056,
		"longitude":        -47.0608,
		"sort_by_distance": true,
	}))
	require.NoError(t, err)

	out := resp.AsMap()
	assert.EqualValues(t, 2, out["count"])
	results := out["results"].([]any)
	require.Len(t, results, 2)

	first := results[0].(map[string]any)
	assert.Equal(t, spProfile.ID.String(), first["id"])
	assert.Equal(t, "Paulo Sampa", first["name"])
	assert.InDelta(t, 84, first["distance_km"], 5)

	second := results[1].(map[string]any)
	assert.Nil(t, second["distance_km"])

	resp, err = env.client.ListProviders(ctx, request(t, map[string]any{"name": "sampa"}))
	require.NoError(t, err)
	assert.EqualValues(t, 1, resp.AsMap()["count"])

	assert.Equal(t, 2, env.logs.FilterMessage("grpc call completed").Len())
}

func TestListProvidersInvalidArgument(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.client.ListProviders(context.Background(), request(t, map[string]any{"service_id": "x"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGetProvider(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.client.GetProvider(ctx, request(t, map[string]any{"id": env.f.ProviderProfile.ID.String()}))
	require.NoError(t, err)
	out := resp.AsMap()
	assert.Equal(t, "Prestador Teste", out["name"])
	assert.Equal(t, env.f.ProviderProfile.ID.String(), out["id"])

	_, err = env.client.GetProvider(ctx, request(t, map[string]any{"id": uuid.NewString()}))
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = env.client.GetProvider(ctx, request(t, map[string]any{"id": "nope"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = env.client.GetProvider(ctx, request(t, map[string]any{}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	hc := healthpb.NewHealthClient(env.conn)

	for _, name := range []string{"", DiscoveryServiceName} {
		resp, err := hc.Check(context.Background(), &healthpb.HealthCheckRequest{Service: name})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
	}
}
