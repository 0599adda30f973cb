package recommender

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/felixgeelhaar/autoresolve/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func startServer(t *testing.T, fn RecommendFunc) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterRecommenderServer(srv, fn)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func testBooking() *domain.Booking {
	return &domain.Booking{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		RegionID:  "nyc",
		ServiceID: "cleaning",
		Start:     time.Date(2025, time.November, 24, 15, 0, 0, 0, time.UTC),
		Status:    domain.BookingStatusConfirmed,
	}
}

func TestClient_Recommend(t *testing.T) {
	provider := uuid.New()
	proposed := time.Date(2025, time.November, 25, 10, 0, 0, 0, time.UTC)

	var got Request
	conn := startServer(t, func(_ context.Context, req Request) (Response, error) {
		got = req
		return Response{Start: proposed, ProviderIDs: []uuid.UUID{provider}}, nil
	})

	metrics := observability.NewInMemoryMetrics()
	client := NewClient(conn, DefaultConfig("bufnet"), metrics, nil)
	booking := testBooking()

	rec, err := client.Recommend(context.Background(), booking, domain.ArrivalAutoReschedule)
	require.NoError(t, err)
	assert.True(t, rec.Start.Equal(proposed))
	assert.Equal(t, []uuid.UUID{provider}, rec.ProviderIDs)

	assert.Equal(t, booking.ID, got.BookingID)
	assert.Equal(t, booking.UserID, got.UserID)
	assert.Equal(t, "nyc", got.RegionID)
	assert.Equal(t, "cleaning", got.ServiceID)
	assert.True(t, got.Start.Equal(booking.Start))
	assert.Equal(t, domain.ArrivalAutoReschedule, got.ArrivalType)
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricRecommenderCalls, observability.T("result", "ok")))
}

func TestClient_EmptyRecommendation(t *testing.T) {
	conn := startServer(t, func(context.Context, Request) (Response, error) {
		return Response{}, nil
	})
	client := NewClient(conn, DefaultConfig("bufnet"), nil, nil)

	rec, err := client.Recommend(context.Background(), testBooking(), domain.ArrivalAutoReschedule)
	require.NoError(t, err)
	assert.True(t, rec.IsEmpty())
}

func TestClient_NotFoundIsEmpty(t *testing.T) {
	conn := startServer(t, func(context.Context, Request) (Response, error) {
		return Response{}, status.Error(codes.NotFound, "no slot")
	})
	client := NewClient(conn, DefaultConfig("bufnet"), nil, nil)

	rec, err := client.Recommend(context.Background(), testBooking(), domain.ArrivalAutoReschedule)
	require.NoError(t, err)
	assert.True(t, rec.IsEmpty())
}

func TestClient_ErrorsAreUnavailable(t *testing.T) {
	conn := startServer(t, func(context.Context, Request) (Response, error) {
		return Response{}, errors.New("optimizer crashed")
	})
	client := NewClient(conn, DefaultConfig("bufnet"), nil, nil)

	_, err := client.Recommend(context.Background(), testBooking(), domain.ArrivalAutoReschedule)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_BreakerOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	conn := startServer(t, func(context.Context, Request) (Response, error) {
		calls.Add(1)
		return Response{}, status.Error(codes.Internal, "boom")
	})

	cfg := DefaultConfig("bufnet")
	cfg.FailureThreshold = 2
	cfg.OpenTimeout = time.Hour
	metrics := observability.NewInMemoryMetrics()
	client := NewClient(conn, cfg, metrics, nil)

	for i := 0; i < 4; i++ {
		_, err := client.Recommend(context.Background(), testBooking(), domain.ArrivalAutoReschedule)
		assert.ErrorIs(t, err, ErrUnavailable)
	}

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, int64(2), metrics.GetCounter(observability.MetricRecommenderCalls, observability.T("result", "open")))
}

func TestClient_Timeout(t *testing.T) {
	conn := startServer(t, func(ctx context.Context, _ Request) (Response, error) {
		<-ctx.Done()
		return Response{}, ctx.Err()
	})
	cfg := DefaultConfig("bufnet")
	cfg.Timeout = 20 * time.Millisecond
	client := NewClient(conn, cfg, nil, nil)

	_, err := client.Recommend(context.Background(), testBooking(), domain.ArrivalAutoReschedule)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDial_RequiresAddr(t *testing.T) {
	_, err := Dial(Config{}, nil, nil)
	assert.Error(t, err)
}
