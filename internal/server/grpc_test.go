package server

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/receipts-extractor/internal/common"
)

func dialBuf(t *testing.T, f *fakeReceipts) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs, _ := NewGRPCServer(f, discard())
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestGRPCExtract(t *testing.T) {
	f := &fakeReceipts{}
	conn := dialBuf(t, f)

	ctx := metadata.AppendToOutgoingContext(context.Background(), mdLanguage, "tur", mdFileName, "fis.jpg")
	out := new(structpb.Struct)
	err := conn.Invoke(ctx, ExtractMethod, wrapperspb.Bytes([]byte{1, 2}), out)
	require.NoError(t, err)

	m := out.AsMap()
	assert.Equal(t, "r-1", m["id"])
	assert.Equal(t, true, m["valid"])
	rec := m["receipt"].(map[string]any)
	assert.InDelta(t, 275, rec["totalAmount"], 1e-9)
	assert.Equal(t, "tur", f.lastLang)
	assert.Equal(t, "fis.jpg", f.lastName)
}

func TestGRPCExtract_Errors(t *testing.T) {
	f := &fakeReceipts{extractErr: common.NewValidationError("file is empty")}
	conn := dialBuf(t, f)

	err := conn.Invoke(context.Background(), ExtractMethod, wrapperspb.Bytes(nil), new(structpb.Struct))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	f.extractErr = &common.StageError{Stage: "llm_extract", Err: common.ErrMalformedResponse}
	err = conn.Invoke(context.Background(), ExtractMethod, wrapperspb.Bytes([]byte{1}), new(structpb.Struct))
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestGRPCHealth(t *testing.T) {
	conn := dialBuf(t, &fakeReceipts{})
	resp, err := grpc_health_v1.NewHealthClient(conn).Check(context.Background(),
		&grpc_health_v1.HealthCheckRequest{Service: "receipts.v1.Extraction"})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.GetStatus())
}
