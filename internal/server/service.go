package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/receipts-extractor/internal/common"
)

const (
	extractionService = "receipts.v1.Extraction"
	// ExtractMethod is the full gRPC method name of the extraction call.
	ExtractMethod = "/" + extractionService + "/Extract"

	mdLanguage  = "x-lang"
	mdFileName  = "x-file-name"
	mdRequestID = "x-request-id"
)

// ExtractionServer is the receipts.v1.Extraction service. The request is
// the raw image; the response is the stored record as a JSON struct.
type ExtractionServer interface {
	Extract(ctx context.Context, image *wrapperspb.BytesValue) (*structpb.Struct, error)
}

type ExtractionService struct {
	svc    Receipts
	logger *slog.Logger
}

func NewExtractionService(svc Receipts, logger *slog.Logger) *ExtractionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionService{svc: svc, logger: logger}
}

func (s *ExtractionService) Extract(ctx context.Context, req *wrapperspb.BytesValue) (*structpb.Struct, error) {
	lang, name := "", ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		lang = first(md, mdLanguage)
		name = first(md, mdFileName)
		if id := first(md, mdRequestID); id != "" {
			ctx = common.WithRequestID(ctx, id)
		}
	}
	ctx, rid := common.EnsureRequestID(ctx)

	out, err := s.svc.Extract(ctx, name, req.GetValue(), lang)
	if err != nil {
		s.logger.Warn("grpc.extract.failed", "req_id", rid, "stage", common.StageOf(err), "error", err)
		return nil, common.GRPCError(err)
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode record: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode record: %v", err)
	}
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode record: %v", err)
	}
	s.logger.Info("grpc.extract.ok", "req_id", rid, "id", out.ID, "escalated", out.Escalated)
	return st, nil
}

func first(md metadata.MD, key string) string {
	if v := md.Get(key); len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

func extractHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExtractionServer).Extract(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ExtractMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ExtractionServer).Extract(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

var extractionServiceDesc = grpc.ServiceDesc{
	ServiceName: extractionService,
	HandlerType: (*ExtractionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Extract", Handler: extractHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "receipts/v1/extraction.proto",
}

func RegisterExtractionServer(s grpc.ServiceRegistrar, srv ExtractionServer) {
	s.RegisterService(&extractionServiceDesc, srv)
}

// NewGRPCServer returns a server with the extraction and health services
// registered. The health server starts as SERVING.
func NewGRPCServer(svc Receipts, logger *slog.Logger, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	opts = append(opts, grpc.MaxRecvMsgSize(maxUpload+1<<10))
	gs := grpc.NewServer(opts...)
	RegisterExtractionServer(gs, NewExtractionService(svc, logger))

	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	hs.SetServingStatus(extractionService, grpc_health_v1.HealthCheckResponse_SERVING)
	return gs, hs
}
