package server

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/pantry-tracker/constants"
	"github.com/joseph-ayodele/pantry-tracker/internal/common"
)

const receiptsServiceName = "pantry.v1.Receipts"

// ReceiptsServer is the gRPC surface of the receipt gateway. Requests and
// responses are google.protobuf.Struct so no generated stubs are needed.
type ReceiptsServer interface {
	Upload(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Poll(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

var receiptsServiceDesc = grpc.ServiceDesc{
	ServiceName: receiptsServiceName,
	HandlerType: (*ReceiptsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Upload", Handler: receiptsUploadHandler},
		{MethodName: "Poll", Handler: receiptsPollHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pantry/v1/receipts.proto",
}

func receiptsUploadHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReceiptsServer).Upload(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + receiptsServiceName + "/Upload"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ReceiptsServer).Upload(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func receiptsPollHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReceiptsServer).Poll(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + receiptsServiceName + "/Poll"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ReceiptsServer).Poll(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterReceiptsServer registers srv under pantry.v1.Receipts.
func RegisterReceiptsServer(s grpc.ServiceRegistrar, srv ReceiptsServer) {
	s.RegisterService(&receiptsServiceDesc, srv)
}

// ReceiptService adapts the receipt gateway to ReceiptsServer.
type ReceiptService struct {
	gateway ReceiptGateway
	logger  *slog.Logger
}

func NewReceiptService(gateway ReceiptGateway, logger *slog.Logger) *ReceiptService {
	return &ReceiptService{gateway: gateway, logger: logger}
}

// Upload expects {user_id, image_base64} and returns {receipt_id}.
func (s *ReceiptService) Upload(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userIDField(in)
	if err != nil {
		return nil, err
	}
	encoded := strings.TrimSpace(in.GetFields()["image_base64"].GetStringValue())
	if encoded == "" {
		return nil, common.InvalidArgumentError("image_base64 is required")
	}
	image, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, common.InvalidArgumentErrorf("image_base64 invalid: %v", err)
	}

	receiptID, err := s.gateway.Upload(ctx, userID, image)
	if err != nil {
		s.logger.Error("grpc.receipts.upload_failed", "user_id", userID, "error", err)
		return nil, status.Error(codes.Unavailable, err.Error())
	}
	return structpb.NewStruct(map[string]any{"receipt_id": receiptID})
}

// Poll expects {user_id, receipt_id} and returns {status[, error]}.
func (s *ReceiptService) Poll(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userIDField(in)
	if err != nil {
		return nil, err
	}
	receiptID := strings.TrimSpace(in.GetFields()["receipt_id"].GetStringValue())
	if receiptID == "" {
		return nil, common.InvalidArgumentError("receipt_id is required")
	}

	st, perr := s.gateway.Poll(ctx, userID, receiptID)
	out := map[string]any{"status": string(st)}
	if st == constants.ReceiptStatusError && perr != nil {
		out["error"] = perr.Error()
	}
	return structpb.NewStruct(out)
}

func userIDField(in *structpb.Struct) (int64, error) {
	v, ok := in.GetFields()["user_id"]
	if !ok {
		return 0, common.InvalidArgumentError("user_id is required")
	}
	n := v.GetNumberValue()
	if n <= 0 || n != float64(int64(n)) {
		return 0, common.InvalidArgumentError("user_id must be a positive integer")
	}
	return int64(n), nil
}

// loggingInterceptor tags each call with the x-request-id metadata value and logs its outcome.
func loggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if ids := md.Get("x-request-id"); len(ids) > 0 {
				ctx = common.WithRequestID(ctx, ids[0])
			}
		}
		resp, err := handler(ctx, req)
		l := common.LoggerWithRequest(ctx, logger)
		attrs := []any{"method", info.FullMethod, "elapsed_ms", time.Since(start).Milliseconds()}
		if err != nil {
			l.Warn("grpc.request", append(attrs, "code", status.Code(err).String(), "error", err)...)
		} else {
			l.Info("grpc.request", attrs...)
		}
		return resp, err
	}
}

// NewGRPCServer builds a server with health, reflection and (when gateway is
// non-nil) the receipts service registered.
func NewGRPCServer(gateway ReceiptGateway, logger *slog.Logger) (*grpc.Server, *health.Server) {
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(loggingInterceptor(logger)))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	if gateway != nil {
		RegisterReceiptsServer(grpcServer, NewReceiptService(gateway, logger))
		hs.SetServingStatus(receiptsServiceName, healthpb.HealthCheckResponse_SERVING)
	}
	// Reflection for grpcurl
	reflection.Register(grpcServer)
	return grpcServer, hs
}
