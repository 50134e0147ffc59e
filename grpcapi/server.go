package grpcapi

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/mmdatafocus/inventory_backend/middlewares"
	"github.com/mmdatafocus/inventory_backend/models"
	"github.com/mmdatafocus/inventory_backend/utils"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// NewServer builds the gRPC server: the inventory service behind the
// device-bound guard, plus health and reflection.
func NewServer(guard *middlewares.Guard) *grpc.Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(ContextInterceptor(), AuthInterceptor(guard)),
	)
	RegisterInventoryServiceServer(s, NewInventoryHandler())

	hs := health.NewServer()
	hs.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)

	reflection.Register(s)
	return s
}

func firstMetadata(md metadata.MD, key string) string {
	if values := md.Get(key); len(values) > 0 {
		return values[0]
	}
	return ""
}

// ContextInterceptor carries the correlation id from metadata into ctx.
func ContextInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		cid := firstMetadata(md, "x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		return handler(utils.SetCorrelationIdInContext(ctx, cid), req)
	}
}

// AuthInterceptor runs the guard on every inventory call. Health and
// reflection stay open.
func AuthInterceptor(guard *middlewares.Guard) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if !strings.HasPrefix(info.FullMethod, "/"+serviceName+"/") {
			return handler(ctx, req)
		}
		md, _ := metadata.FromIncomingContext(ctx)
		authorization := firstMetadata(md, "authorization")
		claims, err := guard.Authenticate(ctx, authorization, models.UserRoleAny)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, utils.ErrUnauthorized.Message)
		}
		token, _ := utils.BearerToken(authorization)
		ctx = utils.SetTokenInContext(ctx, token)
		ctx = utils.SetAccessClaimsInContext(ctx, claims)
		return handler(ctx, req)
	}
}
