package grpcapi

import (
	"context"

	"github.com/mmdatafocus/inventory_backend/models"
	"google.golang.org/grpc"
)

const (
	serviceName              = "inventory.InventoryService"
	listInventoryNamesMethod = "/" + serviceName + "/ListInventoryNames"
)

type ListInventoryNamesRequest struct{}

type ListInventoryNamesResponse struct {
	Names  []*models.InventoryName `json:"names"`
	Status models.Status           `json:"status"`
}

type InventoryServiceServer interface {
	ListInventoryNames(context.Context, *ListInventoryNamesRequest) (*ListInventoryNamesResponse, error)
}

func _InventoryService_ListInventoryNames_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListInventoryNamesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InventoryServiceServer).ListInventoryNames(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: listInventoryNamesMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(InventoryServiceServer).ListInventoryNames(ctx, req.(*ListInventoryNamesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var InventoryService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*InventoryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListInventoryNames",
			Handler:    _InventoryService_ListInventoryNames_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "inventory.proto",
}

func RegisterInventoryServiceServer(s grpc.ServiceRegistrar, srv InventoryServiceServer) {
	s.RegisterService(&InventoryService_ServiceDesc, srv)
}

// InventoryServiceClient calls the service with the json codec.
type InventoryServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewInventoryServiceClient(cc grpc.ClientConnInterface) *InventoryServiceClient {
	return &InventoryServiceClient{cc: cc}
}

func (c *InventoryServiceClient) ListInventoryNames(ctx context.Context, in *ListInventoryNamesRequest, opts ...grpc.CallOption) (*ListInventoryNamesResponse, error) {
	out := new(ListInventoryNamesResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	if err := c.cc.Invoke(ctx, listInventoryNamesMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// InventoryHandler answers with the same {data, status} split as GraphQL:
// business failures go in Status, only auth failures become gRPC errors.
type InventoryHandler struct{}

func NewInventoryHandler() *InventoryHandler {
	return &InventoryHandler{}
}

func (h *InventoryHandler) ListInventoryNames(ctx context.Context, req *ListInventoryNamesRequest) (*ListInventoryNamesResponse, error) {
	names, err := models.GetInventoryNames(ctx)
	if err != nil {
		return &ListInventoryNamesResponse{
			Status: models.NewStatus(ctx, "service.go", "ListInventoryNames", err),
		}, nil
	}
	return &ListInventoryNamesResponse{Names: names, Status: models.StatusSuccess}, nil
}
