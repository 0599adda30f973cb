package recommender

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	serviceName     = "autoresolve.recommender.v1.Recommender"
	recommendMethod = "/" + serviceName + "/Recommend"
)

// RecommenderServer is the server side of the recommender service.
type RecommenderServer interface {
	Recommend(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RecommendFunc adapts a typed function to RecommenderServer.
type RecommendFunc func(ctx context.Context, req Request) (Response, error)

// Recommend decodes the request, calls f and encodes its response.
func (f RecommendFunc) Recommend(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in, err := decodeRequest(req)
	if err != nil {
		return nil, err
	}
	out, err := f(ctx, in)
	if err != nil {
		return nil, err
	}
	return encodeResponse(out)
}

func recommendHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RecommenderServer).Recommend(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: recommendMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RecommenderServer).Recommend(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ServiceDesc describes the recommender service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*RecommenderServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Recommend", Handler: recommendHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "autoresolve/recommender/v1/recommender.proto",
}

// RegisterRecommenderServer registers srv on s.
func RegisterRecommenderServer(s grpc.ServiceRegistrar, srv RecommenderServer) {
	s.RegisterService(&ServiceDesc, srv)
}
