package server

import (
	"context"
	"encoding/json"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"

	"gomsg/placement"
)

// jsonCodec lets the placement gRPC facade run without generated
// protobuf stubs (api/generated/... is absent from this module): it
// marshals the plain request/response structs below as JSON instead
// of wire-format protobuf. Registered once under the "json" name;
// clients select it with grpc.CallContentSubtype("json").
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                               { return "json" }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// NewEnsembleRequest/Response and its siblings below are the plain Go
// mirrors of placement.Policy's six operations (spec.md §6), carried
// over gRPC via the json codec rather than protoc-generated types.

type NewEnsembleRequest struct {
	EnsembleSize int      `json:"ensembleSize"`
	WriteQuorum  int      `json:"writeQuorum"`
	AckQuorum    int      `json:"ackQuorum"`
	Excluded     []string `json:"excluded"`
}

type NewEnsembleResponse struct {
	Ensemble []string `json:"ensemble"`
}

type ReplaceBookieRequest struct {
	EnsembleSize int      `json:"ensembleSize"`
	WriteQuorum  int      `json:"writeQuorum"`
	AckQuorum    int      `json:"ackQuorum"`
	Ensemble     []string `json:"ensemble"`
	Victim       string   `json:"victim"`
	Excluded     []string `json:"excluded"`
}

type ReplaceBookieResponse struct {
	Replacement string `json:"replacement"`
}

type ReorderReadRequest struct {
	Ensemble   []string `json:"ensemble"`
	WriteSet   []int    `json:"writeSet"`
	CallerAddr string   `json:"callerAddr"`
}

type ReorderReadResponse struct {
	Order []int `json:"order"`
}

type ClusterChangedRequest struct {
	Writable []string `json:"writable"`
	ReadOnly []string `json:"readOnly"`
}

type ClusterChangedResponse struct{}

type RegionOfRequest struct {
	Addr string `json:"addr"`
}

type RegionOfResponse struct {
	Region string `json:"region"`
}

// PlacementServer is the interface PlacementService's hand-written
// handlers dispatch to; PlacementService below is its sole
// implementation.
type PlacementServer interface {
	NewEnsemble(context.Context, *NewEnsembleRequest) (*NewEnsembleResponse, error)
	ReplaceBookie(context.Context, *ReplaceBookieRequest) (*ReplaceBookieResponse, error)
	ReorderReadSequence(context.Context, *ReorderReadRequest) (*ReorderReadResponse, error)
	ReorderReadLACSequence(context.Context, *ReorderReadRequest) (*ReorderReadResponse, error)
	OnClusterChanged(context.Context, *ClusterChangedRequest) (*ClusterChangedResponse, error)
	RegionOf(context.Context, *RegionOfRequest) (*RegionOfResponse, error)
}

// PlacementService implements PlacementServer over a placement.Policy,
// the gRPC counterpart of pkg/server/cluster_service.go's
// ClusterService -> cluster.Manager pattern in the teacher.
type PlacementService struct {
	policy *placement.Policy
}

// NewPlacementService wraps policy for gRPC dispatch.
func NewPlacementService(policy *placement.Policy) *PlacementService {
	return &PlacementService{policy: policy}
}

func (s *PlacementService) NewEnsemble(ctx context.Context, req *NewEnsembleRequest) (*NewEnsembleResponse, error) {
	ensemble, err := s.policy.NewEnsemble(req.EnsembleSize, req.WriteQuorum, req.AckQuorum, req.Excluded)
	if err != nil {
		return nil, toStatus(err)
	}
	return &NewEnsembleResponse{Ensemble: ensemble}, nil
}

func (s *PlacementService) ReplaceBookie(ctx context.Context, req *ReplaceBookieRequest) (*ReplaceBookieResponse, error) {
	addr, err := s.policy.ReplaceBookie(req.EnsembleSize, req.WriteQuorum, req.AckQuorum, req.Ensemble, req.Victim, req.Excluded)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ReplaceBookieResponse{Replacement: addr}, nil
}

func (s *PlacementService) ReorderReadSequence(ctx context.Context, req *ReorderReadRequest) (*ReorderReadResponse, error) {
	order := s.policy.ReorderReadSequence(req.Ensemble, req.WriteSet, req.CallerAddr)
	return &ReorderReadResponse{Order: order}, nil
}

func (s *PlacementService) ReorderReadLACSequence(ctx context.Context, req *ReorderReadRequest) (*ReorderReadResponse, error) {
	order := s.policy.ReorderReadLACSequence(req.Ensemble, req.WriteSet, req.CallerAddr)
	return &ReorderReadResponse{Order: order}, nil
}

func (s *PlacementService) OnClusterChanged(ctx context.Context, req *ClusterChangedRequest) (*ClusterChangedResponse, error) {
	s.policy.OnClusterChanged(req.Writable, req.ReadOnly)
	return &ClusterChangedResponse{}, nil
}

func (s *PlacementService) RegionOf(ctx context.Context, req *RegionOfRequest) (*RegionOfResponse, error) {
	region, err := s.policy.RegionOf(req.Addr)
	if err != nil {
		return nil, toStatus(err)
	}
	return &RegionOfResponse{Region: region}, nil
}

// toStatus maps the placement core's sentinel errors to gRPC status
// codes a client can branch on without string matching.
func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, placement.ErrNotEnoughBookies):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, placement.ErrInvalidConfiguration):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, placement.ErrUnknownNode):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// RegisterPlacementServiceServer registers srv against s, the
// hand-built counterpart of protoc-gen-go-grpc's generated
// RegisterXServer functions.
func RegisterPlacementServiceServer(s grpc.ServiceRegistrar, srv PlacementServer) {
	s.RegisterService(&placementServiceDesc, srv)
}

var placementServiceDesc = grpc.ServiceDesc{
	ServiceName: "placement.PlacementService",
	HandlerType: (*PlacementServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "NewEnsemble", Handler: newEnsembleHandler},
		{MethodName: "ReplaceBookie", Handler: replaceBookieHandler},
		{MethodName: "ReorderReadSequence", Handler: reorderReadSequenceHandler},
		{MethodName: "ReorderReadLACSequence", Handler: reorderReadLACSequenceHandler},
		{MethodName: "OnClusterChanged", Handler: onClusterChangedHandler},
		{MethodName: "RegionOf", Handler: regionOfHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "placement_service.proto",
}

func newEnsembleHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(NewEnsembleRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PlacementServer).NewEnsemble(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/placement.PlacementService/NewEnsemble"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PlacementServer).NewEnsemble(ctx, req.(*NewEnsembleRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func replaceBookieHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ReplaceBookieRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PlacementServer).ReplaceBookie(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/placement.PlacementService/ReplaceBookie"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PlacementServer).ReplaceBookie(ctx, req.(*ReplaceBookieRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func reorderReadSequenceHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ReorderReadRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PlacementServer).ReorderReadSequence(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/placement.PlacementService/ReorderReadSequence"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PlacementServer).ReorderReadSequence(ctx, req.(*ReorderReadRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func reorderReadLACSequenceHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ReorderReadRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PlacementServer).ReorderReadLACSequence(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/placement.PlacementService/ReorderReadLACSequence"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PlacementServer).ReorderReadLACSequence(ctx, req.(*ReorderReadRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func onClusterChangedHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ClusterChangedRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PlacementServer).OnClusterChanged(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/placement.PlacementService/OnClusterChanged"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PlacementServer).OnClusterChanged(ctx, req.(*ClusterChangedRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func regionOfHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RegionOfRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PlacementServer).RegionOf(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/placement.PlacementService/RegionOf"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PlacementServer).RegionOf(ctx, req.(*RegionOfRequest))
	}
	return interceptor(ctx, in, info, handler)
}
