package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "formulatree.v1.FormulaService"

// FormulaServer is the gRPC surface of FormulaService. Requests and responses
// are google.protobuf.Struct values holding the JSON form of the service
// messages, so Views can call it without generated stubs.
type FormulaServer interface {
	Preview(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Mutate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRuleSet(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SaveRuleSet(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListRuleSets(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteRuleSet(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Catalog(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// GRPCService adapts FormulaService to FormulaServer.
type GRPCService struct {
	svc *FormulaService
}

// NewGRPCService wraps svc for registration with RegisterFormulaServer.
func NewGRPCService(svc *FormulaService) *GRPCService {
	return &GRPCService{svc: svc}
}

func (g *GRPCService) Preview(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return invoke(ctx, in, g.svc.Preview)
}

func (g *GRPCService) Mutate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return invoke(ctx, in, g.svc.Mutate)
}

func (g *GRPCService) GetRuleSet(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return invoke(ctx, in, g.svc.GetRuleSet)
}

func (g *GRPCService) SaveRuleSet(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return invoke(ctx, in, g.svc.SaveRuleSet)
}

func (g *GRPCService) ListRuleSets(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return invoke(ctx, in, g.svc.ListRuleSets)
}

func (g *GRPCService) DeleteRuleSet(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return invoke(ctx, in, g.svc.DeleteRuleSet)
}

func (g *GRPCService) Catalog(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return invoke(ctx, in, g.svc.Catalog)
}

// invoke decodes in into Req, calls fn and encodes its result.
func invoke[Req, Resp any](ctx context.Context, in *structpb.Struct, fn func(context.Context, *Req) (*Resp, error)) (*structpb.Struct, error) {
	var req Req
	if err := FromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	resp, err := fn(ctx, &req)
	if err != nil {
		return nil, grpcError(err)
	}
	out, err := ToStruct(resp)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// FromStruct decodes a Struct payload into dest through its JSON form.
// Unknown fields are rejected. A nil payload decodes as an empty object.
func FromStruct(in *structpb.Struct, dest interface{}) error {
	data := []byte("{}")
	if in != nil {
		var err error
		if data, err = protojson.Marshal(in); err != nil {
			return wrapBadRequest(err)
		}
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return wrapBadRequest(err)
	}
	return nil
}

// ToStruct encodes v, which must marshal to a JSON object, as a Struct.
func ToStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return out, nil
}

func unaryMethod(name string, call func(FormulaServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(FormulaServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(FormulaServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// FormulaServiceDesc describes formulatree.v1.FormulaService for grpc.Server.
var FormulaServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FormulaServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("Preview", FormulaServer.Preview),
		unaryMethod("Mutate", FormulaServer.Mutate),
		unaryMethod("GetRuleSet", FormulaServer.GetRuleSet),
		unaryMethod("SaveRuleSet", FormulaServer.SaveRuleSet),
		unaryMethod("ListRuleSets", FormulaServer.ListRuleSets),
		unaryMethod("DeleteRuleSet", FormulaServer.DeleteRuleSet),
		unaryMethod("Catalog", FormulaServer.Catalog),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "formulatree/v1/formula.proto",
}

// RegisterFormulaServer registers srv on s.
func RegisterFormulaServer(s grpc.ServiceRegistrar, srv FormulaServer) {
	s.RegisterService(&FormulaServiceDesc, srv)
}

// FormulaClient calls FormulaService over a gRPC connection.
type FormulaClient struct {
	cc grpc.ClientConnInterface
}

// NewFormulaClient creates a client on cc.
func NewFormulaClient(cc grpc.ClientConnInterface) *FormulaClient {
	return &FormulaClient{cc: cc}
}

// Call invokes method with req encoded as a Struct and decodes the reply
// into resp.
func (c *FormulaClient) Call(ctx context.Context, method string, req, resp interface{}, opts ...grpc.CallOption) error {
	in, err := ToStruct(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return err
	}
	data, err := protojson.Marshal(out)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, resp)
}
