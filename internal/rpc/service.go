// Package rpc exposes the problem engine over gRPC for non-browser clients.
//
// Messages are google.protobuf.Struct values carrying the same JSON shapes
// as the HTTP API, so no generated code is needed.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ashureev/kinematics-lab/internal/problem"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "kinematics.v1.ProblemService"

const (
	getProblemMethod  = "/" + ServiceName + "/GetProblem"
	checkAnswerMethod = "/" + ServiceName + "/CheckAnswer"
)

// ProblemServiceServer is the server API for ProblemService.
type ProblemServiceServer interface {
	GetProblem(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CheckAnswer(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var problemServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProblemServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetProblem", Handler: unaryHandler(getProblemMethod, ProblemServiceServer.GetProblem)},
		{MethodName: "CheckAnswer", Handler: unaryHandler(checkAnswerMethod, ProblemServiceServer.CheckAnswer)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "kinematics/v1/problem.proto",
}

type unaryMethod func(ProblemServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ProblemServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ProblemServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// RegisterProblemServiceServer registers srv with s.
func RegisterProblemServiceServer(s grpc.ServiceRegistrar, srv ProblemServiceServer) {
	s.RegisterService(&problemServiceDesc, srv)
}

// ProblemService implements ProblemServiceServer on top of a problem.Engine.
type ProblemService struct {
	engine     *problem.Engine
	allowDebug bool
	logger     *slog.Logger
}

// NewProblemService creates a service. Answers are only returned when
// allowDebug is set and the request asks for them.
func NewProblemService(engine *problem.Engine, allowDebug bool, logger *slog.Logger) *ProblemService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProblemService{engine: engine, allowDebug: allowDebug, logger: logger}
}

// GetProblem generates a new problem.
func (s *ProblemService) GetProblem(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	debug := s.allowDebug && debugRequested(in)

	p, err := s.engine.NewProblem(ctx)
	if err != nil {
		s.logger.Error("Failed to generate problem", "error", err)
		return nil, status.Error(codes.Internal, "failed to generate problem")
	}
	out, err := toStruct(p.Public(debug))
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// CheckAnswer grades a submission shaped like the HTTP check body.
func (s *ProblemService) CheckAnswer(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "check request is required")
	}
	raw, err := in.MarshalJSON()
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "Missing JSON")
	}
	var req problem.CheckRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "Missing JSON")
	}

	result, err := s.engine.CheckAnswer(ctx, req)
	if err != nil {
		return nil, s.statusError(err)
	}
	out, err := toStruct(result)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *ProblemService) statusError(err error) error {
	switch {
	case errors.Is(err, problem.ErrNotFound):
		return status.Error(codes.NotFound, "problem not found")
	case errors.Is(err, problem.ErrInvalidRequest):
		return status.Error(codes.InvalidArgument, "Missing JSON")
	case errors.Is(err, problem.ErrInvalidNumber):
		return status.Error(codes.InvalidArgument, "Invalid number")
	case errors.Is(err, problem.ErrInvalidQuestionType):
		return status.Error(codes.InvalidArgument, "Invalid question")
	case errors.Is(err, problem.ErrInvalidTolerance):
		return status.Error(codes.InvalidArgument, "Invalid tolerance")
	default:
		s.logger.Error("Check failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}

func debugRequested(in *structpb.Struct) bool {
	v, ok := in.GetFields()["debug"]
	if !ok {
		return false
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_BoolValue:
		return k.BoolValue
	case *structpb.Value_StringValue:
		return strings.EqualFold(k.StringValue, "true")
	default:
		return false
	}
}

// toStruct converts a JSON-serializable value into a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	out := &structpb.Struct{}
	if err := out.UnmarshalJSON(b); err != nil {
		return nil, fmt.Errorf("convert response: %w", err)
	}
	return out, nil
}
