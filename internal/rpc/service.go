// Package rpc exposes the evaluator over gRPC. Messages travel as
// google.protobuf.Struct and are bridged to the JSON shapes of the
// governance types.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/bridgeos/govern/internal/eval"
	"github.com/bridgeos/govern/internal/logging"
	"github.com/bridgeos/govern/internal/state"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "govern.v1.Evaluator"

const (
	evaluateMethod = "/" + ServiceName + "/Evaluate"
	applyMethod    = "/" + ServiceName + "/Apply"
)

// #region service-desc
// EvaluatorServer is the server API for govern.v1.Evaluator.
type EvaluatorServer interface {
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Apply(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// EvaluatorServiceDesc describes govern.v1.Evaluator for grpc.Server.
var EvaluatorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EvaluatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evaluate", Handler: unaryHandler(evaluateMethod, EvaluatorServer.Evaluate)},
		{MethodName: "Apply", Handler: unaryHandler(applyMethod, EvaluatorServer.Apply)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "govern/v1/evaluator.proto",
}

// RegisterEvaluatorServer registers srv on s.
func RegisterEvaluatorServer(s grpc.ServiceRegistrar, srv EvaluatorServer) {
	s.RegisterService(&EvaluatorServiceDesc, srv)
}

func unaryHandler(fullMethod string, call func(EvaluatorServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(EvaluatorServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(EvaluatorServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// #endregion service-desc

// #region service
// Service implements EvaluatorServer. Store may be nil, in which case Apply
// is unavailable.
type Service struct {
	evaluator *eval.Evaluator
	store     *state.Store
}

// NewService creates a Service.
func NewService(evaluator *eval.Evaluator, store *state.Store) *Service {
	return &Service{evaluator: evaluator, store: store}
}

// Evaluate runs a stateless evaluation. A denial is a successful RPC.
func (s *Service) Evaluate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req EvaluateRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode evaluate request: %v", err)
	}

	res := s.evaluator.EvaluateJSON(req.Session, req.Artifacts, req.Action, req.Role)
	annotate(ctx, string(req.Action.Type), string(req.Role), res.Allowed)
	return toStruct(res)
}

// Apply evaluates against the stored session and commits allowed results.
func (s *Service) Apply(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s.store == nil {
		return nil, status.Error(codes.FailedPrecondition, "no session store configured")
	}
	var req ApplyRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode apply request: %v", err)
	}
	if req.SessionID == "" {
		return nil, status.Error(codes.InvalidArgument, "session_id is required")
	}

	out, err := s.store.Apply(ctx, req.SessionID, req.Action, req.Role, s.evaluator)
	switch {
	case errors.Is(err, state.ErrSessionNotFound):
		return nil, status.Errorf(codes.NotFound, "session %s not found", req.SessionID)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, status.FromContextError(err).Err()
	case err != nil:
		logging.New("rpc").Error("apply failed", "session", req.SessionID, "error", err)
		return nil, status.Errorf(codes.Internal, "apply: %v", err)
	}

	annotate(ctx, string(req.Action.Type), string(req.Role), out.Result.Allowed)
	return toStruct(ApplyResponse{Result: out.Result, VersionID: out.VersionID})
}

func annotate(ctx context.Context, action, role string, allowed bool) {
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("govern.action", action),
		attribute.String("govern.role", role),
		attribute.Bool("govern.allowed", allowed),
	)
}

// #endregion service

// #region struct-bridge
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func fromStruct(in *structpb.Struct, v any) error {
	if in == nil {
		return errors.New("empty request")
	}
	data, err := protojson.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal struct: %w", err)
	}
	return json.Unmarshal(data, v)
}

// #endregion struct-bridge
