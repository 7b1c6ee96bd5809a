// Package grpcapi exposes the CALC and ROLL commands as the
// dicebot.v1.GameService gRPC service. Messages are google.protobuf.Struct
// values, so clients need no generated code.
package grpcapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lemonberrylabs/dicebot/pkg/command"
	"github.com/lemonberrylabs/dicebot/pkg/types"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "dicebot.v1.GameService"

// ErrorDomain is reported in google.rpc.ErrorInfo details.
const ErrorDomain = "dicebot"

// GameServer handles GameService calls.
type GameServer interface {
	Calc(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Roll(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes GameService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GameServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Calc", Handler: unaryHandler("Calc", GameServer.Calc)},
		{MethodName: "Roll", Handler: unaryHandler("Roll", GameServer.Roll)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dicebot/v1/game.proto",
}

func unaryHandler(method string, call func(GameServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	fullMethod := "/" + ServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(GameServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(GameServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Server implements GameService on top of a command.Service.
type Server struct {
	svc  *command.Service
	log  logrus.FieldLogger
	grpc *grpc.Server
}

// New creates a new gRPC server.
func New(svc *command.Service, log logrus.FieldLogger) *Server {
	srv := &Server{svc: svc, log: log}

	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(srv.logCalls))
	gs.RegisterService(&ServiceDesc, srv)
	srv.grpc = gs

	return srv
}

// Serve starts listening on the given address and serves gRPC requests.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	return s.ServeListener(lis)
}

// ServeListener serves gRPC requests on an existing listener.
func (s *Server) ServeListener(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// GracefulStop gracefully stops the gRPC server.
func (s *Server) GracefulStop() {
	s.grpc.GracefulStop()
}

// Stop stops the gRPC server immediately.
func (s *Server) Stop() {
	s.grpc.Stop()
}

// Calc evaluates {"expression", "times", "target", "nick"}.
func (s *Server) Calc(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := requestFromStruct(in, "expression")
	if err != nil {
		return nil, err
	}
	outcomes, err := s.svc.Calc(ctx, req)
	return respond(outcomes, err)
}

// Roll rolls {"notation", "times", "target", "nick"}.
func (s *Server) Roll(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := requestFromStruct(in, "notation")
	if err != nil {
		return nil, err
	}
	outcomes, err := s.svc.Roll(ctx, req)
	return respond(outcomes, err)
}

func (s *Server) logCalls(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.log.WithFields(logrus.Fields{
		"method":   info.FullMethod,
		"code":     status.Code(err).String(),
		"duration": time.Since(start),
	}).Debug("grpc call")
	return resp, err
}

// --- Conversion helpers ---

func requestFromStruct(in *structpb.Struct, inputField string) (command.Request, error) {
	fields := in.GetFields()
	input := fields[inputField].GetStringValue()
	if input == "" {
		return command.Request{}, StatusFromError(
			types.Errorf(types.KindInvalidArgument, "%s is required", inputField))
	}

	times := fields["times"].GetNumberValue()
	if times < 0 {
		return command.Request{}, StatusFromError(
			types.Errorf(types.KindInvalidArgument, "times must not be negative"))
	}

	return command.Request{
		Target: fields["target"].GetStringValue(),
		Nick:   fields["nick"].GetStringValue(),
		Args:   input,
		Times:  max(int(times), 1),
	}, nil
}

// respond mirrors the HTTP API: a single failed evaluation is an error,
// repeated commands list every outcome.
func respond(outcomes []command.Outcome, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, StatusFromError(err)
	}
	if len(outcomes) == 1 && outcomes[0].Err != nil {
		return nil, StatusFromError(outcomes[0].Err)
	}

	items := make([]any, len(outcomes))
	for i, out := range outcomes {
		items[i] = outcomeToMap(out)
	}
	resp, err := structpb.NewStruct(map[string]any{"outcomes": items})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return resp, nil
}

func outcomeToMap(out command.Outcome) map[string]any {
	m := map[string]any{
		"command": string(out.Command),
		"input":   out.Input,
		"text":    out.Text,
	}
	if out.Err != nil {
		m["error"] = map[string]any{
			"reason":  string(types.KindOf(out.Err)),
			"message": out.Err.Error(),
		}
		return m
	}
	m["value"] = out.Value
	if r := out.Roll; r != nil {
		dice := make([]any, len(r.Dice))
		for i, d := range r.Dice {
			dice[i] = d
		}
		roll := map[string]any{
			"count": r.Count,
			"sides": r.Sides,
			"dice":  dice,
			"sum":   r.Sum,
			"total": r.Total,
		}
		if r.Modified() {
			roll["op"] = string(r.Op)
			roll["modifier"] = r.Modifier
		}
		m["roll"] = roll
	}
	return m
}

// StatusFromError converts an evaluation error into a gRPC status. Classified
// errors become InvalidArgument with a google.rpc.ErrorInfo detail whose
// reason is the error kind.
func StatusFromError(err error) error {
	var evalErr *types.EvalError
	if !errors.As(err, &evalErr) {
		if errors.Is(err, context.Canceled) {
			return status.Error(codes.Canceled, err.Error())
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return status.Error(codes.DeadlineExceeded, err.Error())
		}
		return status.Error(codes.Internal, err.Error())
	}

	st := status.New(codes.InvalidArgument, evalErr.Error())
	info := &errdetails.ErrorInfo{
		Reason: string(evalErr.Kind),
		Domain: ErrorDomain,
	}
	if evalErr.Pos >= 0 {
		info.Metadata = map[string]string{"position": fmt.Sprint(evalErr.Pos)}
	}
	detailed, detailErr := st.WithDetails(info)
	if detailErr != nil {
		return st.Err()
	}
	return detailed.Err()
}

// ErrorReason extracts the ErrorInfo reason from a status error, or "".
func ErrorReason(err error) string {
	st, ok := status.FromError(err)
	if !ok {
		return ""
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetDomain() == ErrorDomain {
			return info.GetReason()
		}
	}
	return ""
}
