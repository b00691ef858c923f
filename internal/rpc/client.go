package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/bridgeos/govern/internal/actor"
	"github.com/bridgeos/govern/internal/governance"
)

// #region client-struct
// Client wraps a gRPC connection to a govern.v1.Evaluator server.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to the evaluator server at addr.
func Dial(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// #endregion client-struct

// #region calls
// Evaluate sends a typed snapshot for stateless evaluation.
func (c *Client) Evaluate(ctx context.Context, session governance.Session, artifacts []governance.Artifact, action governance.Action, role actor.Role) (governance.Result, error) {
	if artifacts == nil {
		artifacts = []governance.Artifact{}
	}
	rawSession, err := json.Marshal(session)
	if err != nil {
		return governance.Result{}, fmt.Errorf("marshal session: %w", err)
	}
	rawArtifacts, err := json.Marshal(artifacts)
	if err != nil {
		return governance.Result{}, fmt.Errorf("marshal artifacts: %w", err)
	}
	return c.EvaluateRaw(ctx, EvaluateRequest{Session: rawSession, Artifacts: rawArtifacts, Action: action, Role: role})
}

// EvaluateRaw sends an already-encoded request.
func (c *Client) EvaluateRaw(ctx context.Context, req EvaluateRequest) (governance.Result, error) {
	var res governance.Result
	if err := c.invoke(ctx, evaluateMethod, req, &res); err != nil {
		return governance.Result{}, fmt.Errorf("evaluate: %w", err)
	}
	return res, nil
}

// Apply evaluates an action against a stored session.
func (c *Client) Apply(ctx context.Context, req ApplyRequest) (ApplyResponse, error) {
	var res ApplyResponse
	if err := c.invoke(ctx, applyMethod, req, &res); err != nil {
		return ApplyResponse{}, fmt.Errorf("apply: %w", err)
	}
	return res, nil
}

func (c *Client) invoke(ctx context.Context, method string, req, res any) error {
	in, err := toStruct(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, in, out); err != nil {
		return err
	}
	return fromStruct(out, res)
}

// #endregion calls
