package clients

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthClient probes a gateway's gRPC health endpoint.
type HealthClient struct {
	Health healthpb.HealthClient
	conn   *grpc.ClientConn
}

func NewHealthClient(target string, opts ...grpc.DialOption) (*HealthClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("health service connection failed: %v", err)
	}
	return &HealthClient{Health: healthpb.NewHealthClient(conn), conn: conn}, nil
}

// Serving reports whether service (empty for the whole server) is SERVING.
func (c *HealthClient) Serving(ctx context.Context, service string) (bool, error) {
	resp, err := c.Health.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return false, err
	}
	return resp.GetStatus() == healthpb.HealthCheckResponse_SERVING, nil
}

func (c *HealthClient) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
