// Command healthcheck probes the gateway's gRPC health endpoint and exits
// non-zero unless it reports SERVING. Intended for container HEALTHCHECKs.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"lunch-system/internal/gateway/clients"
	"lunch-system/internal/health"
)

func main() {
	addr := flag.String("addr", "localhost:50051", "gRPC health address")
	service := flag.String("service", health.ServiceName, "service to check, empty for the whole server")
	timeout := flag.Duration("timeout", 3*time.Second, "probe timeout")
	flag.Parse()

	os.Exit(probe(*addr, *service, *timeout))
}

func probe(addr, service string, timeout time.Duration) int {
	client, err := clients.NewHealthClient(addr)
	if err != nil {
		log.Printf("healthcheck: %v", err)
		return 1
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	serving, err := client.Serving(ctx, service)
	if err != nil {
		log.Printf("healthcheck: %v", err)
		return 1
	}
	if !serving {
		log.Printf("healthcheck: %s not serving", addr)
		return 1
	}
	return 0
}
