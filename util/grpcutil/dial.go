// Copyright 2019 eBay Inc.
// Primary authors: Simon Fell, Diego Ongaro,
//                  Raymond Kroeker, and Sathish Kandasamy.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package grpcutil has helpers for configuring gRPC clients that talk to the
// storage tier.
package grpcutil

import (
	"context"
	"time"

	grpcprometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/grpc-ecosystem/grpc-opentracing/go/otgrpc"
	opentracing "github.com/opentracing/opentracing-go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding/gzip"
	"google.golang.org/grpc/keepalive"
)

// Dial connects to a storage shard at addr. It wires up Prometheus client
// metrics and OpenTracing spans on every unary call, and sets gzip as the
// default compressor for every call since getNeighbors responses can be
// large once source-tag properties are attached at the final step.
func Dial(ctx context.Context, addr string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	tracer := opentracing.GlobalTracer()
	dialOpts := append([]grpc.DialOption{
		grpc.WithInsecure(), //nolint:staticcheck // internal, unauthenticated storage-tier traffic
		grpc.WithDefaultCallOptions(grpc.UseCompressor(gzip.Name)),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                10 * time.Second,
			Timeout:             time.Second,
			PermitWithoutStream: true,
		}),
		grpc.WithUnaryInterceptor(otgrpc.OpenTracingClientInterceptor(tracer,
			otgrpc.LogPayloads())),
		grpc.WithChainUnaryInterceptor(grpcprometheus.UnaryClientInterceptor),
	}, opts...)
	return grpc.DialContext(ctx, addr, dialOpts...)
}
