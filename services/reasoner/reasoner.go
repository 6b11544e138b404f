// Copyright (C) 2025 Bering AI (dev@beringai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package reasoner provides the core reasoning evaluation service.
//
// This package contains the main Service type that coordinates all
// components: the model backend, the chain-of-thought pipeline, the
// monitor, the reasoning agent, the event log, HTTP routing and
// observability infrastructure.
//
// # Usage
//
//	cfg := reasoner.Config{Port: 12310, ModelBackend: "mock"}
//	svc, err := reasoner.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run())
package reasoner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/BeringAI/BeringRaaS/services/llm"
	"github.com/BeringAI/BeringRaaS/services/reasoner/agent"
	"github.com/BeringAI/BeringRaaS/services/reasoner/eventlog"
	"github.com/BeringAI/BeringRaaS/services/reasoner/monitor"
	"github.com/BeringAI/BeringRaaS/services/reasoner/observability"
	"github.com/BeringAI/BeringRaaS/services/reasoner/pipeline"
	"github.com/BeringAI/BeringRaaS/services/reasoner/routes"
)

// Service defines the contract for the reasoner service.
//
// Run() blocks and should be called at most once per instance. Router()
// exposes the configured Gin engine for integration tests.
type Service interface {
	Run() error
	Router() *gin.Engine
}

// Config holds reasoner configuration. All fields have defaults applied
// by New(), so the zero value is a working mock-backed service.
type Config struct {
	// Port is the HTTP server port. Default: 12310
	Port int

	// ModelBackend selects the model client.
	// Valid values: "mock", "openai", "gemini". Default: "mock"
	ModelBackend string

	// Thresholds configure the monitor's risk gate. Zero values use the
	// monitor defaults (0.6 / 0.5 / 0.7).
	Thresholds monitor.Thresholds

	// NCandidates is the number of traces generated per request. Default: 3
	NCandidates int

	// PerturbTrials is the number of step-removal trials in perturb mode.
	// Default: 5
	PerturbTrials int

	// APIKey enables X-API-Key auth when non-empty.
	APIKey string

	// EventLogPath is the BadgerDB directory for the event log.
	// Empty disables the event log.
	EventLogPath string

	// OTelEndpoint is the OTLP gRPC collector endpoint. Empty falls back
	// to a stdout trace exporter.
	OTelEndpoint string

	// GinMode sets the Gin framework mode ("debug", "release", "test").
	GinMode string
}

type service struct {
	config        Config
	router        *gin.Engine
	model         llm.ModelClient
	agent         *agent.Agent
	events        *eventlog.Store
	tracerCleanup func(context.Context)
}

var _ Service = (*service)(nil)

// New creates a reasoner Service: tracer, metrics, model client,
// pipeline, monitor, agent, event log and routes.
func New(cfg Config) (Service, error) {
	s := &service{config: applyConfigDefaults(cfg)}

	cleanup, err := s.initTracer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	s.tracerCleanup = cleanup

	metrics := observability.InitMetrics()

	if err := s.initModelClient(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize model client: %w", err)
	}
	s.model = observability.InstrumentModelClient(s.model, metrics)

	pipe := pipeline.New(s.model)
	mon := monitor.New(s.model, s.resolveThresholds())
	s.agent = agent.New(pipe, mon, agent.Config{
		NCandidates:   s.config.NCandidates,
		PerturbTrials: s.config.PerturbTrials,
	})

	if s.config.EventLogPath != "" {
		s.events, err = eventlog.Open(eventlog.DefaultConfig(s.config.EventLogPath))
		if err != nil {
			s.cleanup()
			return nil, fmt.Errorf("failed to open event log: %w", err)
		}
		slog.Info("Event log enabled", "path", s.config.EventLogPath)
	} else {
		slog.Info("Event log disabled")
	}

	s.initRouter(metrics)
	return s, nil
}

// Run starts the HTTP server and blocks until shutdown or error.
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting reasoner server",
		"port", s.config.Port,
		"backend", s.config.ModelBackend,
		"model", s.model.ModelName())

	return s.router.Run(addr)
}

// Router returns the underlying Gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 12310
	}
	if cfg.ModelBackend == "" {
		cfg.ModelBackend = "mock"
	}
	return cfg
}

func (s *service) resolveThresholds() monitor.Thresholds {
	t := s.config.Thresholds
	def := monitor.DefaultThresholds()
	if t.Faithfulness == 0 {
		t.Faithfulness = def.Faithfulness
	}
	if t.Coherence == 0 {
		t.Coherence = def.Coherence
	}
	if t.Obfuscation == 0 {
		t.Obfuscation = def.Obfuscation
	}
	return t
}

// initTracer sets up OpenTelemetry tracing. With a collector endpoint
// configured spans go out over OTLP gRPC; otherwise a stdout exporter
// keeps local runs traceable.
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	if s.config.OTelEndpoint != "" {
		conn, dialErr := grpc.NewClient(s.config.OTelEndpoint,
			grpc.WithTransportCredentials(insecure.NewCredentials()))
		if dialErr != nil {
			return nil, fmt.Errorf("failed to create gRPC connection: %w", dialErr)
		}
		exporter, err = otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
	} else {
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout trace exporter: %w", err)
		}
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("reasoner-service")))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter)))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := exporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown trace exporter", "error", err)
		}
	}
	return cleanup, nil
}

func (s *service) initModelClient() error {
	var err error

	switch s.config.ModelBackend {
	case "mock":
		s.model = llm.NewMockClient()
		slog.Info("Using mock model backend")
	case "openai":
		s.model, err = llm.NewOpenAIClient()
		slog.Info("Using OpenAI model backend")
	case "gemini":
		s.model, err = llm.NewGeminiClient()
		slog.Info("Using Gemini model backend")
	default:
		slog.Warn("Unknown model backend, defaulting to mock", "backend", s.config.ModelBackend)
		s.model = llm.NewMockClient()
	}

	return err
}

func (s *service) initRouter(metrics *observability.ReasoningMetrics) {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}
	s.router = gin.Default()
	s.router.Use(otelgin.Middleware("reasoner-service"))

	routes.SetupRoutes(s.router, routes.Deps{
		Reasoner:  s.agent,
		Events:    s.events,
		Metrics:   metrics,
		ModelName: s.model.ModelName(),
		APIKey:    s.config.APIKey,
		StartTime: time.Now(),
	})
}

func (s *service) cleanup() {
	if s.events != nil {
		if err := s.events.Close(); err != nil {
			slog.Warn("Event log close error", "error", err)
		}
	}
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}
