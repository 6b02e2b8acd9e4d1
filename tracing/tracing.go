// Package tracing opens OpenTelemetry spans around time slices and syscalls.
// Without Init every span is a no-op.
package tracing

import (
	"context"
	"io"
	"os"
	"strconv"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/viant/strider"

// Span kinds accepted by StartSpan.
const (
	KindInternal = "INTERNAL"
	KindServer   = "SERVER"
)

var spanKinds = map[string]trace.SpanKind{
	KindInternal: trace.SpanKindInternal,
	KindServer:   trace.SpanKindServer,
}

var (
	providerOnce sync.Once
	providerErr  error
	provider     *sdktrace.TracerProvider
	output       io.Closer
)

// Init exports spans as JSON to outputFile, or os.Stdout when empty.
// Only the first call installs a provider; Shutdown closes outputFile.
func Init(serviceName, serviceVersion, outputFile string) error {
	if outputFile == "" {
		return InitWithWriter(serviceName, serviceVersion, os.Stdout)
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return err
	}
	installed, err := initWithWriter(serviceName, serviceVersion, f)
	if err != nil || !installed {
		_ = f.Close()
		return err
	}
	output = f
	return nil
}

// InitWithWriter exports spans as JSON to w.
func InitWithWriter(serviceName, serviceVersion string, w io.Writer) error {
	_, err := initWithWriter(serviceName, serviceVersion, w)
	return err
}

func initWithWriter(serviceName, serviceVersion string, w io.Writer) (bool, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return false, err
	}
	return install(serviceName, serviceVersion, exporter)
}

func install(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) (installed bool, err error) {
	providerOnce.Do(func() {
		res, resErr := resource.New(context.Background(), resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", serviceVersion),
		))
		if resErr != nil {
			providerErr = resErr
			return
		}
		provider = sdktrace.NewTracerProvider(
			sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(provider)
		installed = true
	})
	return installed, providerErr
}

// Shutdown flushes and stops the installed provider, if any, then closes
// the output file opened by Init.
func Shutdown(ctx context.Context) error {
	if provider == nil {
		return nil
	}
	err := provider.Shutdown(ctx)
	if output != nil {
		if closeErr := output.Close(); err == nil {
			err = closeErr
		}
		output = nil
	}
	return err
}

// Span wraps an OpenTelemetry span.
type Span struct {
	span trace.Span
}

// WithAttributes attaches string attributes.
func (s *Span) WithAttributes(attrs map[string]string) *Span {
	if s == nil {
		return s
	}
	for k, v := range attrs {
		s.span.SetAttributes(attribute.String(k, v))
	}
	return s
}

// WithInt attaches a numeric attribute.
func (s *Span) WithInt(key string, value int64) *Span {
	if s != nil {
		s.span.SetAttributes(attribute.Int64(key, value))
	}
	return s
}

// SetStatus records err on the span, or OK when nil.
func (s *Span) SetStatus(err error) {
	if s == nil {
		return
	}
	if err == nil {
		s.span.SetStatus(codes.Ok, "")
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// StartSpan starts a child span; unknown kinds are internal.
func StartSpan(ctx context.Context, name, kind string) (context.Context, *Span) {
	spanKind, ok := spanKinds[kind]
	if !ok {
		spanKind = trace.SpanKindInternal
	}
	parent := trace.SpanFromContext(ctx).SpanContext()
	ctx, span := otel.Tracer(tracerName).Start(ctx, name, trace.WithSpanKind(spanKind))
	if parent.IsValid() {
		span.SetAttributes(
			attribute.String("parent.trace_id", parent.TraceID().String()),
			attribute.String("parent.span_id", parent.SpanID().String()),
		)
	}
	return ctx, &Span{span: span}
}

// StartSliceSpan opens the span covering one time slice of a task.
func StartSliceSpan(ctx context.Context, pid uint64, name string) (context.Context, *Span) {
	ctx, span := StartSpan(ctx, "processor.slice "+name, KindInternal)
	return ctx, span.WithInt("task.pid", int64(pid))
}

// StartSyscallSpan opens the span covering one syscall with its registers.
func StartSyscallSpan(ctx context.Context, pid uint64, name string, args [3]uint64) (context.Context, *Span) {
	ctx, span := StartSpan(ctx, "syscall."+name, KindServer)
	span.WithInt("task.pid", int64(pid))
	for i, arg := range args {
		span.WithInt("syscall.arg"+strconv.Itoa(i), int64(arg))
	}
	return ctx, span
}

// EndSpan records err and ends the span.
func EndSpan(sp *Span, err error) {
	if sp == nil {
		return
	}
	sp.SetStatus(err)
	sp.span.End()
}

// SpanFromContext returns the recording span carried by ctx.
func SpanFromContext(ctx context.Context) (*Span, bool) {
	sp := trace.SpanFromContext(ctx)
	if !sp.SpanContext().IsValid() {
		return nil, false
	}
	return &Span{span: sp}, true
}
