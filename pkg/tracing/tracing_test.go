package tracing

import (
	"context"
	"testing"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
)

func TestInitTracer_Disabled(t *testing.T) {
	tr, closer, err := InitTracer(Config{})
	if err != nil {
		t.Fatalf("InitTracer: %v", err)
	}
	defer closer()
	if _, ok := tr.(opentracing.NoopTracer); !ok {
		t.Fatalf("expected noop tracer, got %T", tr)
	}
}

func TestStartSpan_Tags(t *testing.T) {
	mt := mocktracer.New()
	opentracing.SetGlobalTracer(mt)
	defer opentracing.SetGlobalTracer(opentracing.NoopTracer{})

	span, ctx := StartSpan(context.Background(), "broker.dispatch", map[string]interface{}{"instrument": "TCS"})
	if opentracing.SpanFromContext(ctx) == nil {
		t.Fatalf("span not in context")
	}
	span.Finish()

	spans := mt.FinishedSpans()
	if len(spans) != 1 || spans[0].OperationName != "broker.dispatch" || spans[0].Tag("instrument") != "TCS" {
		t.Fatalf("spans %+v", spans)
	}
}
