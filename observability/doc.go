// Package observability wires OpenTelemetry tracing and metrics for netclient.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultConfig("netclient"))
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultConfig("netclient"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter(observability.InstrumentationName))
//
// Each client call is tracked by a CallSpan, which owns one span and the call
// metrics:
//
//	ctx, cs := observability.StartCall(ctx, metrics, "GET", url, "live")
//	defer cs.End(err)
package observability
