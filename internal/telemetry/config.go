package telemetry

// Config holds the OpenTelemetry tracing configuration.
type Config struct {
	// Enabled indicates whether tracing is enabled. When false, Init
	// installs a no-op tracer so every call site can unconditionally
	// start spans.
	Enabled bool

	// ServiceName is reported to the trace backend as the resource's
	// service.name attribute.
	ServiceName string

	// ServiceVersion is reported as the resource's service.version
	// attribute.
	ServiceVersion string

	// Endpoint is the OTLP/gRPC collector endpoint (e.g. "localhost:4317").
	Endpoint string

	// Insecure disables TLS on the OTLP connection.
	Insecure bool

	// SampleRate is the trace sampling ratio, 0.0 to 1.0.
	SampleRate float64
}

// DefaultConfig returns the configuration used when tracing isn't
// otherwise configured: disabled, so Init installs the no-op tracer.
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		ServiceName:    "nfs2d",
		ServiceVersion: "dev",
		Endpoint:       "localhost:4317",
		Insecure:       true,
		SampleRate:     1.0,
	}
}
