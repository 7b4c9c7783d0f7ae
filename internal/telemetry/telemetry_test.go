package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "nfs2d", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.ServiceVersion)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Enabled = false

	shutdown, err := Init(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.NoError(t, shutdown(ctx))
	assert.False(t, IsEnabled())
}

func TestTracerReturnsNoOp(t *testing.T) {
	tracer = nil
	enabled = false

	tr := Tracer()
	require.NotNil(t, tr)
}

func TestStartSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartSpan(ctx, "nfs.GETATTR")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()
}

func TestAttributeHelpers(t *testing.T) {
	t.Run("RPCProgram", func(t *testing.T) {
		attr := RPCProgram("nfs")
		assert.Equal(t, AttrRPCProgram, string(attr.Key))
		assert.Equal(t, "nfs", attr.Value.AsString())
	})

	t.Run("RPCProcedure", func(t *testing.T) {
		attr := RPCProcedure("READ")
		assert.Equal(t, AttrRPCProc, string(attr.Key))
		assert.Equal(t, "READ", attr.Value.AsString())
	})

	t.Run("RPCStatus", func(t *testing.T) {
		attr := RPCStatus("ok")
		assert.Equal(t, AttrRPCStatus, string(attr.Key))
		assert.Equal(t, "ok", attr.Value.AsString())
	})

	t.Run("UID", func(t *testing.T) {
		attr := UID(1000)
		assert.Equal(t, AttrUID, string(attr.Key))
		assert.Equal(t, int64(1000), attr.Value.AsInt64())
	})

	t.Run("GID", func(t *testing.T) {
		attr := GID(1000)
		assert.Equal(t, AttrGID, string(attr.Key))
		assert.Equal(t, int64(1000), attr.Value.AsInt64())
	})
}
