package tracing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracingFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "span_test.txt")
	require.NoError(t, Init("strider", "0.0.1", fname))

	ctx, slice := StartSliceSpan(context.Background(), 3, "mmap_test")
	_, syscall := StartSyscallSpan(ctx, 3, "mmap", [3]uint64{0x10000000, 4096, 3})
	syscall.WithAttributes(map[string]string{"area": "mmap"}).WithInt("syscall.result", 0)
	EndSpan(syscall, nil)
	EndSpan(slice, nil)

	sp, ok := SpanFromContext(ctx)
	assert.True(t, ok)
	assert.NotNil(t, sp)
	_, ok = SpanFromContext(context.Background())
	assert.False(t, ok)

	require.NotNil(t, output, "file kept open until shutdown")
	require.NoError(t, Shutdown(context.Background()))
	assert.Nil(t, output)

	data, err := os.ReadFile(fname)
	require.NoError(t, err)
	assert.Contains(t, string(data), "syscall.mmap")
	assert.Contains(t, string(data), "processor.slice mmap_test")
	assert.Contains(t, string(data), "parent.span_id")
	assert.Contains(t, string(data), "syscall.arg1")
	assert.Contains(t, string(data), "area")
}
