package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

// =============================================================================
// 🧪 Collector 测试
// =============================================================================

func TestNewCollector(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.apiRequestsTotal)
	assert.NotNil(t, collector.apiRequestDuration)
	assert.NotNil(t, collector.generationsTotal)
	assert.NotNil(t, collector.streamChunksTotal)
}

func TestCollector_RecordRequest(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordRequest("generateContent", 200, 100*time.Millisecond)
	collector.RecordRequest("generateContent", 200, 50*time.Millisecond)
	collector.RecordRequest("generateContent", 503, 10*time.Millisecond)
	collector.RecordRequest("generateContent", 0, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.apiRequestsTotal.WithLabelValues("generateContent", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.apiRequestsTotal.WithLabelValues("generateContent", "5xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.apiRequestsTotal.WithLabelValues("generateContent", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(collector.apiRequestDuration))
}

func TestCollector_RecordRetry(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordRetry("predict", 429)
	collector.RecordRetry("predict", 429)

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.apiRetriesTotal.WithLabelValues("predict", "429")))
}

func TestCollector_RecordGeneration(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordGeneration("text", "gemini-2.5-flash", "success", 10, 20)
	collector.RecordGeneration("text", "gemini-2.5-flash", "error", 0, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.generationsTotal.WithLabelValues("text", "gemini-2.5-flash", "success")))
	assert.Equal(t, 10.0, testutil.ToFloat64(collector.tokensUsed.WithLabelValues("gemini-2.5-flash", "prompt")))
	assert.Equal(t, 20.0, testutil.ToFloat64(collector.tokensUsed.WithLabelValues("gemini-2.5-flash", "candidates")))
}

func TestCollector_StreamUploadOperation(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordStreamChunk("m")
	collector.RecordUpload("video", 2048)
	collector.RecordOperationPoll("veo")
	collector.RecordOperationPoll("veo")

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.streamChunksTotal.WithLabelValues("m")))
	assert.Equal(t, 2048.0, testutil.ToFloat64(collector.uploadBytesTotal.WithLabelValues("video")))
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.operationPollsTotal.WithLabelValues("veo")))
}

func TestStatusCode(t *testing.T) {
	tests := map[int]string{200: "2xx", 302: "3xx", 429: "4xx", 503: "5xx", 0: "error"}
	for code, want := range tests {
		assert.Equal(t, want, statusCode(code), "code %d", code)
	}
}

func TestShared_ReturnsSameCollector(t *testing.T) {
	ns := nextTestNamespace()

	a := Shared(ns, nil)
	b := Shared(ns, zap.NewNop())
	assert.Same(t, a, b)
	assert.NotSame(t, a, Shared(nextTestNamespace(), nil))
}
