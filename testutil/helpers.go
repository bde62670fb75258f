// =============================================================================
// 🧪 测试辅助函数
// =============================================================================
// 使用方法:
//
//	ctx := testutil.TestContext(t)
//	path := testutil.WriteTempFile(t, "cat.png", []byte("..."))
//	testutil.AssertJSONEqual(t, `{"a":1}`, body)
// =============================================================================
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// =============================================================================
// 🎯 上下文辅助
// =============================================================================

// TestContext 返回带超时的测试上下文
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestContextWithTimeout 返回带自定义超时的测试上下文
func TestContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// CancelledContext 返回已取消的上下文
func CancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// =============================================================================
// 🔍 断言辅助
// =============================================================================

// AssertJSONEqual 断言两段 JSON 语义相等（忽略 key 顺序与空白）。
// expected/actual 可以是 string、[]byte 或任意可序列化的值。
func AssertJSONEqual(t *testing.T, expected, actual any) {
	t.Helper()

	e := normalizeJSON(t, expected)
	a := normalizeJSON(t, actual)
	if !bytes.Equal(e, a) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual:   %s", e, a)
	}
}

func normalizeJSON(t *testing.T, v any) []byte {
	t.Helper()

	var raw []byte
	switch x := v.(type) {
	case string:
		raw = []byte(x)
	case []byte:
		raw = x
	default:
		raw = MustJSON(t, x)
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("invalid JSON %q: %v", raw, err)
	}
	return MustJSON(t, decoded)
}

// =============================================================================
// 📦 数据工具
// =============================================================================

// MustJSON 序列化，失败直接 Fatal
func MustJSON(t *testing.T, v any) []byte {
	t.Helper()

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

// MustParseJSON 解析为 map，失败直接 Fatal
func MustParseJSON(t *testing.T, data []byte) map[string]any {
	t.Helper()

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
	return m
}

// WriteTempFile 在 t.TempDir() 下写入文件并返回路径
func WriteTempFile(t *testing.T, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
