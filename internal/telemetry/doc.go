// Package telemetry 封装 OpenTelemetry SDK 初始化逻辑，
// 为 GeminiFlow 的 HTTP 传输层提供 TracerProvider 与 MeterProvider。
// 禁用时不创建任何 exporter，Tracer() 回落到全局 noop 实现。
package telemetry
