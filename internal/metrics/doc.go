// 版权所有 2026 GeminiFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的客户端指标采集。

# 概述

Collector 使用 promauto 注册到默认 Registry，按 namespace 隔离。
它同时满足 transport.Recorder 与 gemini.Metrics 两个接口，
因此一个实例即可覆盖 HTTP 层与业务层。

# 指标

  - api_requests_total / api_request_duration_seconds：按 route、状态码分组
  - api_retries_total：传输层重试次数
  - generations_total / tokens_used_total：按能力与模型统计生成调用和 token
  - stream_chunks_total、upload_bytes_total、operation_polls_total
*/
package metrics
