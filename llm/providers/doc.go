// Copyright 2026 GeminiFlow Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

包 providers 是 Provider 实现的公共基础层：配置结构与默认值、
HTTP 状态码到 types.Error 的映射、错误响应体解析。
具体的 Gemini 实现位于子包 gemini。

# 核心类型

  - BaseProviderConfig — APIKey、BaseURL、Model、Timeout
  - GeminiConfig — 重试、限流、安全设置、语音、各能力默认模型与方法、
    缓存、流式与长任务轮询参数
  - DefaultGeminiConfig — 不含 API Key 的默认配置

# 核心函数

  - MapHTTPError — 401/429/5xx/400/其他 → AUTHENTICATION / RATE_LIMIT /
    API_ERROR / VALIDATION / NETWORK
  - ReadErrorMessage — 提取 error.message，非 JSON 时返回原文
  - CheckResponse — 非 2xx 响应转换为 *types.Error，429 携带 Retry-After
*/
package providers
