// Copyright 2026 GeminiFlow Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

包 gemini 直接对接 Gemini REST API（generativelanguage.googleapis.com），
负责请求体构建、响应解析、SSE 流式、可恢复上传、长任务轮询、
文件与上下文缓存资源管理。HTTP 细节（重试、限流、trace）交给 llm/transport。

# 核心结构体

  - Provider — 无可变状态，持有 GeminiConfig 与 transport.Client；
    使用 x-goog-api-key 请求头认证
  - RequestOptions — 一次生成调用的全部参数，Validate 负责参数校验
  - Response — TextResponse / ImageResponse / VideoResponse /
    AudioResponse / FileResponse / CacheResponse 的公共接口
  - StreamParser — 行缓冲的 SSE 解析器

# 方法族

  - generateContent：contents + generationConfig + tools
  - predict / predictLongRunning：instances + parameters；
    predictLongRunning 返回 operation，Provider 轮询至 done 后拉取样本

# 附件

图片内联为 base64；视频、音频、文档先上传，再以 fileData.fileUri 引用。
*/
package gemini
