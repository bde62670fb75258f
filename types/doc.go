// Copyright (c) GeminiFlow Authors.
// Licensed under the MIT License.

/*
Package types 提供 geminiflow 的全局共享错误类型。

# 概述

types 是最底层的公共包，不依赖任何内部包。transport、providers 与
根包 geminiflow 都通过这里的 Error / ErrorCode 向调用方暴露失败分类。

# 错误分类

  - ErrValidation     — 调用方输入错误，网络请求之前抛出
  - ErrAuthentication — 401
  - ErrRateLimit      — 429，RetryAfter 字段携带服务端建议的等待时间
  - ErrAPI            — 5xx 以及应用层失败
  - ErrNetwork        — 其他非成功状态码与传输层故障
  - ErrStream         — 流式读取中的失败，Cause 保留原始错误

使用 HasCode 可以穿透 ErrStream 判断内部原因。
*/
package types
