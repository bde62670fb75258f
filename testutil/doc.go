// Copyright 2026 GeminiFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package testutil 提供 GeminiFlow 测试的共享工具和辅助函数。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext，
    自动注册 Cleanup 防止泄漏
  - 数据工具: MustJSON / MustParseJSON / AssertJSONEqual / WriteTempFile
  - 录制服务器: NewRecordingServer 基于 httptest 记录每个请求的
    方法、路径、查询串、请求头与请求体；JSONHandler / Sequence
    用于拼装按序返回的响应

# 使用示例

	srv := testutil.NewRecordingServer(t, testutil.Sequence(
		testutil.JSONHandler(http.StatusServiceUnavailable, nil),
		testutil.JSONHandler(http.StatusOK, body),
	))
	...
	req := srv.Last(t)
*/
package testutil
