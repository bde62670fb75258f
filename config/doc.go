// Package config 提供 GeminiFlow 的配置管理功能。
//
// 配置按 默认值 → YAML 文件 → 环境变量 的顺序叠加，
// 环境变量使用 GEMINIFLOW_ 前缀，嵌套字段以下划线连接。
package config
