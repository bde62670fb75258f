// Package tlsutil 提供 GeminiFlow 传输层默认使用的加固 TLS 配置（TLS 1.2+，仅 AEAD 密码套件）。
package tlsutil
