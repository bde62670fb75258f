package gemini

import (
	"path/filepath"
	"strings"

	"github.com/BaSui01/geminiflow/types"
)

// mimeTypes 每个文件类别允许的扩展名
var mimeTypes = map[FileType]map[string]string{
	FileTypeImage: {
		"png": "image/png", "jpeg": "image/jpeg", "jpg": "image/jpeg",
		"webp": "image/webp", "heic": "image/heic", "heif": "image/heif",
	},
	FileTypeVideo: {
		"mp4": "video/mp4", "mpeg": "video/mpeg", "mov": "video/mov",
		"avi": "video/avi", "flv": "video/x-flv", "mpg": "video/mpg",
		"webm": "video/webm", "wmv": "video/wmv", "3gpp": "video/3gpp",
	},
	FileTypeAudio: {
		"wav": "audio/wav", "mp3": "audio/mp3", "aiff": "audio/aiff",
		"aac": "audio/aac", "ogg": "audio/ogg", "flac": "audio/flac",
	},
	FileTypeDocument: {
		"pdf": "application/pdf", "txt": "text/plain", "md": "text/markdown",
	},
}

// MimeType 按类别与扩展名（不区分大小写）查表
func MimeType(fileType FileType, path string) (string, error) {
	table, ok := mimeTypes[fileType]
	if !ok {
		return "", types.NewValidationError("Invalid file type: %s", fileType)
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	mime, ok := table[ext]
	if !ok {
		return "", types.NewValidationError("Unsupported %s format: %s", fileType, ext)
	}
	return mime, nil
}
