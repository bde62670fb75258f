package gemini

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/BaSui01/geminiflow/types"
)

var dataPrefix = []byte("data: ")

// StreamCallback 每个有效数据行调用一次，参数为第一个候选的第一个分片。
// 返回错误会中止读取循环。
type StreamCallback func(part Part) error

// StreamParser 按行缓冲的 SSE 解析器。
// 不完整的末行保留到下一个 chunk；无法解析的 JSON 行直接丢弃。
// 只处理以 "data: " 开头的行，EOF 时未以换行结尾的残余数据被丢弃。
type StreamParser struct {
	buf    []byte
	onPart StreamCallback
}

// NewStreamParser 创建解析器
func NewStreamParser(onPart StreamCallback) *StreamParser {
	return &StreamParser{onPart: onPart}
}

// Feed 追加一个 chunk，并同步处理其中所有完整的行
func (p *StreamParser) Feed(chunk []byte) error {
	p.buf = append(p.buf, chunk...)
	for {
		i := bytes.IndexByte(p.buf, '\n')
		if i < 0 {
			break
		}
		line := p.buf[:i]
		p.buf = p.buf[i+1:]
		if err := p.handleLine(line); err != nil {
			return err
		}
	}
	if len(p.buf) == 0 {
		p.buf = nil
	}
	return nil
}

// Reset 丢弃缓冲区中未完成的行
func (p *StreamParser) Reset() {
	p.buf = nil
}

// Pending 尚未处理的字节数
func (p *StreamParser) Pending() int {
	return len(p.buf)
}

func (p *StreamParser) handleLine(line []byte) error {
	line = bytes.TrimRight(line, "\r")
	if !bytes.HasPrefix(line, dataPrefix) {
		return nil
	}
	payload := line[len(dataPrefix):]

	part, ok := firstPart(payload)
	if !ok {
		return nil
	}
	return p.onPart(part)
}

type streamChunk struct {
	Candidates []struct {
		Content Content `json:"content"`
	} `json:"candidates"`
}

func firstPart(payload []byte) (Part, bool) {
	var chunk streamChunk
	if err := json.Unmarshal(payload, &chunk); err != nil {
		return Part{}, false
	}
	if len(chunk.Candidates) == 0 || len(chunk.Candidates[0].Content.Parts) == 0 {
		return Part{}, false
	}
	return chunk.Candidates[0].Content.Parts[0], true
}

// consumeStream 以 chunkSize 为单位读取 r 直到 EOF，逐块喂给解析器。
// 读取或回调失败统一包装为 ErrStream。
func consumeStream(r io.Reader, chunkSize int, parser *StreamParser) error {
	if chunkSize <= 0 {
		chunkSize = 1024
	}
	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if ferr := parser.Feed(buf[:n]); ferr != nil {
				return types.NewStreamError(ferr)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return types.NewStreamError(err)
		}
	}
	parser.Reset()
	return nil
}
