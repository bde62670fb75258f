// Package geminiflow provides a fluent client for the Gemini REST API.
//
// Usage:
//
//	import "github.com/BaSui01/geminiflow"
//
//	c := geminiflow.New(providers.DefaultGeminiConfig(), geminiflow.WithAPIKey(key))
//	resp, err := c.Text().Prompt("Hello").Temperature(0.2).Generate(ctx)
//	img, err := c.Image().Prompt("A red fox").Method("predict").Generate(ctx)
//	uri, err := c.Files().Upload(ctx, geminiflow.FileTypeVideo, "clip.mp4")
//
// Each call to Text/Image/Video/Audio starts a new [Builder]; setter errors are
// reported by the terminal method. The underlying [gemini.Provider] is available
// through [Client.Provider] for callers that prefer plain option structs.
package geminiflow

import "github.com/BaSui01/geminiflow/llm/providers/gemini"

// Re-export the wire types so callers rarely need to import gemini/.

type (
	Content             = gemini.Content
	Part                = gemini.Part
	FunctionDeclaration = gemini.FunctionDeclaration
	ToolConfig          = gemini.ToolConfig
	SafetySetting       = gemini.SafetySetting
	FileType            = gemini.FileType
)

const (
	FileTypeImage    = gemini.FileTypeImage
	FileTypeVideo    = gemini.FileTypeVideo
	FileTypeAudio    = gemini.FileTypeAudio
	FileTypeDocument = gemini.FileTypeDocument
)

// NewSpeaker builds a speaker→voice mapping for Builder.MultiSpeaker.
var NewSpeaker = gemini.NewSpeaker

// UserText builds a single-part user turn.
func UserText(text string) Content {
	return Content{Role: "user", Parts: []Part{{Text: text}}}
}

// ModelText builds a single-part model turn.
func ModelText(text string) Content {
	return Content{Role: "model", Parts: []Part{{Text: text}}}
}
