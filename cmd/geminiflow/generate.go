package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BaSui01/geminiflow"
	"github.com/BaSui01/geminiflow/llm/providers/gemini"
)

// generateOptions 各生成命令共享的参数
type generateOptions struct {
	model       string
	method      string
	system      string
	temperature float64
	maxTokens   int
	cache       string
	attachType  string
	attachPath  string
	schemaPath  string
	out         string

	voice    string
	speakers []string

	aspectRatio    string
	negativePrompt string
	duration       int
	samples        int
}

func (o *generateOptions) bindCommon(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&o.model, "model", "m", "", "model name (default from config)")
	fs.StringVar(&o.method, "method", "", "generateContent, predict or predictLongRunning")
	fs.StringVarP(&o.system, "system", "s", "", "system instruction")
	fs.Float64VarP(&o.temperature, "temperature", "t", -1, "sampling temperature")
	fs.IntVar(&o.maxTokens, "max-tokens", 0, "max output tokens")
	fs.StringVar(&o.cache, "cached-content", "", "cachedContents resource name")
	fs.StringVar(&o.attachType, "file-type", "", "attachment type: image, video, audio, document")
	fs.StringVarP(&o.attachPath, "file", "f", "", "local file to attach")
}

// apply 把命令行参数写入 Builder
func apply[R gemini.Response](b *geminiflow.Builder[R], o *generateOptions, prompt string) error {
	b.Model(o.model).Prompt(prompt)
	if o.method != "" {
		b.Method(o.method)
	}
	if o.system != "" {
		b.System(o.system)
	}
	if o.temperature >= 0 {
		b.Temperature(o.temperature)
	}
	if o.maxTokens > 0 {
		b.MaxTokens(o.maxTokens)
	}
	if o.cache != "" {
		b.CachedContent(o.cache)
	}
	if o.attachPath != "" {
		b.Upload(gemini.FileType(o.attachType), o.attachPath)
	}
	if o.schemaPath != "" {
		data, err := os.ReadFile(o.schemaPath)
		if err != nil {
			return fmt.Errorf("read schema: %w", err)
		}
		var schema map[string]any
		if err := json.Unmarshal(data, &schema); err != nil {
			return fmt.Errorf("parse schema: %w", err)
		}
		b.StructuredSchema(schema)
	}
	if o.voice != "" {
		b.Voice(o.voice)
	}
	if len(o.speakers) > 0 {
		speakers, err := parseSpeakers(o.speakers)
		if err != nil {
			return err
		}
		b.MultiSpeaker(speakers...)
	}
	if o.aspectRatio != "" {
		b.AspectRatio(o.aspectRatio)
	}
	if o.negativePrompt != "" {
		b.NegativePrompt(o.negativePrompt)
	}
	if o.duration > 0 {
		b.DurationSeconds(o.duration)
	}
	if o.samples > 0 {
		b.SampleCount(o.samples)
	}
	return b.Err()
}

// parseSpeakers 解析 speaker=voice 形式的参数
func parseSpeakers(pairs []string) ([]gemini.SpeakerVoiceConfig, error) {
	out := make([]gemini.SpeakerVoiceConfig, 0, len(pairs))
	for _, p := range pairs {
		speaker, voice, ok := strings.Cut(p, "=")
		if !ok || speaker == "" || voice == "" {
			return nil, fmt.Errorf("invalid speaker %q, want speaker=voice", p)
		}
		out = append(out, gemini.NewSpeaker(speaker, voice))
	}
	return out, nil
}

func newTextCmd(a *app) *cobra.Command {
	var o generateOptions
	cmd := &cobra.Command{
		Use:   "text <prompt>",
		Short: "文本生成",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := a.client.Text()
			if err := apply(b, &o, args[0]); err != nil {
				return err
			}
			resp, err := b.Generate(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, resp.Text())
			u := resp.Usage()
			a.logger.Debug("text generated",
				zap.String("finish_reason", resp.FinishReason()),
				zap.Int("total_tokens", u.TotalTokens))
			return nil
		},
	}
	o.bindCommon(cmd)
	cmd.Flags().StringVar(&o.schemaPath, "schema", "", "JSON schema file for structured output")
	return cmd
}

func newStreamCmd(a *app) *cobra.Command {
	var o generateOptions
	cmd := &cobra.Command{
		Use:   "stream <prompt>",
		Short: "流式文本生成",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := a.client.Text()
			if err := apply(b, &o, args[0]); err != nil {
				return err
			}
			err := b.Stream(cmd.Context(), func(p gemini.Part) error {
				_, werr := fmt.Fprint(a.out, p.Text)
				return werr
			})
			fmt.Fprintln(a.out)
			return err
		},
	}
	o.bindCommon(cmd)
	return cmd
}

func newImageCmd(a *app) *cobra.Command {
	var o generateOptions
	cmd := &cobra.Command{
		Use:   "image <prompt>",
		Short: "图像生成",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := a.client.Image()
			if err := apply(b, &o, args[0]); err != nil {
				return err
			}
			resp, err := b.Generate(cmd.Context())
			if err != nil {
				return err
			}
			images := resp.Images()
			if len(images) == 0 {
				return fmt.Errorf("no image in response")
			}
			for i, img := range images {
				path := numbered(o.out, i)
				if err := writeMedia(path, img.Data); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s (%s, %d bytes)\n", path, img.MimeType, len(img.Data))
			}
			return nil
		},
	}
	o.bindCommon(cmd)
	fs := cmd.Flags()
	fs.StringVarP(&o.out, "out", "o", "image.png", "output file")
	fs.StringVar(&o.aspectRatio, "aspect-ratio", "", "predict aspect ratio, e.g. 16:9")
	fs.StringVar(&o.negativePrompt, "negative-prompt", "", "predict negative prompt")
	fs.IntVar(&o.samples, "samples", 0, "predict sample count")
	return cmd
}

func newVideoCmd(a *app) *cobra.Command {
	var o generateOptions
	cmd := &cobra.Command{
		Use:   "video <prompt>",
		Short: "视频生成，等待长任务完成后保存",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := a.client.Video()
			if err := apply(b, &o, args[0]); err != nil {
				return err
			}
			resp, err := b.Generate(cmd.Context())
			if err != nil {
				return err
			}
			media := resp.Media()
			if len(media.Data) == 0 {
				fmt.Fprintln(a.out, resp.URI())
				return nil
			}
			if err := writeMedia(o.out, media.Data); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s (%s, %d bytes)\n", o.out, media.MimeType, len(media.Data))
			return nil
		},
	}
	o.bindCommon(cmd)
	fs := cmd.Flags()
	fs.StringVarP(&o.out, "out", "o", "video.mp4", "output file")
	fs.StringVar(&o.aspectRatio, "aspect-ratio", "", "aspect ratio, e.g. 16:9")
	fs.StringVar(&o.negativePrompt, "negative-prompt", "", "negative prompt")
	fs.IntVar(&o.duration, "duration", 0, "duration in seconds")
	return cmd
}

func newAudioCmd(a *app) *cobra.Command {
	var o generateOptions
	cmd := &cobra.Command{
		Use:   "audio <text>",
		Short: "语音合成",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := a.client.Audio()
			if err := apply(b, &o, args[0]); err != nil {
				return err
			}
			resp, err := b.Generate(cmd.Context())
			if err != nil {
				return err
			}
			blob, ok := resp.Audio()
			if !ok {
				return fmt.Errorf("no audio in response")
			}
			if err := writeMedia(o.out, blob.Data); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s (%s, %d bytes)\n", o.out, blob.MimeType, len(blob.Data))
			return nil
		},
	}
	o.bindCommon(cmd)
	fs := cmd.Flags()
	fs.StringVarP(&o.out, "out", "o", "speech.pcm", "output file")
	fs.StringVar(&o.voice, "voice", "", "prebuilt voice name")
	fs.StringSliceVar(&o.speakers, "speaker", nil, "speaker=voice, repeat for multi-speaker")
	return cmd
}

func newEmbedCmd(a *app) *cobra.Command {
	var req gemini.EmbedRequest
	cmd := &cobra.Command{
		Use:   "embed <text>...",
		Short: "生成文本向量（JSON 输出）",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Texts = args
			vecs, err := a.client.Embeddings(cmd.Context(), req)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(a.out)
			return enc.Encode(vecs)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&req.Model, "model", "m", "", "embedding model (default from config)")
	fs.StringVar(&req.TaskType, "task-type", "", "RETRIEVAL_QUERY, RETRIEVAL_DOCUMENT, ...")
	fs.IntVar(&req.OutputDimensionality, "dims", 0, "output dimensionality")
	return cmd
}

func newModelsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "列出可用模型",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			models, err := a.client.Models(cmd.Context())
			if err != nil {
				return err
			}
			for _, m := range models {
				fmt.Fprintf(a.out, "%s\t%s\n", m.Name, strings.Join(m.SupportedGenerationMethods, ","))
			}
			return nil
		},
	}
}

func writeMedia(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// numbered image.png → image-1.png（i > 0 时）
func numbered(path string, i int) string {
	if i == 0 {
		return path
	}
	ext := ""
	if dot := strings.LastIndex(path, "."); dot > strings.LastIndex(path, "/") {
		path, ext = path[:dot], path[dot:]
	}
	return fmt.Sprintf("%s-%d%s", path, i, ext)
}
