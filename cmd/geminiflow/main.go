// =============================================================================
// GeminiFlow 命令行入口
// =============================================================================
// 对 Gemini REST API 的命令行封装：生成、流式、文件与上下文缓存管理。
//
// 使用方法:
//
//	geminiflow text "Hello"                      # 文本生成
//	geminiflow stream "Tell me a story"          # 流式输出
//	geminiflow image "A red fox" --out fox.png   # 生成图片
//	geminiflow video "Waves at dusk" --out a.mp4 # 生成视频（阻塞轮询）
//	geminiflow files upload video clip.mp4       # 上传文件
//	geminiflow caches list                       # 列出缓存
//	geminiflow --config geminiflow.yaml models   # 指定配置文件
// =============================================================================

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BaSui01/geminiflow"
	"github.com/BaSui01/geminiflow/config"
	"github.com/BaSui01/geminiflow/internal/logging"
	"github.com/BaSui01/geminiflow/internal/telemetry"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app 单次命令执行期间共享的依赖
type app struct {
	configPath string
	apiKey     string
	out        io.Writer

	cfg       *config.Config
	logger    *zap.Logger
	telemetry *telemetry.Providers
	client    *geminiflow.Client
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:           "geminiflow",
		Short:         "Gemini API 命令行客户端",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "config yaml path")
	pf.StringVar(&a.apiKey, "api-key", "", "override gemini.api_key")

	root.AddCommand(
		newTextCmd(a),
		newStreamCmd(a),
		newImageCmd(a),
		newVideoCmd(a),
		newAudioCmd(a),
		newEmbedCmd(a),
		newModelsCmd(a),
		newFilesCmd(a),
		newCachesCmd(a),
		newVersionCmd(a),
	)
	return root
}

func (a *app) setup() error {
	loader := config.NewLoader().WithValidator((*config.Config).Validate)
	if a.configPath != "" {
		loader = loader.WithConfigPath(a.configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg
	a.logger = logging.MustNew(cfg.Log)

	a.telemetry, err = telemetry.Init(cfg.Telemetry, a.logger)
	if err != nil {
		a.logger.Warn("failed to initialize telemetry", zap.Error(err))
	}

	opts := []geminiflow.Option{geminiflow.WithLogger(a.logger)}
	if a.apiKey != "" {
		opts = append(opts, geminiflow.WithAPIKey(a.apiKey))
	}
	if a.telemetry.Enabled() {
		opts = append(opts, geminiflow.WithTracer(a.telemetry.Tracer()))
	}
	a.client, err = geminiflow.NewFromConfig(cfg, opts...)
	return err
}

func (a *app) teardown() error {
	if a.logger == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.telemetry.ForceFlush(ctx); err != nil {
		a.logger.Warn("telemetry flush failed", zap.Error(err))
	}
	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.logger.Warn("telemetry shutdown failed", zap.Error(err))
	}
	_ = a.logger.Sync()
	return nil
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本信息",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.out, "GeminiFlow %s\n", Version)
			fmt.Fprintf(a.out, "  Build Time: %s\n", BuildTime)
			fmt.Fprintf(a.out, "  Git Commit: %s\n", GitCommit)
			return nil
		},
	}
}
