package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/geminiflow"
	"github.com/BaSui01/geminiflow/llm/providers/gemini"
)

// deleteConcurrency 批量删除时的最大并发
const deleteConcurrency = 4

// deleteAll 并发删除，输出顺序与参数一致
func deleteAll(ctx context.Context, names []string, del func(context.Context, string) (bool, error)) ([]bool, error) {
	results := make([]bool, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(deleteConcurrency)
	for i, name := range names {
		g.Go(func() error {
			ok, err := del(gctx, name)
			if err != nil {
				return fmt.Errorf("delete %s: %w", name, err)
			}
			results[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func printDeleted(a *app, names []string, results []bool) {
	for i, name := range names {
		status := "deleted"
		if !results[i] {
			status = "not found"
		}
		fmt.Fprintf(a.out, "%s\t%s\n", name, status)
	}
}

// =============================================================================
// files
// =============================================================================

func newFilesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "管理上传的文件",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "upload <image|video|audio|document> <path>",
			Short: "可恢复上传本地文件，输出文件 URI",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				uri, err := a.client.Files().Upload(cmd.Context(), gemini.FileType(args[0]), args[1])
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, uri)
				return nil
			},
		},
		newFilesListCmd(a),
		&cobra.Command{
			Use:   "get <name>",
			Short: "查看文件元数据",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				f, err := a.client.Files().Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printFile(a, f)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <name>...",
			Short: "删除一个或多个文件",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				results, err := deleteAll(cmd.Context(), args, a.client.Files().Delete)
				if err != nil {
					return err
				}
				printDeleted(a, args, results)
				return nil
			},
		},
	)
	return cmd
}

func newFilesListCmd(a *app) *cobra.Command {
	var (
		pageSize  int
		pageToken string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "列出文件",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.client.Files().List(cmd.Context(), pageSize, pageToken)
			if err != nil {
				return err
			}
			for _, f := range resp.Files() {
				printFile(a, f)
			}
			if next := resp.NextPageToken(); next != "" {
				fmt.Fprintf(a.out, "next page: %s\n", next)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "page size")
	cmd.Flags().StringVar(&pageToken, "page-token", "", "page token")
	return cmd
}

func printFile(a *app, f *gemini.FileResponse) {
	fmt.Fprintf(a.out, "%s\t%s\t%s\t%d\t%s\n", f.Name(), f.MimeType(), f.State(), f.SizeBytes(), f.URI())
}

// =============================================================================
// caches
// =============================================================================

func newCachesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "caches",
		Short: "管理上下文缓存（cachedContents）",
	}
	cmd.AddCommand(
		newCachesCreateCmd(a),
		newCachesListCmd(a),
		&cobra.Command{
			Use:   "get <name>",
			Short: "查看缓存",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := a.client.Caches().Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printCache(a, c)
				return nil
			},
		},
		newCachesUpdateCmd(a),
		&cobra.Command{
			Use:   "delete <name>...",
			Short: "删除一个或多个缓存",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				results, err := deleteAll(cmd.Context(), args, a.client.Caches().Delete)
				if err != nil {
					return err
				}
				printDeleted(a, args, results)
				return nil
			},
		},
	)
	return cmd
}

func newCachesCreateCmd(a *app) *cobra.Command {
	var (
		o           generateOptions
		displayName string
		ttl         string
		expireTime  string
	)
	cmd := &cobra.Command{
		Use:   "create <content>",
		Short: "把内容创建为缓存，输出缓存名",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := a.client.Text()
			if err := apply(b, &o, args[0]); err != nil {
				return err
			}
			name, err := b.Cache(cmd.Context(), geminiflow.CacheOptions{
				DisplayName: displayName,
				TTL:         ttl,
				ExpireTime:  expireTime,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, name)
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&o.model, "model", "m", "", "model name (default from config)")
	fs.StringVarP(&o.system, "system", "s", "", "system instruction")
	fs.StringVar(&displayName, "display-name", "", "display name")
	fs.StringVar(&ttl, "ttl", "", "ttl such as 3600s (default from config)")
	fs.StringVar(&expireTime, "expire-time", "", "RFC3339 expire time, wins over --ttl")
	return cmd
}

func newCachesListCmd(a *app) *cobra.Command {
	var (
		pageSize  int
		pageToken string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "列出缓存",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.client.Caches().List(cmd.Context(), pageSize, pageToken)
			if err != nil {
				return err
			}
			for _, c := range resp.CachedContents() {
				printCache(a, c)
			}
			if next := resp.NextPageToken(); next != "" {
				fmt.Fprintf(a.out, "next page: %s\n", next)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "page size (default from config)")
	cmd.Flags().StringVar(&pageToken, "page-token", "", "page token")
	return cmd
}

func newCachesUpdateCmd(a *app) *cobra.Command {
	var ttl, expireTime string
	cmd := &cobra.Command{
		Use:   "update <name>",
		Short: "修改缓存过期时间",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client.Caches().Update(cmd.Context(), args[0], ttl, expireTime)
			if err != nil {
				return err
			}
			printCache(a, c)
			return nil
		},
	}
	cmd.Flags().StringVar(&ttl, "ttl", "", "new ttl such as 600s")
	cmd.Flags().StringVar(&expireTime, "expire-time", "", "new RFC3339 expire time")
	return cmd
}

func printCache(a *app, c *gemini.CacheResponse) {
	fmt.Fprintf(a.out, "%s\t%s\t%s\t%d\n", c.Name(), c.Model(), c.ExpireTime(), c.TotalTokenCount())
}
