package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	lexiconDir string
	server     string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "studioctl",
		Short:         "数字员工配置生成工具",
		Long:          "studioctl 在本地运行生成流水线，或通过 REST API 操作 studiod 中的会话。",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.lexiconDir, "lexicon", "", "词表目录，默认使用内置词表")
	root.PersistentFlags().StringVar(&opts.server, "server", envOr("STUDIO_SERVER", "http://127.0.0.1:8080"), "studiod 地址")

	root.AddCommand(newAnalyzeCmd(opts), newGenerateCmd(opts), newRemoteCmd(opts))
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
