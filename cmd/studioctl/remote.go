package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"OpenEmployee/sdk/go/studio"
)

func newRemoteCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "通过 REST API 操作 studiod 会话",
	}
	client := func() (*studio.Client, error) {
		return studio.NewClient(root.server, nil)
	}

	var mode string
	create := &cobra.Command{
		Use:   "create [text]",
		Short: "创建会话，可附带首轮输入",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			sess, err := c.CreateSession(cmd.Context(), mode, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sess)
		},
	}
	create.Flags().StringVar(&mode, "mode", "standard", "生成模式: quick|standard|advanced")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "查看会话",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			sess, err := c.GetSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sess)
		},
	}

	input := &cobra.Command{
		Use:   "input <id> <text>",
		Short: "向会话提交输入",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			sess, err := c.SubmitInput(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sess)
		},
	}

	patch := &cobra.Command{
		Use:   "patch <id> <json>",
		Short: "以 JSON merge patch 修改会话配置",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var body map[string]any
			if err := json.Unmarshal([]byte(args[1]), &body); err != nil {
				return fmt.Errorf("解析补丁失败: %w", err)
			}
			c, err := client()
			if err != nil {
				return err
			}
			sess, err := c.PatchConfig(cmd.Context(), args[0], body)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sess)
		},
	}

	var query studio.ListQuery
	list := &cobra.Command{
		Use:   "list",
		Short: "列出会话",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			sessions, err := c.ListSessions(cmd.Context(), query)
			if err != nil {
				return err
			}
			for _, s := range sessions {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", s.ID, s.Mode, s.Status, s.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
	list.Flags().StringSliceVar(&query.Statuses, "status", nil, "按状态过滤")
	list.Flags().StringSliceVar(&query.Modes, "mode", nil, "按模式过滤")
	list.Flags().StringVar(&query.Query, "query", "", "按输入或名称搜索")
	list.Flags().IntVar(&query.Limit, "limit", 20, "返回数量")
	list.Flags().IntVar(&query.Offset, "offset", 0, "跳过数量")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "查看会话统计",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			s, err := c.Stats(cmd.Context(), studio.ListQuery{})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), s)
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "删除会话",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			if err := c.DeleteSession(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已删除 %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(create, get, input, patch, list, stats, del)
	return cmd
}
