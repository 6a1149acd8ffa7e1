package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"OpenEmployee/internal/employee"
	"OpenEmployee/internal/lexicon"
	"OpenEmployee/internal/session"
)

func (o *rootOptions) orchestrator(opts ...session.Option) (*session.Orchestrator, error) {
	var lex *lexicon.Lexicon
	if o.lexiconDir != "" {
		loaded, err := lexicon.LoadDir(o.lexiconDir)
		if err != nil {
			return nil, err
		}
		lex = loaded
	}
	return session.NewOrchestrator(lex, session.NewMemoryStore(), opts...), nil
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <text>",
		Short: "分析一段需求描述的意图与实体",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := root.orchestrator()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), orch.Analyze(strings.Join(args, " ")))
		},
	}
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	var (
		mode     string
		strict   bool
		noCheck  bool
		simulate bool
		timeout  time.Duration
		full     bool
	)
	cmd := &cobra.Command{
		Use:   "generate <text>",
		Short: "在本地运行完整的生成流水线",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []session.Option{session.WithValidation(!noCheck)}
			if strict {
				opts = append(opts, session.WithValidationPolicy(session.PolicyStrict))
			}
			if simulate {
				opts = append(opts, session.WithLatency(session.DefaultSimulatedLatency()))
			}
			orch, err := root.orchestrator(opts...)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			sess, err := orch.CreateSession(ctx, employee.Mode(mode), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if full {
				return printJSON(cmd.OutOrStdout(), sess)
			}
			return printSummary(cmd, sess)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(employee.ModeStandard), "生成模式: quick|standard|advanced")
	cmd.Flags().BoolVar(&strict, "strict", false, "修复后仍未通过校验时以错误结束")
	cmd.Flags().BoolVar(&noCheck, "no-validate", false, "跳过校验阶段")
	cmd.Flags().BoolVar(&simulate, "simulate-latency", false, "模拟推理与执行延迟")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "整轮处理超时")
	cmd.Flags().BoolVar(&full, "full", false, "输出完整会话快照")
	return cmd
}

func printSummary(cmd *cobra.Command, sess *session.Session) error {
	out := cmd.OutOrStdout()
	for _, st := range sess.Steps {
		line := fmt.Sprintf("[%s] %-16s %s", st.Status, st.Phase, st.Title)
		if st.Error != "" {
			line += " - " + st.Error
		}
		fmt.Fprintln(out, line)
	}
	switch sess.Status {
	case session.StatusInput:
		fmt.Fprintln(out, "需要补充信息:")
		for _, q := range sess.Questions {
			fmt.Fprintln(out, "  - "+q)
		}
		return nil
	case session.StatusError:
		return fmt.Errorf("生成失败 (%s): %s", sess.ErrorCode, sess.LastError)
	}
	return printJSON(out, sess.CurrentConfig)
}
