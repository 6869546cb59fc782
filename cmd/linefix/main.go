package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	cfgpkg "linefix/internal/config"
	"linefix/internal/diag"
	"linefix/internal/pipeline"
	"linefix/internal/watch"
)

const version = "0.1.0"

var pipelineRun = pipeline.Run

// CLI：默认动作为一次改写运行。
// 位置参数为目标文件（覆盖配置中的 target）。
// 全局旗标（最小集）：--config, --dry-run, --watch, --atomic, --quiet
var (
	flagConfig string
	flagDryRun bool
	flagWatch  bool
	flagAtomic bool
	flagQuiet  bool
)

var rootCmd = &cobra.Command{
	Use:     "linefix [file]",
	Short:   "对单个文件做行级字面改写（计数器键参补丁）",
	Args:    cobra.MaximumNArgs(1),
	Version: version,
	RunE:    runRoot,
}

func init() {
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "配置文件路径（YAML）；缺省读取 ./linefix.yaml（若存在）")
	rootCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "只读预演：不写回，输出 before/after 差异")
	rootCmd.Flags().BoolVar(&flagWatch, "watch", false, "监视目标文件，变更时重新应用规则")
	rootCmd.Flags().BoolVar(&flagAtomic, "atomic", true, "原子替换写回（false 退化为直接覆盖写）")
	rootCmd.Flags().BoolVar(&flagQuiet, "quiet", false, "关闭终端状态提示（stderr）")
	rootCmd.AddCommand(initConfigCmd)
}

func main() {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	if err := rootCmd.Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// exitErr 携带退出码：3 配置/校验失败，1 运行期失败。
// 错误文案已在产生处写入 stderr，Execute 返回后仅取码退出。
type exitErr struct {
	code int
	err  error
}

func (e *exitErr) Error() string { return e.err.Error() }
func (e *exitErr) Unwrap() error { return e.err }

func fail(code int, err error) error {
	fmt.Fprintln(os.Stderr, err)
	return &exitErr{code: code, err: err}
}

func runRoot(cmd *cobra.Command, args []string) error {
	start := time.Now()
	corrID := uuid.NewString()
	// 在任何 ENV 读取前，尝试加载工作目录下的 .env（不覆盖已有 ENV）。
	_ = loadDotEnv(".env")

	// 配置来源：--config > LINEFIX_CONFIG_FILE > ./linefix.yaml（若存在）
	cfgPath := flagConfig
	if cfgPath == "" {
		cfgPath = os.Getenv("LINEFIX_CONFIG_FILE")
	}
	if cfgPath == "" {
		if _, err := os.Stat("linefix.yaml"); err == nil {
			cfgPath = "linefix.yaml"
		}
	}

	cfg := cfgpkg.Defaults()
	if cfgPath != "" {
		base, err := cfgpkg.Load(cfgPath, nil)
		if err != nil {
			return fail(3, fmt.Errorf("配置解析失败: %w", err))
		}
		cfg = cfgpkg.Merge(cfg, base)
	}

	// ENV 覆盖（最小集合）
	overEnv, err := cfgpkg.EnvOverlay(os.Environ())
	if err != nil {
		return fail(3, fmt.Errorf("环境变量解析失败: %w", err))
	}
	cfg = cfgpkg.Merge(cfg, overEnv)

	// CLI 覆盖
	var overCLI cfgpkg.Config
	if len(args) == 1 {
		overCLI.Target = args[0]
	}
	// --atomic 的默认 true 不构成覆盖；仅显式给出时生效
	if cmd.Flags().Changed("atomic") {
		b := flagAtomic
		overCLI.Atomic = &b
	}
	cfg = cfgpkg.Merge(cfg, overCLI)

	if err := cfgpkg.Validate(cfg); err != nil {
		return fail(3, fmt.Errorf("配置校验失败: %w", err))
	}

	logger := diag.NewLogger(corrID, cfg.Logging.Level, cfg.Logging.Dir)
	defer logger.Sync()

	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		logger.Error("config", diag.Classify(err), "assemble failed", err)
		return fail(3, fmt.Errorf("装配失败: %w", err))
	}
	set.DryRun = flagDryRun

	term := diag.NewTerminal(os.Stderr, !flagQuiet)
	term.RunStart(set.Target, len(comp.Rules))

	logger.Debug("config", "effective", map[string]string{
		"target":  set.Target,
		"rules":   fmt.Sprintf("%d", len(comp.Rules)),
		"dry_run": fmt.Sprintf("%t", set.DryRun),
	})

	if flagWatch {
		return runWatch(cmd, comp, set, logger, term)
	}

	res, err := pipelineRun(cmd.Context(), comp, set, logger)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "运行失败: %v\n", err)
		}
		term.RunFinish(false, 0, time.Since(start))
		return &exitErr{code: 1, err: err}
	}
	printSummary(cmd.OutOrStdout(), res)
	term.RunFinish(true, res.Matched, time.Since(start))
	return nil
}

// runWatch 先执行一次，再进入监视循环直到 SIGINT/SIGTERM。
// 监视模式下零命中不写回，避免自触发循环。
func runWatch(cmd *cobra.Command, comp pipeline.Components, set pipeline.Settings, logger *diag.Logger, term *diag.Terminal) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	set.SkipUnchanged = true
	out := cmd.OutOrStdout()

	apply := func(ctx context.Context) error {
		res, err := pipelineRun(ctx, comp, set, logger)
		if err != nil {
			return err
		}
		printSummary(out, res)
		return nil
	}

	if err := apply(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "运行失败: %v\n", err)
		return &exitErr{code: 1, err: err}
	}

	w, err := watch.New(set.Target, 0, apply, logger, term)
	if err != nil {
		fmt.Fprintf(os.Stderr, "监视启动失败: %v\n", err)
		return &exitErr{code: 1, err: err}
	}
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "监视失败: %v\n", err)
		return &exitErr{code: 1, err: err}
	}
	return nil
}

// printSummary 输出每条规则的摘要行（如 "Fixed 2 charts!"）；
// dry-run 时附加行文本差异。
func printSummary(w io.Writer, res pipeline.Result) {
	for _, rep := range res.Reports {
		fmt.Fprintf(w, "Fixed %d %s!\n", rep.Matched, rep.Label)
	}
	if res.Diff != "" {
		fmt.Fprint(w, res.Diff)
	}
}
