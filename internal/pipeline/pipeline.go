package pipeline

import (
	"context"
	"fmt"

	"github.com/google/go-cmp/cmp"

	"linefix/internal/diag"
	"linefix/pkg/contract"
)

// - 单点编排：读取 → 规则按序折叠 → 写回；各原子组件均为同步、无内部并发。
// - 计数器局部化：每条规则的计数器随单次 Rewrite 调用创建与丢弃，不跨运行残留。
// - 不变量：每条规则执行后行数必须不变，违例即中止（ErrInvariantViolation）。
// - 首错即止：任一阶段出错直接上抛；除原子 Sink 外无部分失败恢复。

// Rule 绑定已装配的改写器与其配置名。
type Rule struct {
	Name     string
	Rewriter contract.Rewriter
}

// Components 聚合运行所需的原子组件。
type Components struct {
	Source contract.Source
	Rules  []Rule
	Sink   contract.Sink
}

// Settings 运行期配置（最小必要）。
type Settings struct {
	// Target: 目标文件路径（单文件；多文件为非目标）。
	Target string
	// DryRun: 只读预演；跳过写回并产出行文本 diff。
	DryRun bool
	// SkipUnchanged: 零命中时跳过写回。
	// 缺省 false（忠实于原脚本的“总是写回”）；watch 模式置 true 以免自触发。
	SkipUnchanged bool
}

// Report 为单条规则的执行摘要。
type Report struct {
	Name    string
	Label   string
	Matched int
}

// Result 为单次运行的汇总。
type Result struct {
	Reports []Report
	// Matched: 所有规则命中行数之和。
	Matched int
	// Written: 是否执行了写回。
	Written bool
	// Diff: DryRun 时 before/after 行文本差异（空串表示无变化）。
	Diff string
}

// Run 执行一次完整的读取→改写→写回。
// logger 可为 nil（no-op）。
func Run(ctx context.Context, comp Components, set Settings, logger *diag.Logger) (Result, error) {
	var res Result
	if comp.Source == nil || comp.Sink == nil {
		return res, fmt.Errorf("pipeline: 组件缺失: %w", contract.ErrInvalidInput)
	}
	if set.Target == "" {
		return res, fmt.Errorf("pipeline: 目标为空: %w", contract.ErrInvalidInput)
	}
	fileID := contract.NormalizeFileID(set.Target)

	t := logger.StartWith("source", "read", fileID)
	lines, err := comp.Source.Read(ctx, set.Target)
	if err != nil {
		logger.Error("source", diag.Classify(err), "read failed", err)
		return res, err
	}
	t.Finish("read", len(lines))

	before := contract.Texts(lines)

	for _, rule := range comp.Rules {
		rt := logger.StartWith("rewriter", rule.Name, fileID)
		out, matched, err := rule.Rewriter.Rewrite(ctx, lines)
		if err != nil {
			logger.Error("rewriter", diag.Classify(err), rule.Name, err)
			return res, err
		}
		if len(out) != len(lines) {
			err := fmt.Errorf("pipeline: 规则 %s 改变了行数 %d→%d: %w",
				rule.Name, len(lines), len(out), contract.ErrInvariantViolation)
			logger.Error("rewriter", diag.Classify(err), rule.Name, err)
			return res, err
		}
		rt.Finish(rule.Name, matched)
		lines = out
		res.Reports = append(res.Reports, Report{Name: rule.Name, Label: label(rule.Rewriter), Matched: matched})
		res.Matched += matched
	}

	if set.DryRun {
		res.Diff = cmp.Diff(before, contract.Texts(lines))
		return res, nil
	}
	if set.SkipUnchanged && res.Matched == 0 {
		return res, nil
	}

	wt := logger.StartWith("sink", "write", fileID)
	if err := comp.Sink.Write(ctx, set.Target, lines); err != nil {
		logger.Error("sink", diag.Classify(err), "write failed", err)
		return res, err
	}
	wt.Finish("write", len(lines))
	res.Written = true
	return res, nil
}

// label 提取规则的摘要计数单位；未实现 Labeled 时回退 "lines"。
func label(r contract.Rewriter) string {
	if l, ok := r.(contract.Labeled); ok {
		return l.Label()
	}
	return "lines"
}
