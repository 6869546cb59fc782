// Package literal 实现朴素字面替换改写器：old → new，逐行替换首次出现。
// 用于一次性补丁场景（与 keyarg 不同，无计数器模板）。
package literal

import (
	"context"
	"fmt"
	"strings"

	"linefix/pkg/contract"
)

// Options 为 literal 改写器的配置。
type Options struct {
	// Old: 被替换的字面模式（必需，非空）。
	Old string `yaml:"old"`
	// New: 替换文本（可为空，表示删除该片段）。
	New string `yaml:"new"`
	// Count: 至多改写的行数；0 表示不限制。
	Count int `yaml:"count"`
	// Label: 摘要行计数单位。缺省 "lines"。
	Label string `yaml:"label"`
}

// Rewriter 实现 contract.Rewriter。
type Rewriter struct {
	old   string
	new   string
	count int
	label string
}

// New 创建 literal 改写器。
func New(opts *Options) (*Rewriter, error) {
	if opts == nil || opts.Old == "" {
		return nil, fmt.Errorf("literal: old 不能为空: %w", contract.ErrInvalidInput)
	}
	if opts.Old == opts.New {
		return nil, fmt.Errorf("literal: old 与 new 相同: %w", contract.ErrInvalidInput)
	}
	if opts.Count < 0 {
		return nil, fmt.Errorf("literal: count 不能为负: %w", contract.ErrInvalidInput)
	}
	lb := opts.Label
	if lb == "" {
		lb = "lines"
	}
	return &Rewriter{old: opts.Old, new: opts.New, count: opts.Count, label: lb}, nil
}

var _ contract.Rewriter = (*Rewriter)(nil)
var _ contract.Labeled = (*Rewriter)(nil)

// Label 返回摘要计数单位。
func (r *Rewriter) Label() string { return r.label }

// Rewrite 逐行替换首次出现；达到 Count 上限后其余行原样透传。
func (r *Rewriter) Rewrite(ctx context.Context, lines []contract.Line) ([]contract.Line, int, error) {
	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	default:
	}

	out := make([]contract.Line, len(lines))
	n := 0
	for i, ln := range lines {
		if (r.count == 0 || n < r.count) && strings.Contains(ln.Text, r.old) {
			n++
			ln.Text = strings.Replace(ln.Text, r.old, r.new, 1)
		}
		out[i] = ln
	}
	return out, n, nil
}
