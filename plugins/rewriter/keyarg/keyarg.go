// Package keyarg 实现计数器键参改写器：
// 对每个包含字面模式的行，在被匹配调用的右括号前插入一个
// 计数器编号的键参（如 , key='chart_3'）。
package keyarg

import (
	"context"
	"fmt"
	"strings"

	"linefix/pkg/contract"
)

// Options 为 keyarg 改写器的配置（最小必要）。
type Options struct {
	// Match: 触发改写的字面模式（必需）。必须以 ')' 结尾——
	// 插入点即该右括号之前。按字面子串匹配，不做语法解析。
	Match string `yaml:"match"`
	// Insert: 插入模板，须含且仅含一个 %d 动词，由命中序号填充。
	// 缺省 ", key='chart_%d'"。
	Insert string `yaml:"insert"`
	// Label: 摘要行计数单位。缺省 "charts"。
	Label string `yaml:"label"`
}

// Rewriter 实现 contract.Rewriter。
type Rewriter struct {
	match  string
	insert string
	label  string
}

// New 创建 keyarg 改写器；选项非法时返回 contract.ErrInvalidInput。
func New(opts *Options) (*Rewriter, error) {
	if opts == nil || opts.Match == "" {
		return nil, fmt.Errorf("keyarg: match 不能为空: %w", contract.ErrInvalidInput)
	}
	if !strings.HasSuffix(opts.Match, ")") {
		return nil, fmt.Errorf("keyarg: match 必须以 ')' 结尾: %w", contract.ErrInvalidInput)
	}
	ins := opts.Insert
	if ins == "" {
		ins = ", key='chart_%d'"
	}
	if strings.Count(ins, "%d") != 1 {
		return nil, fmt.Errorf("keyarg: insert 须含且仅含一个 %%d: %w", contract.ErrInvalidInput)
	}
	lb := opts.Label
	if lb == "" {
		lb = "charts"
	}
	return &Rewriter{match: opts.Match, insert: ins, label: lb}, nil
}

var _ contract.Rewriter = (*Rewriter)(nil)
var _ contract.Labeled = (*Rewriter)(nil)

// Label 返回摘要计数单位。
func (r *Rewriter) Label() string { return r.label }

// Rewrite 对行序列做一次纯折叠。
// 第 N 个命中行（按文件序，1 起）获得后缀 N；N 是命中序号，
// 与绝对行号无关。未命中行原样透传，不影响计数器。
// 每行至多改写一次（替换首次出现）。
func (r *Rewriter) Rewrite(ctx context.Context, lines []contract.Line) ([]contract.Line, int, error) {
	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	default:
	}

	out := make([]contract.Line, len(lines))
	n := 0
	for i, ln := range lines {
		if strings.Contains(ln.Text, r.match) {
			n++
			repl := strings.TrimSuffix(r.match, ")") + fmt.Sprintf(r.insert, n) + ")"
			ln.Text = strings.Replace(ln.Text, r.match, repl, 1)
		}
		out[i] = ln
	}
	return out, n, nil
}
