package contract

import "context"

// Rewriter: 行改写器。对行序列做一次纯折叠，返回新序列与命中行数。
// 约束：
//  1. 纯函数：不依赖进程级可变状态，计数器随调用生命周期创建与丢弃；
//  2. 行数与行序不变（violated → 上层判 ErrInvariantViolation）；
//  3. 未命中行字节原样透传（含 EOL）；
//  4. 匹配为字面子串语义，不做目标语法解析；
//  5. 无内部并发、同步返回。
type Rewriter interface {
	Rewrite(ctx context.Context, lines []Line) ([]Line, int, error)
}

// Labeled: 可选扩展。为摘要行提供计数单位（如 "charts"）。
// 未实现时上层采用默认单位。
type Labeled interface {
	Label() string
}
