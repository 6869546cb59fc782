package contract

import "errors"

// 最小错误分类（哨兵）。
var (
	// ErrInvalidInput: 组件选项/输入结构非法（装配期或调用期）。
	ErrInvalidInput = errors.New("invalid input")
	// ErrPathInvalid: 目标路径无效（不存在、非常规文件等）。
	ErrPathInvalid = errors.New("path invalid")
	// ErrInvariantViolation: 领域不变量违例（如改写后行数变化）。
	ErrInvariantViolation = errors.New("invariant violation")
)
