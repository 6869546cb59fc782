// Package filesystem 实现基于文件系统的单文件 Source。
package filesystem

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"linefix/pkg/contract"
)

// Options 为 FileSystem Source 的可选配置（最小必要）。
type Options struct {
	// MaxBytes: 文件大小上限（字节）。0 表示不限制。
	// 整文件读入内存，上限用于挡住误配的超大目标。
	MaxBytes int64 `yaml:"max_bytes"`
}

// FileSystem 实现 contract.Source。
type FileSystem struct {
	maxBytes int64
}

// New 创建 FileSystem Source。
func New(opts *Options) *FileSystem {
	var m int64
	if opts != nil && opts.MaxBytes > 0 {
		m = opts.MaxBytes
	}
	return &FileSystem{maxBytes: m}
}

var _ contract.Source = (*FileSystem)(nil)

// Read 整文件读入并按行拆分，保留每行自带的终止符。
// 文件访问错误（缺失/权限）以 *os.PathError 原样上抛。
func (s *FileSystem) Read(ctx context.Context, path string) ([]contract.Line, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !st.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: 不是常规文件: %w", path, contract.ErrPathInvalid)
	}
	if s.maxBytes > 0 && st.Size() > s.maxBytes {
		return nil, fmt.Errorf("%s: 超出大小上限 %d 字节: %w", path, s.maxBytes, contract.ErrInvalidInput)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return SplitLines(b), nil
}

// SplitLines 按 '\n' 拆分，区分 "\n" 与 "\r\n" 终止符；
// 末行无换行时 EOL 为空串。空输入返回零行。
// 与 contract.JoinLines 互为逆操作（任意输入字节保真往返）。
func SplitLines(b []byte) []contract.Line {
	if len(b) == 0 {
		return nil
	}
	var lines []contract.Line
	for len(b) > 0 {
		i := bytes.IndexByte(b, '\n')
		if i < 0 {
			lines = append(lines, contract.Line{Text: string(b)})
			break
		}
		text, eol := b[:i], "\n"
		if i > 0 && b[i-1] == '\r' {
			text, eol = b[:i-1], "\r\n"
		}
		lines = append(lines, contract.Line{Text: string(text), EOL: eol})
		b = b[i+1:]
	}
	return lines
}
