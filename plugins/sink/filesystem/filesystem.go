// Package filesystem 实现基于文件系统的就地覆盖 Sink。
package filesystem

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"linefix/pkg/contract"
)

// Options: 最小必要选项。
type Options struct {
	// Atomic: 是否使用原子替换（同目录临时文件 + rename）。
	// 默认值：true。显式 false 退化为直接覆盖写（原脚本的破坏性行为）。
	Atomic *bool `yaml:"atomic"`
	// PermFile: 新建目标时的权限；为 0 表示 0644。
	// 目标已存在时沿用其原有权限位。
	PermFile os.FileMode `yaml:"perm_file"`
	// BufSize: 写缓冲区大小；<=0 使用实现默认。
	BufSize int `yaml:"buf_size"`
}

// FS 实现 contract.Sink。
type FS struct {
	atomic  bool
	permF   os.FileMode
	bufSize int
}

// New 创建文件系统 Sink 实现。
func New(opts *Options) *FS {
	atomic := true
	var pf os.FileMode = 0o644
	bsz := 64 * 1024
	if opts != nil {
		if opts.Atomic != nil {
			atomic = *opts.Atomic
		}
		if opts.PermFile != 0 {
			pf = opts.PermFile
		}
		if opts.BufSize > 0 {
			bsz = opts.BufSize
		}
	}
	return &FS{atomic: atomic, permF: pf, bufSize: bsz}
}

var _ contract.Sink = (*FS)(nil)

// Write 将行序列还原为字节并写回 path。
// 目标已存在且非常规文件时拒绝（ErrPathInvalid）。
func (w *FS) Write(ctx context.Context, path string, lines []contract.Line) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	perm := w.permF
	if st, err := os.Stat(path); err == nil {
		if !st.Mode().IsRegular() {
			return fmt.Errorf("%s: 不是常规文件: %w", path, contract.ErrPathInvalid)
		}
		// 沿用原文件权限位
		perm = st.Mode().Perm()
	} else if !os.IsNotExist(err) {
		return err
	}

	r := bytes.NewReader(contract.JoinLines(lines))
	if w.atomic {
		return w.writeAtomic(ctx, path, perm, r)
	}
	return w.writeOverwrite(ctx, path, perm, r)
}

func (w *FS) writeOverwrite(ctx context.Context, dest string, perm os.FileMode, r io.Reader) error {
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	// 确保及时关闭
	defer f.Close()

	bw := bufio.NewWriterSize(f, w.bufSize)
	if _, err := io.Copy(bw, readerWithCtx(ctx, r)); err != nil {
		return err
	}
	return bw.Flush()
}

func (w *FS) writeAtomic(ctx context.Context, dest string, perm os.FileMode, r io.Reader) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	// 目标权限：尽量与期望一致
	_ = os.Chmod(tmpPath, perm)

	bw := bufio.NewWriterSize(tmp, w.bufSize)
	if _, err := io.Copy(bw, readerWithCtx(ctx, r)); err != nil {
		_ = bw.Flush()
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	// 平台特定的原子替换（或最佳努力）：
	if err := osReplace(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	// 最佳努力：在部分平台同步父目录，提升崩溃安全性
	_ = syncDir(dir)
	return nil
}

// readerWithCtx: 在每次 Read 前检查 ctx 是否已取消。
func readerWithCtx(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *ctxReader) Read(p []byte) (int, error) {
	select {
	case <-cr.ctx.Done():
		return 0, cr.ctx.Err()
	default:
	}
	return cr.r.Read(p)
}
