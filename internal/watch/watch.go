// Package watch 实现目标文件的监视模式：目标被写入/重建时重新应用规则。
// 监视目标所在目录而非文件本身——编辑器与原子替换都会以 rename 重建文件，
// 直接 watch 文件会在第一次替换后失效。
package watch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"linefix/internal/diag"
)

// OnChange 为触发回调；返回的错误仅记录，不终止监视。
type OnChange func(ctx context.Context) error

// Watcher 监视单个目标文件。
type Watcher struct {
	target   string // 绝对路径
	debounce time.Duration
	onChange OnChange
	logger   *diag.Logger
	term     *diag.Terminal

	fsw *fsnotify.Watcher
}

// New 创建 Watcher。target 会被绝对化；debounce<=0 取 500ms。
func New(target string, debounce time.Duration, onChange OnChange, logger *diag.Logger, term *diag.Terminal) (*Watcher, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return &Watcher{
		target:   abs,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
		term:     term,
		fsw:      fsw,
	}, nil
}

// Run 阻塞监视直到 ctx 取消。
// 事件按 debounce 窗口合并：窗口内多次写入只触发一次回调。
// 回调错误记录后继续监视（监视模式无首错即止语义）。
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.matches(ev) {
				continue
			}
			// 合并到 debounce 窗口
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-fire:
			timer = nil
			fire = nil
			w.term.WatchEvent(w.target)
			if err := w.onChange(ctx); err != nil {
				w.logger.Error("watch", diag.Classify(err), "rerun failed", err)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch", diag.CodeIO, "watcher error", err)
		}
	}
}

// matches 过滤出针对目标文件的写入/创建/重命名事件。
func (w *Watcher) matches(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	p, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	return p == w.target
}
