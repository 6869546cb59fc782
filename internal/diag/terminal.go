package diag

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Terminal: 终端信息提示（非日志）。
// - 输出到提供的 io.Writer（默认建议 stderr）。
// - 并发安全；enabled=false 时总是 no-op。
type Terminal struct {
	w       io.Writer
	enabled bool
	isTTY   bool

	target   string // 短名（base + 截断）
	runStart time.Time

	mu sync.Mutex
}

// NewTerminal 构造终端提示器。
func NewTerminal(w io.Writer, enabled bool) *Terminal {
	if w == nil {
		w = os.Stderr
	}
	t := &Terminal{w: w, enabled: enabled}
	// CI 环境视为非 TTY
	if os.Getenv("CI") != "" {
		t.isTTY = false
	} else if f, ok := w.(*os.File); ok {
		// 最小 TTY 判定：字符设备
		if fi, err := f.Stat(); err == nil {
			t.isTTY = fi.Mode()&os.ModeCharDevice != 0
		}
	}
	return t
}

// RunStart: 记录运行上下文（目标文件、规则数）。
func (t *Terminal) RunStart(target string, rules int) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	t.target = shortenBase(target, 48)
	t.runStart = time.Now()
	t.println(fmt.Sprintf("[run] 目标=%s | 规则=%d", t.target, rules))
}

// RunFinish: 结束总览。
func (t *Terminal) RunFinish(ok bool, matched int, dur time.Duration) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	tag := "ok"
	if !ok {
		tag = "fail"
	}
	t.println(fmt.Sprintf("[%s] %s | 命中 %d | 用时 %s", tag, t.target, matched, formatDur(dur)))
}

// WatchEvent: 监视模式下的触发提示。
func (t *Terminal) WatchEvent(path string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	t.println(fmt.Sprintf("[watch] 变更 %s，重新应用规则", shortenBase(path, 48)))
}

func (t *Terminal) println(s string) {
	_, err := fmt.Fprintln(t.w, s)
	if err != nil {
		// 写失败后进入禁用态为 no-op
		t.enabled = false
	}
}

// shortenBase 取基名并截断到 max 个字符（保尾部）。
func shortenBase(p string, max int) string {
	b := filepath.Base(p)
	if len(b) <= max {
		return b
	}
	return "…" + b[len(b)-max:]
}

func formatDur(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(10 * time.Millisecond).String()
}
