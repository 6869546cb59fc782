package diag

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"linefix/pkg/contract"
)

// Logger 为最小结构化日志器：单行 JSON，zap 核心 + lumberjack 轮转文件。
// 事件模型沿用 comp/stage（start|finish|error）/code/dur_ms/count/file_id 字段；
// error 级别同时复制到 stderr。nil *Logger 上所有方法均为 no-op。
type Logger struct {
	z *zap.Logger
}

// NewLogger 通过配置的 level 初始化，日志写入 dir/linefix.log（10MiB 轮转）。
// dir 为空时仅写 stderr。corrID 附着在所有事件上。
func NewLogger(corrID, level, dir string) *Logger {
	lvl := parseLevel(strings.TrimSpace(level))

	encCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		MessageKey:     "msg",
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.MillisDurationEncoder,
	}
	enc := zapcore.NewJSONEncoder(encCfg)

	var cores []zapcore.Core
	if strings.TrimSpace(dir) != "" {
		sink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(dir, "linefix.log"),
			MaxSize:    10, // MiB
			MaxBackups: 3,
			MaxAge:     14, // 天
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(enc, sink, lvl))
		// error 复制到 stderr（不采样）
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(os.Stderr), zapcore.ErrorLevel))
	} else {
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(os.Stderr), lvl))
	}

	z := zap.New(zapcore.NewTee(cores...)).With(zap.String("corr_id", corrID))
	return &Logger{z: z}
}

// NewNop 返回丢弃一切输出的日志器（测试用）。
func NewNop() *Logger { return &Logger{z: zap.NewNop()} }

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Start 记录 start 事件；返回计时器用于 Finish。
func (l *Logger) Start(comp, msg string) *Timer {
	if l == nil {
		return nil
	}
	l.z.Info(msg, zap.String("comp", comp), zap.String("stage", "start"))
	return &Timer{l: l, comp: comp, t0: time.Now()}
}

// StartWith 记录带 file_id 的 start。
func (l *Logger) StartWith(comp, msg string, fileID contract.FileID) *Timer {
	if l == nil {
		return nil
	}
	l.z.Info(msg, zap.String("comp", comp), zap.String("stage", "start"),
		zap.String("file_id", string(fileID)))
	return &Timer{l: l, comp: comp, fileID: fileID, t0: time.Now()}
}

// Error 记录 error 事件（不采样）。
func (l *Logger) Error(comp string, code Code, msg string, err error) {
	if l == nil {
		return
	}
	fields := []zap.Field{
		zap.String("comp", comp),
		zap.String("stage", "error"),
		zap.String("code", string(code)),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	l.z.Error(msg, fields...)
}

// Debug 输出调试级别事件（仅在 level=debug 时生效）。
func (l *Logger) Debug(comp, msg string, kv map[string]string) {
	if l == nil {
		return
	}
	fields := []zap.Field{zap.String("comp", comp), zap.String("stage", "start")}
	for k, v := range kv {
		fields = append(fields, zap.String(k, v))
	}
	l.z.Debug(msg, fields...)
}

// Sync 冲刷底层 sink（进程退出前调用，错误忽略）。
func (l *Logger) Sync() {
	if l == nil {
		return
	}
	_ = l.z.Sync()
}

// Timer 用于 start→finish 计时。
type Timer struct {
	l      *Logger
	comp   string
	fileID contract.FileID
	t0     time.Time
}

// Finish 记录 finish；count 为本阶段处理量（如命中行数）。
func (t *Timer) Finish(msg string, count int) {
	if t == nil || t.l == nil {
		return
	}
	t.l.z.Info(msg,
		zap.String("comp", t.comp),
		zap.String("stage", "finish"),
		zap.Int64("dur_ms", time.Since(t.t0).Milliseconds()),
		zap.Int("count", count),
		zap.String("file_id", string(t.fileID)))
}
