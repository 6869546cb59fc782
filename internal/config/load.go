package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults 返回带有安全默认值的 Config 雏形。
// 注意：Target 与 Rules 不设默认（必须由 YAML/ENV/CLI 提供）。
func Defaults() Config {
	return Config{
		Logging: Logging{Level: "info", Dir: "logs"},
		Components: Components{
			Source: "fs",
			Sink:   "fs",
		},
	}
}

// Load 从文件路径或原始 YAML 解析 Config（严格拒绝未知字段）。
func Load(path string, raw []byte) (Config, error) {
	var cfg Config
	var r io.Reader
	switch {
	case len(raw) > 0:
		r = bytes.NewReader(raw)
	case path != "":
		f, err := os.Open(path)
		if err != nil {
			return cfg, err
		}
		defer f.Close()
		r = f
	default:
		return cfg, errors.New("no config source provided")
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			// 空文件视为空配置
			return cfg, nil
		}
		return cfg, err
	}
	return cfg, nil
}

// Merge 按优先级合并（后者覆盖前者）。
// 仅标量/字符串/原样 YAML 为“替换”；不做深度合并。
func Merge(base, over Config) Config {
	out := base
	if strings.TrimSpace(over.Target) != "" {
		out.Target = strings.TrimSpace(over.Target)
	}
	// 特殊：Atomic 的 false 具有语义（关闭原子替换），以 nil 表示未覆盖。
	if over.Atomic != nil {
		out.Atomic = over.Atomic
	}
	if strings.TrimSpace(over.Logging.Level) != "" {
		out.Logging.Level = strings.TrimSpace(over.Logging.Level)
	}
	if strings.TrimSpace(over.Logging.Dir) != "" {
		out.Logging.Dir = strings.TrimSpace(over.Logging.Dir)
	}

	// 组件名（空不覆盖）
	if over.Components.Source != "" {
		out.Components.Source = over.Components.Source
	}
	if over.Components.Sink != "" {
		out.Components.Sink = over.Components.Sink
	}

	// Rules（整体替换）
	if len(over.Rules) > 0 {
		out.Rules = make([]Rule, len(over.Rules))
		copy(out.Rules, over.Rules)
	}

	// Options（完整替换对应键）
	if over.Options.Source.Kind != 0 {
		out.Options.Source = over.Options.Source
	}
	if over.Options.Sink.Kind != 0 {
		out.Options.Sink = over.Options.Sink
	}
	return out
}

// EnvOverlay 从环境变量构建一个 Config 覆盖（仅解析有限键集合）。
// 规则：前缀 LINEFIX_；集合之外的键忽略。
// 支持：TARGET, ATOMIC, LOG_LEVEL, LOG_DIR, SOURCE, SINK
func EnvOverlay(environ []string) (Config, error) {
	var over Config
	for _, kv := range environ {
		if !strings.HasPrefix(kv, "LINEFIX_") {
			continue
		}
		eq := strings.IndexByte(kv, '=')
		if eq <= len("LINEFIX_") {
			continue
		}
		key := kv[:eq]
		val := kv[eq+1:]
		switch strings.TrimPrefix(key, "LINEFIX_") {
		case "TARGET":
			over.Target = strings.TrimSpace(val)
		case "ATOMIC":
			if s := strings.TrimSpace(val); s != "" {
				b, err := strconv.ParseBool(s)
				if err != nil {
					return over, fmt.Errorf("LINEFIX_ATOMIC: %w", err)
				}
				over.Atomic = &b
			}
		case "LOG_LEVEL":
			over.Logging.Level = strings.TrimSpace(val)
		case "LOG_DIR":
			over.Logging.Dir = strings.TrimSpace(val)
		case "SOURCE":
			over.Components.Source = strings.TrimSpace(val)
		case "SINK":
			over.Components.Sink = strings.TrimSpace(val)
		default:
			// 非本集合的键忽略（例如 CONFIG_FILE 由 CLI 层消费）。
		}
	}
	return over, nil
}

// Validate 做装配前的结构校验。
// 组件实现名与选项的合法性在 Assemble 按注册表校验。
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Target) == "" {
		return errors.New("target 不能为空")
	}
	if len(cfg.Rules) == 0 {
		return errors.New("至少需要一条规则")
	}
	seen := make(map[string]struct{}, len(cfg.Rules))
	for i, r := range cfg.Rules {
		if strings.TrimSpace(r.Kind) == "" {
			return fmt.Errorf("rules[%d]: kind 不能为空", i)
		}
		// 仅显式命名的规则检查重名；未命名规则在装配期回退 kind-<i>。
		if r.Name == "" {
			continue
		}
		if _, dup := seen[r.Name]; dup {
			return fmt.Errorf("rules[%d]: 规则名重复: %s", i, r.Name)
		}
		seen[r.Name] = struct{}{}
	}
	return nil
}
