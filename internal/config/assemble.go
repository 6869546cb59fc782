package config

import (
	"fmt"
	"sort"
	"strings"

	"linefix/internal/pipeline"
	"linefix/pkg/registry"
)

// Assemble 依据配置装配流水线组件。
// 实现名查注册表；未知名报错并列出可用实现。选项解码失败直接上抛。
func Assemble(cfg Config) (pipeline.Components, pipeline.Settings, error) {
	var comp pipeline.Components
	var set pipeline.Settings

	srcName := cfg.Components.Source
	if strings.TrimSpace(srcName) == "" {
		srcName = Defaults().Components.Source
	}
	newSource, ok := registry.Source[srcName]
	if !ok {
		return comp, set, fmt.Errorf("未知 source 实现 %q（可用：%s）", srcName, keysOfSource())
	}
	src, err := newSource(&cfg.Options.Source)
	if err != nil {
		return comp, set, fmt.Errorf("source %q: %w", srcName, err)
	}
	comp.Source = src

	sinkName := cfg.Components.Sink
	if strings.TrimSpace(sinkName) == "" {
		sinkName = Defaults().Components.Sink
	}
	newSink, ok := registry.Sink[sinkName]
	if !ok {
		return comp, set, fmt.Errorf("未知 sink 实现 %q（可用：%s）", sinkName, keysOfSink())
	}
	sink, err := newSink(&cfg.Options.Sink, cfg.Atomic)
	if err != nil {
		return comp, set, fmt.Errorf("sink %q: %w", sinkName, err)
	}
	comp.Sink = sink

	for i := range cfg.Rules {
		r := &cfg.Rules[i]
		newRewriter, ok := registry.Rewriter[r.Kind]
		if !ok {
			return comp, set, fmt.Errorf("rules[%d]: 未知改写器 %q（可用：%s）", i, r.Kind, keysOfRewriter())
		}
		rw, err := newRewriter(&r.Options)
		if err != nil {
			return comp, set, fmt.Errorf("rules[%d] (%s): %w", i, r.Kind, err)
		}
		name := r.Name
		if name == "" {
			name = fmt.Sprintf("%s-%d", r.Kind, i)
		}
		comp.Rules = append(comp.Rules, pipeline.Rule{Name: name, Rewriter: rw})
	}

	set.Target = cfg.Target
	return comp, set, nil
}

func keysOfRewriter() string {
	ks := make([]string, 0, len(registry.Rewriter))
	for k := range registry.Rewriter {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return strings.Join(ks, ", ")
}

func keysOfSource() string {
	ks := make([]string, 0, len(registry.Source))
	for k := range registry.Source {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return strings.Join(ks, ", ")
}

func keysOfSink() string {
	ks := make([]string, 0, len(registry.Sink))
	for k := range registry.Sink {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return strings.Join(ks, ", ")
}
