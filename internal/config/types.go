package config

import (
	"gopkg.in/yaml.v3"
)

// Config: 运行期只读配置（一次解析，运行期不变）。
// YAML 使用 snake_case；未知字段在解析期失败。
type Config struct {
	// Target: 目标文件路径（单文件；多文件为非目标）。
	Target string `yaml:"target"`
	// Atomic: 写回安全开关。nil 表示未设置（默认原子替换）；
	// 显式 false 退化为直接覆盖写（原脚本行为）。
	Atomic  *bool   `yaml:"atomic"`
	Logging Logging `yaml:"logging"`

	// 组件名选择（空则使用默认名）。
	Components Components `yaml:"components"`

	// Rules: 有序规则列表（至少一条）。
	Rules []Rule `yaml:"rules"`

	// 各组件 Options 子树，原样 YAML 传入工厂。
	Options Options `yaml:"options"`
}

// Logging: 日志等级与目录可配置；轮转策略为固定默认。
type Logging struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

// Components: 组件名选择（注册表中的实现名）。
type Components struct {
	Source string `yaml:"source"`
	Sink   string `yaml:"sink"`
}

// Rule: 单条改写规则（kind 为注册表实现名）。
type Rule struct {
	Kind string `yaml:"kind"`
	// Name: 可选；日志与摘要用。空则回退 kind。
	Name    string    `yaml:"name"`
	Options yaml.Node `yaml:"options"`
}

// Options: source/sink 的原样 YAML Options。
type Options struct {
	Source yaml.Node `yaml:"source"`
	Sink   yaml.Node `yaml:"sink"`
}
