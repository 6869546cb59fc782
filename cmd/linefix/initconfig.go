package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	cfgpkg "linefix/internal/config"
)

var initConfigCmd = &cobra.Command{
	Use:   "init-config [dir]",
	Short: "在指定目录生成默认配置 linefix.yaml 与 .env 模板（已存在则跳过，不覆盖）",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInitConfig,
}

func runInitConfig(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail(3, fmt.Errorf("生成默认配置失败: %w", err))
	}
	cfgPath := filepath.Join(dir, "linefix.yaml")
	if err := writeConfig(cfgPath, cfgpkg.DefaultTemplateConfig()); err != nil {
		return fail(3, fmt.Errorf("生成默认配置失败: %w", err))
	}
	// 生成 .env 模板（不覆盖已存在文件）。
	envPath := filepath.Join(dir, ".env")
	if err := writeDotEnv(envPath); err != nil {
		fmt.Fprintf(os.Stderr, "提示：.env 生成失败（已跳过）：%v\n", err)
	}
	return nil
}

// writeConfig 序列化配置到 path；"-" 输出到 stdout；不覆盖已存在文件。
func writeConfig(path string, c cfgpkg.Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if path == "-" {
		_, err = os.Stdout.Write(b)
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	_, err = f.Write(b)
	return err
}

// writeDotEnv 生成 .env 模板（若文件已存在则跳过）。
// 仅创建文件；不覆盖，不合并。
func writeDotEnv(path string) error {
	if st, err := os.Stat(path); err == nil && !st.IsDir() {
		// 已存在直接跳过
		return nil
	} else if err != nil && !os.IsNotExist(err) {
		return err
	}
	var b strings.Builder
	b.WriteString("# linefix .env 模板（由 init-config 生成）\n")
	b.WriteString("# 优先级：CLI > ENV(.env) > YAML\n")
	b.WriteString("# 空值表示未设置；按需填写后移除本行注释。\n\n")
	b.WriteString("# 配置来源\n")
	b.WriteString("LINEFIX_CONFIG_FILE=\n\n")
	b.WriteString("# 运行参数覆盖\n")
	b.WriteString("LINEFIX_TARGET=\n")
	b.WriteString("LINEFIX_ATOMIC=\n")
	b.WriteString("LINEFIX_LOG_LEVEL=\n")
	b.WriteString("LINEFIX_LOG_DIR=\n\n")
	b.WriteString("# 组件选择\n")
	b.WriteString("LINEFIX_SOURCE=\n")
	b.WriteString("LINEFIX_SINK=\n")

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	_, err = f.WriteString(b.String())
	return err
}
