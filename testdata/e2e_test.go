package testdata

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	cfgpkg "linefix/internal/config"
	"linefix/internal/pipeline"
)

// baseConfig 构造可运行的最小配置（模板为底，目标重定向到 target）。
func baseConfig(target string) cfgpkg.Config {
	cfg := cfgpkg.DefaultTemplateConfig()
	cfg.Target = target
	cfg.Logging = cfgpkg.Logging{Level: "error", Dir: ""}
	return cfg
}

func runPipeline(t *testing.T, cfg cfgpkg.Config) (pipeline.Result, error) {
	t.Helper()
	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	return pipeline.Run(context.Background(), comp, set, nil)
}

const fixture = `import streamlit as st
import plotly.express as px

st.title("Dashboard")
fig = px.line(df)
st.plotly_chart(fig, width='stretch')

with st.expander("详情"):
    st.plotly_chart(fig, width='stretch')
    st.caption("第二张图")

st.plotly_chart(fig, width='stretch')
`

// expectedOutput 对输入逐行构造期望：命中行按文件序获得 1 起的编号。
func expectedOutput(in string) string {
	const match = "st.plotly_chart(fig, width='stretch')"
	lines := strings.SplitAfter(in, "\n")
	n := 0
	var out strings.Builder
	for _, l := range lines {
		if strings.Contains(l, match) {
			n++
			repl := strings.TrimSuffix(match, ")") +
				", key='chart_" + strconv.Itoa(n) + "')"
			l = strings.Replace(l, match, repl, 1)
		}
		out.WriteString(l)
	}
	return out.String()
}

func TestE2ESuccess(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "app.py")
	if err := os.WriteFile(target, []byte(fixture), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	res, err := runPipeline(t, baseConfig(target))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Matched != 3 {
		t.Fatalf("命中数 = %d, 期望 3", res.Matched)
	}
	if !res.Written {
		t.Fatal("应执行写回")
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(got) != expectedOutput(fixture) {
		t.Fatalf("输出不符:\n--- got ---\n%s\n--- want ---\n%s", got, expectedOutput(fixture))
	}
}

// 二次运行：模式已被首轮消耗，零命中、内容不变。
func TestE2ERerunStable(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "app.py")
	if err := os.WriteFile(target, []byte(fixture), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg := baseConfig(target)
	if _, err := runPipeline(t, cfg); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first, _ := os.ReadFile(target)

	res, err := runPipeline(t, cfg)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if res.Matched != 0 {
		t.Fatalf("二次运行命中 = %d, 期望 0", res.Matched)
	}
	second, _ := os.ReadFile(target)
	if string(first) != string(second) {
		t.Fatal("二次运行改动了文件")
	}
}

// CRLF 输入的终止符必须逐行保留。
func TestE2EPreservesCRLF(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "app.py")
	in := "st.plotly_chart(fig, width='stretch')\r\nst.caption(\"x\")\r\n"
	if err := os.WriteFile(target, []byte(in), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := runPipeline(t, baseConfig(target)); err != nil {
		t.Fatalf("run: %v", err)
	}
	got, _ := os.ReadFile(target)
	want := "st.plotly_chart(fig, width='stretch', key='chart_1')\r\nst.caption(\"x\")\r\n"
	if string(got) != want {
		t.Fatalf("CRLF 未保留:\n%q", got)
	}
}

// 目标缺失时整体失败且不产生文件。
func TestE2EMissingTarget(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nope.py")
	_, err := runPipeline(t, baseConfig(target))
	if err == nil {
		t.Fatal("缺失目标应失败")
	}
	if _, statErr := os.Stat(target); !os.IsNotExist(statErr) {
		t.Fatal("失败路径不应创建目标文件")
	}
}
