package config

import "gopkg.in/yaml.v3"

// DefaultTemplateConfig 返回一个“可运行”的默认配置模板：
// - 目标与规则复刻 chart 修复脚本：frontend/app.py 中的
//   st.plotly_chart(fig, width='stretch') 追加 , key='chart_<N>'；
// - 原子替换开启（写失败不丢原内容）；
// - 选项给出安全中性默认值，键齐全。
func DefaultTemplateConfig() Config {
	d := Defaults()
	atomic := true
	cfg := Config{
		Target:     "frontend/app.py",
		Atomic:     &atomic,
		Logging:    Logging{Level: "info", Dir: "logs"},
		Components: d.Components,
		Rules: []Rule{
			{
				Kind: "keyarg",
				Name: "chart-keys",
				Options: encodeNode(map[string]string{
					"match":  "st.plotly_chart(fig, width='stretch')",
					"insert": ", key='chart_%d'",
					"label":  "charts",
				}),
			},
		},
	}
	// Options：包含所有键（值为默认），确保键存在。
	cfg.Options.Source = encodeNode(map[string]int64{"max_bytes": 0})
	cfg.Options.Sink = encodeNode(map[string]any{
		"atomic":    true,
		"perm_file": 0,
		"buf_size":  65536,
	})
	return cfg
}

// encodeNode 将任意值编码为 yaml.Node（模板构造用；失败即编程错误）。
func encodeNode(v any) yaml.Node {
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		panic(err)
	}
	return n
}
