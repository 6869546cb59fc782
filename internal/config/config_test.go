package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopkg.in/yaml.v3"
)

const sampleYAML = `
target: frontend/app.py
atomic: false
logging:
  level: debug
  dir: /tmp/lf
rules:
  - kind: keyarg
    name: chart-keys
    options:
      match: "st.plotly_chart(fig, width='stretch')"
      insert: ", key='chart_%d'"
`

func TestLoadSample(t *testing.T) {
	cfg, err := Load("", []byte(sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "frontend/app.py", cfg.Target)
	require.NotNil(t, cfg.Atomic)
	assert.False(t, *cfg.Atomic)
	assert.Equal(t, "debug", cfg.Logging.Level)
	require.Len(t, cfg.Rules, 1)
	assert.Equal(t, "keyarg", cfg.Rules[0].Kind)
	assert.Equal(t, "chart-keys", cfg.Rules[0].Name)
}

func TestLoadRejectsUnknownField(t *testing.T) {
	_, err := Load("", []byte("target: a\nbogus: 1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestLoadEmptyIsEmptyConfig(t *testing.T) {
	cfg, err := Load("", []byte("   \n"))
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Target)
}

func TestLoadNoSource(t *testing.T) {
	_, err := Load("", nil)
	require.Error(t, err)
}

func TestMergePrecedence(t *testing.T) {
	base := Defaults()
	base.Target = "a.py"
	f := false
	over := Config{Target: "b.py", Atomic: &f, Logging: Logging{Level: "warn"}}
	out := Merge(base, over)
	assert.Equal(t, "b.py", out.Target)
	require.NotNil(t, out.Atomic)
	assert.False(t, *out.Atomic)
	assert.Equal(t, "warn", out.Logging.Level)
	// 未覆盖的键保持 base
	assert.Equal(t, "logs", out.Logging.Dir)
	assert.Equal(t, "fs", out.Components.Source)
}

// Atomic 覆盖以 nil 表示“未设置”，false 是有效覆盖值。
func TestMergeAtomicNilMeansUnset(t *testing.T) {
	f := false
	base := Config{Atomic: &f}
	out := Merge(base, Config{})
	require.NotNil(t, out.Atomic)
	assert.False(t, *out.Atomic)
}

func TestMergeRulesReplaceWholesale(t *testing.T) {
	base := Config{Rules: []Rule{{Kind: "keyarg"}, {Kind: "literal"}}}
	out := Merge(base, Config{Rules: []Rule{{Kind: "literal", Name: "only"}}})
	require.Len(t, out.Rules, 1)
	assert.Equal(t, "only", out.Rules[0].Name)

	out = Merge(base, Config{})
	assert.Len(t, out.Rules, 2)
}

func TestEnvOverlay(t *testing.T) {
	over, err := EnvOverlay([]string{
		"LINEFIX_TARGET=x.py",
		"LINEFIX_ATOMIC=false",
		"LINEFIX_LOG_LEVEL=debug",
		"LINEFIX_SINK=fs",
		"PATH=/bin",
		"LINEFIX_CONFIG_FILE=elsewhere.yaml",
	})
	require.NoError(t, err)
	assert.Equal(t, "x.py", over.Target)
	require.NotNil(t, over.Atomic)
	assert.False(t, *over.Atomic)
	assert.Equal(t, "debug", over.Logging.Level)
	assert.Equal(t, "fs", over.Components.Sink)
	// CONFIG_FILE 由 CLI 层消费，不进入覆盖
	assert.Equal(t, "", over.Components.Source)
}

func TestEnvOverlayBadBool(t *testing.T) {
	_, err := EnvOverlay([]string{"LINEFIX_ATOMIC=maybe"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LINEFIX_ATOMIC")
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"ok", Config{Target: "a", Rules: []Rule{{Kind: "keyarg"}}}, true},
		{"no target", Config{Rules: []Rule{{Kind: "keyarg"}}}, false},
		{"no rules", Config{Target: "a"}, false},
		{"empty kind", Config{Target: "a", Rules: []Rule{{Kind: " "}}}, false},
		{"dup names", Config{Target: "a", Rules: []Rule{
			{Kind: "keyarg", Name: "x"}, {Kind: "literal", Name: "x"},
		}}, false},
		{"unnamed dup kinds ok", Config{Target: "a", Rules: []Rule{
			{Kind: "keyarg"}, {Kind: "keyarg"},
		}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.cfg)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestAssembleUnknownKinds(t *testing.T) {
	cfg := Config{Target: "a", Components: Components{Source: "nope", Sink: "fs"}}
	_, _, err := Assemble(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
	assert.Contains(t, err.Error(), "可用")

	cfg = Config{Target: "a", Components: Components{Source: "fs", Sink: "fs"},
		Rules: []Rule{{Kind: "missing"}}}
	_, _, err = Assemble(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestAssembleUnnamedRuleFallback(t *testing.T) {
	cfg := Defaults()
	cfg.Target = "a.py"
	cfg.Rules = []Rule{{Kind: "literal", Options: encodeNode(map[string]string{
		"old": "x", "new": "y",
	})}}
	comp, set, err := Assemble(cfg)
	require.NoError(t, err)
	require.Len(t, comp.Rules, 1)
	assert.Equal(t, "literal-0", comp.Rules[0].Name)
	assert.Equal(t, "a.py", set.Target)
	assert.NotNil(t, comp.Source)
	assert.NotNil(t, comp.Sink)
}

// 模板配置必须能走完 序列化 → 严格解析 → 校验 → 装配 全链路。
func TestTemplateRoundTrip(t *testing.T) {
	tpl := DefaultTemplateConfig()
	raw, err := yaml.Marshal(tpl)
	require.NoError(t, err)

	cfg, err := Load("", raw)
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))

	comp, set, err := Assemble(Merge(Defaults(), cfg))
	require.NoError(t, err)
	assert.Equal(t, "frontend/app.py", set.Target)
	require.Len(t, comp.Rules, 1)
	assert.Equal(t, "chart-keys", comp.Rules[0].Name)
}

func TestAssembleBadRuleOptions(t *testing.T) {
	cfg := Defaults()
	cfg.Target = "a"
	cfg.Rules = []Rule{{Kind: "keyarg", Options: encodeNode(map[string]string{
		"match": "no-close-paren",
	})}}
	_, _, err := Assemble(cfg)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "keyarg"))
}
