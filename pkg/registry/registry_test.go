package registry

import (
	"context"
	"errors"
	"testing"

	"gopkg.in/yaml.v3"

	"linefix/pkg/contract"
)

func node(t *testing.T, v any) *yaml.Node {
	t.Helper()
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return &n
}

// 注册表键只增不删；装配层错误文案依赖这些键名。
func TestRegisteredKinds(t *testing.T) {
	for _, k := range []string{"keyarg", "literal"} {
		if _, ok := Rewriter[k]; !ok {
			t.Fatalf("缺少改写器 %q", k)
		}
	}
	if _, ok := Source["fs"]; !ok {
		t.Fatal("缺少 source fs")
	}
	if _, ok := Sink["fs"]; !ok {
		t.Fatal("缺少 sink fs")
	}
}

func TestRewriterFactoryDecodesOptions(t *testing.T) {
	rw, err := Rewriter["keyarg"](node(t, map[string]string{
		"match": "f(x)", "insert": ", k=%d", "label": "calls",
	}))
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	out, n, err := rw.Rewrite(context.Background(), []contract.Line{{Text: "f(x)", EOL: "\n"}})
	if err != nil || n != 1 {
		t.Fatalf("rewrite: n=%d err=%v", n, err)
	}
	if out[0].Text != "f(x, k=1)" {
		t.Fatalf("改写结果: %q", out[0].Text)
	}
}

// nil/零值选项节点取实现默认。
func TestFactoriesAcceptNilOptions(t *testing.T) {
	if _, err := Source["fs"](nil); err != nil {
		t.Fatalf("source: %v", err)
	}
	if _, err := Sink["fs"](nil, nil); err != nil {
		t.Fatalf("sink: %v", err)
	}
	if _, err := Rewriter["literal"](node(t, map[string]string{"old": "a"})); err != nil {
		t.Fatalf("literal: %v", err)
	}
}

// 未知字段必须拒绝。
func TestStrictDecodeRejectsUnknownField(t *testing.T) {
	_, err := Rewriter["keyarg"](node(t, map[string]string{
		"match": "f(x)", "bogus": "1",
	}))
	if err == nil {
		t.Fatal("未知字段应报错")
	}
}

// 选项非法时透传实现的 ErrInvalidInput。
func TestFactoryPropagatesInvalidOptions(t *testing.T) {
	_, err := Rewriter["keyarg"](node(t, map[string]string{"match": "no-paren"}))
	if !errors.Is(err, contract.ErrInvalidInput) {
		t.Fatalf("应为 ErrInvalidInput, got %v", err)
	}
}
