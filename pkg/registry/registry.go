package registry

import (
	"bytes"
	"errors"
	"io"

	"gopkg.in/yaml.v3"

	"linefix/pkg/contract"
	rkey "linefix/plugins/rewriter/keyarg"
	rlit "linefix/plugins/rewriter/literal"
	sifs "linefix/plugins/sink/filesystem"
	sofs "linefix/plugins/source/filesystem"
)

// strictDecode: 使用 KnownFields 严格解码选项子树，拒绝未知字段。
// node 缺省（nil 或零值）时保持 v 的零值（默认选项）。
func strictDecode(node *yaml.Node, v any) error {
	if node == nil || node.Kind == 0 {
		return nil
	}
	b, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// NewRewriter 工厂签名：接收原样 YAML Options。
type NewRewriter func(node *yaml.Node) (contract.Rewriter, error)

// NewSource 工厂签名：接收原样 YAML Options。
type NewSource func(node *yaml.Node) (contract.Source, error)

// NewSink 工厂签名：接收原样 YAML Options。
// atomic 为顶层安全开关的注入值（非 nil 时覆盖选项子树中的同名字段）。
type NewSink func(node *yaml.Node, atomic *bool) (contract.Sink, error)

// Rewriter 工厂注册表（显式、零反射）。
var Rewriter = map[string]NewRewriter{
	// keyarg: 字面模式 + 计数器键参插入（核心规则）
	"keyarg": func(node *yaml.Node) (contract.Rewriter, error) {
		var opts rkey.Options
		if err := strictDecode(node, &opts); err != nil {
			return nil, err
		}
		return rkey.New(&opts)
	},
	// literal: 朴素字面替换（一次性补丁）
	"literal": func(node *yaml.Node) (contract.Rewriter, error) {
		var opts rlit.Options
		if err := strictDecode(node, &opts); err != nil {
			return nil, err
		}
		return rlit.New(&opts)
	},
}

// Source 工厂注册表。
var Source = map[string]NewSource{
	// fs: 文件系统单文件读取
	"fs": func(node *yaml.Node) (contract.Source, error) {
		var opts sofs.Options
		if err := strictDecode(node, &opts); err != nil {
			return nil, err
		}
		return sofs.New(&opts), nil
	},
}

// Sink 工厂注册表。
var Sink = map[string]NewSink{
	// fs: 文件系统就地覆盖（原子替换可配置）
	"fs": func(node *yaml.Node, atomic *bool) (contract.Sink, error) {
		var opts sifs.Options
		if err := strictDecode(node, &opts); err != nil {
			return nil, err
		}
		if atomic != nil {
			opts.Atomic = atomic
		}
		return sifs.New(&opts), nil
	},
}
