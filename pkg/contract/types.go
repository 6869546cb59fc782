package contract

// FileID: 逻辑文档ID（通常为路径，需规范化，跨平台一致）。
type FileID string

// Line: 原子输入单位（单行文本 + 其自带的行终止符）。
// 约束：
// - Text 不含终止符；
// - EOL 仅取 "\n"、"\r\n" 或 ""（文件末尾无换行的最后一行）；
// - 改写仅作用于 Text，EOL 原样透传（字节保真）。
type Line struct {
	Text string
	EOL  string
}

// JoinLines 将行序列还原为文件字节（逐行 Text+EOL 拼接）。
// 与 Source 的拆分互为逆操作；不做任何归一化。
func JoinLines(lines []Line) []byte {
	n := 0
	for _, ln := range lines {
		n += len(ln.Text) + len(ln.EOL)
	}
	out := make([]byte, 0, n)
	for _, ln := range lines {
		out = append(out, ln.Text...)
		out = append(out, ln.EOL...)
	}
	return out
}

// Texts 提取行文本（不含 EOL），用于预览 diff 与测试断言。
func Texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, ln := range lines {
		out[i] = ln.Text
	}
	return out
}
