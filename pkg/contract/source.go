package contract

import "context"

// Source: 输入源抽象（单文件）。
// 约束：
// 1) 整文件读入内存后按行拆分（不流式，文件以可装入内存为前提）；
// 2) 保留每行自带的终止符（LF/CRLF/末行无终止符）；
// 3) 不做解码/业务解析；
// 4) 不在内部起并发。
type Source interface {
	Read(ctx context.Context, path string) ([]Line, error)
}
