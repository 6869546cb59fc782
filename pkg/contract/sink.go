package contract

import "context"

// Sink: 将改写后的行序列持久化回目标路径（就地覆盖）。
// 约束：
//  1. 同一路径单写者；
//  2. 原子替换（同目录临时文件 + rename）为默认；直接覆盖写可配置；
//  3. ctx 取消需尽快返回；
//  4. 错误直接上抛（不做重试/回退）。
type Sink interface {
	Write(ctx context.Context, path string, lines []Line) error
}
