package timing

// WordAt 把句子中的字符偏移映射为单词下标。
// 每个 token 占据 [offset, offset+len+1)，即假设 token 之间恰好一个空格，
// 句尾标点算在前一个 token 里。找不到时返回 -1。
func WordAt(tokens []string, charIndex int) int {
	if charIndex < 0 {
		return -1
	}
	offset := 0
	for i, t := range tokens {
		next := offset + len(t) + 1
		if charIndex >= offset && charIndex < next {
			return i
		}
		offset = next
	}
	return -1
}
