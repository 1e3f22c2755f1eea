package pipeline

import (
	"fmt"
	"unicode/utf8"
)

// Splitter 按固定窗口切分文本。窗口以字符（rune）计，相邻窗口重叠 overlap 个字符。
type Splitter struct {
	size    int
	overlap int
}

// NewSplitter 创建一个 Splitter，要求 size > 0 且 0 <= overlap < size。
func NewSplitter(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size 必须大于 0, 当前为 %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap 必须满足 0 <= overlap < size, 当前为 %d/%d", overlap, size)
	}
	return &Splitter{size: size, overlap: overlap}, nil
}

// Size 返回窗口大小。
func (s *Splitter) Size() int { return s.size }

// Overlap 返回重叠长度。
func (s *Splitter) Overlap() int { return s.overlap }

// Split 将文本切分为若干块。除第一块外，每块都从上一块末尾之前 overlap 个字符处开始，
// 最后一块可以短于 size。空文本返回 nil。
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	chunks := make([]string, 0, s.ExpectedChunks(len(runes)))
	step := s.size - s.overlap
	for i := 0; i < len(runes); i += step {
		end := i + s.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// ExpectedChunks 返回长度为 n 个字符的文本会被切出的块数。
func (s *Splitter) ExpectedChunks(n int) int {
	if n <= 0 {
		return 0
	}
	if n <= s.size {
		return 1
	}
	step := s.size - s.overlap
	return 1 + (n-s.size+step-1)/step
}

// ExpectedChunksOf 是 ExpectedChunks 针对字符串的便捷形式。
func (s *Splitter) ExpectedChunksOf(text string) int {
	return s.ExpectedChunks(utf8.RuneCountInString(text))
}
