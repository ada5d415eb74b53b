package util

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateUUID 生成一个标准的 UUID (v4)
func GenerateUUID() string {
	return uuid.New().String()
}

// GenerateShortUUID 生成一个不带中划线的短 UUID
func GenerateShortUUID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// RandomSuffix 返回 n 位小写字母后缀，随机源为 UUID v4 的字节
func RandomSuffix(n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]byte, 0, n)
	for len(out) < n {
		id := uuid.New()
		for _, b := range id {
			if len(out) == n {
				break
			}
			out = append(out, 'a'+b%26)
		}
	}
	return string(out)
}

// TruncateRunes 按字符截断，超长时追加 ellipsis
func TruncateRunes(s string, limit int, ellipsis string) string {
	if limit < 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + ellipsis
}
