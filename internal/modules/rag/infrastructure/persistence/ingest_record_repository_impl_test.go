package persistence

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestLastErrorText_KeepsMultibyteRunesIntact(t *testing.T) {
	// 每个汉字 3 字节，按字节截断会落在字符中间
	long := "  " + strings.Repeat("向量库写入超时", 300) + "  "

	got := lastErrorText(long)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, maxLastErrorRunes, utf8.RuneCountInString(got))
	assert.True(t, strings.HasPrefix(got, "向量库写入超时"))
}

func TestLastErrorText_ShortInputTrimmedOnly(t *testing.T) {
	assert.Equal(t, "milvus timeout", lastErrorText("  milvus timeout\n"))
	assert.Equal(t, "", lastErrorText(""))
}
