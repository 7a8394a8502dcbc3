package callback

import (
	"bytes"
	"strings"
)

var (
	authKeywords   = []string{"已关注", "认证", "验证", "login", "已订阅", "关注了", "验证码"}
	statusKeywords = []string{"状态", "status", "查询"}
	helpKeywords   = []string{"帮助", "help", "怎么", "如何"}
)

// fuzzyAuthPatterns are raw UTF-8 fragments of 验证码. Some clients mangle
// multi-byte text on the way through the platform; matching byte fragments
// recovers those messages. This is a compatibility shim for upstream
// transport mis-encoding; do not extend it.
var fuzzyAuthPatterns = [][]byte{
	[]byte("验证码"),
	{0xe9, 0xaa, 0x8c}, // 验
	{0xe8, 0xaf, 0x81}, // 证
	{0xe7, 0xa0, 0x81}, // 码
}

func containsAny(content string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(content, k) {
			return true
		}
	}
	return false
}

// isAuthKeyword matches the authentication keyword set, exact match first,
// then the byte-level fuzzy fallback.
func isAuthKeyword(content string) bool {
	if containsAny(content, authKeywords) {
		return true
	}
	raw := []byte(content)
	for _, p := range fuzzyAuthPatterns {
		if bytes.Contains(raw, p) {
			return true
		}
	}
	return strings.ContainsRune(content, '验') ||
		strings.ContainsRune(content, '证') ||
		strings.ContainsRune(content, '码')
}

func isStatusKeyword(content string) bool { return containsAny(content, statusKeywords) }

func isHelpKeyword(content string) bool { return containsAny(content, helpKeywords) }
