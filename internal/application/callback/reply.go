package callback

import "fmt"

// Reply templates sent back through the official account. The texts are
// user-facing and intentionally kept in the account's language.

func welcomeMessage(siteURL, code string) string {
	return fmt.Sprintf(`欢迎关注！🎉

请访问网站完成认证：
%s

在网站输入您的认证码，或发送"已关注"到本公众号获取认证码。

您的认证码：%s

提示：认证码5分钟内有效。`, siteURL, code)
}

func codeMessage(code string) string {
	return fmt.Sprintf(`✅ 认证码已生成

您的认证码：%s

请在网站输入此认证码完成登录，或直接刷新网站页面。

提示：认证码5分钟内有效。`, code)
}

func confirmSuccessMessage() string {
	return `✅ 认证成功！

请返回网站页面，认证将自动完成。`
}

func confirmFailureMessage() string {
	return `❌ 认证码无效或已过期

请刷新网站页面获取新的认证码，或发送"已关注"重新生成。`
}

func helpMessage() string {
	return `认证流程帮助：

1. 关注公众号
2. 发送关键词【已关注】或【认证】
3. 获得6位认证码
4. 在网站输入认证码完成登录

支持关键词：
- 已关注, 认证, 验证, login
- 状态 - 查询认证状态
- 帮助 - 查看此帮助

如有问题，请联系管理员。`
}

func statusMessage(authenticated bool) string {
	if authenticated {
		return `您的认证状态：已完成网站认证

如需重新认证，请发送"已关注"。

如需帮助，请发送"帮助"。`
	}
	return `您的认证状态：已关注公众号，尚未完成网站认证

如需认证，请发送"已关注"获取认证码。

如需帮助，请发送"帮助"。`
}

func fallbackMessage() string {
	return `欢迎！如果您需要重新获取验证码，请发送"已关注"或"认证"。`
}
