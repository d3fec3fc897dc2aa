package ark

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultBaseURL Ark API 默认地址
const DefaultBaseURL = "https://ark.cn-beijing.volces.com/api/v3"

// 常见的误配置：把完整接口路径当作 base_url 填写
var endpointSuffixes = []string{
	"/chat/completions",
	"/images/generations",
	"/contents/generations/tasks",
}

// CanonicalizeBaseURL 规范化 base_url：补全协议、去掉首尾空白与末尾斜杠、
// 去掉误填的接口路径；Ark 官方域名缺少 /api/v3 时自动补全。
func CanonicalizeBaseURL(raw string) (string, error) {
	base := strings.TrimSpace(raw)
	if base == "" {
		return DefaultBaseURL, nil
	}
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	base = strings.TrimRight(base, "/")
	for _, suffix := range endpointSuffixes {
		base = strings.TrimSuffix(base, suffix)
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid base url %q: missing host", raw)
	}
	if strings.HasSuffix(u.Host, "volces.com") && (u.Path == "" || u.Path == "/") {
		u.Path = "/api/v3"
	}
	u.RawQuery = ""
	u.Fragment = ""

	return strings.TrimRight(u.String(), "/"), nil
}
