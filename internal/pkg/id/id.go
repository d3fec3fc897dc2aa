package id

import (
	"strings"

	"github.com/google/uuid"
)

// New 生成新的UUID（string格式）
func New() string {
	return uuid.New().String()
}

// Short 生成去掉连字符的 12 位短 ID，用于对象存储 key
func Short() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}
