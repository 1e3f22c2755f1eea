package service

import "errors"

// ErrInvalidToken 表示会话令牌无效或已过期。
var ErrInvalidToken = errors.New("invalid session token")
