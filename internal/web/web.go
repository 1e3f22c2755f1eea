// Package web 内嵌浏览器端页面。
package web

import _ "embed"

//go:embed index.html
var IndexHTML []byte
