package handler

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// renderNoteHTML 将备注 Markdown 渲染为净化后的 HTML；空备注与渲染失败均返回空串
func renderNoteHTML(note string) string {
	if note == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(note), &buf); err != nil {
		return ""
	}
	return string(sanitizer.SanitizeBytes(buf.Bytes()))
}
