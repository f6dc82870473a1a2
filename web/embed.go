package web

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed templates/*.html
var rawTemplates embed.FS

// Templates 去掉 templates/ 前缀后的模板文件
var Templates = mustSub(rawTemplates, "templates")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// LoadTemplates 解析全部页面模板，模板名即文件名
func LoadTemplates() (*template.Template, error) {
	return template.ParseFS(Templates, "*.html")
}
