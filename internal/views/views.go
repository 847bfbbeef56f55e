// Package views embeds the HTML templates rendered by the route layer.
package views

import (
	"embed"
	"net/http"

	"github.com/gofiber/template/html/v2"
)

//go:embed *.html layouts/*.html
var files embed.FS

// Layout is the template every page is rendered into.
const Layout = "layouts/main"

// NewEngine returns a Fiber view engine over the embedded templates.
func NewEngine() *html.Engine {
	engine := html.NewFileSystem(http.FS(files), ".html")
	engine.AddFunc("formatTime", formatTime)
	return engine
}
