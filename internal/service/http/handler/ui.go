package handler

import (
	"embed"
	"html/template"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/reusedev/doc-hub/config"
	"github.com/reusedev/doc-hub/internal/modules/ai"
)

//go:embed templates/*.html
var templates embed.FS

func Templates() *template.Template {
	return template.Must(template.ParseFS(templates, "templates/*.html"))
}

func Index(c *gin.Context) {
	models := make([]string, 0, len(ai.GTokenManager))
	for name := range ai.GTokenManager {
		models = append(models, name)
	}
	sort.Strings(models)
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Models":       models,
		"DefaultModel": config.GConfig.DefaultModel,
		"Preprocess":   config.GConfig.Preprocess,
		"MaxPages":     config.GConfig.PDF.MaxPages,
	})
}
