package http

import (
	"context"
	"errors"
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reusedev/doc-hub/config"
	"github.com/reusedev/doc-hub/internal/modules/logs"
	"github.com/reusedev/doc-hub/internal/modules/ratelimit"
	"github.com/reusedev/doc-hub/internal/modules/storage"
	"github.com/reusedev/doc-hub/internal/modules/storage/local"
	"github.com/reusedev/doc-hub/internal/service/http/handler"
	"github.com/reusedev/doc-hub/internal/service/http/middleware"
)

const (
	clientIdle      = 10 * time.Minute
	shutdownTimeout = 10 * time.Second
)

// Serve runs until ctx is cancelled, then drains open connections.
func Serve(ctx context.Context, port string) {
	e := gin.New()
	initRouter(e, config.GConfig)
	srv := &stdhttp.Server{Addr: port, Handler: e}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logs.Logger.Err(err).Msg("http shutdown")
		}
	}()
	logs.Logger.Info().Str("addr", port).Msg("http server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
		panic(err)
	}
}

func initRouter(e *gin.Engine, c *config.Config) {
	e.Use(gin.Recovery())
	e.Use(middleware.RequestLogger())
	e.SetHTMLTemplate(handler.Templates())

	e.GET("/", handler.Index)
	if disk, ok := storage.Default().(*local.Disk); ok {
		e.StaticFS("/files", gin.Dir(disk.Directory(), false))
	}

	limiter := ratelimit.NewClientLimiter(c.ClientRateLimit.RPS, c.ClientRateLimit.Burst, clientIdle)
	v1 := e.Group("/v1", middleware.ClientRateLimit(limiter))
	documents := v1.Group("/documents")
	{
		documents.POST("", handler.UploadDocument)
		documents.GET("", handler.GetDocument)
		documents.GET("/pages", handler.GetPage)
	}
	analyses := v1.Group("/analyses")
	{
		analyses.POST("", handler.CreateAnalysis)
		analyses.GET("", handler.GetAnalysis)
	}
	sessions := v1.Group("/sessions")
	{
		sessions.GET("/history", handler.SessionHistory)
		sessions.DELETE("/history", handler.ResetSession)
	}
}
