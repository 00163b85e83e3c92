package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/reusedev/doc-hub/config"
	"github.com/reusedev/doc-hub/internal/components/mysql"
	"github.com/reusedev/doc-hub/internal/modules/ai"
	"github.com/reusedev/doc-hub/internal/modules/analysis"
	"github.com/reusedev/doc-hub/internal/modules/logs"
	"github.com/reusedev/doc-hub/internal/modules/queue"
	"github.com/reusedev/doc-hub/internal/modules/storage"
	"github.com/reusedev/doc-hub/internal/service/http"
	"github.com/reusedev/doc-hub/tools"
)

var (
	httpPort   string
	configPath string
)

func init() {
	flag.StringVar(&httpPort, "http-port", ":80", "listen http port")
	flag.StringVar(&configPath, "config", "config.yml", "config file path")
}

func main() {
	flag.Parse()
	config.Init(tools.PanicOnError(tools.ReadFile(configPath)))
	logs.InitLogger(config.GConfig)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	mysql.CreateDataBase(config.GConfig.MySQL)
	mysql.InitMySQL(config.GConfig.MySQL)
	if err := mysql.Migrate(); err != nil {
		panic(err)
	}
	if err := storage.Init(config.GConfig); err != nil {
		panic(err)
	}
	if err := ai.InitTokenManager(ctx, config.GConfig); err != nil {
		panic(err)
	}
	analysis.Init(config.GConfig)
	queue.InitAnalysisQueue(ctx, config.GConfig.Queue.Size, config.GConfig.Queue.Workers)
	if err := analysis.EnqueueUnfinished(); err != nil {
		logs.Logger.Err(err).Msg("enqueue unfinished analyses")
	}

	http.Serve(ctx, httpPort)
	queue.AnalysisQueue.Wait()
	logs.Logger.Info().Msg("doc-hub stopped")
	os.Exit(0)
}
