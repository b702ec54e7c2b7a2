// @title Ascendra 后端 API
// @version 1.0
// @description Ascendra学生互助平台的后端服务器。
// @termsOfService http://swagger.io/terms/

// @contact.name API支持
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"ascendra_backend/internal/app"
	"ascendra_backend/internal/config"
	"ascendra_backend/pkg/configwatcher"
	"ascendra_backend/pkg/logger"
	"log"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	// 配置热更新：仅运行时可安全变更的部分
	go configwatcher.WatchConfig("configs/config.yaml", cfg, func(newCfg interface{}) {
		if updated, ok := newCfg.(*config.Config); ok {
			cfg.AI = updated.AI
			cfg.RateLimit = updated.RateLimit
			logger.Log.Info("Config reloaded")
		}
	})

	application.Run()
}
