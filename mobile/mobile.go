package mobile

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"xiangqi/internal/config"
	"xiangqi/internal/server/game"
	httpserver "xiangqi/internal/server/http"
)

// StartServer starts the local HTTP server.
// webDir: physical path to the extracted web assets
// configPath: optional JSON config, "" for defaults
// port: port to listen on, e.g. "2888"
func StartServer(webDir string, configPath string, port string) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Error().Err(err).Msg("load config, using defaults")
		cfg = config.Default()
	}
	zerolog.SetGlobalLevel(cfg.ZerologLevel())

	games := game.NewManager(cfg.Levels, cfg.SessionTimeout(), cfg.MaxSessions, cfg.UndoSteps)
	go games.RunJanitor(context.Background(), time.Minute)
	handler := httpserver.NewRouter(httpserver.NewHandler(games), webDir, webDir)

	// 放到后台跑，不能卡住 Android 的 UI 线程
	go func() {
		if err := http.ListenAndServe("127.0.0.1:"+port, handler); err != nil {
			log.Error().Err(err).Msg("server stopped")
		}
	}()
}
