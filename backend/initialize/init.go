package initialize

import (
	"net/http"

	"pt1/backend/app/controllers"
	"pt1/backend/app/middleware"
	"pt1/backend/app/models"
	"pt1/backend/app/repo"
	"pt1/backend/app/services"
	"pt1/backend/app/storage"
	"pt1/backend/config"
	"pt1/backend/global"
	"pt1/backend/router"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type App struct {
	Cfg    *config.Config
	DB     *gorm.DB
	Router http.Handler

	Tokens      *services.TokenService
	Registry    *services.RegistryService
	Commands    *services.CommandService
	Transcripts *services.TranscriptService
}

func Build(configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	global.Config = cfg

	// sqlite is the best-effort archive mirror; the server runs without it
	gdb, err := gorm.Open(sqlite.Open(cfg.Storage.DBPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		global.Logger.Warn().Err(err).Str("path", cfg.Storage.DBPath).Msg("archive db unavailable")
		gdb = nil
	} else if err := gdb.AutoMigrate(&models.CommandArchive{}, &models.Transcript{}); err != nil {
		global.Logger.Warn().Err(err).Msg("archive migrate failed")
		gdb = nil
	}
	global.Adb = gdb

	var archiveRepo *repo.ArchiveRepository
	var transcriptRepo *repo.TranscriptRepository
	if gdb != nil {
		archiveRepo = repo.NewArchiveRepository(gdb)
		transcriptRepo = repo.NewTranscriptRepository(gdb)
	}

	tokenSvc := services.NewTokenService(
		cfg.Tokens.RootFile, cfg.Tokens.SessionFile,
		cfg.Tokens.RotationSeconds, cfg.Tokens.SessionSeconds,
		global.Logger,
	)
	registrySvc := services.NewRegistryService(cfg.OfflineTimeout, global.Logger)
	commandSvc := services.NewCommandService(archiveRepo, global.Logger)

	fileStore, err := storage.NewFileStore(cfg.Storage.UploadDir)
	if err != nil {
		return nil, err
	}
	transcriptSvc, err := services.NewTranscriptService(cfg.Storage.TranscriptDir, transcriptRepo, global.Logger)
	if err != nil {
		return nil, err
	}

	rootCtrl := controllers.NewRootController(archiveRepo)
	authCtrl := controllers.NewAuthController(tokenSvc)
	regCtrl := controllers.NewRegistryController(registrySvc, commandSvc)
	cmdCtrl := controllers.NewCommandController(commandSvc, registrySvc, cfg.CommandTimeout)
	fileCtrl := controllers.NewFileController(commandSvc, fileStore, global.Logger)
	trCtrl := controllers.NewTranscriptController(transcriptSvc)
	mw := &middleware.Auth{Tokens: tokenSvc}

	h := router.NewRouter(rootCtrl, authCtrl, regCtrl, cmdCtrl, fileCtrl, trCtrl, mw)
	history := &middleware.History{Commands: commandSvc, Log: global.Logger}
	h = history.Record(h)
	h = middleware.Logging(h)

	return &App{
		Cfg:         cfg,
		DB:          gdb,
		Router:      h,
		Tokens:      tokenSvc,
		Registry:    registrySvc,
		Commands:    commandSvc,
		Transcripts: transcriptSvc,
	}, nil
}
