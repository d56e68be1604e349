package global

import (
	"pt1/backend/config"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var (
	Config *config.Config
	Logger zerolog.Logger
	Adb    *gorm.DB
)
