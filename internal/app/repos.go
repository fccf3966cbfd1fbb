package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/appversion-backend/internal/data/repos"
	"github.com/yungbote/appversion-backend/internal/platform/logger"
)

type Repos struct {
	VersionRecord repos.VersionRecordRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		VersionRecord: repos.NewVersionRecordRepo(db, log),
	}
}
