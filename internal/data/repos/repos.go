package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/appversion-backend/internal/data/repos/version"
	"github.com/yungbote/appversion-backend/internal/platform/logger"
)

type VersionRecordRepo = version.VersionRecordRepo

func NewVersionRecordRepo(db *gorm.DB, baseLog *logger.Logger) VersionRecordRepo {
	return version.NewVersionRecordRepo(db, baseLog)
}
