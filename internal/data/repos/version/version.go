package version

import (
	"gorm.io/gorm"

	types "github.com/yungbote/appversion-backend/internal/domain"
	"github.com/yungbote/appversion-backend/internal/platform/dbctx"
	"github.com/yungbote/appversion-backend/internal/platform/logger"
)

type VersionRecordRepo interface {
	// GetActive returns the newest active record, or nil when none is active.
	GetActive(dbc dbctx.Context) (*types.VersionRecord, error)
	CountActive(dbc dbctx.Context) (int64, error)
	// DeactivateAll flips every active row to inactive and reports how many changed.
	DeactivateAll(dbc dbctx.Context) (int64, error)
	Create(dbc dbctx.Context, record *types.VersionRecord) (*types.VersionRecord, error)
	ListRecent(dbc dbctx.Context, limit int) ([]*types.VersionRecord, error)
}

type versionRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVersionRecordRepo(db *gorm.DB, baseLog *logger.Logger) VersionRecordRepo {
	repoLog := baseLog.With("repo", "VersionRecordRepo")
	return &versionRecordRepo{db: db, log: repoLog}
}

func (r *versionRecordRepo) GetActive(dbc dbctx.Context) (*types.VersionRecord, error) {
	transaction := dbc.DB(r.db)

	var results []*types.VersionRecord
	if err := transaction.WithContext(dbc.Ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *versionRecordRepo) CountActive(dbc dbctx.Context) (int64, error) {
	transaction := dbc.DB(r.db)

	var count int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.VersionRecord{}).
		Where("is_active = ?", true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *versionRecordRepo) DeactivateAll(dbc dbctx.Context) (int64, error) {
	transaction := dbc.DB(r.db)

	res := transaction.WithContext(dbc.Ctx).
		Model(&types.VersionRecord{}).
		Where("is_active = ?", true).
		Update("is_active", false)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 1 {
		r.log.Warn("Deactivated more than one active version record", "count", res.RowsAffected)
	}
	return res.RowsAffected, nil
}

func (r *versionRecordRepo) Create(dbc dbctx.Context, record *types.VersionRecord) (*types.VersionRecord, error) {
	transaction := dbc.DB(r.db)

	if err := transaction.WithContext(dbc.Ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *versionRecordRepo) ListRecent(dbc dbctx.Context, limit int) ([]*types.VersionRecord, error) {
	transaction := dbc.DB(r.db)

	if limit <= 0 {
		limit = 20
	}
	var results []*types.VersionRecord
	if err := transaction.WithContext(dbc.Ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
