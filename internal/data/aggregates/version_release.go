package aggregates

import (
	"context"
	"fmt"

	versionrepo "github.com/yungbote/appversion-backend/internal/data/repos/version"
	types "github.com/yungbote/appversion-backend/internal/domain"
	"github.com/yungbote/appversion-backend/internal/platform/dbctx"
)

const opVersionPublish = "version_release.publish"

// VersionReleaseAggregate owns the single-active-version invariant: the previous
// active rows are retired and the new row inserted in one transaction.
type VersionReleaseAggregate interface {
	Publish(ctx context.Context, record *types.VersionRecord) (*types.VersionRecord, error)
}

type VersionReleaseDeps struct {
	Base     BaseDeps
	Versions versionrepo.VersionRecordRepo
}

type versionReleaseAggregate struct {
	deps     BaseDeps
	versions versionrepo.VersionRecordRepo
}

func NewVersionReleaseAggregate(deps VersionReleaseDeps) VersionReleaseAggregate {
	base := deps.Base.withDefaults()
	return &versionReleaseAggregate{
		deps:     BaseDeps{DB: base.DB, Log: base.Log.With("aggregate", "VersionRelease"), Runner: base.Runner, Hooks: base.Hooks},
		versions: deps.Versions,
	}
}

func (a *versionReleaseAggregate) Publish(ctx context.Context, record *types.VersionRecord) (*types.VersionRecord, error) {
	if record == nil {
		return nil, wrap(CodeValidation, opVersionPublish, fmt.Errorf("%w: record is required", ErrValidation))
	}
	record.IsActive = true

	var saved *types.VersionRecord
	err := executeWrite(ctx, a.deps, opVersionPublish, func(dbc dbctx.Context) error {
		retired, err := a.versions.DeactivateAll(dbc)
		if err != nil {
			return fmt.Errorf("deactivate active versions: %w", err)
		}
		created, err := a.versions.Create(dbc, record)
		if err != nil {
			return fmt.Errorf("insert version record: %w", err)
		}
		active, err := a.versions.CountActive(dbc)
		if err != nil {
			return fmt.Errorf("count active versions: %w", err)
		}
		if active != 1 {
			return InvariantError(fmt.Sprintf("expected exactly one active version after publish, found %d", active))
		}
		a.deps.Log.Debug("Version published", "version", created.Version, "retired", retired)
		saved = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}
