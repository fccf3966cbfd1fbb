package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/appversion-backend/internal/data/aggregates"
	"github.com/yungbote/appversion-backend/internal/data/repos"
	types "github.com/yungbote/appversion-backend/internal/domain"
	"github.com/yungbote/appversion-backend/internal/observability"
	"github.com/yungbote/appversion-backend/internal/platform/dbctx"
	"github.com/yungbote/appversion-backend/internal/platform/logger"
	"github.com/yungbote/appversion-backend/internal/versioning"
)

const (
	UpdateMessageAvailable = "New version available!"
	UpdateMessageLatest    = "You have the latest version"

	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100

	announceTimeout = 5 * time.Second
)

// CurrentVersion is what clients see as the latest release.
type CurrentVersion struct {
	Version     string    `json:"version"`
	Timestamp   time.Time `json:"timestamp"`
	ForceUpdate bool      `json:"forceUpdate"`
}

type UpdateCheck struct {
	NeedsUpdate   bool   `json:"needsUpdate"`
	LatestVersion string `json:"latestVersion"`
	ForceUpdate   bool   `json:"forceUpdate"`
	DownloadURL   string `json:"downloadUrl"`
	UpdateMessage string `json:"updateMessage"`
}

type VersionService interface {
	GetCurrentVersion(ctx context.Context) (*CurrentVersion, error)
	UpdateVersion(ctx context.Context, version, timestamp string) (*types.VersionRecord, error)
	CheckForUpdates(ctx context.Context, platform, currentVersion string) (*UpdateCheck, error)
	ListVersions(ctx context.Context, limit int) ([]*types.VersionRecord, error)
}

type VersionServiceDeps struct {
	Versions repos.VersionRecordRepo
	Releases aggregates.VersionReleaseAggregate
	Resolver *versioning.DownloadResolver
	Notifier VersionNotifier
	Metrics  *observability.Metrics
	Log      *logger.Logger
	Now      func() time.Time
}

type versionService struct {
	versions repos.VersionRecordRepo
	releases aggregates.VersionReleaseAggregate
	resolver *versioning.DownloadResolver
	notifier VersionNotifier
	metrics  *observability.Metrics
	log      *logger.Logger
	now      func() time.Time
	tracer   trace.Tracer

	announcing sync.WaitGroup
}

func NewVersionService(deps VersionServiceDeps) VersionService {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = NoopVersionNotifier{}
	}
	resolver := deps.Resolver
	if resolver == nil {
		resolver = versioning.NewDownloadResolver(nil)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &versionService{
		versions: deps.Versions,
		releases: deps.Releases,
		resolver: resolver,
		notifier: notifier,
		metrics:  deps.Metrics,
		log:      log.With("service", "VersionService"),
		now:      now,
		tracer:   observability.Tracer(),
	}
}

func (s *versionService) GetCurrentVersion(ctx context.Context) (*CurrentVersion, error) {
	ctx, span := s.tracer.Start(ctx, "VersionService.GetCurrentVersion")
	defer span.End()

	cur, err := s.currentVersion(ctx)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("version", cur.Version))
	return cur, nil
}

func (s *versionService) currentVersion(ctx context.Context) (*CurrentVersion, error) {
	record, err := s.versions.GetActive(dbctx.Context{Ctx: ctx})
	if err != nil {
		s.log.Error("Failed to load active version", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if record == nil {
		return &CurrentVersion{
			Version:     types.DefaultVersion,
			Timestamp:   s.now().UTC(),
			ForceUpdate: false,
		}, nil
	}
	return &CurrentVersion{
		Version:     record.Version,
		Timestamp:   record.CreatedAt,
		ForceUpdate: record.ForceUpdate,
	}, nil
}

func (s *versionService) UpdateVersion(ctx context.Context, version, timestamp string) (*types.VersionRecord, error) {
	ctx, span := s.tracer.Start(ctx, "VersionService.UpdateVersion")
	defer span.End()

	ts, err := versioning.ParseTimestamp(timestamp)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	version = strings.TrimSpace(version)
	if err := versioning.Validate(version); err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("version", version))

	saved, err := s.releases.Publish(ctx, &types.VersionRecord{
		Version:     version,
		Timestamp:   ts,
		IsActive:    true,
		ForceUpdate: false,
	})
	if err != nil {
		err = mapPublishError(err)
		recordSpanError(span, err)
		s.log.Error("Failed to publish version", "version", version, "error", err)
		return nil, err
	}

	s.metrics.IncVersionPublished()
	s.log.Info("Version published", "version", saved.Version, "id", saved.ID)
	s.announce(ctx, saved)
	return saved, nil
}

// announce runs after commit in the background, detached from the request
// context and bounded by announceTimeout. Failures are logged, never returned.
func (s *versionService) announce(ctx context.Context, saved *types.VersionRecord) {
	a := types.Announcement{
		Type:        types.AnnouncementTypeVersionUpdate,
		Version:     saved.Version,
		ForceUpdate: false,
	}
	s.announcing.Add(1)
	go func() {
		defer s.announcing.Done()
		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), announceTimeout)
		defer cancel()
		if err := s.notifier.Announce(actx, a); err != nil {
			s.metrics.IncAnnouncement("error")
			s.log.Warn("Version announcement failed", "version", a.Version, "error", err)
			return
		}
		s.metrics.IncAnnouncement("sent")
	}()
}

func (s *versionService) CheckForUpdates(ctx context.Context, platform, currentVersion string) (*UpdateCheck, error) {
	ctx, span := s.tracer.Start(ctx, "VersionService.CheckForUpdates",
		trace.WithAttributes(attribute.String("platform", platform), attribute.String("current_version", currentVersion)))
	defer span.End()

	latest, err := s.currentVersion(ctx)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	needsUpdate := versioning.Compare(currentVersion, latest.Version) < 0
	msg := UpdateMessageLatest
	if needsUpdate {
		msg = UpdateMessageAvailable
	}
	downloadURL := s.resolver.Resolve(platform)
	// Unknown platforms share one label to keep metric cardinality bounded.
	platformLabel := "other"
	if downloadURL != "" {
		platformLabel = strings.ToLower(strings.TrimSpace(platform))
	}
	s.metrics.IncUpdateCheck(platformLabel, needsUpdate)
	span.SetAttributes(attribute.Bool("needs_update", needsUpdate))

	return &UpdateCheck{
		NeedsUpdate:   needsUpdate,
		LatestVersion: latest.Version,
		ForceUpdate:   latest.ForceUpdate,
		DownloadURL:   downloadURL,
		UpdateMessage: msg,
	}, nil
}

func (s *versionService) ListVersions(ctx context.Context, limit int) ([]*types.VersionRecord, error) {
	ctx, span := s.tracer.Start(ctx, "VersionService.ListVersions")
	defer span.End()

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	records, err := s.versions.ListRecent(dbctx.Context{Ctx: ctx}, limit)
	if err != nil {
		s.log.Error("Failed to list versions", "error", err)
		err = fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		recordSpanError(span, err)
		return nil, err
	}
	return records, nil
}

func mapPublishError(err error) error {
	switch {
	case aggregates.IsCode(err, aggregates.CodeConflict):
		return fmt.Errorf("%w: %v", ErrPublishConflict, err)
	case aggregates.IsCode(err, aggregates.CodeValidation):
		return fmt.Errorf("%w: %v", ErrInvalidVersionFormat, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
