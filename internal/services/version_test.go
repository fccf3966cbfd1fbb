package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/appversion-backend/internal/data/aggregates"
	"github.com/yungbote/appversion-backend/internal/data/repos"
	"github.com/yungbote/appversion-backend/internal/data/repos/testutil"
	types "github.com/yungbote/appversion-backend/internal/domain"
	"github.com/yungbote/appversion-backend/internal/platform/dbctx"
	"github.com/yungbote/appversion-backend/internal/versioning"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls []types.Announcement
	err   error
}

func (n *recordingNotifier) Announce(_ context.Context, a types.Announcement) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, a)
	return n.err
}

// blockingNotifier holds every announcement until release is closed.
type blockingNotifier struct {
	release chan struct{}
	done    chan error
}

func (n *blockingNotifier) Announce(ctx context.Context, _ types.Announcement) error {
	<-n.release
	n.done <- ctx.Err()
	return nil
}

type brokenRepo struct {
	repos.VersionRecordRepo
}

func (brokenRepo) GetActive(dbctx.Context) (*types.VersionRecord, error) {
	return nil, errors.New("connection refused")
}

func (brokenRepo) ListRecent(dbctx.Context, int) ([]*types.VersionRecord, error) {
	return nil, errors.New("connection refused")
}

type versionFixture struct {
	svc      VersionService
	repo     repos.VersionRecordRepo
	notifier *recordingNotifier
	now      time.Time
}

func newVersionFixture(t *testing.T) *versionFixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := repos.NewVersionRecordRepo(db, log)
	notifier := &recordingNotifier{}
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewVersionService(VersionServiceDeps{
		Versions: repo,
		Releases: aggregates.NewVersionReleaseAggregate(aggregates.VersionReleaseDeps{
			Base:     aggregates.BaseDeps{DB: db, Log: log},
			Versions: repo,
		}),
		Resolver: versioning.NewDownloadResolver(nil),
		Notifier: notifier,
		Log:      log,
		Now:      func() time.Time { return now },
	})
	return &versionFixture{svc: svc, repo: repo, notifier: notifier, now: now}
}

// announced waits for in-flight announcements and returns what the notifier saw.
func (f *versionFixture) announced() []types.Announcement {
	f.svc.(*versionService).announcing.Wait()
	f.notifier.mu.Lock()
	defer f.notifier.mu.Unlock()
	return append([]types.Announcement(nil), f.notifier.calls...)
}

func TestGetCurrentVersionDefaultsWhenEmpty(t *testing.T) {
	f := newVersionFixture(t)
	cur, err := f.svc.GetCurrentVersion(context.Background())
	if err != nil {
		t.Fatalf("GetCurrentVersion: %v", err)
	}
	if cur.Version != "1.0.0" || cur.ForceUpdate || !cur.Timestamp.Equal(f.now) {
		t.Fatalf("GetCurrentVersion: got=%+v", cur)
	}
}

func TestUpdateVersionThenRead(t *testing.T) {
	f := newVersionFixture(t)
	ctx := context.Background()

	first, err := f.svc.UpdateVersion(ctx, "1.1.0", "2024-01-01T00:00:00Z")
	if err != nil {
		t.Fatalf("UpdateVersion 1.1.0: %v", err)
	}
	if !first.IsActive || first.ForceUpdate || first.CreatedAt.IsZero() {
		t.Fatalf("UpdateVersion 1.1.0: got=%+v", first)
	}
	if !first.Timestamp.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("timestamp: got=%s", first.Timestamp)
	}

	second, err := f.svc.UpdateVersion(ctx, "1.2.0", "2024-02-01")
	if err != nil {
		t.Fatalf("UpdateVersion 1.2.0: %v", err)
	}

	cur, err := f.svc.GetCurrentVersion(ctx)
	if err != nil {
		t.Fatalf("GetCurrentVersion: %v", err)
	}
	if cur.Version != "1.2.0" {
		t.Fatalf("current version: got=%s want=1.2.0", cur.Version)
	}
	if d := cur.Timestamp.Sub(second.CreatedAt); d > time.Millisecond || d < -time.Millisecond {
		t.Fatalf("current timestamp should be the record's createdAt: got=%s want=%s", cur.Timestamp, second.CreatedAt)
	}

	history, err := f.svc.ListVersions(ctx, 0)
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length: got=%d want=2", len(history))
	}
	active := 0
	for _, r := range history {
		if r.IsActive {
			active++
			if r.ID != second.ID {
				t.Fatalf("active record: got=%s want=%s", r.ID, second.ID)
			}
		}
	}
	if active != 1 {
		t.Fatalf("active records: got=%d want=1", active)
	}

	calls := f.announced()
	if len(calls) != 2 {
		t.Fatalf("announcements: got=%d want=2", len(calls))
	}
	last := calls[1]
	if last.Type != "VERSION_UPDATE" || last.Version != "1.2.0" || last.ForceUpdate {
		t.Fatalf("announcement: got=%+v", last)
	}
}

func TestUpdateVersionRejectsInvalidInputWithoutSideEffects(t *testing.T) {
	f := newVersionFixture(t)
	ctx := context.Background()

	if _, err := f.svc.UpdateVersion(ctx, "1.0.0", "2024-01-01"); err != nil {
		t.Fatalf("UpdateVersion: %v", err)
	}

	if _, err := f.svc.UpdateVersion(ctx, "2.0.0", "yesterday"); !errors.Is(err, ErrInvalidTimestamp) {
		t.Fatalf("bad timestamp: got=%v want ErrInvalidTimestamp", err)
	}
	if _, err := f.svc.UpdateVersion(ctx, "2.0.beta", "2024-01-02"); !errors.Is(err, ErrInvalidVersionFormat) {
		t.Fatalf("bad version: got=%v want ErrInvalidVersionFormat", err)
	}

	cur, err := f.svc.GetCurrentVersion(ctx)
	if err != nil {
		t.Fatalf("GetCurrentVersion: %v", err)
	}
	if cur.Version != "1.0.0" {
		t.Fatalf("current version changed after rejected publish: got=%s", cur.Version)
	}
	if calls := f.announced(); len(calls) != 1 {
		t.Fatalf("announcements: got=%d want=1", len(calls))
	}
}

func TestUpdateVersionSurvivesNotifierFailure(t *testing.T) {
	f := newVersionFixture(t)
	f.notifier.err = errors.New("hub down")

	saved, err := f.svc.UpdateVersion(context.Background(), "3.0.0", "2024-01-15T10:30:00.000Z")
	if err != nil {
		t.Fatalf("UpdateVersion: %v", err)
	}
	if saved.Version != "3.0.0" {
		t.Fatalf("saved version: got=%s", saved.Version)
	}
	if calls := f.announced(); len(calls) != 1 {
		t.Fatalf("announcements: got=%d want=1", len(calls))
	}
}

func TestUpdateVersionDoesNotWaitForAnnouncement(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := repos.NewVersionRecordRepo(db, log)
	notifier := &blockingNotifier{release: make(chan struct{}), done: make(chan error, 1)}
	svc := NewVersionService(VersionServiceDeps{
		Versions: repo,
		Releases: aggregates.NewVersionReleaseAggregate(aggregates.VersionReleaseDeps{
			Base:     aggregates.BaseDeps{DB: db, Log: log},
			Versions: repo,
		}),
		Notifier: notifier,
		Log:      log,
	})

	ctx, cancel := context.WithCancel(context.Background())
	returned := make(chan error, 1)
	go func() {
		_, err := svc.UpdateVersion(ctx, "5.0.0", "2024-03-01")
		returned <- err
	}()
	select {
	case err := <-returned:
		if err != nil {
			t.Fatalf("UpdateVersion: %v", err)
		}
	case <-time.After(5 * time.Second):
		close(notifier.release)
		t.Fatalf("UpdateVersion blocked on the notifier")
	}

	// The request is over; the announcement must still go out.
	cancel()
	close(notifier.release)
	select {
	case err := <-notifier.done:
		if err != nil {
			t.Fatalf("announcement context: got=%v want=<nil>", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("announcement never ran")
	}
	svc.(*versionService).announcing.Wait()
}

func TestCheckForUpdates(t *testing.T) {
	f := newVersionFixture(t)
	ctx := context.Background()
	if _, err := f.svc.UpdateVersion(ctx, "1.2.0", "2024-01-01"); err != nil {
		t.Fatalf("UpdateVersion: %v", err)
	}

	cases := []struct {
		platform, current string
		needsUpdate       bool
		url, msg          string
	}{
		{"ios", "1.1.0", true, versioning.DefaultIOSURL, UpdateMessageAvailable},
		{"Android", "1.2", false, versioning.DefaultAndroidURL, UpdateMessageLatest},
		{"windows", "1.2.0", false, "", UpdateMessageLatest},
		{"ios", "1.10.0", false, versioning.DefaultIOSURL, UpdateMessageLatest},
		{"ios", "garbage", true, versioning.DefaultIOSURL, UpdateMessageAvailable},
	}
	for _, tc := range cases {
		got, err := f.svc.CheckForUpdates(ctx, tc.platform, tc.current)
		if err != nil {
			t.Fatalf("CheckForUpdates(%s,%s): %v", tc.platform, tc.current, err)
		}
		if got.NeedsUpdate != tc.needsUpdate || got.LatestVersion != "1.2.0" || got.ForceUpdate ||
			got.DownloadURL != tc.url || got.UpdateMessage != tc.msg {
			t.Fatalf("CheckForUpdates(%s,%s): got=%+v", tc.platform, tc.current, got)
		}
	}
}

func TestCheckForUpdatesAgainstEmptyStore(t *testing.T) {
	f := newVersionFixture(t)
	got, err := f.svc.CheckForUpdates(context.Background(), "ios", "0.9.0")
	if err != nil {
		t.Fatalf("CheckForUpdates: %v", err)
	}
	if !got.NeedsUpdate || got.LatestVersion != "1.0.0" {
		t.Fatalf("CheckForUpdates: got=%+v", got)
	}
}

func TestStoreFailureSurfacesAsUnavailable(t *testing.T) {
	svc := NewVersionService(VersionServiceDeps{Versions: brokenRepo{}})
	ctx := context.Background()
	if _, err := svc.GetCurrentVersion(ctx); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("GetCurrentVersion: got=%v want ErrStoreUnavailable", err)
	}
	if _, err := svc.CheckForUpdates(ctx, "ios", "1.0.0"); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("CheckForUpdates: got=%v want ErrStoreUnavailable", err)
	}
	if _, err := svc.ListVersions(ctx, 5); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("ListVersions: got=%v want ErrStoreUnavailable", err)
	}
}

func TestMapPublishError(t *testing.T) {
	conflict := aggregates.MapError("op", errors.New("UNIQUE constraint failed: version_record.is_active"))
	if err := mapPublishError(conflict); !errors.Is(err, ErrPublishConflict) {
		t.Fatalf("conflict: got=%v want ErrPublishConflict", err)
	}
	internal := aggregates.MapError("op", errors.New("disk full"))
	if err := mapPublishError(internal); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("internal: got=%v want ErrStoreUnavailable", err)
	}
}
