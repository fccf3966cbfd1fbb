package domain

import "github.com/yungbote/appversion-backend/internal/domain/version"

type VersionRecord = version.VersionRecord
type Announcement = version.Announcement

const (
	DefaultVersion                = version.DefaultVersion
	AnnouncementTypeVersionUpdate = version.AnnouncementTypeVersionUpdate
)
