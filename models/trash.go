package models

import "time"

// TrashKey identifies one backup copy of a record: the original record id
// plus the moment the backup was taken. It is a structured pair; the
// repository decides how to encode it on disk.
type TrashKey struct {
	ID         string
	BackupTime time.Time
}

// TrashEntry describes a backup available for restore.
type TrashEntry struct {
	Key   TrashKey
	Title string
}

// Expired reports whether the backup is older than the retention window.
func (k TrashKey) Expired(now time.Time, retention time.Duration) bool {
	return now.Sub(k.BackupTime) > retention
}
