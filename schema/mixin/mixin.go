// Package mixin provides record parts shared by many records.
//
// A mixin is a struct embedded without a tag; its columns are flattened
// into the record:
//
//	type Post struct {
//		mixin.ID
//		mixin.Time
//		mixin.SoftDelete
//		Title string `minorm:",maxlen=120"`
//	}
//
// Post has the columns id, created_at, updated_at, deleted, deleted_at
// and title.
package mixin

import (
	"time"

	"github.com/syssam/minorm/dialect/sql"
	"github.com/syssam/minorm/schema"
)

// ID adds a string primary key.
type ID struct {
	ID schema.Key `minorm:"id"`
}

// EnsureID assigns a new key if none is set and returns the key.
func (m *ID) EnsureID() schema.Key {
	if m.ID == "" {
		m.ID = schema.NewKey()
	}
	return m.ID
}

// IntID adds an integer primary key.
type IntID struct {
	ID schema.IntKey `minorm:"id"`
}

// Time adds creation and update timestamps.
type Time struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Touch records a write at now. CreatedAt is set on the first write only.
func (m *Time) Touch(now time.Time) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

// Deleted is the column of the SoftDelete flag.
const Deleted = sql.Field[bool]("deleted")

// SoftDelete marks records deleted instead of removing them.
type SoftDelete struct {
	Deleted   bool `minorm:",index"`
	DeletedAt *time.Time
}

// Delete marks the record deleted at now.
func (m *SoftDelete) Delete(now time.Time) {
	m.Deleted, m.DeletedAt = true, &now
}

// Restore clears the deletion mark.
func (m *SoftDelete) Restore() {
	m.Deleted, m.DeletedAt = false, nil
}

// NotDeleted matches records that are not soft deleted.
func NotDeleted() sql.Predicate { return Deleted.EQ(false) }

// TenantColumn is the column of the Tenant identifier.
const TenantColumn = sql.Field[string]("tenant_id")

// Tenant scopes records to a tenant.
type Tenant struct {
	TenantID string `minorm:",index"`
}

// TenantIs matches the records of tenant id.
func TenantIs(id string) sql.Predicate { return TenantColumn.EQ(id) }
