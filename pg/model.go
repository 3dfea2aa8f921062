package pg

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// BaseModel carries the created/updated timestamps shared by all tables.
type BaseModel struct {
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

var _ bun.BeforeAppendModelHook = (*BaseModel)(nil)

// BeforeAppendModel fills timestamps the caller left unset.
// Values set explicitly (e.g. from an injected clock) are kept.
func (m *BaseModel) BeforeAppendModel(_ context.Context, query bun.Query) error {
	now := time.Now()

	switch query.(type) {
	case *bun.InsertQuery:
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		if m.UpdatedAt.IsZero() {
			m.UpdatedAt = m.CreatedAt
		}
	case *bun.UpdateQuery:
		if m.UpdatedAt.IsZero() {
			m.UpdatedAt = now
		}
	}
	return nil
}

// Touch sets UpdatedAt to t, and CreatedAt too when it is still zero.
func (m *BaseModel) Touch(t time.Time) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = t
	}
	m.UpdatedAt = t
}
