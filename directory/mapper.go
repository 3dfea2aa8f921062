package directory

import (
	"time"

	"github.com/google/uuid"

	"github.com/ILGurin/spp-course-work/entity"
)

// View is the directory record handed to callers.
type View struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	ParentID  *uuid.UUID `json:"parent_id"`
	Name      string     `json:"name"`
	Path      *string    `json:"path"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func toView(d entity.Directory) View {
	return View{
		ID:        d.ID,
		UserID:    d.UserID,
		ParentID:  d.ParentID,
		Name:      d.Name,
		Path:      d.Path,
		Active:    d.Active,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
