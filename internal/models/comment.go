// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is a reader response to a post. Registered users comment under
// their account; guests leave a display name instead, so AuthorID is
// nullable and DisplayName carries whichever applies.
type Comment struct {
	ID          uuid.UUID  `json:"id"`
	PostID      uuid.UUID  `json:"post_id"`
	AuthorID    *uuid.UUID `json:"author_id,omitempty"`
	DisplayName string     `json:"author_name"`
	Body        string     `json:"body"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// EditableBy reports whether the given user may change or remove this
// comment. Guest comments have no author and are admin-managed only.
func (c *Comment) EditableBy(userID uuid.UUID, role Role) bool {
	if role == RoleAdmin {
		return true
	}
	return c.AuthorID != nil && *c.AuthorID == userID
}
