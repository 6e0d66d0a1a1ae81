// Copyright 2026 The Star4ce Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package directory

import (
	"errors"
	"time"
)

// Domain errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrInvalidRole       = errors.New("invalid role")
)

// Role is the closed set of user roles. The role field is mutated only by
// the subscription state machine (Admin on billing activation) or the
// approval engine (Manager/Corporate on request resolution), never both for
// the same field concurrently.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleManager   Role = "manager"
	RoleCorporate Role = "corporate"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleCorporate:
		return true
	}
	return false
}

// User is an account in the directory. A Manager belongs to exactly one
// dealership once approved; a Corporate user sees zero or more dealerships
// through CorporateAssignment rows.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name,omitempty"`
	Role         Role      `json:"role"`
	DealershipID string    `json:"dealership_id,omitempty"`
	PasswordHash string    `json:"-"`
	AdminAccess  bool      `json:"admin_access"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CorporateAssignment grants a Corporate user visibility over one
// dealership.
type CorporateAssignment struct {
	UserID       string    `json:"user_id"`
	DealershipID string    `json:"dealership_id"`
	GrantedAt    time.Time `json:"granted_at"`
	GrantedBy    string    `json:"granted_by"`
}
