// Package directory resolves user identities for the workflow engine: whether
// an assignee exists and who a user escalates to. The user records themselves
// are owned by an external directory; this package only consumes them.
//
// Import rules:
//   - CAN import: internal/errors, std lib
//   - MUST NOT import: internal/workflow, internal/cli
package directory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	tferrors "github.com/mrz1836/taskflow/internal/errors"
)

// Directory is the user directory collaborator.
type Directory interface {
	// Exists reports whether userID is a known user.
	Exists(ctx context.Context, userID string) (bool, error)

	// ManagerOf returns the user userID escalates to.
	// Returns ErrUserNotFound for unknown users and an empty id for users
	// without a manager.
	ManagerOf(ctx context.Context, userID string) (string, error)
}

// User is one directory entry.
type User struct {
	ID      string `mapstructure:"id" yaml:"id" json:"id"`
	Name    string `mapstructure:"name" yaml:"name" json:"name,omitempty"`
	Manager string `mapstructure:"manager" yaml:"manager" json:"manager,omitempty"`
}

// Static is an in-memory Directory loaded from configuration.
type Static struct {
	mu    sync.RWMutex
	users map[string]User
}

// Ensure Static implements Directory interface.
var _ Directory = (*Static)(nil)

// NewStatic builds a Static directory. Managers that are not themselves
// listed are added as users without a manager.
func NewStatic(users []User) *Static {
	s := &Static{users: make(map[string]User, len(users))}
	for _, u := range users {
		s.Put(u)
	}
	return s
}

// Put adds or replaces a user.
func (s *Static) Put(u User) {
	u.ID = strings.TrimSpace(u.ID)
	u.Manager = strings.TrimSpace(u.Manager)
	if u.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	if u.Manager != "" {
		if _, ok := s.users[u.Manager]; !ok {
			s.users[u.Manager] = User{ID: u.Manager}
		}
	}
}

// Exists implements Directory.
func (s *Static) Exists(ctx context.Context, userID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[userID]
	return ok, nil
}

// ManagerOf implements Directory.
func (s *Static) ManagerOf(ctx context.Context, userID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return "", fmt.Errorf("'%s': %w", userID, tferrors.ErrUserNotFound)
	}
	return u.Manager, nil
}

// Users returns every user sorted by id.
func (s *Static) Users() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
