package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/permradar/permradar/internal/shared"
)

type mockUserRepo struct {
	users map[int64]User

	lastCreateAuthRole string
	lastCreateRole     string
	lastCreateHash     string
	lastActor          string
	nextID             int64

	deleted []int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: map[int64]User{}, nextID: 1}
}

func (m *mockUserRepo) ListUsers(ctx context.Context) ([]User, error) {
	users := []User{}
	for _, user := range m.users {
		users = append(users, user)
	}
	return users, nil
}

func (m *mockUserRepo) CreateUser(ctx context.Context, name, email, passwordHash, authRole, role, actor string) (int64, error) {
	m.lastCreateAuthRole = authRole
	m.lastCreateRole = role
	m.lastCreateHash = passwordHash
	m.lastActor = actor
	id := m.nextID
	m.nextID++
	m.users[id] = User{ID: id, Name: name, Email: email, Role: role}
	return id, nil
}

func (m *mockUserRepo) DeleteUser(ctx context.Context, userID int64, actor string) error {
	if _, ok := m.users[userID]; !ok {
		return shared.ErrNotFound
	}
	delete(m.users, userID)
	m.deleted = append(m.deleted, userID)
	m.lastActor = actor
	return nil
}

func TestCreateUserHashesPassword(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewService(repo)

	actor := shared.Identity{ID: 1, Email: "alice@permradar.local", Role: "admin"}
	_, err := svc.CreateUser(context.Background(), "Dave", "dave@permradar.local", "hunter2hunter2", "editor", actor)
	require.NoError(t, err)

	assert.NotEqual(t, "hunter2hunter2", repo.lastCreateHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.lastCreateHash), []byte("hunter2hunter2")))
	assert.Equal(t, "alice@permradar.local", repo.lastActor)
}

func TestCreateUserAuthRoleFollowsGraphRole(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewService(repo)
	actor := shared.Identity{ID: 1, Email: "alice@permradar.local", Role: "admin"}

	_, err := svc.CreateUser(context.Background(), "Eve", "eve@permradar.local", "password123", "admin", actor)
	require.NoError(t, err)
	assert.Equal(t, "admin", repo.lastCreateAuthRole)

	_, err = svc.CreateUser(context.Background(), "Frank", "frank@permradar.local", "password123", "editor", actor)
	require.NoError(t, err)
	assert.Equal(t, "viewer", repo.lastCreateAuthRole, "non-admin graph roles authenticate as viewers")
}

func TestDeleteUserSelfDeleteRejected(t *testing.T) {
	repo := newMockUserRepo()
	repo.users[1] = User{ID: 1, Name: "Alice"}
	svc := NewService(repo)

	actor := shared.Identity{ID: 1, Email: "alice@permradar.local", Role: "admin"}
	err := svc.DeleteUser(context.Background(), 1, actor)
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Empty(t, repo.deleted)
}

func TestDeleteUserRemovesOtherAccount(t *testing.T) {
	repo := newMockUserRepo()
	repo.users[2] = User{ID: 2, Name: "Bob"}
	svc := NewService(repo)

	actor := shared.Identity{ID: 1, Email: "alice@permradar.local", Role: "admin"}
	err := svc.DeleteUser(context.Background(), 2, actor)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, repo.deleted)
}
