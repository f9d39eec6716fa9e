package services

import (
	"context"
	"testing"

	"github.com/ecostore/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Promote(t *testing.T) {
	users := newMemoryUsers()
	ctx := context.Background()
	created, err := users.Create(ctx, types.User{Name: "Ann", Email: "ann@x.com", Role: types.RoleUser})
	require.NoError(t, err)

	svc := NewUserService(users)
	promoted, err := svc.Promote(ctx, " ann@x.com ")
	require.NoError(t, err)
	assert.Equal(t, created.ID, promoted.ID)
	assert.Equal(t, types.RoleAdmin, promoted.Role)

	again, err := svc.Promote(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, types.RoleAdmin, again.Role)

	_, err = svc.Promote(ctx, "ghost@x.com")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.SetRole(ctx, "ann@x.com", types.Role("owner"))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserService_DeleteByEmail(t *testing.T) {
	users := newMemoryUsers()
	ctx := context.Background()
	_, err := users.Create(ctx, types.User{Name: "Ann", Email: "ann@x.com", Role: types.RoleUser})
	require.NoError(t, err)

	svc := NewUserService(users)
	require.NoError(t, svc.DeleteByEmail(ctx, "ann@x.com"))
	assert.Zero(t, users.countEmail("ann@x.com"))

	assert.ErrorIs(t, svc.DeleteByEmail(ctx, "ann@x.com"), ErrUserNotFound)
	assert.ErrorIs(t, svc.DeleteByEmail(ctx, ""), ErrValidation)
}

func TestUserService_ListWrapsErrors(t *testing.T) {
	users := newMemoryUsers()
	users.err = errBoom

	_, err := NewUserService(users).List(context.Background())
	assert.ErrorIs(t, err, errBoom)
}
