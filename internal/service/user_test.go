package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupSQLite(t)
	users := service.NewUserService(db, service.NewSubscriptionService(db))

	req := &types.CreateUserRequest{
		Email:     "Chef@Example.com",
		Username:  "chef",
		FirstName: "Ada",
		LastName:  "Cook",
		Password:  "s3cret-pass",
	}
	user, err := users.CreateUser(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "chef@example.com", user.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret-pass")))

	_, err = users.CreateUser(ctx, req)
	assert.Equal(t, service.KindValidation, service.KindOf(err))

	_, err = users.CreateUser(ctx, &types.CreateUserRequest{Email: "x@example.com", Username: "x"})
	assert.Equal(t, service.KindValidation, service.KindOf(err))
}

func TestGetUserSubscription(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupSQLite(t)
	subs := service.NewSubscriptionService(db)
	users := service.NewUserService(db, subs)
	reader := testhelpers.CreateUser(t, db, "reader")
	author := testhelpers.CreateUser(t, db, "author")

	view, err := users.GetUser(ctx, types.AsUser(reader.ID), author.ID)
	require.NoError(t, err)
	assert.False(t, view.IsSubscribed)

	_, err = subs.Follow(ctx, types.AsUser(reader.ID), author.ID, service.NoRecipesLimit)
	require.NoError(t, err)

	view, err = users.GetUser(ctx, types.AsUser(reader.ID), author.ID)
	require.NoError(t, err)
	assert.True(t, view.IsSubscribed)

	view, err = users.Me(ctx, types.AsUser(reader.ID))
	require.NoError(t, err)
	assert.Equal(t, reader.ID, view.User.ID)
	assert.False(t, view.IsSubscribed)

	_, err = users.Me(ctx, types.Anonymous)
	assert.Equal(t, service.KindUnauthenticated, service.KindOf(err))

	_, err = users.GetUser(ctx, types.Anonymous, 999)
	assert.Equal(t, service.KindNotFound, service.KindOf(err))
}
