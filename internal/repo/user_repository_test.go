package repo

import (
	"context"
	"testing"

	"PromptKeeper/internal/model"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	r := NewUserRepository(db)
	ctx := context.Background()

	u, err := r.CreateUser(ctx, &model.User{Login: "john", Password: "hash"})
	assert.NoError(t, err)
	assert.NotZero(t, u.ID)

	got, err := r.GetUserByLogin(ctx, "john")
	assert.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	// login is unique, a second insert must fail
	_, err = r.CreateUser(ctx, &model.User{Login: "john", Password: "x"})
	assert.Error(t, err)

	got, err = r.GetUserByLogin(ctx, "doesnotexist")
	assert.Nil(t, got)
	assert.Error(t, err)
	assert.Equal(t, gorm.ErrRecordNotFound, err)
}
