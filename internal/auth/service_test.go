package auth

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servora-system/internal/apperr"
	"servora-system/internal/database/dbtest"
	"servora-system/internal/database/models"
	sysutils "servora-system/internal/utils"
)

func setup(t *testing.T) (*Service, *sysutils.TokenIssuer) {
	db := dbtest.New(t)
	logger, _ := test.NewNullLogger()
	tokens := sysutils.NewTokenIssuer("test-secret", time.Hour)
	return NewService(db, tokens, logger), tokens
}

var signup = RegisterInput{
	Name:           "Chef Ada",
	Email:          "Ada@Example.com ",
	Password:       "correct horse",
	RestaurantName: "Ada's Kitchen",
}

func TestRegisterCreatesTenant(t *testing.T) {
	svc, tokens := setup(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, signup)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", sess.User.Email)
	assert.Equal(t, models.RoleAdmin, sess.User.Role)
	assert.NotEqual(t, "correct horse", sess.User.PasswordHash)

	claims, err := tokens.ParseToken(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.RestaurantID, claims.RestaurantId)

	var cats int64
	svc.db.Model(&models.MenuCategory{}).Where("restaurant_id = ?", sess.User.RestaurantID).Count(&cats)
	assert.Equal(t, int64(4), cats)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, signup)
	require.NoError(t, err)

	_, err = svc.Register(ctx, signup)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	var restaurants int64
	svc.db.Model(&models.Restaurant{}).Count(&restaurants)
	assert.Equal(t, int64(1), restaurants)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	bad := signup
	bad.Email = "nope"
	_, err := svc.Register(ctx, bad)
	assert.True(t, apperr.IsInvalid(err))

	bad = signup
	bad.Password = "short"
	_, err = svc.Register(ctx, bad)
	assert.True(t, apperr.IsInvalid(err))
}

func TestRegisterRejectsDisplayNameAddress(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	bad := signup
	bad.Email = "Bob <bob@example.com>"
	_, err := svc.Register(ctx, bad)
	require.Error(t, err)
	assert.True(t, apperr.IsInvalid(err))

	var users int64
	svc.db.Model(&models.User{}).Count(&users)
	assert.Zero(t, users)

	_, err = svc.Login(ctx, LoginInput{Email: "Bob <bob@example.com>", Password: "correct horse"})
	assert.True(t, apperr.IsInvalid(err))
}

func TestLogin(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	reg, err := svc.Register(ctx, signup)
	require.NoError(t, err)

	sess, err := svc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, sess.User.ID)
	require.NotNil(t, sess.User.Restaurant)
	assert.Equal(t, "Ada's Kitchen", sess.User.Restaurant.Name)

	_, err = svc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "wrong horse"})
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = svc.Login(ctx, LoginInput{Email: "who@example.com", Password: "correct horse"})
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	me, err := svc.Me(ctx, reg.User.RestaurantID, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Chef Ada", me.Name)
}
