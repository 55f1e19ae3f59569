package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestFromDB(t *testing.T) {
	assert.NoError(t, FromDB(nil, "order"))

	err := FromDB(gorm.ErrRecordNotFound, "order")
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "order not found", Message(err))

	err = FromDB(errors.New("connection reset"), "order")
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "database error", Message(err))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("create order: %w", Invalid("order must contain at least one item"))
	assert.True(t, IsInvalid(err))
	assert.Equal(t, "order must contain at least one item", Message(err))

	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, "internal error", Message(errors.New("boom")))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "CONFLICT", KindOf(Conflict("email %s taken", "a@b.c")).String())
	assert.Equal(t, "UNAUTHORIZED", KindOf(Unauthorized("invalid email or password")).String())
	assert.Equal(t, "NOT_FOUND", KindNotFound.String())
}

func TestGRPCRoundTrip(t *testing.T) {
	for _, err := range []error{
		NotFound("inventory item not found"),
		Invalid("insufficient stock"),
		Conflict("email already registered"),
		Unauthorized("invalid token"),
	} {
		back := FromGRPC(GRPCStatus(err))
		assert.Equal(t, KindOf(err), KindOf(back))
		assert.Equal(t, Message(err), Message(back))
	}

	back := FromGRPC(GRPCStatus(errors.New("disk on fire")))
	assert.Equal(t, KindInternal, KindOf(back))
	assert.Nil(t, GRPCStatus(nil))
}
