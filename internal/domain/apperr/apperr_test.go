package apperr

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := errors.Wrap(Validation("quantity", "must be positive"), "add item")

	assert.True(t, IsValidation(err))
	assert.Equal(t, "add item: quantity: must be positive", err.Error())

	var v *ValidationError
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "quantity", v.Field)
}

func TestStorage(t *testing.T) {
	assert.NoError(t, Storage("insert order", nil))

	cause := errors.New("connection refused")
	err := Storage("insert order", cause)

	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "insert order", se.Op)
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsValidation(err))
}

func TestConsistencyError(t *testing.T) {
	err := &ConsistencyError{OrderID: 4, Detail: "subtotal 10 != items 12"}
	assert.Equal(t, "order 4: consistency violation: subtotal 10 != items 12", err.Error())
}
