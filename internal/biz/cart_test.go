package biz

import (
	"testing"

	"xinyuan_tech/order-service/internal/errors"

	"github.com/stretchr/testify/assert"
)

func TestValidateCartSnapshot(t *testing.T) {
	cart := []*CartLine{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
	}

	t.Run("Matching snapshot passes", func(t *testing.T) {
		err := validateCartSnapshot(cart, []SubmittedItem{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		})
		assert.NoError(t, err)
	})

	t.Run("Subset of the cart passes", func(t *testing.T) {
		err := validateCartSnapshot(cart, []SubmittedItem{
			{ProductID: 2, Quantity: 1},
		})
		assert.NoError(t, err)
	})

	t.Run("Empty cart fails", func(t *testing.T) {
		err := validateCartSnapshot(nil, []SubmittedItem{{ProductID: 1, Quantity: 2}})
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCartState))
	})

	t.Run("Empty submission fails", func(t *testing.T) {
		err := validateCartSnapshot(cart, nil)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCartState))
	})

	t.Run("Zero or negative quantity fails", func(t *testing.T) {
		err := validateCartSnapshot(cart, []SubmittedItem{{ProductID: 1, Quantity: 0}})
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCartState))

		err = validateCartSnapshot(cart, []SubmittedItem{{ProductID: 1, Quantity: -3}})
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCartState))
	})

	t.Run("Product not in cart fails", func(t *testing.T) {
		err := validateCartSnapshot(cart, []SubmittedItem{{ProductID: 99, Quantity: 1}})
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCartState))
	})

	t.Run("Quantity mismatch fails", func(t *testing.T) {
		err := validateCartSnapshot(cart, []SubmittedItem{{ProductID: 1, Quantity: 3}})
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCartState))
	})
}
