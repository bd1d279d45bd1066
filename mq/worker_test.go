package mq

import (
	"encoding/json"
	"testing"

	"agriconnect/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDecodeEvent(t *testing.T) {
	o := models.Order{
		ID:          primitive.NewObjectID(),
		FarmerID:    primitive.NewObjectID(),
		CustomerID:  primitive.NewObjectID(),
		Status:      models.StatusConfirmed,
		TotalAmount: 42.5,
	}
	data, err := json.Marshal(models.NewOrderEvent("order.status", o))
	require.NoError(t, err)

	got, err := DecodeEvent(string(data))
	require.NoError(t, err)
	assert.Equal(t, o.ID.Hex(), got.OrderID)
	assert.Equal(t, o.FarmerID.Hex(), got.FarmerID)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	assert.Equal(t, 42.5, got.TotalAmount)

	_, err = DecodeEvent("{not json")
	assert.Error(t, err)
}
