package dto

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/lostfound-backend/internal/domain/entity"
)

func TestToItemResponse_NeverExposesPin(t *testing.T) {
	item, err := entity.NewItem(entity.Principal{ID: uuid.New(), DisplayName: "Автор"}, "Кошелёк", "found", "Парк", "")
	require.NoError(t, err)
	require.NoError(t, item.MintPin(uuid.New(), "4821"))

	resp := ToItemResponse(item)
	assert.True(t, resp.HasPendingClaim)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	for key, value := range fields {
		assert.False(t, strings.Contains(key, "pin"), "поле %q", key)
		assert.NotEqual(t, "4821", value)
	}
}
