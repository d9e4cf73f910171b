package command

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudsupply/storebot/internal/model"
)

func TestParse_RoundTrip(t *testing.T) {
	id := uuid.New()
	commands := []Command{
		ShowMainMenu{},
		ShowCatalog{},
		ShowModel{ModelID: id},
		ShowProduct{ProductID: id},
		ShowCart{},
		RemoveCartEntry{EntryID: id},
		ClearCart{},
		Checkout{},
		ChooseDelivery{Method: model.DeliveryCourier},
		ShowOrders{},
		ShowOrder{OrderID: id},
		ShowSupport{},
		AdminPanel{},
		AdminOrders{},
		AdminShowOrder{OrderID: id},
		AdminSetStatus{OrderID: id, Status: model.OrderStatusCompleted},
		AdminDeleteOrder{OrderID: id},
		AdminConfirmDeleteOrder{OrderID: id},
		AdminModels{},
		AdminShowModel{ModelID: id},
		AdminAddModel{},
		AdminEditDescription{ModelID: id},
		AdminSetPhoto{ModelID: id},
		AdminToggleModel{ModelID: id},
		AdminDeleteModel{ModelID: id},
		AdminConfirmDeleteModel{ModelID: id},
		AdminAddVariant{ModelID: id},
		AdminShowVariant{ProductID: id},
		AdminEditPrice{ProductID: id},
		AdminEditStock{ProductID: id},
		AdminToggleVariant{ProductID: id},
		AdminDeleteVariant{ProductID: id},
		AdminUsers{},
		AdminToggleBan{UserID: id},
		AdminStats{},
		AdminBackup{},
		AdminEditWelcome{},
		AdminToggleMaintenance{},
		AdminConfirmReset{},
	}

	for _, cmd := range commands {
		parsed, err := Parse(cmd.CallbackData())
		require.NoError(t, err, "data %q", cmd.CallbackData())
		assert.Equal(t, cmd, parsed, "data %q", cmd.CallbackData())
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []string{
		"",
		"teleport",
		"model:",
		"model:not-a-uuid",
		"delivery:drone",
		"admin_status:" + uuid.NewString(),
		"admin_status:" + uuid.NewString() + ":shipped",
		"admin_status:not-a-uuid:completed",
	}
	for _, data := range cases {
		_, err := Parse(data)
		assert.Error(t, err, "data %q", data)
	}
}

func TestParse_CallbackDataFitsTelegramLimit(t *testing.T) {
	// Telegram rejects callback payloads over 64 bytes.
	id := uuid.New()
	longest := AdminSetStatus{OrderID: id, Status: model.OrderStatusProcessing}
	assert.LessOrEqual(t, len(longest.CallbackData()), 64)
	assert.LessOrEqual(t, len(AdminConfirmDeleteOrder{OrderID: id}.CallbackData()), 64)
}
