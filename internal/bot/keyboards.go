package bot

import (
	"fmt"

	"github.com/cloudsupply/storebot/internal/command"
	"github.com/cloudsupply/storebot/internal/model"
	"github.com/cloudsupply/storebot/internal/telegram"
)

func btn(text string, cmd command.Command) telegram.InlineKeyboardButton {
	return telegram.InlineKeyboardButton{Text: text, CallbackData: cmd.CallbackData()}
}

func row(buttons ...telegram.InlineKeyboardButton) []telegram.InlineKeyboardButton {
	return buttons
}

func keyboard(rows ...[]telegram.InlineKeyboardButton) *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func (b *Bot) mainMenuKeyboard(admin bool) *telegram.InlineKeyboardMarkup {
	rows := [][]telegram.InlineKeyboardButton{
		row(btn("🛍 Catalog", command.ShowCatalog{})),
		row(btn("🛒 Cart", command.ShowCart{}), btn("📦 My orders", command.ShowOrders{})),
		row(btn("💬 Support", command.ShowSupport{})),
	}
	if admin {
		rows = append(rows, row(btn("⚙️ Admin panel", command.AdminPanel{})))
	}
	return keyboard(rows...)
}

func catalogKeyboard(models []model.ProductModel) *telegram.InlineKeyboardMarkup {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(models)+1)
	for _, m := range models {
		rows = append(rows, row(btn(m.Name, command.ShowModel{ModelID: m.ID})))
	}
	rows = append(rows, row(btn("⬅️ Back", command.ShowMainMenu{})))
	return keyboard(rows...)
}

func modelKeyboard(products []model.Product) *telegram.InlineKeyboardMarkup {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(products)+1)
	for _, p := range products {
		label := fmt.Sprintf("%s · %s", p.Flavor, money(p.Price))
		rows = append(rows, row(btn(label, command.ShowProduct{ProductID: p.ID})))
	}
	rows = append(rows, row(btn("⬅️ Back", command.ShowCatalog{})))
	return keyboard(rows...)
}

func cartKeyboard(entries []model.CartEntry, labels map[string]string) *telegram.InlineKeyboardMarkup {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(entries)+2)
	for _, e := range entries {
		label := labels[e.ID.String()]
		rows = append(rows, row(btn("❌ "+label, command.RemoveCartEntry{EntryID: e.ID})))
	}
	rows = append(rows,
		row(btn("✅ Checkout", command.Checkout{}), btn("🗑 Clear", command.ClearCart{})),
		row(btn("⬅️ Back", command.ShowMainMenu{})),
	)
	return keyboard(rows...)
}

func deliveryKeyboard() *telegram.InlineKeyboardMarkup {
	return keyboard(
		row(btn("🏃 Pickup", command.ChooseDelivery{Method: model.DeliveryPickup})),
		row(btn("🚚 Delivery", command.ChooseDelivery{Method: model.DeliveryCourier})),
		row(btn("⬅️ Back", command.ShowCart{})),
	)
}

func ordersKeyboard(orders []model.Order) *telegram.InlineKeyboardMarkup {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(orders)+1)
	for _, o := range orders {
		label := fmt.Sprintf("#%s · %s · %s", shortID(o.ID), orderStatusLabel(string(o.Status)), money(o.TotalPrice))
		rows = append(rows, row(btn(label, command.ShowOrder{OrderID: o.ID})))
	}
	rows = append(rows, row(btn("⬅️ Back", command.ShowMainMenu{})))
	return keyboard(rows...)
}

func backKeyboard(cmd command.Command) *telegram.InlineKeyboardMarkup {
	return keyboard(row(btn("⬅️ Back", cmd)))
}

func adminPanelKeyboard() *telegram.InlineKeyboardMarkup {
	return keyboard(
		row(btn("📦 Orders", command.AdminOrders{}), btn("🗂 Products", command.AdminModels{})),
		row(btn("👥 Users", command.AdminUsers{}), btn("📊 Stats", command.AdminStats{})),
		row(btn("💾 Backup", command.AdminBackup{}), btn("✏️ Welcome text", command.AdminEditWelcome{})),
		row(btn("🚧 Maintenance", command.AdminToggleMaintenance{})),
		row(btn("⬅️ Back", command.ShowMainMenu{})),
	)
}

func adminOrdersKeyboard(orders []model.Order) *telegram.InlineKeyboardMarkup {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(orders)+1)
	for _, o := range orders {
		label := fmt.Sprintf("#%s · %s · %s", shortID(o.ID), orderStatusLabel(string(o.Status)), money(o.TotalPrice))
		rows = append(rows, row(btn(label, command.AdminShowOrder{OrderID: o.ID})))
	}
	rows = append(rows, row(btn("⬅️ Back", command.AdminPanel{})))
	return keyboard(rows...)
}

func adminOrderKeyboard(o *model.Order) *telegram.InlineKeyboardMarkup {
	var statusRow []telegram.InlineKeyboardButton
	if o.Status != model.OrderStatusProcessing {
		statusRow = append(statusRow, btn("↩️ Processing", command.AdminSetStatus{OrderID: o.ID, Status: model.OrderStatusProcessing}))
	}
	if o.Status != model.OrderStatusCompleted {
		statusRow = append(statusRow, btn("✅ Complete", command.AdminSetStatus{OrderID: o.ID, Status: model.OrderStatusCompleted}))
	}
	return keyboard(
		statusRow,
		row(btn("🗑 Delete", command.AdminDeleteOrder{OrderID: o.ID})),
		row(btn("⬅️ Back", command.AdminOrders{})),
	)
}

func adminModelsKeyboard(models []model.ProductModel) *telegram.InlineKeyboardMarkup {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(models)+2)
	for _, m := range models {
		label := m.Name
		if !m.Available {
			label += " (hidden)"
		}
		rows = append(rows, row(btn(label, command.AdminShowModel{ModelID: m.ID})))
	}
	rows = append(rows,
		row(btn("➕ Add model", command.AdminAddModel{})),
		row(btn("⬅️ Back", command.AdminPanel{})),
	)
	return keyboard(rows...)
}

func adminModelKeyboard(m *model.ProductModel, products []model.Product) *telegram.InlineKeyboardMarkup {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(products)+4)
	for _, p := range products {
		label := fmt.Sprintf("%s · %s · %d pcs", p.Flavor, money(p.Price), p.Stock)
		if !p.Available {
			label += " (hidden)"
		}
		rows = append(rows, row(btn(label, command.AdminShowVariant{ProductID: p.ID})))
	}
	toggle := "🙈 Hide"
	if !m.Available {
		toggle = "👁 Show"
	}
	rows = append(rows,
		row(btn("➕ Add variant", command.AdminAddVariant{ModelID: m.ID})),
		row(btn("✏️ Description", command.AdminEditDescription{ModelID: m.ID}), btn("🖼 Photo", command.AdminSetPhoto{ModelID: m.ID})),
		row(btn(toggle, command.AdminToggleModel{ModelID: m.ID}), btn("🗑 Delete", command.AdminDeleteModel{ModelID: m.ID})),
		row(btn("⬅️ Back", command.AdminModels{})),
	)
	return keyboard(rows...)
}

func adminVariantKeyboard(p *model.Product) *telegram.InlineKeyboardMarkup {
	toggle := "🙈 Hide"
	if !p.Available {
		toggle = "👁 Show"
	}
	return keyboard(
		row(btn("💰 Price", command.AdminEditPrice{ProductID: p.ID}), btn("📦 Stock", command.AdminEditStock{ProductID: p.ID})),
		row(btn(toggle, command.AdminToggleVariant{ProductID: p.ID}), btn("🗑 Delete", command.AdminDeleteVariant{ProductID: p.ID})),
		row(btn("⬅️ Back", command.AdminShowModel{ModelID: p.ModelID})),
	)
}

func adminUsersKeyboard(users []model.User) *telegram.InlineKeyboardMarkup {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(users)+1)
	for _, u := range users {
		label := displayName(u.FirstName, u.Username)
		if u.Banned {
			label = "🚫 " + label
		}
		rows = append(rows, row(btn(label, command.AdminToggleBan{UserID: u.ID})))
	}
	rows = append(rows, row(btn("⬅️ Back", command.AdminPanel{})))
	return keyboard(rows...)
}

func confirmKeyboard(yes command.Command, back command.Command) *telegram.InlineKeyboardMarkup {
	return keyboard(
		row(btn("⚠️ Yes, delete", yes)),
		row(btn("⬅️ Cancel", back)),
	)
}
