package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cloudsupply/storebot/internal/command"
	"github.com/cloudsupply/storebot/internal/model"
	"github.com/cloudsupply/storebot/internal/session"
	"github.com/cloudsupply/storebot/internal/telegram"
)

func (b *Bot) dispatchAdminCommand(ctx context.Context, user *model.User, chatID, messageID int64, cmd command.Command) (string, error) {
	switch c := cmd.(type) {
	case command.AdminPanel:
		return "", b.showAdminPanel(ctx, chatID, messageID)
	case command.AdminOrders:
		return "", b.adminListOrders(ctx, chatID, messageID)
	case command.AdminShowOrder:
		return "", b.adminShowOrder(ctx, chatID, messageID, c.OrderID)
	case command.AdminSetStatus:
		if err := b.orders.UpdateStatus(ctx, c.OrderID, c.Status); err != nil {
			return "", err
		}
		return "Status updated.", b.adminShowOrder(ctx, chatID, messageID, c.OrderID)
	case command.AdminDeleteOrder:
		return "", b.render(ctx, chatID, messageID,
			"Delete this order? Its units go back to stock.",
			confirmKeyboard(command.AdminConfirmDeleteOrder{OrderID: c.OrderID}, command.AdminShowOrder{OrderID: c.OrderID}))
	case command.AdminConfirmDeleteOrder:
		if err := b.orders.Delete(ctx, c.OrderID); err != nil {
			return "", err
		}
		return "Order deleted, stock restored.", b.adminListOrders(ctx, chatID, messageID)

	case command.AdminModels:
		return "", b.adminListModels(ctx, chatID, messageID)
	case command.AdminShowModel:
		return "", b.adminShowModel(ctx, chatID, messageID, c.ModelID)
	case command.AdminAddModel:
		if err := b.sessions.Set(ctx, user.TelegramID, &session.AwaitingModelName{}); err != nil {
			return "", err
		}
		return "", b.render(ctx, chatID, messageID, "Send the new model's name.", nil)
	case command.AdminEditDescription:
		if err := b.sessions.Set(ctx, user.TelegramID, &session.AwaitingDescriptionEdit{ModelID: c.ModelID}); err != nil {
			return "", err
		}
		return "", b.render(ctx, chatID, messageID, "Send the new description.", nil)
	case command.AdminSetPhoto:
		if err := b.sessions.Set(ctx, user.TelegramID, &session.AwaitingModelPhoto{ModelID: c.ModelID}); err != nil {
			return "", err
		}
		return "", b.render(ctx, chatID, messageID, "Send the photo.", nil)
	case command.AdminToggleModel:
		m, err := b.catalog.GetModel(ctx, c.ModelID)
		if err != nil {
			return "", err
		}
		m.Available = !m.Available
		if err := b.catalog.UpdateModel(ctx, m); err != nil {
			return "", err
		}
		return "Updated.", b.adminShowModel(ctx, chatID, messageID, c.ModelID)
	case command.AdminDeleteModel:
		return "", b.render(ctx, chatID, messageID,
			"Delete this model and every variant under it?",
			confirmKeyboard(command.AdminConfirmDeleteModel{ModelID: c.ModelID}, command.AdminShowModel{ModelID: c.ModelID}))
	case command.AdminConfirmDeleteModel:
		if err := b.catalog.DeleteModel(ctx, c.ModelID); err != nil {
			return "", err
		}
		if err := b.photos.DeleteModelPhoto(c.ModelID); err != nil {
			b.log.Warn("delete model photo", "model_id", c.ModelID, "error", err)
		}
		return "Model deleted.", b.adminListModels(ctx, chatID, messageID)

	case command.AdminAddVariant:
		if err := b.sessions.Set(ctx, user.TelegramID, &session.AwaitingVariantFlavor{ModelID: c.ModelID}); err != nil {
			return "", err
		}
		return "", b.render(ctx, chatID, messageID, "Send the variant's flavor name.", nil)
	case command.AdminShowVariant:
		return "", b.adminShowVariant(ctx, chatID, messageID, c.ProductID)
	case command.AdminEditPrice:
		if err := b.sessions.Set(ctx, user.TelegramID, &session.AwaitingPriceEdit{ProductID: c.ProductID}); err != nil {
			return "", err
		}
		return "", b.render(ctx, chatID, messageID, "Send the new price in euros, e.g. 19.90.", nil)
	case command.AdminEditStock:
		if err := b.sessions.Set(ctx, user.TelegramID, &session.AwaitingStockEdit{ProductID: c.ProductID}); err != nil {
			return "", err
		}
		return "", b.render(ctx, chatID, messageID, "Send the new stock count.", nil)
	case command.AdminToggleVariant:
		p, err := b.catalog.GetProduct(ctx, c.ProductID)
		if err != nil {
			return "", err
		}
		if err := b.catalog.SetAvailability(ctx, c.ProductID, !p.Available); err != nil {
			return "", err
		}
		return "Updated.", b.adminShowVariant(ctx, chatID, messageID, c.ProductID)
	case command.AdminDeleteVariant:
		p, err := b.catalog.GetProduct(ctx, c.ProductID)
		if err != nil {
			return "", err
		}
		if err := b.catalog.DeleteVariant(ctx, c.ProductID); err != nil {
			return "", err
		}
		return "Variant deleted.", b.adminShowModel(ctx, chatID, messageID, p.ModelID)

	case command.AdminUsers:
		return "", b.adminListUsers(ctx, chatID, messageID)
	case command.AdminToggleBan:
		target, err := b.users.Get(ctx, c.UserID)
		if err != nil {
			return "", err
		}
		if b.isAdmin(target.Username) {
			return "Admins cannot be banned.", nil
		}
		if err := b.users.SetBanned(ctx, c.UserID, !target.Banned); err != nil {
			return "", err
		}
		toast := "User banned."
		if target.Banned {
			toast = "User unbanned."
		}
		return toast, b.adminListUsers(ctx, chatID, messageID)

	case command.AdminStats:
		return "", b.adminShowStats(ctx, chatID, messageID)
	case command.AdminBackup:
		path, err := b.backup.Export(ctx)
		if err != nil {
			return "", err
		}
		if _, err := b.tg.SendDocument(ctx, chatID, path, "Store backup"); err != nil {
			return "", err
		}
		return "Backup sent.", nil
	case command.AdminEditWelcome:
		current, err := b.settings.WelcomeMessage(ctx)
		if err != nil {
			return "", err
		}
		if err := b.sessions.Set(ctx, user.TelegramID, &session.AwaitingWelcomeText{}); err != nil {
			return "", err
		}
		return "", b.render(ctx, chatID, messageID,
			"Current welcome text:\n\n"+current+"\n\nSend the new one.", nil)
	case command.AdminToggleMaintenance:
		on, err := b.settings.MaintenanceMode(ctx)
		if err != nil {
			return "", err
		}
		if err := b.settings.SetMaintenanceMode(ctx, !on); err != nil {
			return "", err
		}
		toast := "Maintenance mode ON. The shop is closed to buyers."
		if on {
			toast = "Maintenance mode off."
		}
		return toast, b.showAdminPanel(ctx, chatID, messageID)
	case command.AdminConfirmReset:
		path, err := b.backup.Reset(ctx)
		if err != nil {
			return "", err
		}
		return "", b.render(ctx, chatID, messageID,
			fmt.Sprintf("All orders and carts wiped. Backup saved to %s.", path),
			backKeyboard(command.AdminPanel{}))
	}
	return "", fmt.Errorf("unhandled command %T", cmd)
}

func (b *Bot) showAdminPanel(ctx context.Context, chatID, messageID int64) error {
	maintenance, err := b.settings.MaintenanceMode(ctx)
	if err != nil {
		return err
	}
	text := "Admin panel."
	if maintenance {
		text = "Admin panel.\n\n🚧 Maintenance mode is ON, buyers see a closed shop."
	}
	return b.render(ctx, chatID, messageID, text, adminPanelKeyboard())
}

func (b *Bot) adminListOrders(ctx context.Context, chatID, messageID int64) error {
	orders, err := b.orders.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return b.render(ctx, chatID, messageID, "No orders yet.", backKeyboard(command.AdminPanel{}))
	}
	return b.render(ctx, chatID, messageID, "All orders, newest first:", adminOrdersKeyboard(orders))
}

func (b *Bot) adminShowOrder(ctx context.Context, chatID, messageID int64, orderID uuid.UUID) error {
	order, err := b.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	text := b.formatOrder(ctx, order)
	if buyer, err := b.users.Get(ctx, order.UserID); err == nil {
		text += fmt.Sprintf("\n\nBuyer: %s", displayName(buyer.FirstName, buyer.Username))
		if buyer.Username != "" {
			text += " (@" + buyer.Username + ")"
		}
	}
	return b.render(ctx, chatID, messageID, text, adminOrderKeyboard(order))
}

func (b *Bot) adminListModels(ctx context.Context, chatID, messageID int64) error {
	models, err := b.catalog.ListModels(ctx, false)
	if err != nil {
		return err
	}
	return b.render(ctx, chatID, messageID, "Catalog models:", adminModelsKeyboard(models))
}

func (b *Bot) adminShowModel(ctx context.Context, chatID, messageID int64, modelID uuid.UUID) error {
	m, err := b.catalog.GetModel(ctx, modelID)
	if err != nil {
		return err
	}
	products, err := b.catalog.ListVariants(ctx, modelID, false)
	if err != nil {
		return err
	}
	var sb strings.Builder
	sb.WriteString(m.Name)
	if !m.Available {
		sb.WriteString(" (hidden)")
	}
	fmt.Fprintf(&sb, "\nCost basis: %s\n", money(m.CostBasis))
	if m.Description != "" {
		sb.WriteString("\n" + m.Description + "\n")
	}
	fmt.Fprintf(&sb, "\n%d variant(s).", len(products))
	return b.render(ctx, chatID, messageID, sb.String(), adminModelKeyboard(m, products))
}

func (b *Bot) adminShowVariant(ctx context.Context, chatID, messageID int64, productID uuid.UUID) error {
	p, err := b.catalog.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	visibility := "visible"
	if !p.Available {
		visibility = "hidden"
	}
	text := fmt.Sprintf("%s\nPrice: %s\nStock: %d\nVisibility: %s", p.Flavor, money(p.Price), p.Stock, visibility)
	return b.render(ctx, chatID, messageID, text, adminVariantKeyboard(p))
}

func (b *Bot) adminListUsers(ctx context.Context, chatID, messageID int64) error {
	users, err := b.users.List(ctx)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("%d user(s). Tap one to ban or unban.", len(users))
	return b.render(ctx, chatID, messageID, text, adminUsersKeyboard(users))
}

func (b *Bot) adminShowStats(ctx context.Context, chatID, messageID int64) error {
	stats, err := b.stats.Collect(ctx)
	if err != nil {
		return err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 Store stats\n\nOrders: %d\nUsers: %d\nRevenue: %s\nCost: %s\nProfit: %s\n",
		stats.OrderCount, stats.UserCount, money(stats.TotalRevenue), money(stats.TotalCost), money(stats.Profit))
	if len(stats.TopProducts) > 0 {
		sb.WriteString("\nTop sellers:\n")
		for i, top := range stats.TopProducts {
			fmt.Fprintf(&sb, "%d. %s · %d sold\n", i+1, top.Product.Flavor, top.UnitsSold)
		}
	}
	return b.render(ctx, chatID, messageID, sb.String(), backKeyboard(command.AdminPanel{}))
}

// repairOrders merges duplicate line items across all orders, recomputes
// totals, and coalesces every user's cart.
func (b *Bot) repairOrders(ctx context.Context, chatID int64) error {
	repaired, err := b.orders.RepairAll(ctx)
	if err != nil {
		return err
	}
	users, err := b.users.List(ctx)
	if err != nil {
		return err
	}
	cartsFixed := 0
	for _, u := range users {
		removed, err := b.cart.Repair(ctx, u.ID)
		if err != nil {
			return err
		}
		if removed > 0 {
			cartsFixed++
		}
	}
	b.sendText(ctx, chatID, fmt.Sprintf("Repair done: %d order(s) fixed, %d cart(s) deduplicated.", repaired, cartsFixed))
	return nil
}

// Admin conversation replies.

func (b *Bot) replyModelName(ctx context.Context, msg *telegram.Message) error {
	name := strings.TrimSpace(msg.Text)
	if name == "" {
		b.sendText(ctx, msg.Chat.ID, "Send the model name as text.")
		return nil
	}
	if err := b.sessions.Set(ctx, msg.From.ID, &session.AwaitingModelDescription{Name: name}); err != nil {
		return err
	}
	b.sendText(ctx, msg.Chat.ID, "Now send the description.")
	return nil
}

func (b *Bot) replyModelDescription(ctx context.Context, msg *telegram.Message, st *session.AwaitingModelDescription) error {
	description := strings.TrimSpace(msg.Text)
	if err := b.sessions.Set(ctx, msg.From.ID, &session.AwaitingModelCost{Name: st.Name, Description: description}); err != nil {
		return err
	}
	b.sendText(ctx, msg.Chat.ID, "Send the cost basis per unit in euros (what you pay, not the sale price).")
	return nil
}

func (b *Bot) replyModelCost(ctx context.Context, msg *telegram.Message, st *session.AwaitingModelCost) error {
	cost, err := decimal.NewFromString(strings.TrimSpace(msg.Text))
	if err != nil || cost.IsNegative() {
		b.sendText(ctx, msg.Chat.ID, "Send a non-negative number, e.g. 8.50.")
		return nil
	}
	m, err := b.catalog.CreateModel(ctx, st.Name, st.Description, cost)
	if err != nil {
		return err
	}
	if err := b.sessions.Set(ctx, msg.From.ID, &session.AwaitingModelPhoto{ModelID: m.ID}); err != nil {
		return err
	}
	b.sendText(ctx, msg.Chat.ID, fmt.Sprintf("Model %q created. Send a photo for it, or /skip.", m.Name))
	return nil
}

func (b *Bot) replyModelPhoto(ctx context.Context, msg *telegram.Message, st *session.AwaitingModelPhoto) error {
	if len(msg.Photo) == 0 {
		b.sendText(ctx, msg.Chat.ID, "Send an image, or /skip.")
		return nil
	}

	// Telegram sends sizes smallest first; the last is the original.
	fileID := msg.Photo[len(msg.Photo)-1].FileID
	file, err := b.tg.GetFile(ctx, fileID)
	if err != nil {
		return err
	}
	data, err := b.tg.Download(ctx, file.FilePath)
	if err != nil {
		return err
	}
	path, err := b.photos.SaveModelPhoto(st.ModelID, data)
	if err != nil {
		return err
	}
	if err := b.catalog.SetModelImage(ctx, st.ModelID, path); err != nil {
		return err
	}
	if err := b.sessions.Clear(ctx, msg.From.ID); err != nil {
		return err
	}
	b.sendTextWithKeyboard(ctx, msg.Chat.ID, "Photo saved.",
		backKeyboard(command.AdminShowModel{ModelID: st.ModelID}))
	return nil
}

func (b *Bot) replyVariantFlavor(ctx context.Context, msg *telegram.Message, st *session.AwaitingVariantFlavor) error {
	flavor := strings.TrimSpace(msg.Text)
	if flavor == "" {
		b.sendText(ctx, msg.Chat.ID, "Send the flavor name as text.")
		return nil
	}
	if err := b.sessions.Set(ctx, msg.From.ID, &session.AwaitingVariantPrice{ModelID: st.ModelID, Flavor: flavor}); err != nil {
		return err
	}
	b.sendText(ctx, msg.Chat.ID, "Send the sale price in euros.")
	return nil
}

func (b *Bot) replyVariantPrice(ctx context.Context, msg *telegram.Message, st *session.AwaitingVariantPrice) error {
	price, err := decimal.NewFromString(strings.TrimSpace(msg.Text))
	if err != nil || price.IsNegative() {
		b.sendText(ctx, msg.Chat.ID, "Send a non-negative number, e.g. 19.90.")
		return nil
	}
	if err := b.sessions.Set(ctx, msg.From.ID, &session.AwaitingVariantStock{ModelID: st.ModelID, Flavor: st.Flavor, Price: price}); err != nil {
		return err
	}
	b.sendText(ctx, msg.Chat.ID, "Send the initial stock count.")
	return nil
}

func (b *Bot) replyVariantStock(ctx context.Context, msg *telegram.Message, st *session.AwaitingVariantStock) error {
	stock, err := strconv.Atoi(strings.TrimSpace(msg.Text))
	if err != nil || stock < 0 {
		b.sendText(ctx, msg.Chat.ID, "Send a non-negative whole number.")
		return nil
	}
	p, err := b.catalog.CreateVariant(ctx, st.ModelID, st.Flavor, st.Price, stock)
	if err != nil {
		return err
	}
	if err := b.sessions.Clear(ctx, msg.From.ID); err != nil {
		return err
	}
	b.sendTextWithKeyboard(ctx, msg.Chat.ID,
		fmt.Sprintf("Variant %q added: %s, %d in stock.", p.Flavor, money(p.Price), p.Stock),
		backKeyboard(command.AdminShowModel{ModelID: st.ModelID}))
	return nil
}

func (b *Bot) replyPriceEdit(ctx context.Context, msg *telegram.Message, st *session.AwaitingPriceEdit) error {
	price, err := decimal.NewFromString(strings.TrimSpace(msg.Text))
	if err != nil || price.IsNegative() {
		b.sendText(ctx, msg.Chat.ID, "Send a non-negative number, e.g. 19.90.")
		return nil
	}
	if err := b.catalog.SetPrice(ctx, st.ProductID, price); err != nil {
		return err
	}
	if err := b.sessions.Clear(ctx, msg.From.ID); err != nil {
		return err
	}
	b.sendTextWithKeyboard(ctx, msg.Chat.ID, "Price updated.",
		backKeyboard(command.AdminShowVariant{ProductID: st.ProductID}))
	return nil
}

func (b *Bot) replyStockEdit(ctx context.Context, msg *telegram.Message, st *session.AwaitingStockEdit) error {
	stock, err := strconv.Atoi(strings.TrimSpace(msg.Text))
	if err != nil || stock < 0 {
		b.sendText(ctx, msg.Chat.ID, "Send a non-negative whole number.")
		return nil
	}
	if err := b.catalog.SetStock(ctx, st.ProductID, stock); err != nil {
		return err
	}
	if err := b.sessions.Clear(ctx, msg.From.ID); err != nil {
		return err
	}
	b.sendTextWithKeyboard(ctx, msg.Chat.ID, "Stock updated.",
		backKeyboard(command.AdminShowVariant{ProductID: st.ProductID}))
	return nil
}

func (b *Bot) replyDescriptionEdit(ctx context.Context, msg *telegram.Message, st *session.AwaitingDescriptionEdit) error {
	if err := b.catalog.SetModelDescription(ctx, st.ModelID, strings.TrimSpace(msg.Text)); err != nil {
		return err
	}
	if err := b.sessions.Clear(ctx, msg.From.ID); err != nil {
		return err
	}
	b.sendTextWithKeyboard(ctx, msg.Chat.ID, "Description updated.",
		backKeyboard(command.AdminShowModel{ModelID: st.ModelID}))
	return nil
}

func (b *Bot) replyWelcomeText(ctx context.Context, msg *telegram.Message) error {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		b.sendText(ctx, msg.Chat.ID, "Send the new welcome text as a message.")
		return nil
	}
	if err := b.settings.SetWelcomeMessage(ctx, text); err != nil {
		return err
	}
	if err := b.sessions.Clear(ctx, msg.From.ID); err != nil {
		return err
	}
	b.sendTextWithKeyboard(ctx, msg.Chat.ID, "Welcome text updated.", backKeyboard(command.AdminPanel{}))
	return nil
}
