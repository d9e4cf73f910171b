package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cloudsupply/storebot/internal/command"
	"github.com/cloudsupply/storebot/internal/model"
	"github.com/cloudsupply/storebot/internal/service"
	"github.com/cloudsupply/storebot/internal/session"
	"github.com/cloudsupply/storebot/internal/telegram"
)

func (b *Bot) showWelcome(ctx context.Context, user *model.User, admin bool, chatID int64) error {
	greeting, err := b.settings.WelcomeMessage(ctx)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("Hi %s!\n\n%s", displayName(user.FirstName, user.Username), greeting)
	markup := b.mainMenuKeyboard(admin)

	if path, ok := b.photos.WelcomePath(); ok {
		if _, err := b.tg.SendPhoto(ctx, chatID, path, text, markup); err == nil {
			return nil
		}
		// Broken image on disk must not block /start.
	}
	b.sendTextWithKeyboard(ctx, chatID, text, markup)
	return nil
}

func (b *Bot) showMainMenu(ctx context.Context, user *model.User, admin bool, chatID int64) error {
	b.sendTextWithKeyboard(ctx, chatID, "What would you like to do?", b.mainMenuKeyboard(admin))
	return nil
}

func (b *Bot) editMainMenu(ctx context.Context, user *model.User, admin bool, chatID, messageID int64) error {
	return b.render(ctx, chatID, messageID, "What would you like to do?", b.mainMenuKeyboard(admin))
}

func (b *Bot) showCatalog(ctx context.Context, chatID, messageID int64) error {
	models, err := b.catalog.ListModels(ctx, true)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		return b.render(ctx, chatID, messageID, "The catalog is empty right now. Check back soon!",
			backKeyboard(command.ShowMainMenu{}))
	}
	return b.render(ctx, chatID, messageID, "Choose a model:", catalogKeyboard(models))
}

func (b *Bot) showModel(ctx context.Context, chatID, messageID int64, modelID uuid.UUID) error {
	m, err := b.catalog.GetModel(ctx, modelID)
	if err != nil {
		return err
	}
	products, err := b.catalog.ListVariants(ctx, modelID, true)
	if err != nil {
		return err
	}

	text := m.Name
	if m.Description != "" {
		text += "\n\n" + m.Description
	}
	if len(products) == 0 {
		text += "\n\nAll flavors are sold out at the moment."
	}
	markup := modelKeyboard(products)

	if m.ImagePath != "" {
		if _, err := b.tg.SendPhoto(ctx, chatID, m.ImagePath, text, markup); err == nil {
			if messageID != 0 {
				_ = b.tg.DeleteMessage(ctx, chatID, messageID)
			}
			return nil
		}
	}
	return b.render(ctx, chatID, messageID, text, markup)
}

// usedUnits counts units the user already holds in cart plus active order.
func (b *Bot) usedUnits(ctx context.Context, userID uuid.UUID) (int, error) {
	inCart, err := b.cart.TotalUnits(ctx, userID)
	if err != nil {
		return 0, err
	}
	inOrder, err := b.orders.ActiveUnits(ctx, userID)
	if err != nil {
		return 0, err
	}
	return inCart + inOrder, nil
}

// promptQuantity starts the add-to-cart conversation for a product. The
// allowed maximum is the lesser of stock on hand and quota headroom.
func (b *Bot) promptQuantity(ctx context.Context, user *model.User, chatID int64, productID uuid.UUID) (string, error) {
	product, err := b.catalog.GetProduct(ctx, productID)
	if err != nil {
		return "", err
	}
	if !product.Available || product.Stock <= 0 {
		return "Sold out.", nil
	}

	used, err := b.usedUnits(ctx, user.ID)
	if err != nil {
		return "", err
	}
	headroom := b.unitQuota - used
	if headroom <= 0 {
		return fmt.Sprintf("You already hold the maximum of %d units.", b.unitQuota), nil
	}
	maxAllowed := headroom
	if product.Stock < maxAllowed {
		maxAllowed = product.Stock
	}

	if err := b.sessions.Set(ctx, user.TelegramID, &session.AwaitingQuantity{
		ProductID:  productID,
		MaxAllowed: maxAllowed,
		Stock:      product.Stock,
	}); err != nil {
		return "", err
	}

	text := fmt.Sprintf("%s · %s\n%d in stock.\n\nHow many would you like? (1-%d)",
		product.Flavor, money(product.Price), product.Stock, maxAllowed)
	b.sendText(ctx, chatID, text)
	return "", nil
}

func (b *Bot) replyQuantity(ctx context.Context, user *model.User, msg *telegram.Message, st *session.AwaitingQuantity) error {
	quantity, err := strconv.Atoi(strings.TrimSpace(msg.Text))
	if err != nil || quantity < 1 || quantity > st.MaxAllowed {
		b.sendText(ctx, msg.Chat.ID, fmt.Sprintf("Please send a number between 1 and %d.", st.MaxAllowed))
		return nil
	}

	if _, err := b.cart.Add(ctx, user.ID, st.ProductID, quantity); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			if clearErr := b.sessions.Clear(ctx, user.TelegramID); clearErr != nil {
				return clearErr
			}
			b.sendText(ctx, msg.Chat.ID, "Sorry, this product was just removed from the catalog.")
			return nil
		}
		return err
	}
	if err := b.sessions.Clear(ctx, user.TelegramID); err != nil {
		return err
	}

	b.sendTextWithKeyboard(ctx, msg.Chat.ID, fmt.Sprintf("Added %d to your cart.", quantity),
		keyboard(
			row(btn("🛒 View cart", command.ShowCart{}), btn("🛍 Keep shopping", command.ShowCatalog{})),
		))
	return nil
}

func (b *Bot) showCart(ctx context.Context, user *model.User, chatID, messageID int64) error {
	entries, err := b.cart.Get(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return b.render(ctx, chatID, messageID, "Your cart is empty.", backKeyboard(command.ShowMainMenu{}))
	}

	var sb strings.Builder
	sb.WriteString("Your cart:\n\n")
	labels := make(map[string]string, len(entries))
	total := decimal.Zero
	for _, e := range entries {
		label := "(removed)"
		product, err := b.catalog.GetProduct(ctx, e.ProductID)
		if err == nil {
			label = product.Flavor
			line := product.Price.Mul(decimal.NewFromInt(int64(e.Quantity)))
			total = total.Add(line)
			fmt.Fprintf(&sb, "• %s × %d = %s\n", product.Flavor, e.Quantity, money(line))
		} else if !errors.Is(err, service.ErrProductNotFound) {
			return err
		} else {
			fmt.Fprintf(&sb, "• %s × %d\n", label, e.Quantity)
		}
		labels[e.ID.String()] = fmt.Sprintf("%s × %d", label, e.Quantity)
	}
	fmt.Fprintf(&sb, "\nSubtotal: %s", money(total))

	return b.render(ctx, chatID, messageID, sb.String(), cartKeyboard(entries, labels))
}

func (b *Bot) startCheckout(ctx context.Context, user *model.User, chatID, messageID int64) error {
	entries, err := b.cart.Get(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return service.ErrEmptyCart
	}

	active, err := b.orders.ActiveUnits(ctx, user.ID)
	if err != nil {
		return err
	}
	if active > 0 {
		// The cart will fold into the open order; skip delivery choice
		// and contact prompt, both carry over.
		return b.finishCheckout(ctx, user, chatID, model.DeliveryPickup, "")
	}

	text := fmt.Sprintf("How should we get it to you?\n\nDelivery adds %s, pickup is free.", money(b.deliveryFee))
	return b.render(ctx, chatID, messageID, text, deliveryKeyboard())
}

func (b *Bot) chooseDelivery(ctx context.Context, user *model.User, chatID, messageID int64, method model.DeliveryMethod) error {
	if err := b.sessions.Set(ctx, user.TelegramID, &session.AwaitingContactInfo{DeliveryMethod: string(method)}); err != nil {
		return err
	}
	prompt := "Send your phone number or @username so we can reach you."
	if method == model.DeliveryCourier {
		prompt = "Send your delivery address and phone number."
	}
	return b.render(ctx, chatID, messageID, prompt, nil)
}

func (b *Bot) replyContactInfo(ctx context.Context, user *model.User, msg *telegram.Message, st *session.AwaitingContactInfo) error {
	contact := strings.TrimSpace(msg.Text)
	if contact == "" {
		b.sendText(ctx, msg.Chat.ID, "Please send your contact details as text.")
		return nil
	}
	if err := b.sessions.Clear(ctx, user.TelegramID); err != nil {
		return err
	}
	return b.finishCheckout(ctx, user, msg.Chat.ID, model.DeliveryMethod(st.DeliveryMethod), contact)
}

func (b *Bot) finishCheckout(ctx context.Context, user *model.User, chatID int64, method model.DeliveryMethod, contact string) error {
	result, err := b.orders.Checkout(ctx, user.ID, method, contact)
	if err != nil {
		if text := userErrorText(err); text != "" {
			b.sendTextWithKeyboard(ctx, chatID, text, backKeyboard(command.ShowMainMenu{}))
			return nil
		}
		return err
	}

	var sb strings.Builder
	if result.Amended {
		fmt.Fprintf(&sb, "Added to your open order #%s.\n", shortID(result.Order.ID))
	} else {
		fmt.Fprintf(&sb, "Order #%s placed!\n", shortID(result.Order.ID))
	}
	if len(result.Skipped) > 0 {
		fmt.Fprintf(&sb, "\n%d item(s) were skipped because they sold out while you were shopping.\n", len(result.Skipped))
	}
	fmt.Fprintf(&sb, "\nTotal: %s\nStatus: %s", money(result.Order.TotalPrice), orderStatusLabel(string(result.Order.Status)))

	b.sendTextWithKeyboard(ctx, chatID, sb.String(),
		keyboard(
			row(btn("📦 My orders", command.ShowOrders{})),
			row(btn("⬅️ Menu", command.ShowMainMenu{})),
		))
	return nil
}

func (b *Bot) showOrders(ctx context.Context, user *model.User, chatID, messageID int64) error {
	orders, err := b.orders.ListByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return b.render(ctx, chatID, messageID, "You have no orders yet.", backKeyboard(command.ShowMainMenu{}))
	}

	used, err := b.usedUnits(ctx, user.ID)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("Your orders:\n\nUnits held: %d of %d allowed.", used, b.unitQuota)
	return b.render(ctx, chatID, messageID, text, ordersKeyboard(orders))
}

func (b *Bot) showOrder(ctx context.Context, user *model.User, chatID, messageID int64, orderID uuid.UUID) error {
	order, err := b.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if order.UserID != user.ID {
		return service.ErrOrderNotFound
	}
	text := b.formatOrder(ctx, order)
	return b.render(ctx, chatID, messageID, text, backKeyboard(command.ShowOrders{}))
}

func (b *Bot) formatOrder(ctx context.Context, order *model.Order) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Order #%s\nStatus: %s\nPlaced: %s\n\n",
		shortID(order.ID), orderStatusLabel(string(order.Status)), order.CreatedAt.Format("02.01.2006 15:04"))
	for _, item := range order.Items {
		label := "(removed)"
		if product, err := b.catalog.GetProduct(ctx, item.ProductID); err == nil {
			label = product.Flavor
		}
		fmt.Fprintf(&sb, "• %s × %d · %s\n", label, item.Quantity, money(item.PriceAtOrder))
	}
	if order.DeliveryMethod == model.DeliveryCourier {
		fmt.Fprintf(&sb, "\nDelivery: %s", money(order.DeliveryFee))
	} else {
		sb.WriteString("\nPickup")
	}
	fmt.Fprintf(&sb, "\nTotal: %s", money(order.TotalPrice))
	if order.ContactInfo != "" {
		fmt.Fprintf(&sb, "\nContact: %s", order.ContactInfo)
	}
	return sb.String()
}

func (b *Bot) showSupport(ctx context.Context, chatID, messageID int64) error {
	text := "Questions about an order? We're happy to help."
	markup := backKeyboard(command.ShowMainMenu{})
	if b.supportUsername != "" {
		markup = keyboard(
			row(telegram.InlineKeyboardButton{Text: "💬 Message support", URL: "https://t.me/" + b.supportUsername}),
			row(btn("⬅️ Back", command.ShowMainMenu{})),
		)
	}
	return b.render(ctx, chatID, messageID, text, markup)
}
