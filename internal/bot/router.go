package bot

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudsupply/storebot/internal/command"
	"github.com/cloudsupply/storebot/internal/model"
	"github.com/cloudsupply/storebot/internal/service"
	"github.com/cloudsupply/storebot/internal/session"
	"github.com/cloudsupply/storebot/internal/telegram"
)

// HandleUpdate is the single entry point for both messages and callback
// queries. Errors are logged, never surfaced raw to the chat.
func (b *Bot) HandleUpdate(ctx context.Context, update telegram.Update) {
	switch {
	case update.Message != nil:
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.log.Error("handle message", "chat_id", update.Message.Chat.ID, "error", err)
			b.sendText(ctx, update.Message.Chat.ID, "Something went wrong. Please try again.")
		}
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			b.log.Error("handle callback", "callback_id", update.CallbackQuery.ID, "error", err)
			_ = b.tg.AnswerCallbackQuery(ctx, update.CallbackQuery.ID, "Something went wrong.", true)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *telegram.Message) error {
	if msg.From == nil || msg.From.IsBot {
		return nil
	}
	user, err := b.users.Identify(ctx, msg.From.ID, msg.From.Username, msg.From.FirstName, msg.From.LastName)
	if err != nil {
		return err
	}
	admin := b.isAdmin(user.Username)
	if user.Banned && !admin {
		return nil
	}
	if !admin {
		maintenance, err := b.settings.MaintenanceMode(ctx)
		if err != nil {
			return err
		}
		if maintenance {
			b.sendText(ctx, msg.Chat.ID, "The shop is temporarily closed for maintenance. Check back soon!")
			return nil
		}
	}

	if strings.HasPrefix(msg.Text, "/") {
		// A slash command always abandons any prompt in progress.
		if err := b.sessions.Clear(ctx, msg.From.ID); err != nil {
			return err
		}
		return b.handleSlashCommand(ctx, user, admin, msg)
	}

	state, err := b.sessions.Get(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	if state == nil {
		return b.showMainMenu(ctx, user, admin, msg.Chat.ID)
	}
	return b.handleSessionReply(ctx, user, admin, msg, state)
}

func (b *Bot) handleSlashCommand(ctx context.Context, user *model.User, admin bool, msg *telegram.Message) error {
	cmd, _, _ := strings.Cut(msg.Text, " ")
	cmd, _, _ = strings.Cut(cmd, "@")

	switch cmd {
	case "/start":
		return b.showWelcome(ctx, user, admin, msg.Chat.ID)
	case "/catalog":
		return b.showCatalog(ctx, msg.Chat.ID, 0)
	case "/cart":
		return b.showCart(ctx, user, msg.Chat.ID, 0)
	case "/orders":
		return b.showOrders(ctx, user, msg.Chat.ID, 0)
	case "/support":
		return b.showSupport(ctx, msg.Chat.ID, 0)
	case "/admin":
		if !admin {
			return b.showMainMenu(ctx, user, admin, msg.Chat.ID)
		}
		return b.showAdminPanel(ctx, msg.Chat.ID, 0)
	case "/fix_orders":
		if !admin {
			return b.showMainMenu(ctx, user, admin, msg.Chat.ID)
		}
		return b.repairOrders(ctx, msg.Chat.ID)
	case "/reset_db":
		if !admin {
			return b.showMainMenu(ctx, user, admin, msg.Chat.ID)
		}
		b.sendTextWithKeyboard(ctx, msg.Chat.ID,
			"This wipes ALL orders and carts after taking a backup. Are you sure?",
			confirmKeyboard(command.AdminConfirmReset{}, command.AdminPanel{}))
		return nil
	default:
		return b.showMainMenu(ctx, user, admin, msg.Chat.ID)
	}
}

// handleSessionReply feeds a plain-text (or photo) message into the
// conversation state stored for the chat.
func (b *Bot) handleSessionReply(ctx context.Context, user *model.User, admin bool, msg *telegram.Message, state session.State) error {
	switch st := state.(type) {
	case *session.AwaitingQuantity:
		return b.replyQuantity(ctx, user, msg, st)
	case *session.AwaitingContactInfo:
		return b.replyContactInfo(ctx, user, msg, st)
	}

	if !admin {
		// Stale admin state on a non-admin chat; drop it.
		if err := b.sessions.Clear(ctx, msg.From.ID); err != nil {
			return err
		}
		return b.showMainMenu(ctx, user, admin, msg.Chat.ID)
	}

	switch st := state.(type) {
	case *session.AwaitingModelName:
		return b.replyModelName(ctx, msg)
	case *session.AwaitingModelDescription:
		return b.replyModelDescription(ctx, msg, st)
	case *session.AwaitingModelCost:
		return b.replyModelCost(ctx, msg, st)
	case *session.AwaitingModelPhoto:
		return b.replyModelPhoto(ctx, msg, st)
	case *session.AwaitingVariantFlavor:
		return b.replyVariantFlavor(ctx, msg, st)
	case *session.AwaitingVariantPrice:
		return b.replyVariantPrice(ctx, msg, st)
	case *session.AwaitingVariantStock:
		return b.replyVariantStock(ctx, msg, st)
	case *session.AwaitingPriceEdit:
		return b.replyPriceEdit(ctx, msg, st)
	case *session.AwaitingStockEdit:
		return b.replyStockEdit(ctx, msg, st)
	case *session.AwaitingDescriptionEdit:
		return b.replyDescriptionEdit(ctx, msg, st)
	case *session.AwaitingWelcomeText:
		return b.replyWelcomeText(ctx, msg)
	default:
		return b.sessions.Clear(ctx, msg.From.ID)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) error {
	user, err := b.users.Identify(ctx, cb.From.ID, cb.From.Username, cb.From.FirstName, cb.From.LastName)
	if err != nil {
		return err
	}
	admin := b.isAdmin(user.Username)
	if user.Banned && !admin {
		return b.tg.AnswerCallbackQuery(ctx, cb.ID, "", false)
	}

	cmd, err := command.Parse(cb.Data)
	if err != nil {
		b.log.Warn("unparseable callback", "data", cb.Data, "error", err)
		return b.tg.AnswerCallbackQuery(ctx, cb.ID, "This button has expired.", false)
	}

	var chatID, messageID int64
	if cb.Message != nil {
		chatID = cb.Message.Chat.ID
		messageID = cb.Message.MessageID
	}

	if isAdminCommand(cmd) && !admin {
		return b.tg.AnswerCallbackQuery(ctx, cb.ID, "Not available.", false)
	}
	if !admin {
		maintenance, err := b.settings.MaintenanceMode(ctx)
		if err != nil {
			return err
		}
		if maintenance {
			return b.tg.AnswerCallbackQuery(ctx, cb.ID, "The shop is closed for maintenance.", true)
		}
	}

	toast, err := b.dispatchCommand(ctx, user, admin, chatID, messageID, cmd)
	if err != nil {
		if userFacing := userErrorText(err); userFacing != "" {
			return b.tg.AnswerCallbackQuery(ctx, cb.ID, userFacing, true)
		}
		return err
	}
	return b.tg.AnswerCallbackQuery(ctx, cb.ID, toast, false)
}

// dispatchCommand runs one typed command and returns an optional toast.
func (b *Bot) dispatchCommand(ctx context.Context, user *model.User, admin bool, chatID, messageID int64, cmd command.Command) (string, error) {
	switch c := cmd.(type) {
	case command.ShowMainMenu:
		return "", b.editMainMenu(ctx, user, admin, chatID, messageID)
	case command.ShowCatalog:
		return "", b.showCatalog(ctx, chatID, messageID)
	case command.ShowModel:
		return "", b.showModel(ctx, chatID, messageID, c.ModelID)
	case command.ShowProduct:
		return b.promptQuantity(ctx, user, chatID, c.ProductID)
	case command.ShowCart:
		return "", b.showCart(ctx, user, chatID, messageID)
	case command.RemoveCartEntry:
		if err := b.cart.Remove(ctx, c.EntryID); err != nil {
			return "", err
		}
		return "Removed.", b.showCart(ctx, user, chatID, messageID)
	case command.ClearCart:
		if err := b.cart.Clear(ctx, user.ID); err != nil {
			return "", err
		}
		return "Cart cleared.", b.showCart(ctx, user, chatID, messageID)
	case command.Checkout:
		return "", b.startCheckout(ctx, user, chatID, messageID)
	case command.ChooseDelivery:
		return "", b.chooseDelivery(ctx, user, chatID, messageID, c.Method)
	case command.ShowOrders:
		return "", b.showOrders(ctx, user, chatID, messageID)
	case command.ShowOrder:
		return "", b.showOrder(ctx, user, chatID, messageID, c.OrderID)
	case command.ShowSupport:
		return "", b.showSupport(ctx, chatID, messageID)
	}
	return b.dispatchAdminCommand(ctx, user, chatID, messageID, cmd)
}

func isAdminCommand(cmd command.Command) bool {
	switch cmd.(type) {
	case command.ShowMainMenu, command.ShowCatalog, command.ShowModel,
		command.ShowProduct, command.ShowCart, command.RemoveCartEntry,
		command.ClearCart, command.Checkout, command.ChooseDelivery,
		command.ShowOrders, command.ShowOrder, command.ShowSupport:
		return false
	}
	return true
}

// userErrorText maps service sentinels to a short toast; anything else is
// an internal failure.
func userErrorText(err error) string {
	switch {
	case errors.Is(err, service.ErrEmptyCart):
		return "Your cart is empty."
	case errors.Is(err, service.ErrNothingToOrder):
		return "None of the items are in stock anymore."
	case errors.Is(err, service.ErrProductNotFound):
		return "This product is no longer available."
	case errors.Is(err, service.ErrModelNotFound):
		return "This product is no longer available."
	case errors.Is(err, service.ErrOrderNotFound):
		return "Order not found."
	case errors.Is(err, service.ErrCartEntryNotFound):
		return "This item is no longer in your cart."
	}
	return ""
}

func (b *Bot) sendText(ctx context.Context, chatID int64, text string) {
	if _, err := b.tg.SendMessage(ctx, telegram.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) sendTextWithKeyboard(ctx context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) {
	if _, err := b.tg.SendMessage(ctx, telegram.SendMessageParams{ChatID: chatID, Text: text, ReplyMarkup: markup}); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

// render edits the message in place when the update came from a button,
// otherwise sends a fresh message.
func (b *Bot) render(ctx context.Context, chatID, messageID int64, text string, markup *telegram.InlineKeyboardMarkup) error {
	if messageID != 0 {
		err := b.tg.EditMessageText(ctx, chatID, messageID, text, markup)
		if err == nil {
			return nil
		}
		// Editing fails on photo messages and deleted messages; fall
		// through to a fresh send.
		b.log.Debug("edit message", "chat_id", chatID, "message_id", messageID, "error", err)
	}
	_, err := b.tg.SendMessage(ctx, telegram.SendMessageParams{ChatID: chatID, Text: text, ReplyMarkup: markup})
	return err
}
