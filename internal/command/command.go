// Package command maps inline-keyboard callback data to a closed set of
// typed commands. Callback payloads are parsed exactly once at the edge;
// everything past Parse works with typed values, never raw strings.
package command

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cloudsupply/storebot/internal/model"
)

// Command is one of the fixed callback actions the keyboards can emit.
// CallbackData renders the wire form; Parse inverts it.
type Command interface {
	CallbackData() string
}

// Buyer-facing commands.

type ShowMainMenu struct{}

type ShowCatalog struct{}

type ShowModel struct{ ModelID uuid.UUID }

type ShowProduct struct{ ProductID uuid.UUID }

type ShowCart struct{}

type RemoveCartEntry struct{ EntryID uuid.UUID }

type ClearCart struct{}

type Checkout struct{}

type ChooseDelivery struct{ Method model.DeliveryMethod }

type ShowOrders struct{}

type ShowOrder struct{ OrderID uuid.UUID }

type ShowSupport struct{}

// Admin commands.

type AdminPanel struct{}

type AdminOrders struct{}

type AdminShowOrder struct{ OrderID uuid.UUID }

type AdminSetStatus struct {
	OrderID uuid.UUID
	Status  model.OrderStatus
}

type AdminDeleteOrder struct{ OrderID uuid.UUID }

type AdminConfirmDeleteOrder struct{ OrderID uuid.UUID }

type AdminModels struct{}

type AdminShowModel struct{ ModelID uuid.UUID }

type AdminAddModel struct{}

type AdminEditDescription struct{ ModelID uuid.UUID }

type AdminSetPhoto struct{ ModelID uuid.UUID }

type AdminToggleModel struct{ ModelID uuid.UUID }

type AdminDeleteModel struct{ ModelID uuid.UUID }

type AdminConfirmDeleteModel struct{ ModelID uuid.UUID }

type AdminAddVariant struct{ ModelID uuid.UUID }

type AdminShowVariant struct{ ProductID uuid.UUID }

type AdminEditPrice struct{ ProductID uuid.UUID }

type AdminEditStock struct{ ProductID uuid.UUID }

type AdminToggleVariant struct{ ProductID uuid.UUID }

type AdminDeleteVariant struct{ ProductID uuid.UUID }

type AdminUsers struct{}

type AdminToggleBan struct{ UserID uuid.UUID }

type AdminStats struct{}

type AdminBackup struct{}

type AdminEditWelcome struct{}

type AdminToggleMaintenance struct{}

type AdminConfirmReset struct{}

func (ShowMainMenu) CallbackData() string { return "menu" }
func (ShowCatalog) CallbackData() string  { return "catalog" }
func (c ShowModel) CallbackData() string  { return "model:" + c.ModelID.String() }
func (c ShowProduct) CallbackData() string {
	return "product:" + c.ProductID.String()
}
func (ShowCart) CallbackData() string { return "cart" }
func (c RemoveCartEntry) CallbackData() string {
	return "cart_remove:" + c.EntryID.String()
}
func (ClearCart) CallbackData() string { return "cart_clear" }
func (Checkout) CallbackData() string  { return "checkout" }
func (c ChooseDelivery) CallbackData() string {
	return "delivery:" + string(c.Method)
}
func (ShowOrders) CallbackData() string { return "orders" }
func (c ShowOrder) CallbackData() string  { return "order:" + c.OrderID.String() }
func (ShowSupport) CallbackData() string  { return "support" }

func (AdminPanel) CallbackData() string  { return "admin" }
func (AdminOrders) CallbackData() string { return "admin_orders" }
func (c AdminShowOrder) CallbackData() string {
	return "admin_order:" + c.OrderID.String()
}
func (c AdminSetStatus) CallbackData() string {
	return "admin_status:" + c.OrderID.String() + ":" + string(c.Status)
}
func (c AdminDeleteOrder) CallbackData() string {
	return "admin_order_del:" + c.OrderID.String()
}
func (c AdminConfirmDeleteOrder) CallbackData() string {
	return "admin_order_del_yes:" + c.OrderID.String()
}
func (AdminModels) CallbackData() string { return "admin_models" }
func (c AdminShowModel) CallbackData() string {
	return "admin_model:" + c.ModelID.String()
}
func (AdminAddModel) CallbackData() string { return "admin_model_add" }
func (c AdminEditDescription) CallbackData() string {
	return "admin_model_desc:" + c.ModelID.String()
}
func (c AdminSetPhoto) CallbackData() string {
	return "admin_model_photo:" + c.ModelID.String()
}
func (c AdminToggleModel) CallbackData() string {
	return "admin_model_toggle:" + c.ModelID.String()
}
func (c AdminDeleteModel) CallbackData() string {
	return "admin_model_del:" + c.ModelID.String()
}
func (c AdminConfirmDeleteModel) CallbackData() string {
	return "admin_model_del_yes:" + c.ModelID.String()
}
func (c AdminAddVariant) CallbackData() string {
	return "admin_variant_add:" + c.ModelID.String()
}
func (c AdminShowVariant) CallbackData() string {
	return "admin_variant:" + c.ProductID.String()
}
func (c AdminEditPrice) CallbackData() string {
	return "admin_variant_price:" + c.ProductID.String()
}
func (c AdminEditStock) CallbackData() string {
	return "admin_variant_stock:" + c.ProductID.String()
}
func (c AdminToggleVariant) CallbackData() string {
	return "admin_variant_toggle:" + c.ProductID.String()
}
func (c AdminDeleteVariant) CallbackData() string {
	return "admin_variant_del:" + c.ProductID.String()
}
func (AdminUsers) CallbackData() string { return "admin_users" }
func (c AdminToggleBan) CallbackData() string {
	return "admin_ban:" + c.UserID.String()
}
func (AdminStats) CallbackData() string             { return "admin_stats" }
func (AdminBackup) CallbackData() string            { return "admin_backup" }
func (AdminEditWelcome) CallbackData() string       { return "admin_welcome" }
func (AdminToggleMaintenance) CallbackData() string { return "admin_maintenance" }
func (AdminConfirmReset) CallbackData() string      { return "admin_reset_yes" }

// Parse maps callback data back to its command. Unknown or malformed
// payloads return an error; the router answers the callback and moves on.
func Parse(data string) (Command, error) {
	prefix, arg, _ := strings.Cut(data, ":")

	switch prefix {
	case "menu":
		return ShowMainMenu{}, nil
	case "catalog":
		return ShowCatalog{}, nil
	case "cart":
		return ShowCart{}, nil
	case "cart_clear":
		return ClearCart{}, nil
	case "checkout":
		return Checkout{}, nil
	case "orders":
		return ShowOrders{}, nil
	case "support":
		return ShowSupport{}, nil
	case "admin":
		return AdminPanel{}, nil
	case "admin_orders":
		return AdminOrders{}, nil
	case "admin_models":
		return AdminModels{}, nil
	case "admin_model_add":
		return AdminAddModel{}, nil
	case "admin_users":
		return AdminUsers{}, nil
	case "admin_stats":
		return AdminStats{}, nil
	case "admin_backup":
		return AdminBackup{}, nil
	case "admin_welcome":
		return AdminEditWelcome{}, nil
	case "admin_maintenance":
		return AdminToggleMaintenance{}, nil
	case "admin_reset_yes":
		return AdminConfirmReset{}, nil
	case "delivery":
		method := model.DeliveryMethod(arg)
		if !method.Valid() {
			return nil, fmt.Errorf("unknown delivery method %q", arg)
		}
		return ChooseDelivery{Method: method}, nil
	case "admin_status":
		idStr, statusStr, ok := strings.Cut(arg, ":")
		if !ok {
			return nil, fmt.Errorf("malformed status payload %q", data)
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("parse order id: %w", err)
		}
		status := model.OrderStatus(statusStr)
		if !status.Valid() {
			return nil, fmt.Errorf("unknown order status %q", statusStr)
		}
		return AdminSetStatus{OrderID: id, Status: status}, nil
	}

	id, err := uuid.Parse(arg)
	if err != nil {
		return nil, fmt.Errorf("parse callback %q: %w", data, err)
	}
	switch prefix {
	case "model":
		return ShowModel{ModelID: id}, nil
	case "product":
		return ShowProduct{ProductID: id}, nil
	case "cart_remove":
		return RemoveCartEntry{EntryID: id}, nil
	case "order":
		return ShowOrder{OrderID: id}, nil
	case "admin_order":
		return AdminShowOrder{OrderID: id}, nil
	case "admin_order_del":
		return AdminDeleteOrder{OrderID: id}, nil
	case "admin_order_del_yes":
		return AdminConfirmDeleteOrder{OrderID: id}, nil
	case "admin_model":
		return AdminShowModel{ModelID: id}, nil
	case "admin_model_desc":
		return AdminEditDescription{ModelID: id}, nil
	case "admin_model_photo":
		return AdminSetPhoto{ModelID: id}, nil
	case "admin_model_toggle":
		return AdminToggleModel{ModelID: id}, nil
	case "admin_model_del":
		return AdminDeleteModel{ModelID: id}, nil
	case "admin_model_del_yes":
		return AdminConfirmDeleteModel{ModelID: id}, nil
	case "admin_variant_add":
		return AdminAddVariant{ModelID: id}, nil
	case "admin_variant":
		return AdminShowVariant{ProductID: id}, nil
	case "admin_variant_price":
		return AdminEditPrice{ProductID: id}, nil
	case "admin_variant_stock":
		return AdminEditStock{ProductID: id}, nil
	case "admin_variant_toggle":
		return AdminToggleVariant{ProductID: id}, nil
	case "admin_variant_del":
		return AdminDeleteVariant{ProductID: id}, nil
	case "admin_ban":
		return AdminToggleBan{UserID: id}, nil
	}
	return nil, fmt.Errorf("unknown callback %q", data)
}
