// Package bot routes chat updates to the storefront services: catalog
// browsing, cart management, checkout and the admin panel.
package bot

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cloudsupply/storebot/internal/config"
	"github.com/cloudsupply/storebot/internal/service"
	"github.com/cloudsupply/storebot/internal/session"
	"github.com/cloudsupply/storebot/internal/storage"
	"github.com/cloudsupply/storebot/internal/telegram"
)

type Bot struct {
	tg       *telegram.Client
	users    *service.UserService
	catalog  *service.CatalogService
	cart     *service.CartService
	orders   *service.OrderService
	settings *service.SettingsService
	stats    *service.StatsService
	backup   *service.BackupService
	sessions *session.Store
	photos   *storage.PhotoStore

	adminHandles    []string
	supportUsername string
	unitQuota       int
	deliveryFee     decimal.Decimal
	log             *slog.Logger
}

type Deps struct {
	Telegram *telegram.Client
	Users    *service.UserService
	Catalog  *service.CatalogService
	Cart     *service.CartService
	Orders   *service.OrderService
	Settings *service.SettingsService
	Stats    *service.StatsService
	Backup   *service.BackupService
	Sessions *session.Store
	Photos   *storage.PhotoStore
}

func New(deps Deps, adminCfg config.AdminConfig, shopCfg config.ShopConfig, log *slog.Logger) *Bot {
	return &Bot{
		tg:              deps.Telegram,
		users:           deps.Users,
		catalog:         deps.Catalog,
		cart:            deps.Cart,
		orders:          deps.Orders,
		settings:        deps.Settings,
		stats:           deps.Stats,
		backup:          deps.Backup,
		sessions:        deps.Sessions,
		photos:          deps.Photos,
		adminHandles:    adminCfg.Handles(),
		supportUsername: adminCfg.SupportUsername,
		unitQuota:       shopCfg.UnitQuota,
		deliveryFee:     shopCfg.DeliveryFee,
		log:             log,
	}
}

func (b *Bot) isAdmin(username string) bool {
	if username == "" {
		return false
	}
	for _, handle := range b.adminHandles {
		if strings.EqualFold(handle, username) {
			return true
		}
	}
	return false
}

func money(amount decimal.Decimal) string {
	return amount.StringFixed(2) + " €"
}

func displayName(firstName, username string) string {
	if firstName != "" {
		return firstName
	}
	if username != "" {
		return "@" + username
	}
	return "customer"
}

func orderStatusLabel(status string) string {
	switch status {
	case "processing":
		return "Processing"
	case "completed":
		return "Completed"
	default:
		return "Unknown"
	}
}

func shortID(id fmt.Stringer) string {
	return id.String()[:8]
}
