package session

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// State is a closed set of conversation states. Each variant carries
// exactly the context its prompt needs; a chat with no stored state is
// idle.
type State interface {
	kind() string
}

// AwaitingQuantity waits for the buyer to type how many units to add.
type AwaitingQuantity struct {
	ProductID  uuid.UUID `json:"product_id"`
	MaxAllowed int       `json:"max_allowed"`
	Stock      int       `json:"stock"`
}

// AwaitingContactInfo waits for the buyer's delivery contact details
// after a delivery method was chosen.
type AwaitingContactInfo struct {
	DeliveryMethod string `json:"delivery_method"`
}

// Admin model creation runs as a chain of prompts, each variant
// accumulating what was answered so far.
type AwaitingModelName struct{}

type AwaitingModelDescription struct {
	Name string `json:"name"`
}

type AwaitingModelCost struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type AwaitingModelPhoto struct {
	ModelID uuid.UUID `json:"model_id"`
}

type AwaitingVariantFlavor struct {
	ModelID uuid.UUID `json:"model_id"`
}

type AwaitingVariantPrice struct {
	ModelID uuid.UUID `json:"model_id"`
	Flavor  string    `json:"flavor"`
}

type AwaitingVariantStock struct {
	ModelID uuid.UUID       `json:"model_id"`
	Flavor  string          `json:"flavor"`
	Price   decimal.Decimal `json:"price"`
}

type AwaitingPriceEdit struct {
	ProductID uuid.UUID `json:"product_id"`
}

type AwaitingStockEdit struct {
	ProductID uuid.UUID `json:"product_id"`
}

type AwaitingDescriptionEdit struct {
	ModelID uuid.UUID `json:"model_id"`
}

type AwaitingWelcomeText struct{}

func (AwaitingQuantity) kind() string        { return "awaiting_quantity" }
func (AwaitingContactInfo) kind() string     { return "awaiting_contact_info" }
func (AwaitingModelName) kind() string       { return "awaiting_model_name" }
func (AwaitingModelDescription) kind() string {
	return "awaiting_model_description"
}
func (AwaitingModelCost) kind() string       { return "awaiting_model_cost" }
func (AwaitingModelPhoto) kind() string      { return "awaiting_model_photo" }
func (AwaitingVariantFlavor) kind() string   { return "awaiting_variant_flavor" }
func (AwaitingVariantPrice) kind() string    { return "awaiting_variant_price" }
func (AwaitingVariantStock) kind() string    { return "awaiting_variant_stock" }
func (AwaitingPriceEdit) kind() string       { return "awaiting_price_edit" }
func (AwaitingStockEdit) kind() string       { return "awaiting_stock_edit" }
func (AwaitingDescriptionEdit) kind() string { return "awaiting_description_edit" }
func (AwaitingWelcomeText) kind() string     { return "awaiting_welcome_text" }

type envelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

func encode(state State) ([]byte, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	return json.Marshal(envelope{Kind: state.kind(), Data: data})
}

func decode(raw []byte) (State, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	var state State
	switch env.Kind {
	case "awaiting_quantity":
		state = &AwaitingQuantity{}
	case "awaiting_contact_info":
		state = &AwaitingContactInfo{}
	case "awaiting_model_name":
		state = &AwaitingModelName{}
	case "awaiting_model_description":
		state = &AwaitingModelDescription{}
	case "awaiting_model_cost":
		state = &AwaitingModelCost{}
	case "awaiting_model_photo":
		state = &AwaitingModelPhoto{}
	case "awaiting_variant_flavor":
		state = &AwaitingVariantFlavor{}
	case "awaiting_variant_price":
		state = &AwaitingVariantPrice{}
	case "awaiting_variant_stock":
		state = &AwaitingVariantStock{}
	case "awaiting_price_edit":
		state = &AwaitingPriceEdit{}
	case "awaiting_stock_edit":
		state = &AwaitingStockEdit{}
	case "awaiting_description_edit":
		state = &AwaitingDescriptionEdit{}
	case "awaiting_welcome_text":
		state = &AwaitingWelcomeText{}
	default:
		return nil, fmt.Errorf("unknown state kind %q", env.Kind)
	}
	if err := json.Unmarshal(env.Data, state); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", env.Kind, err)
	}
	return state, nil
}
