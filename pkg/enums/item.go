package enums

import "fmt"

// ItemType maps to the item_type enum in Postgres.
type ItemType string

const (
	ItemTypeSell     ItemType = "Sell"
	ItemTypeDonation ItemType = "Donation"
	ItemTypeTrade    ItemType = "Trade"
)

var validItemTypes = []ItemType{
	ItemTypeSell,
	ItemTypeDonation,
	ItemTypeTrade,
}

// IsValid reports whether the type is known.
func (t ItemType) IsValid() bool {
	for _, candidate := range validItemTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// RequiresPrice is true only for items that are sold.
func (t ItemType) RequiresPrice() bool {
	return t == ItemTypeSell
}

// ParseItemType converts raw input into an ItemType.
func ParseItemType(value string) (ItemType, error) {
	for _, candidate := range validItemTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item type %q", value)
}

// ItemCondition maps to the item_condition enum.
type ItemCondition string

const (
	ItemConditionNew  ItemCondition = "new"
	ItemConditionUsed ItemCondition = "used"
)

func (c ItemCondition) IsValid() bool {
	return c == ItemConditionNew || c == ItemConditionUsed
}

// ParseItemCondition converts raw input into an ItemCondition.
func ParseItemCondition(value string) (ItemCondition, error) {
	c := ItemCondition(value)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid item condition %q", value)
	}
	return c, nil
}

// ListingState maps to the listing_state enum.
type ListingState string

const (
	ListingStateActive   ListingState = "active"
	ListingStateInactive ListingState = "inactive"
)

func (s ListingState) IsValid() bool {
	return s == ListingStateActive || s == ListingStateInactive
}

// ParseListingState converts raw input into a ListingState.
func ParseListingState(value string) (ListingState, error) {
	s := ListingState(value)
	if !s.IsValid() {
		return "", fmt.Errorf("invalid listing state %q", value)
	}
	return s, nil
}
