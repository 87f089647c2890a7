package items

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/feirinha/feirinha-backend/pkg/db/models"
	"github.com/feirinha/feirinha-backend/pkg/enums"
	pkgerrors "github.com/feirinha/feirinha-backend/pkg/errors"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 5000
)

var maxPrice = decimal.New(1, 8) // numeric(10,2)

type fieldProblems map[string]string

func (p fieldProblems) err() error {
	if len(p) == 0 {
		return nil
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s: %s", keys[0], p[keys[0]])).WithDetails(map[string]string(p))
}

// newItemFromInput validates create attributes. City and category existence
// are checked by the caller.
func newItemFromInput(ownerID uuid.UUID, in CreateItemInput) (*models.Item, uuid.UUID, error) {
	problems := fieldProblems{}
	item := &models.Item{OwnerID: ownerID}

	item.Title = strings.TrimSpace(in.Title)
	checkTitle(problems, item.Title)
	item.Description = strings.TrimSpace(in.Description)
	checkDescription(problems, item.Description)

	itemType := enums.ItemTypeSell
	if raw := strings.TrimSpace(in.Type); raw != "" {
		parsed, err := enums.ParseItemType(raw)
		if err != nil {
			problems["type"] = "must be one of Sell, Donation, Trade"
		} else {
			itemType = parsed
		}
	}
	item.Type = itemType

	categoryID, err := uuid.Parse(strings.TrimSpace(in.CategoryID))
	if err != nil {
		problems["category_id"] = "must be a valid category id"
	}
	item.CategoryID = categoryID

	condition, err := enums.ParseItemCondition(strings.TrimSpace(in.Status))
	if err != nil {
		problems["status"] = "must be one of new, used"
	}
	item.Condition = condition

	item.ListingState = enums.ListingStateActive
	if raw := strings.TrimSpace(in.ListingState); raw != "" {
		state, err := enums.ParseListingState(raw)
		if err != nil {
			problems["listing_state"] = "must be one of active, inactive"
		} else {
			item.ListingState = state
		}
	}

	price, tradeInterest := applyPricing(problems, item.Type, in.Price, optionalText(in.TradeInterest))
	item.Price = price
	item.TradeInterest = tradeInterest

	return item, categoryID, problems.err()
}

// applyUpdateInput mutates item with the set fields of in. It returns the new
// category id when one was supplied.
func applyUpdateInput(item *models.Item, in UpdateItemInput) (*uuid.UUID, error) {
	problems := fieldProblems{}

	if in.Title != nil {
		item.Title = strings.TrimSpace(*in.Title)
		checkTitle(problems, item.Title)
	}
	if in.Description != nil {
		item.Description = strings.TrimSpace(*in.Description)
		checkDescription(problems, item.Description)
	}
	if in.Type != nil {
		parsed, err := enums.ParseItemType(strings.TrimSpace(*in.Type))
		if err != nil {
			problems["type"] = "must be one of Sell, Donation, Trade"
		} else {
			item.Type = parsed
		}
	}

	var categoryID *uuid.UUID
	if in.CategoryID != nil {
		parsed, err := uuid.Parse(strings.TrimSpace(*in.CategoryID))
		if err != nil {
			problems["category_id"] = "must be a valid category id"
		} else {
			item.CategoryID = parsed
			categoryID = &parsed
		}
	}
	if in.Status != nil {
		condition, err := enums.ParseItemCondition(strings.TrimSpace(*in.Status))
		if err != nil {
			problems["status"] = "must be one of new, used"
		} else {
			item.Condition = condition
		}
	}
	if in.ListingState != nil {
		state, err := enums.ParseListingState(strings.TrimSpace(*in.ListingState))
		if err != nil {
			problems["listing_state"] = "must be one of active, inactive"
		} else {
			item.ListingState = state
		}
	}

	rawPrice := ""
	if in.Price != nil {
		rawPrice = *in.Price
	} else if item.Price.Valid {
		rawPrice = item.Price.Decimal.StringFixed(2)
	}
	tradeInterest := item.TradeInterest
	if in.TradeInterest != nil {
		tradeInterest = optionalText(*in.TradeInterest)
	}
	item.Price, item.TradeInterest = applyPricing(problems, item.Type, rawPrice, tradeInterest)

	return categoryID, problems.err()
}

// applyPricing keeps price only for sales and trade interest only for trades.
func applyPricing(problems fieldProblems, itemType enums.ItemType, rawPrice string, tradeInterest *string) (decimal.NullDecimal, *string) {
	var price decimal.NullDecimal
	if itemType.RequiresPrice() {
		raw := strings.TrimSpace(rawPrice)
		if raw == "" {
			problems["price"] = "is required for items of type Sell"
		} else if parsed, err := decimal.NewFromString(raw); err != nil {
			problems["price"] = "must be a decimal number"
		} else if parsed.IsNegative() {
			problems["price"] = "must not be negative"
		} else if parsed.Exponent() < -2 && !parsed.Equal(parsed.Round(2)) {
			problems["price"] = "must have at most two decimal places"
		} else if parsed.GreaterThanOrEqual(maxPrice) {
			problems["price"] = "is too large"
		} else {
			price = decimal.NewNullDecimal(parsed.Round(2))
		}
	}
	if itemType != enums.ItemTypeTrade {
		tradeInterest = nil
	}
	return price, tradeInterest
}

func checkTitle(problems fieldProblems, title string) {
	switch {
	case title == "":
		problems["title"] = "is required"
	case utf8.RuneCountInString(title) > maxTitleLength:
		problems["title"] = fmt.Sprintf("must be at most %d characters", maxTitleLength)
	}
}

func checkDescription(problems fieldProblems, description string) {
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		problems["description"] = fmt.Sprintf("must be at most %d characters", maxDescriptionLength)
	}
}

func optionalText(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
