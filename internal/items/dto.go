package items

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/feirinha/feirinha-backend/internal/media"
	"github.com/feirinha/feirinha-backend/pkg/db/models"
	"github.com/feirinha/feirinha-backend/pkg/enums"
)

// PhotoView is the public shape of one ledger row.
type PhotoView struct {
	ID       uuid.UUID `json:"id"`
	URL      string    `json:"url"`
	Position int       `json:"position"`
}

// CityView is the public shape of a city.
type CityView struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	State string    `json:"state"`
}

// ItemView is returned by every item endpoint.
type ItemView struct {
	ID            uuid.UUID           `json:"id"`
	OwnerID       uuid.UUID           `json:"owner_id"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Type          enums.ItemType      `json:"type"`
	Price         *decimal.Decimal    `json:"price"`
	TradeInterest *string             `json:"trade_interest"`
	CategoryID    uuid.UUID           `json:"category_id"`
	City          *CityView           `json:"city"`
	Condition     enums.ItemCondition `json:"status"`
	ListingState  enums.ListingState  `json:"listing_state"`
	Photos        []PhotoView         `json:"photos"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// CreateItemInput carries raw form values; the service validates them.
type CreateItemInput struct {
	Title         string
	Description   string
	Type          string
	Price         string
	TradeInterest string
	CategoryID    string
	Status        string
	ListingState  string
	CityName      string
	CityState     string
	Photos        []media.Upload
}

// UpdateItemInput changes only the fields that are set. A non-empty Photos
// replaces the whole photo set; ClearPhotos with no Photos empties it.
type UpdateItemInput struct {
	Title         *string
	Description   *string
	Type          *string
	Price         *string
	TradeInterest *string
	CategoryID    *string
	Status        *string
	ListingState  *string
	CityName      *string
	CityState     *string
	Photos        []media.Upload
	ClearPhotos   bool
}

func (in UpdateItemInput) replacesPhotos() bool {
	return len(in.Photos) > 0 || in.ClearPhotos
}

func newPhotoViews(rows []models.ItemPhoto) []PhotoView {
	views := make([]PhotoView, 0, len(rows))
	for _, row := range rows {
		views = append(views, PhotoView{ID: row.ID, URL: row.URL, Position: row.Position})
	}
	return views
}

func newItemView(item *models.Item, city *models.City, photos []models.ItemPhoto) *ItemView {
	view := &ItemView{
		ID:            item.ID,
		OwnerID:       item.OwnerID,
		Title:         item.Title,
		Description:   item.Description,
		Type:          item.Type,
		TradeInterest: item.TradeInterest,
		CategoryID:    item.CategoryID,
		Condition:     item.Condition,
		ListingState:  item.ListingState,
		Photos:        newPhotoViews(photos),
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
	if item.Price.Valid {
		price := item.Price.Decimal
		view.Price = &price
	}
	if city != nil {
		view.City = &CityView{ID: city.ID, Name: city.Name, State: city.State}
	}
	return view
}
