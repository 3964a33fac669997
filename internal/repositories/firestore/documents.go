package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/craftmarket/api/internal/domain"
)

// Collection names. Item lines are embedded in their aggregate document, so
// the include directives on specifications are satisfied by a single read.
const (
	basketCollection  = "baskets"
	orderCollection   = "orders"
	catalogCollection = "catalogItems"
)

type basketDocument struct {
	BuyerID   string               `firestore:"buyerId"`
	Items     []basketItemDocument `firestore:"items"`
	CreatedAt time.Time            `firestore:"createdAt"`
	UpdatedAt time.Time            `firestore:"updatedAt"`
}

type basketItemDocument struct {
	CatalogItemID string `firestore:"catalogItemId"`
	UnitPrice     int64  `firestore:"unitPrice"`
	Quantity      int    `firestore:"quantity"`
}

func encodeBasket(_ context.Context, basket *domain.Basket) (any, error) {
	items := basket.Items()
	doc := basketDocument{
		BuyerID:   basket.BuyerID(),
		Items:     make([]basketItemDocument, 0, len(items)),
		CreatedAt: basket.CreatedAt(),
		UpdatedAt: basket.UpdatedAt(),
	}
	for _, item := range items {
		doc.Items = append(doc.Items, basketItemDocument{
			CatalogItemID: item.CatalogItemID,
			UnitPrice:     item.UnitPrice,
			Quantity:      item.Quantity,
		})
	}
	return doc, nil
}

func decodeBasket(_ context.Context, snap *firestore.DocumentSnapshot) (*domain.Basket, error) {
	var doc basketDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, err
	}
	items := make([]domain.BasketItem, 0, len(doc.Items))
	for _, item := range doc.Items {
		items = append(items, domain.BasketItem{
			CatalogItemID: item.CatalogItemID,
			UnitPrice:     item.UnitPrice,
			Quantity:      item.Quantity,
		})
	}
	return domain.RehydrateBasket(snap.Ref.ID, doc.BuyerID, items, doc.CreatedAt, doc.UpdatedAt), nil
}

type orderDocument struct {
	BuyerID   string              `firestore:"buyerId"`
	OrderDate time.Time           `firestore:"orderDate"`
	ShipTo    addressDocument     `firestore:"shipTo"`
	Items     []orderItemDocument `firestore:"items"`
}

type addressDocument struct {
	Street     string `firestore:"street"`
	City       string `firestore:"city"`
	State      string `firestore:"state,omitempty"`
	Country    string `firestore:"country"`
	PostalCode string `firestore:"postalCode"`
}

type orderItemDocument struct {
	CatalogItemID string `firestore:"catalogItemId"`
	ProductName   string `firestore:"productName"`
	PictureURI    string `firestore:"pictureUri,omitempty"`
	UnitPrice     int64  `firestore:"unitPrice"`
	Quantity      int    `firestore:"quantity"`
}

// The order total is recomputed from the lines on every read, never stored.
func encodeOrder(_ context.Context, order *domain.Order) (any, error) {
	shipTo := order.ShipToAddress()
	items := order.Items()
	doc := orderDocument{
		BuyerID:   order.BuyerID(),
		OrderDate: order.OrderDate(),
		ShipTo: addressDocument{
			Street:     shipTo.Street,
			City:       shipTo.City,
			State:      shipTo.State,
			Country:    shipTo.Country,
			PostalCode: shipTo.PostalCode,
		},
		Items: make([]orderItemDocument, 0, len(items)),
	}
	for _, item := range items {
		doc.Items = append(doc.Items, orderItemDocument{
			CatalogItemID: item.Snapshot.CatalogItemID,
			ProductName:   item.Snapshot.Name,
			PictureURI:    item.Snapshot.ImageURI,
			UnitPrice:     item.UnitPrice,
			Quantity:      item.Quantity,
		})
	}
	return doc, nil
}

func decodeOrder(_ context.Context, snap *firestore.DocumentSnapshot) (*domain.Order, error) {
	var doc orderDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, err
	}
	items := make([]domain.OrderItem, 0, len(doc.Items))
	for _, item := range doc.Items {
		items = append(items, domain.OrderItem{
			Snapshot: domain.ProductSnapshot{
				CatalogItemID: item.CatalogItemID,
				Name:          item.ProductName,
				ImageURI:      item.PictureURI,
			},
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}
	shipTo := domain.Address{
		Street:     doc.ShipTo.Street,
		City:       doc.ShipTo.City,
		State:      doc.ShipTo.State,
		Country:    doc.ShipTo.Country,
		PostalCode: doc.ShipTo.PostalCode,
	}
	return domain.RehydrateOrder(snap.Ref.ID, doc.BuyerID, doc.OrderDate, shipTo, items), nil
}

type catalogItemDocument struct {
	Name     string `firestore:"name"`
	Price    int64  `firestore:"price"`
	ImageURI string `firestore:"imageUri,omitempty"`
}

func decodeCatalogItem(_ context.Context, snap *firestore.DocumentSnapshot) (domain.CatalogItem, error) {
	var doc catalogItemDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.CatalogItem{}, err
	}
	return domain.CatalogItem{
		ID:       snap.Ref.ID,
		Name:     doc.Name,
		Price:    doc.Price,
		ImageURI: doc.ImageURI,
	}, nil
}
