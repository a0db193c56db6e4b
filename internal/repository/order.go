package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/ucp-flower-shop/internal/domain/checkout"
	"github.com/xenking/ucp-flower-shop/internal/domain/order"
)

const insertOrderSQL = `INSERT INTO orders (id, checkout_id, status, total, payload, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)`

var _ order.Store = (*ArchivingStore)(nil)

// ArchivingStore decorates an order.Store with a write-through PostgreSQL
// archive. Reads are served by the wrapped store; every insert is additionally
// persisted as a frozen JSONB record for history that outlives the process.
type ArchivingStore struct {
	next order.Store
	pool *pgxpool.Pool
}

// NewArchivingStore wraps next with the archive backed by pool.
func NewArchivingStore(next order.Store, pool *pgxpool.Pool) *ArchivingStore {
	return &ArchivingStore{next: next, pool: pool}
}

// Insert stores the order in the wrapped store and archives it.
func (s *ArchivingStore) Insert(ctx context.Context, o order.Order) error {
	if err := s.next.Insert(ctx, o); err != nil {
		return err
	}

	payload, err := json.Marshal(archiveRecord(o))
	if err != nil {
		return errors.Wrapf(err, "marshal order %q", o.ID)
	}

	total := decimal.Zero
	for _, t := range o.Totals {
		if t.Type == checkout.TotalGrand {
			total = t.Amount
		}
	}

	if _, err := s.pool.Exec(ctx, insertOrderSQL,
		o.ID, o.CheckoutID, string(o.Status), total, payload, o.CreatedAt,
	); err != nil {
		return errors.Wrapf(err, "archive order %q", o.ID)
	}
	return nil
}

// Get delegates to the wrapped store.
func (s *ArchivingStore) Get(ctx context.Context, id string) (order.Order, error) {
	return s.next.Get(ctx, id)
}

// List delegates to the wrapped store.
func (s *ArchivingStore) List(ctx context.Context) ([]order.Order, error) {
	return s.next.List(ctx)
}

// archivedOrder is the JSONB payload shape. Line items are stored flat
// (product_id, unit_price) so the archive is queryable without knowledge of
// the nested response format.
type archivedOrder struct {
	ID          string             `json:"id"`
	Status      string             `json:"status"`
	CheckoutID  string             `json:"checkout_id"`
	LineItems   []archivedLineItem `json:"line_items"`
	Buyer       *archivedBuyer     `json:"buyer,omitempty"`
	Totals      []archivedTotal    `json:"totals"`
	Fulfillment *archivedAddress   `json:"fulfillment,omitempty"`
	Payment     archivedPayment    `json:"payment"`
	CreatedAt   time.Time          `json:"created_at"`
}

type archivedLineItem struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Totals    []archivedTotal `json:"totals"`
}

type archivedTotal struct {
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
}

type archivedBuyer struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

type archivedAddress struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Address1   string `json:"address1"`
	City       string `json:"city"`
	Province   string `json:"province"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type archivedPayment struct {
	Status string `json:"status"`
	Method string `json:"method"`
}

func archiveRecord(o order.Order) archivedOrder {
	rec := archivedOrder{
		ID:         o.ID,
		Status:     string(o.Status),
		CheckoutID: o.CheckoutID,
		LineItems:  make([]archivedLineItem, 0, len(o.Items)),
		Totals:     archiveTotals(o.Totals),
		Payment:    archivedPayment{Status: string(o.Payment.Status), Method: o.Payment.Method},
		CreatedAt:  o.CreatedAt,
	}
	for _, it := range o.Items {
		rec.LineItems = append(rec.LineItems, archivedLineItem{
			ID:        it.ID,
			ProductID: it.ProductID,
			Title:     it.Title,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Totals:    archiveTotals(it.Totals),
		})
	}
	if o.Buyer != nil {
		rec.Buyer = &archivedBuyer{FullName: o.Buyer.FullName, Email: o.Buyer.Email}
	}
	if o.Fulfillment != nil {
		d := o.Fulfillment.Destination
		rec.Fulfillment = &archivedAddress{
			FirstName:  d.FirstName,
			LastName:   d.LastName,
			Address1:   d.Address1,
			City:       d.City,
			Province:   d.Province,
			PostalCode: d.PostalCode,
			Country:    d.Country,
		}
	}
	return rec
}

func archiveTotals(totals []checkout.Total) []archivedTotal {
	out := make([]archivedTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, archivedTotal{Type: string(t.Type), Amount: t.Amount})
	}
	return out
}
