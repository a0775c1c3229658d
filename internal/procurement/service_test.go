package procurement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-pos/meridian/internal/inventory"
	"github.com/meridian-pos/meridian/internal/shared"
)

type memoryRepo struct {
	suppliers map[int64]Supplier
	purchases map[int64]Purchase
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{suppliers: make(map[int64]Supplier), purchases: make(map[int64]Purchase)}
}

func (r *memoryRepo) ListSuppliers(ctx context.Context, orgID int64) ([]Supplier, error) {
	var out []Supplier
	for _, s := range r.suppliers {
		if s.OrgID == orgID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memoryRepo) GetSupplier(ctx context.Context, orgID, id int64) (Supplier, error) {
	s, ok := r.suppliers[id]
	if !ok || s.OrgID != orgID {
		return Supplier{}, shared.ErrNotFound
	}
	return s, nil
}

func (r *memoryRepo) CreateSupplier(ctx context.Context, orgID int64, input SupplierInput) (Supplier, error) {
	r.nextID++
	s := Supplier{ID: r.nextID, OrgID: orgID, Name: input.Name, Email: input.Email, Phone: input.Phone, Address: input.Address}
	r.suppliers[s.ID] = s
	return s, nil
}

func (r *memoryRepo) UpdateSupplier(ctx context.Context, orgID, id int64, input SupplierInput) (Supplier, error) {
	s, err := r.GetSupplier(ctx, orgID, id)
	if err != nil {
		return Supplier{}, err
	}
	s.Name = input.Name
	r.suppliers[id] = s
	return s, nil
}

func (r *memoryRepo) DeleteSupplier(ctx context.Context, orgID, id int64) error {
	if _, err := r.GetSupplier(ctx, orgID, id); err != nil {
		return err
	}
	delete(r.suppliers, id)
	return nil
}

func (r *memoryRepo) CreatePurchase(ctx context.Context, orgID, createdBy int64, input PurchaseInput, totalCents int64) (Purchase, error) {
	r.nextID++
	p := Purchase{
		ID:         r.nextID,
		OrgID:      orgID,
		SupplierID: input.SupplierID,
		LocationID: input.LocationID,
		Number:     input.Number,
		Status:     StatusOrdered,
		TotalCents: totalCents,
		Note:       input.Note,
		CreatedBy:  createdBy,
	}
	for i, line := range input.Lines {
		p.Lines = append(p.Lines, PurchaseLine{
			ID:            int64(i + 1),
			PurchaseID:    p.ID,
			ProductID:     line.ProductID,
			Qty:           line.Qty,
			UnitCostCents: line.UnitCostCents,
		})
	}
	r.purchases[p.ID] = p
	return p, nil
}

func (r *memoryRepo) ListPurchases(ctx context.Context, orgID int64, status PurchaseStatus) ([]Purchase, error) {
	var out []Purchase
	for _, p := range r.purchases {
		if p.OrgID != orgID {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *memoryRepo) GetPurchase(ctx context.Context, orgID, id int64) (Purchase, error) {
	p, ok := r.purchases[id]
	if !ok || p.OrgID != orgID {
		return Purchase{}, shared.ErrNotFound
	}
	return p, nil
}

func (r *memoryRepo) UpdatePurchaseNote(ctx context.Context, orgID, id int64, note string) (Purchase, error) {
	p, err := r.GetPurchase(ctx, orgID, id)
	if err != nil {
		return Purchase{}, err
	}
	p.Note = note
	r.purchases[id] = p
	return p, nil
}

func (r *memoryRepo) SetPurchaseStatus(ctx context.Context, orgID, id int64, status PurchaseStatus, receivedAt *time.Time) error {
	p, err := r.GetPurchase(ctx, orgID, id)
	if err != nil {
		return err
	}
	if p.Status != StatusOrdered {
		return ErrNotOrdered
	}
	p.Status = status
	p.ReceivedAt = receivedAt
	r.purchases[id] = p
	return nil
}

type stubInventory struct {
	received []inventory.ReceiveInput
}

func (s *stubInventory) Receive(ctx context.Context, orgID int64, input inventory.ReceiveInput) (inventory.Movement, error) {
	s.received = append(s.received, input)
	return inventory.Movement{Type: inventory.MovementReceive, QtyChange: input.Qty}, nil
}

func TestCreatePurchaseTotalsLines(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &stubInventory{}, nil, nil)
	ctx := context.Background()

	purchase, err := svc.CreatePurchase(ctx, 1, 9, PurchaseInput{
		SupplierID: 1,
		LocationID: 1,
		Lines: []PurchaseLineInput{
			{ProductID: 1, Qty: 10, UnitCostCents: 500},
			{ProductID: 2, Qty: 3, UnitCostCents: 1200},
		},
	}, "")
	require.NoError(t, err)
	require.EqualValues(t, 8600, purchase.TotalCents)
	require.Equal(t, StatusOrdered, purchase.Status)
	require.NotEmpty(t, purchase.Number)

	_, err = svc.CreatePurchase(ctx, 1, 9, PurchaseInput{SupplierID: 1, LocationID: 1}, "")
	require.ErrorIs(t, err, ErrEmptyLines)

	_, err = svc.CreatePurchase(ctx, 1, 9, PurchaseInput{
		SupplierID: 1,
		LocationID: 1,
		Lines:      []PurchaseLineInput{{ProductID: 1, Qty: 0, UnitCostCents: 500}},
	}, "")
	require.ErrorIs(t, err, ErrInvalidLine)
}

func TestReceivePurchasePostsStock(t *testing.T) {
	repo := newMemoryRepo()
	inv := &stubInventory{}
	svc := NewService(repo, inv, nil, nil)
	ctx := context.Background()

	purchase, err := svc.CreatePurchase(ctx, 1, 9, PurchaseInput{
		SupplierID: 1,
		LocationID: 2,
		Number:     "PO-100",
		Lines: []PurchaseLineInput{
			{ProductID: 1, Qty: 10, UnitCostCents: 500},
			{ProductID: 2, Qty: 5, UnitCostCents: 100},
		},
	}, "")
	require.NoError(t, err)

	received, err := svc.ReceivePurchase(ctx, 1, purchase.ID, 9)
	require.NoError(t, err)
	require.Equal(t, StatusReceived, received.Status)
	require.Len(t, inv.received, 2)
	require.Equal(t, "PO-100", inv.received[0].Reference)
	require.EqualValues(t, 2, inv.received[0].LocationID)

	_, err = svc.ReceivePurchase(ctx, 1, purchase.ID, 9)
	require.ErrorIs(t, err, ErrNotOrdered)
}

func TestCancelPurchase(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &stubInventory{}, nil, nil)
	ctx := context.Background()

	purchase, err := svc.CreatePurchase(ctx, 1, 9, PurchaseInput{
		SupplierID: 1,
		LocationID: 1,
		Lines:      []PurchaseLineInput{{ProductID: 1, Qty: 1, UnitCostCents: 100}},
	}, "")
	require.NoError(t, err)

	require.NoError(t, svc.CancelPurchase(ctx, 1, purchase.ID, 9))

	_, err = svc.ReceivePurchase(ctx, 1, purchase.ID, 9)
	require.ErrorIs(t, err, ErrNotOrdered)
}
