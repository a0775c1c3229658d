package inventory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	levels    map[string]StockLevel
	movements []Movement
	nextID    int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{levels: make(map[string]StockLevel)}
}

func levelKey(orgID, locationID, productID int64) string {
	return fmt.Sprintf("%d:%d:%d", orgID, locationID, productID)
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) ListLevels(ctx context.Context, orgID, locationID int64) ([]StockLevel, error) {
	var out []StockLevel
	for _, lvl := range r.levels {
		if lvl.OrgID != orgID {
			continue
		}
		if locationID != 0 && lvl.LocationID != locationID {
			continue
		}
		out = append(out, lvl)
	}
	return out, nil
}

func (r *memoryRepo) ListMovements(ctx context.Context, orgID int64, filter MovementFilter) ([]Movement, error) {
	out := make([]Movement, 0, len(r.movements))
	for _, m := range r.movements {
		if m.OrgID == orgID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memoryRepo) LowStock(ctx context.Context, orgID int64) ([]LowStockItem, error) {
	return nil, nil
}

func (tx *memoryTx) GetLevelForUpdate(ctx context.Context, orgID, locationID, productID int64) (StockLevel, error) {
	if lvl, ok := tx.repo.levels[levelKey(orgID, locationID, productID)]; ok {
		return lvl, nil
	}
	return StockLevel{OrgID: orgID, LocationID: locationID, ProductID: productID}, ErrLevelNotFound
}

func (tx *memoryTx) UpsertLevel(ctx context.Context, level StockLevel) error {
	tx.repo.levels[levelKey(level.OrgID, level.LocationID, level.ProductID)] = level
	return nil
}

func (tx *memoryTx) InsertMovement(ctx context.Context, m Movement) (int64, error) {
	tx.repo.nextID++
	m.ID = tx.repo.nextID
	tx.repo.movements = append(tx.repo.movements, m)
	return m.ID, nil
}

func TestReceiveMovingAverage(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	m, err := svc.Receive(ctx, 1, ReceiveInput{LocationID: 1, ProductID: 1, Qty: 10, UnitCostCents: 1000, Reference: "PO-1"})
	require.NoError(t, err)
	require.EqualValues(t, 10, m.BalanceQty)

	m, err = svc.Receive(ctx, 1, ReceiveInput{LocationID: 1, ProductID: 1, Qty: 10, UnitCostCents: 2000, Reference: "PO-2"})
	require.NoError(t, err)
	require.EqualValues(t, 20, m.BalanceQty)

	level := repo.levels[levelKey(1, 1, 1)]
	require.EqualValues(t, 1500, level.AvgCostCents)
}

func TestAdjustNegativeGuard(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.Adjust(ctx, 1, AdjustInput{LocationID: 1, ProductID: 1, QtyChange: -1, Note: "shrinkage"})
	require.ErrorIs(t, err, ErrNegativeStock)

	_, err = svc.Receive(ctx, 1, ReceiveInput{LocationID: 1, ProductID: 1, Qty: 5, UnitCostCents: 100})
	require.NoError(t, err)

	m, err := svc.Adjust(ctx, 1, AdjustInput{LocationID: 1, ProductID: 1, QtyChange: -3, Note: "shrinkage"})
	require.NoError(t, err)
	require.EqualValues(t, 2, m.BalanceQty)
	require.EqualValues(t, 100, m.UnitCostCents)
}

func TestMoveBetweenLocations(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.Receive(ctx, 1, ReceiveInput{LocationID: 1, ProductID: 7, Qty: 20, UnitCostCents: 500})
	require.NoError(t, err)

	out, in, err := svc.Move(ctx, 1, MoveInput{SrcLocationID: 1, DstLocationID: 2, ProductID: 7, Qty: 5})
	require.NoError(t, err)
	require.EqualValues(t, 15, out.BalanceQty)
	require.EqualValues(t, 5, in.BalanceQty)
	require.EqualValues(t, 500, in.UnitCostCents)

	_, _, err = svc.Move(ctx, 1, MoveInput{SrcLocationID: 1, DstLocationID: 2, ProductID: 7, Qty: 50})
	require.ErrorIs(t, err, ErrNegativeStock)

	_, _, err = svc.Move(ctx, 1, MoveInput{SrcLocationID: 1, DstLocationID: 1, ProductID: 7, Qty: 1})
	require.ErrorIs(t, err, ErrSameLocation)
}

func TestDeductAndRestock(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.Receive(ctx, 1, ReceiveInput{LocationID: 1, ProductID: 3, Qty: 4, UnitCostCents: 250})
	require.NoError(t, err)

	m, err := svc.Deduct(ctx, 1, 1, 3, 4, 9, "SALE-1")
	require.NoError(t, err)
	require.EqualValues(t, 0, m.BalanceQty)

	_, err = svc.Deduct(ctx, 1, 1, 3, 1, 9, "SALE-2")
	require.ErrorIs(t, err, ErrNegativeStock)

	m, err = svc.Restock(ctx, 1, 1, 3, 2, 9, "SALE-1")
	require.NoError(t, err)
	require.EqualValues(t, 2, m.BalanceQty)
	require.Equal(t, MovementRefund, m.Type)
}
