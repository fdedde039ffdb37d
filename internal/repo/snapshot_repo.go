package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/bookstore/recordstore/internal/db"
	"github.com/bookstore/recordstore/internal/merchant"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrSnapshotNotFound is returned when the database holds no snapshot yet
var ErrSnapshotNotFound = errors.New("snapshot not found")

const createBatchSize = 200

// SnapshotRepository stores merchant snapshots in a SQL database. Each write
// replaces the previous snapshot inside a single transaction.
type SnapshotRepository struct {
	db  *db.DB
	log *zap.Logger
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(database *db.DB, logger *zap.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		db:  database,
		log: logger,
	}
}

// WriteSnapshot replaces the stored snapshot with snap
func (r *SnapshotRepository) WriteSnapshot(ctx context.Context, snap *merchant.Snapshot) error {
	items := make([]db.Item, 0, len(snap.Items))
	for i, si := range snap.Items {
		items = append(items, db.Item{
			ID:               si.ID,
			Position:         i,
			Artist:           si.Artist,
			Title:            si.Title,
			Notes:            si.Notes,
			QuantityOnHand:   si.QuantityOnHand,
			QuantityReserved: si.QuantityReserved,
			UnitPrice:        si.UnitPrice,
			UnitsSold:        si.UnitsSold,
			ValueSold:        si.ValueSold,
		})
	}
	reservations := make([]db.Reservation, 0, len(snap.Reservations))
	for _, res := range snap.Reservations {
		reservations = append(reservations, db.Reservation{
			ID:       res.ID,
			ItemID:   res.ItemID,
			Quantity: res.Quantity,
		})
	}
	counters := db.Counters{
		ID:                db.CountersRowID,
		SnapshotVersion:   snap.Version,
		TotalUnitsSold:    snap.TotalUnitsSold,
		TotalValueSold:    snap.TotalValueSold,
		LastReservationID: snap.LastReservationID,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		wipe := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, model := range []any{&db.Reservation{}, &db.Item{}, &db.Counters{}} {
			if err := wipe.Delete(model).Error; err != nil {
				return fmt.Errorf("clear %T: %w", model, err)
			}
		}

		if len(items) > 0 {
			if err := tx.CreateInBatches(items, createBatchSize).Error; err != nil {
				return fmt.Errorf("insert items: %w", err)
			}
		}
		if len(reservations) > 0 {
			if err := tx.CreateInBatches(reservations, createBatchSize).Error; err != nil {
				return fmt.Errorf("insert reservations: %w", err)
			}
		}
		if err := tx.Create(&counters).Error; err != nil {
			return fmt.Errorf("insert counters: %w", err)
		}
		return nil
	})
	if err != nil {
		r.log.Error("Failed to write snapshot", zap.Error(err))
		return err
	}

	r.log.Debug("Snapshot written",
		zap.Int("items", len(items)),
		zap.Int("reservations", len(reservations)),
	)
	return nil
}

// ReadSnapshot loads the stored snapshot
func (r *SnapshotRepository) ReadSnapshot(ctx context.Context) (*merchant.Snapshot, error) {
	conn := r.db.WithContext(ctx)

	var counters db.Counters
	if err := conn.Where("id = ?", db.CountersRowID).First(&counters).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSnapshotNotFound
		}
		r.log.Error("Failed to read counters", zap.Error(err))
		return nil, err
	}

	var items []db.Item
	if err := conn.Order("position ASC").Find(&items).Error; err != nil {
		r.log.Error("Failed to read items", zap.Error(err))
		return nil, err
	}

	var reservations []db.Reservation
	if err := conn.Order("id ASC").Find(&reservations).Error; err != nil {
		r.log.Error("Failed to read reservations", zap.Error(err))
		return nil, err
	}

	snap := &merchant.Snapshot{
		Version:           counters.SnapshotVersion,
		Items:             make([]merchant.SnapshotItem, 0, len(items)),
		Reservations:      make([]merchant.Reservation, 0, len(reservations)),
		TotalUnitsSold:    counters.TotalUnitsSold,
		TotalValueSold:    counters.TotalValueSold,
		LastReservationID: counters.LastReservationID,
	}
	for _, it := range items {
		snap.Items = append(snap.Items, merchant.SnapshotItem{
			ID:               it.ID,
			Artist:           it.Artist,
			Title:            it.Title,
			Notes:            it.Notes,
			QuantityOnHand:   it.QuantityOnHand,
			QuantityReserved: it.QuantityReserved,
			UnitPrice:        it.UnitPrice,
			UnitsSold:        it.UnitsSold,
			ValueSold:        it.ValueSold,
		})
	}
	for _, res := range reservations {
		snap.Reservations = append(snap.Reservations, merchant.Reservation{
			ID:       res.ID,
			ItemID:   res.ItemID,
			Quantity: res.Quantity,
		})
	}

	r.log.Debug("Snapshot read",
		zap.Int("items", len(snap.Items)),
		zap.Int("reservations", len(snap.Reservations)),
	)
	return snap, nil
}

// Ping checks the underlying database
func (r *SnapshotRepository) Ping() error {
	return r.db.Ping()
}
