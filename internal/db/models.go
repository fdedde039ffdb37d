package db

import (
	"time"

	"gorm.io/gorm"
)

// Item is one catalog record as stored in a snapshot database.
type Item struct {
	ID               string    `gorm:"primaryKey;type:varchar(8)"`
	Position         int       `gorm:"not null;index:idx_items_position"`
	Artist           string    `gorm:"type:text;not null"`
	Title            string    `gorm:"type:text;not null"`
	Notes            string    `gorm:"type:text;not null;default:''"`
	QuantityOnHand   int       `gorm:"not null;default:0"`
	QuantityReserved int       `gorm:"not null;default:0"`
	UnitPrice        *int64    // NULL until the record is priced, in pence
	UnitsSold        int       `gorm:"not null;default:0"`
	ValueSold        int64     `gorm:"not null;default:0"`
	UpdatedAt        time.Time `gorm:"not null"`
}

// TableName specifies the table name for Item model
func (Item) TableName() string {
	return "items"
}

// BeforeCreate hook to set the timestamp
func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.UpdatedAt.IsZero() {
		i.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// Reservation is a live hold on an item.
type Reservation struct {
	ID       int    `gorm:"primaryKey;autoIncrement:false"`
	ItemID   string `gorm:"type:varchar(8);not null;index:idx_reservations_item"`
	Quantity int    `gorm:"not null"`
}

// TableName specifies the table name for Reservation model
func (Reservation) TableName() string {
	return "reservations"
}

// CountersRowID is the primary key of the single Counters row.
const CountersRowID = 1

// Counters holds the store-wide totals and the snapshot header. A snapshot
// exists in the database exactly when this row does.
type Counters struct {
	ID                int   `gorm:"primaryKey;autoIncrement:false"`
	SnapshotVersion   int   `gorm:"not null"`
	TotalUnitsSold    int   `gorm:"not null;default:0"`
	TotalValueSold    int64 `gorm:"not null;default:0"`
	LastReservationID int   `gorm:"not null;default:0"`
	SavedAt           time.Time
}

// TableName specifies the table name for Counters model
func (Counters) TableName() string {
	return "counters"
}

// BeforeSave hook to stamp the save time
func (c *Counters) BeforeSave(tx *gorm.DB) error {
	c.SavedAt = time.Now().UTC()
	return nil
}
