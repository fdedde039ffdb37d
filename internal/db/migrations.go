package db

// RunMigrations creates or updates the snapshot tables
func RunMigrations(db *DB) error {
	return db.AutoMigrate(&Item{}, &Reservation{}, &Counters{})
}
