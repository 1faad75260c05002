package model

// Location is a restaurant venue.  Tables and waiters belong to exactly one
// location.
type Location struct {
	ID      string // locations.id
	Address string // locations.address
	Name    string // locations.name
}

// Table describes a physical table at a location.  Capacity is the number
// of guests it seats and is always positive.  Tables are read-only to the
// reservation engine.
type Table struct {
	ID          string // tables.id
	LocationID  string // tables.location_id
	TableNumber string // tables.table_number
	Capacity    int    // tables.capacity
}
