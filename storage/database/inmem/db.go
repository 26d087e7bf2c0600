// Package inmemdb provides in-memory repositories backed by maps.
// Used by tests and local development without a database. Listings
// come back in each repository's default order; custom ordering is
// ignored.
package inmemdb

import (
	"sync"

	"github.com/Bernah2o/altavista/core/amenity"
	"github.com/Bernah2o/altavista/core/billing"
	"github.com/Bernah2o/altavista/core/finance"
	"github.com/Bernah2o/altavista/core/incident"
	"github.com/Bernah2o/altavista/core/maintenance"
	"github.com/Bernah2o/altavista/core/property"
	"github.com/Bernah2o/altavista/core/staff"
	"github.com/Bernah2o/altavista/core/supplier"
	"github.com/Bernah2o/altavista/core/user"
)

// DB holds all in-memory tables behind one lock.
type DB struct {
	mu sync.RWMutex

	users         map[string]user.User
	homes         map[string]property.Home
	owners        map[string]property.Owner
	homeOwners    map[string]property.HomeOwner
	fees          map[string]billing.Fee
	payments      map[string]billing.Payment
	transactions  map[string]finance.Transaction
	budgets       map[string]finance.Budget
	funds         map[string]finance.ReserveFund
	fundMovements map[string]finance.FundMovement
	incidents     map[string]incident.Incident
	incidentUpds  map[string]incident.Update
	jobs          map[string]maintenance.Job
	amenities     map[string]amenity.Amenity
	bookings      map[string]amenity.Booking
	employees     map[string]staff.Employee
	suppliers     map[string]supplier.Supplier
}

func NewDB() *DB {
	return &DB{
		users:         make(map[string]user.User),
		homes:         make(map[string]property.Home),
		owners:        make(map[string]property.Owner),
		homeOwners:    make(map[string]property.HomeOwner),
		fees:          make(map[string]billing.Fee),
		payments:      make(map[string]billing.Payment),
		transactions:  make(map[string]finance.Transaction),
		budgets:       make(map[string]finance.Budget),
		funds:         make(map[string]finance.ReserveFund),
		fundMovements: make(map[string]finance.FundMovement),
		incidents:     make(map[string]incident.Incident),
		incidentUpds:  make(map[string]incident.Update),
		jobs:          make(map[string]maintenance.Job),
		amenities:     make(map[string]amenity.Amenity),
		bookings:      make(map[string]amenity.Booking),
		employees:     make(map[string]staff.Employee),
		suppliers:     make(map[string]supplier.Supplier),
	}
}
