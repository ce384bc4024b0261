package models

import "time"

// RewardEntry is one append-only rewards-history record
type RewardEntry struct {
	Points      int       `json:"points" bson:"points"`
	Description string    `json:"description" bson:"description"`
	Date        time.Time `json:"date" bson:"date"`
}

// CustomerProfile holds the loyalty-relevant fields of a customer.
// The counters are mutated only via signed increments at order
// completion; RewardsHistory is append-only.
type CustomerProfile struct {
	ID             string        `json:"id" bson:"_id"`
	Name           string        `json:"name" bson:"name"`
	Points         int           `json:"points" bson:"points"`
	LifetimePoints int           `json:"lifetimePoints" bson:"lifetimePoints"`
	TotalOrders    int           `json:"totalOrders" bson:"totalOrders"`
	TotalSpent     float64       `json:"totalSpent" bson:"totalSpent"`
	RewardsHistory []RewardEntry `json:"rewardsHistory,omitempty" bson:"rewardsHistory,omitempty"`
}
