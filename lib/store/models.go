package store

import "time"

// Lookup contains the fields of an account lookup saved to DB.
type Lookup struct {
	Address  string    `json:"address" bson:"address"`
	Lamports uint64    `json:"lamports" bson:"lamports"`
	Found    bool      `json:"found" bson:"found"`
	TS       time.Time `json:"ts" bson:"ts"`
}
