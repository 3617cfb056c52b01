package entities

import "time"

type Customer struct {
	ID        int64
	Name      string
	Email     string
	Phone     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Equal compares customers by email, the immutable business key. Two
// records with the same email are the same customer regardless of the
// surrogate id.
func (c Customer) Equal(other Customer) bool {
	return c.Email != "" && c.Email == other.Email
}
