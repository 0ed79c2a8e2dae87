package domain

import "time"

// Customer is the tenant of the system (customers table). Every lead,
// campaign and activity is scoped by customer_id.
type Customer struct {
	ID       int64  `db:"id"`
	Name     string `db:"name"`     // VARCHAR(255), NOT NULL
	Timezone string `db:"timezone"` // VARCHAR(100), DEFAULT 'Asia/Jerusalem'
	Active   bool   `db:"active"`   // DEFAULT true

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (c *Customer) ToJSON() map[string]any {
	return map[string]any{
		"id":         c.ID,
		"name":       c.Name,
		"timezone":   c.Timezone,
		"active":     c.Active,
		"created_at": c.CreatedAt,
		"updated_at": c.UpdatedAt,
	}
}
