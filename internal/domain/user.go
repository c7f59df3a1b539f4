package domain

import "time"

type User struct {
	ID           int32     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	ReferralCode string    `json:"referral_code"`
	CreatedAt    time.Time `json:"created_at"`
}

// CustomerRestaurantHistory tracks visits of a customer to a restaurant.
// Its absence means the next transaction is the customer's first there.
type CustomerRestaurantHistory struct {
	CustomerID     int32     `json:"customer_id"`
	RestaurantID   int32     `json:"restaurant_id"`
	FirstVisitDate time.Time `json:"first_visit_date"`
	LastVisitDate  time.Time `json:"last_visit_date"`
	TotalVisits    int32     `json:"total_visits"`
	TotalSpent     int64     `json:"total_spent"`
}
