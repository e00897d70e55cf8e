package domain

// User holds the cart that gets cleared once payment for its orders is
// captured. The cart maps product id to quantity.
type User struct {
	ID   string         `json:"id"`
	Cart map[string]int `json:"cart"`
}
