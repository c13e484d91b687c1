package domain

type Role string

const (
	RoleOwner     Role = "owner"
	RoleAdmin     Role = "admin"
	RoleDeveloper Role = "developer"
	RoleCashier   Role = "cashier"
)

// Operator is an authenticated staff member acting on one restaurant.
type Operator struct {
	UserID       string
	RestaurantID string
	Role         Role
}

func (o Operator) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if o.Role == r {
			return true
		}
	}
	return false
}
