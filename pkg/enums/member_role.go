package enums

// MemberRole identifies the capability tier carried in access tokens.
type MemberRole string

const (
	RoleCustomer MemberRole = "customer"
	RoleSeller   MemberRole = "seller"
	RoleAdmin    MemberRole = "admin"
)

func (r MemberRole) IsValid() bool {
	switch r {
	case RoleCustomer, RoleSeller, RoleAdmin:
		return true
	default:
		return false
	}
}
