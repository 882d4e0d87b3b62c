package entity

const (
	CustomerRole = "customer"
	AdminRole    = "admin"
	SystemRole   = "system"
)

// Participant is the identity attached to a live connection.
type Participant struct {
	Identity    string `json:"userId"`
	DisplayName string `json:"userName"`
	Role        string `json:"role"`
}

func (p Participant) IsAdmin() bool {
	return p.Role == AdminRole
}

func (p Participant) IsCustomer() bool {
	return p.Role == CustomerRole
}

func (p Participant) Registered() bool {
	return p.Identity != ""
}

func ValidRole(role string) bool {
	switch role {
	case CustomerRole, AdminRole, SystemRole:
		return true
	}
	return false
}
