package domain

// Role - роль пользователя в каталоге сотрудников
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleHR       Role = "hr"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleHR, RoleManager, RoleEmployee:
		return true
	default:
		return false
	}
}

// Actor - аутентифицированный пользователь, от имени которого выполняется операция.
// TenantID приходит только отсюда: значения арендатора по умолчанию нет.
type Actor struct {
	UserID   int64
	TenantID int64
	Role     Role
	Tier     *int
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
