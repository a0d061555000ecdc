package user

type Role string

const (
	RoleUser   Role = "USER"
	RoleAdmin  Role = "ADMIN"
	RoleChild  Role = "CHILD"
	RoleParent Role = "PARENT"
	RoleStaff  Role = "STAFF"
)

type User struct {
	ID          int    `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	IIN         string `json:"iin,omitempty"`
	Role        Role   `json:"role"`
	IsActive    bool   `json:"is_active"`
	IsVerified  bool   `json:"is_verified"`
	DateJoined  string `json:"date_joined"`
}

type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	PhoneNumber string `json:"phone_number" validate:"required"`
	IIN         string `json:"iin,omitempty"`
}

type loginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}
