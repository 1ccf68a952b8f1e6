package users

import "time"

// Roles conocidos. El rol regulator habilita los reportes de cumplimiento.
const (
	RoleFarmer       = "farmer"
	RoleVeterinarian = "veterinarian"
	RoleProcessor    = "processor"
	RoleRegulator    = "regulator"
	RoleAdmin        = "admin"
)

type User struct {
	ID       string
	Username string
	Email    string
	FullName string
	Phone    string
	Role     string

	// PasswordHash nunca sale por la API.
	PasswordHash string

	Notifications NotificationPrefs

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NotificationPrefs controla qué avisos recibe el usuario.
type NotificationPrefs struct {
	AnomalyAlerts  bool `json:"anomaly_alerts"`
	MovementAlerts bool `json:"movement_alerts"`
	WeeklySummary  bool `json:"weekly_summary"`
}
