package services_test

import (
	"time"

	"stockpos/internal/models"
)

var (
	zeroTime time.Time
	admin    = models.AuthContext{UserID: "admin-1", Email: "admin@example.com", Role: models.RoleAdmin}
)
