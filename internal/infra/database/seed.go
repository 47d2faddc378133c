package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/Ibrakam/Sales-Machine/internal/entity"
)

type demoUser struct {
	email    string
	fullName string
	password string
	role     entity.Role
}

var demoUsers = []demoUser{
	{"admin@example.com", "Administrator", "password", entity.RoleAdmin},
	{"sales@example.com", "Sales Manager", "sales123", entity.RoleSalesRep},
	{"analyst@example.com", "Analyst", "analyst123", entity.RoleAnalyst},
}

// SeedDemoUsers inserts the demo accounts if they are missing. hash is the
// password hasher; injected so this package stays free of crypto concerns.
func SeedDemoUsers(ctx context.Context, users *UserRepository, hash func(string) (string, error)) error {
	for _, d := range demoUsers {
		_, err := users.FindByEmail(ctx, d.email)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		hashed, err := hash(d.password)
		if err != nil {
			return err
		}

		username := strings.SplitN(d.email, "@", 2)[0]
		u := &entity.User{
			Email:          d.email,
			Username:       username,
			FullName:       d.fullName,
			HashedPassword: hashed,
			Role:           d.role,
			IsActive:       true,
			IsVerified:     true,
		}
		if err := users.Create(ctx, u); err != nil {
			return err
		}
	}
	return nil
}
