package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/tillpoint/tillpoint-backend/internal/users"
	"github.com/tillpoint/tillpoint-backend/pkg/config"
	"github.com/tillpoint/tillpoint-backend/pkg/db"
	"github.com/tillpoint/tillpoint-backend/pkg/enums"
	"github.com/tillpoint/tillpoint-backend/pkg/logger"
	"github.com/tillpoint/tillpoint-backend/pkg/security"
)

const tempPasswordLength = 16

// create-user provisions an account from the command line. There is no
// self-service registration endpoint; operators create accounts and hand the
// generated password to the user.
func main() {
	logg := logger.New(logger.Options{ServiceName: "create-user"})

	_ = godotenv.Load()

	email := flag.String("email", "", "account email (required)")
	firstName := flag.String("first-name", "", "first name (required)")
	lastName := flag.String("last-name", "", "last name (required)")
	phone := flag.String("phone", "", "phone number")
	role := flag.String("role", string(enums.AccountRoleCashier), "account role: admin|manager|cashier|customer")
	password := flag.String("password", "", "initial password; generated when omitted")
	flag.Parse()

	ctx := context.Background()

	if strings.TrimSpace(*email) == "" || strings.TrimSpace(*firstName) == "" || strings.TrimSpace(*lastName) == "" {
		logg.Error(ctx, "missing required flags", fmt.Errorf("email, first-name, and last-name are required"))
		os.Exit(2)
	}

	accountRole, err := enums.ParseAccountRole(*role)
	if err != nil {
		logg.Error(ctx, "invalid role", err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "create-user",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	plaintext := *password
	generated := false
	if plaintext == "" {
		plaintext, err = security.GenerateTempPassword(tempPasswordLength)
		if err != nil {
			logg.Error(ctx, "failed to generate password", err)
			os.Exit(1)
		}
		generated = true
	}

	hash, err := security.HashPassword(plaintext, cfg.Password)
	if err != nil {
		logg.Error(ctx, "failed to hash password", err)
		os.Exit(1)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	var phonePtr *string
	if trimmed := strings.TrimSpace(*phone); trimmed != "" {
		phonePtr = &trimmed
	}

	user, err := users.NewRepository(dbClient.DB()).Create(ctx, users.CreateUserDTO{
		Email:        strings.ToLower(strings.TrimSpace(*email)),
		FirstName:    strings.TrimSpace(*firstName),
		LastName:     strings.TrimSpace(*lastName),
		PasswordHash: hash,
		Phone:        phonePtr,
		Role:         accountRole,
	})
	if err != nil {
		logg.Error(ctx, "failed to create user", err)
		os.Exit(1)
	}

	fmt.Printf("created user %s (%s) with role %s\n", user.ID, user.Email, user.Role)
	if generated {
		fmt.Printf("temporary password: %s\n", plaintext)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
