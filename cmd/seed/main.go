// seed inserts one account per role into the local dev database.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/ErlanBelekov/cyberaid/internal/credential"
	"github.com/ErlanBelekov/cyberaid/internal/domain"
	"github.com/ErlanBelekov/cyberaid/internal/infrastructure/postgres"
	"github.com/ErlanBelekov/cyberaid/internal/usecase"
)

const seedPassword = "password123"

var accounts = []usecase.RegisterInput{
	{FirstName: "Ada", LastName: "Admin", Email: "admin@cyberaid.local", Role: domain.RoleAdmin},
	{
		FirstName:        "Nora",
		LastName:         "Ngo",
		Email:            "ngo@cyberaid.local",
		Role:             domain.RoleNGO,
		OrganizationName: "Open Shelter Network",
		AreasOfConcern:   "phishing, ransomware recovery",
	},
	{FirstName: "Victor", LastName: "Volunteer", Email: "volunteer@cyberaid.local", Role: domain.RoleVolunteer, HoursAvailablePerWeek: 6},
}

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set, run: direnv allow")
	}

	pool, err := postgres.NewPool(ctx, dbURL, 2, 0)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	hasher, err := credential.New(credential.DefaultCost, 1)
	if err != nil {
		log.Fatalf("hasher: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	admins := usecase.NewAdminUsecase(postgres.NewUserRepository(pool), hasher, logger)
	seeder := domain.Principal{Role: domain.RoleAdmin}

	var created, skipped int
	for _, in := range accounts {
		in.Password = seedPassword
		u, err := admins.AddUser(ctx, seeder, in)
		switch {
		case errors.Is(err, domain.ErrEmailTaken):
			skipped++
			continue
		case err != nil:
			log.Fatalf("seed %s: %v", in.Email, err)
		}
		created++
		fmt.Printf("  %-9s %-26s id %d\n", u.Role, u.Email, u.ID)
	}

	fmt.Println()
	fmt.Printf("Seed complete: %d created, %d already existing\n", created, skipped)
	fmt.Printf("Every account uses the password %q.\n", seedPassword)
	fmt.Println()
	fmt.Println("Log in as the NGO and list volunteers:")
	fmt.Println()
	fmt.Println("  curl -s -X POST http://localhost:8080/auth/login \\")
	fmt.Println("    -H 'Content-Type: application/json' \\")
	fmt.Printf("    -d '{\"email\":\"ngo@cyberaid.local\",\"password\":\"%s\"}'\n", seedPassword)
	fmt.Println()
	fmt.Println("  export JWT=eyJ...")
	fmt.Println("  curl -s http://localhost:8080/volunteers -H \"Authorization: Bearer $JWT\"")
}
