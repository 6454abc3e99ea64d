package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

var demoUsers = []types.CreateUserRequest{
	{Email: "john.doe@example.com", Username: "johndoe", FirstName: "John", LastName: "Doe"},
	{Email: "jane.smith@example.com", Username: "janesmith", FirstName: "Jane", LastName: "Smith"},
}

func main() {
	ingredientsPath := flag.String("ingredients", "data/ingredients.json", "Path to the ingredients JSON file")
	tagsPath := flag.String("tags", "data/tags.json", "Path to the tags JSON file")
	withDemoUsers := flag.Bool("demo-users", false, "Create demo users and print their tokens")
	demoPassword := flag.String("demo-password", "testpassword123", "Password for the demo users")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logging.Setup(cfg)

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.RunMigrations(db, cfg.MigrationsDir); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx := context.Background()
	catalog := service.NewCatalogService(db)

	var tags []models.Tag
	if err := readJSON(*tagsPath, &tags); err != nil {
		log.Fatalf("Failed to read tags: %v", err)
	}
	added, err := catalog.LoadTags(ctx, tags)
	if err != nil {
		log.Fatalf("Failed to load tags: %v", err)
	}
	log.WithFields(log.Fields{"file": *tagsPath, "added": added, "total": len(tags)}).Info("tags loaded")

	var ingredients []models.Ingredient
	if err := readJSON(*ingredientsPath, &ingredients); err != nil {
		log.Fatalf("Failed to read ingredients: %v", err)
	}
	added, err = catalog.LoadIngredients(ctx, ingredients)
	if err != nil {
		log.Fatalf("Failed to load ingredients: %v", err)
	}
	log.WithFields(log.Fields{"file": *ingredientsPath, "added": added, "total": len(ingredients)}).Info("ingredients loaded")

	if !*withDemoUsers {
		return
	}

	users := service.NewUserService(db, service.NewSubscriptionService(db))
	auth := service.NewAuthService(db, cfg.JWTSecret)
	for _, req := range demoUsers {
		req.Password = *demoPassword
		user, err := users.CreateUser(ctx, &req)
		if err != nil {
			if service.KindOf(err) == service.KindValidation {
				log.WithField("username", req.Username).Info("demo user already exists, skipping")
				continue
			}
			log.Fatalf("Failed to create user %s: %v", req.Username, err)
		}

		token, err := auth.GenerateToken(user)
		if err != nil {
			log.Fatalf("Failed to sign token for %s: %v", user.Username, err)
		}
		fmt.Printf("%s (id %d): Bearer %s\n", user.Username, user.ID, token)
	}
}

// readJSON decodes the JSON array at path. Ingredient files use the
// {"name", "measurement_unit"} shape of the model tags.
func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}
