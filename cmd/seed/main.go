// Command seed fills the configured database with fake users.
package main

import (
	"context"
	"flag"
	"log"

	"social/internal/config"
	"social/internal/database"
	"social/internal/repository"
	"social/internal/seed"

	"github.com/joho/godotenv"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numPosts := flag.Int("posts", 5, "Posts per user")
	numMedia := flag.Int("media", 3, "Media files per user")
	numConversations := flag.Int("conversations", 30, "Conversations to open")
	shouldClean := flag.Bool("clean", true, "Delete every user before seeding")
	seedValue := flag.Int64("seed", 0, "Random seed, 0 for a random run")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = db.Close(ctx) }()

	s := seed.NewSeeder(repository.NewUserRepository(db.Users()), seed.Options{
		NumUsers:      *numUsers,
		PostsPerUser:  *numPosts,
		MediaPerUser:  *numMedia,
		Conversations: *numConversations,
		ShouldClean:   *shouldClean,
		Seed:          *seedValue,
	})
	users, err := s.Run(ctx)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users into %s", len(users), cfg.DBName)
	log.Printf("All seeded users share the password: %s", seed.Password)
}
