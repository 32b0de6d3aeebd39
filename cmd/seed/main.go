// Package main provides a tool to seed the FindShroom database.
//
// It fills an empty mushroom catalog with common species, can create an
// admin account and can print fresh subscription keys.
//
// Usage:
//
//	go run ./cmd/seed --data-path ~/FindShroom/data
//	go run ./cmd/seed --admin-username admin --admin-password secret
//	go run ./cmd/seed --keys 5
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/findshroom/findshroom-server/internal/auth"
	"github.com/findshroom/findshroom-server/internal/domain"
	"github.com/findshroom/findshroom-server/internal/id"
	"github.com/findshroom/findshroom-server/internal/store"
	"github.com/findshroom/findshroom-server/internal/store/sqlite"
)

var (
	dataPath      = flag.String("data-path", "", "Data directory (default: $FINDSHROOM_DATA_PATH or ~/FindShroom/data)")
	adminUsername = flag.String("admin-username", "", "Create an admin user with this name")
	adminPassword = flag.String("admin-password", "", "Password for the admin user")
	keyCount      = flag.Int("keys", 0, "Print this many fresh subscription keys")
	skipCatalog   = flag.Bool("skip-catalog", false, "Do not seed the mushroom catalog")
)

// catalog is the starter set of species.
var catalog = []domain.Mushroom{
	{
		Name:            "Porcini",
		ScientificName:  "Boletus edulis",
		Description:     "Large bolete with a brown cap and a thick white stem covered in a fine net.",
		IsEdible:        true,
		Habitat:         "Coniferous and deciduous forests, often under spruce, pine and birch",
		Season:          "June to October",
		Characteristics: "White pores turning yellow-olive with age; flesh does not change colour when cut",
	},
	{
		Name:            "Chanterelle",
		ScientificName:  "Cantharellus cibarius",
		Description:     "Egg-yellow funnel-shaped mushroom with a fruity smell.",
		IsEdible:        true,
		Habitat:         "Mossy coniferous and mixed forests",
		Season:          "June to October",
		Characteristics: "Blunt forked ridges running down the stem instead of true gills",
	},
	{
		Name:            "Fly agaric",
		ScientificName:  "Amanita muscaria",
		Description:     "Red cap with white warts; poisonous and psychoactive.",
		IsEdible:        false,
		Habitat:         "Birch and pine woodland",
		Season:          "August to November",
		Characteristics: "White gills, ring on the stem, bulbous base with warty rings",
	},
	{
		Name:            "Death cap",
		ScientificName:  "Amanita phalloides",
		Description:     "Olive-green cap; deadly poisonous, responsible for most fatal mushroom poisonings.",
		IsEdible:        false,
		Habitat:         "Under oak, beech and hazel",
		Season:          "July to November",
		Characteristics: "White gills, skirt-like ring, sac-like volva at the base",
	},
	{
		Name:            "Orange birch bolete",
		ScientificName:  "Leccinum versipelle",
		Description:     "Orange cap on a tall stem with dark scales.",
		IsEdible:        true,
		Habitat:         "Under birch",
		Season:          "July to October",
		Characteristics: "Flesh turns grey-black when cut",
	},
	{
		Name:            "Honey fungus",
		ScientificName:  "Armillaria mellea",
		Description:     "Clustered honey-coloured caps on wood; edible only after thorough cooking.",
		IsEdible:        true,
		Habitat:         "Stumps and roots of broadleaf trees",
		Season:          "August to November",
		Characteristics: "Grows in dense clumps, ring on the stem, white spore print",
	},
	{
		Name:            "Saffron milk cap",
		ScientificName:  "Lactarius deliciosus",
		Description:     "Orange cap with concentric rings that exudes orange milk.",
		IsEdible:        true,
		Habitat:         "Young pine forests",
		Season:          "July to October",
		Characteristics: "Bruises green; carrot-orange latex",
	},
	{
		Name:            "Common stinkhorn",
		ScientificName:  "Phallus impudicus",
		Description:     "Foul-smelling fungus emerging from a white egg.",
		IsEdible:        false,
		Habitat:         "Woodland and gardens with rich soil",
		Season:          "June to November",
		Characteristics: "Slimy olive-brown cap attracts flies",
	},
}

func main() {
	flag.Parse()

	path, err := resolveDataPath(*dataPath)
	if err != nil {
		log.Fatalf("Failed to resolve data path: %v", err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		log.Fatalf("Failed to create data path: %v", err)
	}

	dbPath := filepath.Join(path, "findshroom.db")
	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := sqlite.Open(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	if !*skipCatalog {
		seedCatalog(ctx, s)
	}

	if *adminUsername != "" {
		if err := createAdmin(ctx, s, *adminUsername, *adminPassword); err != nil {
			log.Fatalf("Failed to create admin: %v", err)
		}
	}

	for range *keyCount {
		key, err := id.SubscriptionKey()
		if err != nil {
			log.Fatalf("Failed to generate subscription key: %v", err)
		}
		fmt.Println(key)
	}
}

func resolveDataPath(flagValue string) (string, error) {
	p := flagValue
	if p == "" {
		p = os.Getenv("FINDSHROOM_DATA_PATH")
	}
	if p == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "FindShroom", "data"), nil
	}
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		p = filepath.Join(home, p[2:])
	}
	return filepath.Abs(p)
}

func seedCatalog(ctx context.Context, s *sqlite.Store) {
	count, err := s.CountMushrooms(ctx)
	if err != nil {
		log.Fatalf("Failed to count catalog: %v", err)
	}
	if count > 0 {
		fmt.Printf("Catalog already has %d entries, skipping\n", count)
		return
	}

	for _, m := range catalog {
		if err := s.CreateMushroom(ctx, &m); err != nil {
			log.Printf("Failed to add %s: %v", m.Name, err)
			continue
		}
		fmt.Printf("  + %s (%s)\n", m.Name, m.ScientificName)
	}
	fmt.Printf("Seeded %d catalog entries\n", len(catalog))
}

func createAdmin(ctx context.Context, s *sqlite.Store, username, password string) error {
	if len(password) < 4 {
		return errors.New("admin password must be at least 4 characters")
	}

	existing, err := s.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		if existing.IsAdmin {
			fmt.Printf("User %s is already an admin\n", username)
			return nil
		}
		existing.IsAdmin = true
		if err := s.UpdateUser(ctx, existing); err != nil {
			return err
		}
		fmt.Printf("Promoted %s to admin\n", username)
		return nil
	case !errors.Is(err, store.ErrNotFound):
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	u := &domain.User{
		Username:     username,
		PasswordHash: hash,
		IsAdmin:      true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.CreateUser(ctx, u); err != nil {
		return err
	}
	if _, err := s.GetOrCreateUserStats(ctx, u.ID); err != nil {
		return err
	}
	fmt.Printf("Created admin %s (id %d)\n", username, u.ID)
	return nil
}
