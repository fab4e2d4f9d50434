package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"wordguess/internal/db"
	"wordguess/internal/domain"
	"wordguess/internal/repository"
	"wordguess/internal/service"
)

func main() {
	// expects DATABASE_URL env var
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	name := flag.String("name", "Animals", "configuration name")
	grid := flag.Int("grid", 16, "number of cards on the board")
	words := flag.String("words", defaultWords, "comma separated word bank")
	classID := flag.String("class", "", "optional class id")
	student := flag.String("student", "", "print an identity token for this student id (needs JWT_SECRET)")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	cfg := &domain.WordBankConfig{
		Name:     *name,
		GridSize: *grid,
		Words:    splitWords(*words),
	}
	if *classID != "" {
		cfg.ClassID = classID
	}
	if len(cfg.Words) < cfg.GridSize {
		log.Fatalf("word bank has %d words, grid needs %d", len(cfg.Words), cfg.GridSize)
	}

	repo := repository.NewConfigRepository(pool)
	if err := repo.Create(ctx, cfg); err != nil {
		log.Fatalf("create config failed: %v", err)
	}
	log.Printf("config created id=%s grid=%d words=%d\n", cfg.ID, cfg.GridSize, len(cfg.Words))

	// verify read
	got, err := repo.GetConfig(ctx, cfg.ID)
	if err != nil {
		log.Fatalf("get config failed: %v", err)
	}
	log.Printf("fetched config id=%s name=%s created_at=%v\n", got.ID, got.Name, got.CreatedAt)

	if *student != "" {
		ids := service.NewIdentityService(os.Getenv("JWT_SECRET"), 0)
		token, err := ids.Issue(*student, *classID)
		if err != nil {
			log.Fatalf("failed to generate token: %v", err)
		}
		log.Printf("token=%s\n", token)
	}
}

func splitWords(s string) []string {
	var out []string
	for _, w := range strings.Split(s, ",") {
		if w = strings.TrimSpace(w); w != "" {
			out = append(out, w)
		}
	}
	return out
}

const defaultWords = "cat,dog,horse,eagle,shark,tiger,zebra,otter,panda,camel," +
	"koala,lemur,moose,llama,bison,gecko,raven,whale,snail,hyena"
