package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/marcelsud/bookshelf-api/book"
	"github.com/marcelsud/bookshelf-api/config"
	"github.com/marcelsud/bookshelf-api/internal/storage"
	"github.com/marcelsud/bookshelf-api/seed"
)

/* seed - load a YAML catalogue of books into the configured store
 * Usage: go run ./cmd/seed [-dry-run] [-user <id>] [books.yaml]
 * Exit codes: 0 = ok, 1 = invalid file or storage failure
 */

func main() {
	dryRun := flag.Bool("dry-run", false, "only validate the file")
	userID := flag.String("user", "", "owner of the seeded books")
	flag.Parse()

	seedFile := "books.yaml"
	if flag.NArg() > 0 {
		seedFile = flag.Arg(0)
	}

	fmt.Printf("Validating seed file: %s\n", seedFile)
	loader := seed.NewLoader()
	if err := loader.Load(seedFile); err != nil {
		fmt.Fprintf(os.Stderr, "VALIDATION FAILED\n\nError: %v\n", err)
		os.Exit(1)
	}

	books := loader.List()
	fmt.Printf("Loaded %d book(s):\n", len(books))
	for i, b := range books {
		fmt.Printf("%3d. %-40s %-25s %-12s %8.2f\n", i+1, b.Title, b.Author, b.Category, b.Price)
	}

	if *dryRun {
		fmt.Println("\nDry run, nothing stored.")
		return
	}

	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctx := context.Background()
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer store.Close(ctx)

	created, err := loader.Insert(ctx, book.NewService(store), *userID)
	fmt.Printf("\nStored %d of %d book(s) in %s\n", len(created), len(books), cfg.StorageDriver)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		store.Close(ctx)
		os.Exit(1)
	}
}
