package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/marcelsud/bookshelf-api/config"
	"github.com/marcelsud/bookshelf-api/internal/auth"
	"github.com/marcelsud/bookshelf-api/internal/user"
)

/* token - mint a bearer token for local requests
 * Usage: go run ./cmd/token -user 654001ee5baea9d8f3e2f47d [-ttl 24h]
 * Signs with JWT_SECRET from .env or the environment.
 */

func main() {
	userID := flag.String("user", "", "user id placed in the token subject")
	name := flag.String("name", "", "optional display name")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	j, err := auth.NewJWT(cfg.JWTSecret, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	token, err := j.IssueToken(user.User{ID: *userID, Name: *name})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
