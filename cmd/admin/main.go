package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"babelbye/backend/internal/config"
	"babelbye/backend/internal/storage"

	"github.com/google/uuid"
)

const usage = `Usage: admin <command> [args]

Commands:
  quota <user_id> <delta>              adjust a user's translation quota
  purge-history <user_id> [peer_id]    delete message receipts
  online                               list users with a live session`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.LoadEnv()
	if err != nil {
		fatalf("loading config: %v", err)
	}
	log := config.NewLogger(cfg.LogLevel)
	ctx := context.Background()

	db, sqlDB, err := storage.OpenPostgres(ctx, cfg, log)
	if err != nil {
		fatalf("%v", err)
	}
	defer sqlDB.Close()

	rdb, err := storage.OpenRedis(ctx, cfg, log)
	if err != nil {
		fatalf("%v", err)
	}
	s := storage.NewStorageService(db, rdb, log)

	if err := runCommand(ctx, s, os.Args[1:]); err != nil {
		fatalf("%v", err)
	}
}

func runCommand(ctx context.Context, s storage.Storage, args []string) error {
	switch args[0] {
	case "quota":
		if len(args) != 3 {
			return fmt.Errorf("usage: admin quota <user_id> <delta>")
		}
		userID, err := parseUserID(args[1])
		if err != nil {
			return err
		}
		delta, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid delta %q: provide an integer", args[2])
		}
		quota, err := s.UpdateQuota(ctx, userID, delta)
		if err != nil {
			return err
		}
		fmt.Printf("User %s now has %d translations left.\n", userID, quota)

	case "purge-history":
		if len(args) < 2 || len(args) > 3 {
			return fmt.Errorf("usage: admin purge-history <user_id> [peer_id]")
		}
		userID, err := parseUserID(args[1])
		if err != nil {
			return err
		}
		var peer *string
		if len(args) == 3 {
			p, err := parseUserID(args[2])
			if err != nil {
				return err
			}
			peer = &p
		}
		n, err := s.DeleteHistory(ctx, userID, peer)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d receipts.\n", n)

	case "online":
		users, err := s.OnlineUsers(ctx)
		if err != nil {
			return err
		}
		if users == nil {
			fmt.Println("Presence is unavailable without Redis.")
			return nil
		}
		for _, id := range users {
			fmt.Println(id)
		}
		fmt.Printf("%d online.\n", len(users))

	default:
		return fmt.Errorf("unknown command %q\n\n%s", args[0], usage)
	}
	return nil
}

func parseUserID(raw string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid user id %q", raw)
	}
	return id.String(), nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
