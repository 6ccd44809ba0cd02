package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"codeberg.org/qemxa/server/internal/config"
	"codeberg.org/qemxa/server/internal/logger"
	"codeberg.org/qemxa/server/internal/storage"
)

func usage() {
	fmt.Println("Usage: admin <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  set-tier     - change a user's plan (tier changes normally arrive from billing)")
	fmt.Println("  add-vehicle  - register a vehicle for a user, enforcing the plan's vehicle limit")
	fmt.Println("  issue-token  - print a bearer token for a user (local testing)")
	fmt.Println("\nOptions:")
	fmt.Println("  --user <id>            - user id (all commands)")
	fmt.Println("  --tier <tier>          - free, premium or platinum (set-tier)")
	fmt.Println("  --vin <vin>            - vehicle VIN (add-vehicle)")
	fmt.Println("  --brand/--model/--year - override decoded vehicle details (add-vehicle)")
	fmt.Println("  --email <email>        - email claim (issue-token)")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	command := os.Args[1]

	cfg, err := config.LoadEnvironmentVariables()
	if err != nil {
		logger.Fatal("failed to load configuration", "error", err)
	}

	// issuing a token needs no store
	if command == "issue-token" {
		if err := IssueToken(cfg, config.ParseTokenFlags()); err != nil {
			logger.Fatal("failed to issue token", "error", err)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to open store", "error", err)
	}

	defer store.Close() //nolint:errcheck // best-effort cleanup on exit

	logger.Info("connected to store", "driver", cfg.StoreDriver)

	switch command {
	case "set-tier":
		err = SetTier(ctx, store, config.ParseTierFlags())
	case "add-vehicle":
		err = AddVehicle(ctx, store, config.ParseVehicleFlags())
	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}

	if err != nil {
		logger.FatalErr(err, "command failed", "command", command)
	}
}
