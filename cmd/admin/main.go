package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/chatassist/internal/admin"
	"github.com/dmitrijs2005/chatassist/internal/logging"
	"github.com/dmitrijs2005/chatassist/internal/server"
	"github.com/dmitrijs2005/chatassist/internal/server/auth"
	"github.com/dmitrijs2005/chatassist/internal/server/config"
	"github.com/redis/go-redis/v9"
)

// commandArgs drops the global config flags (-c, -env, -m, -d, ...) that
// config.LoadStorageConfig reads, keeping the subcommand and its own flags.
func commandArgs(args []string) []string {
	for i, a := range args {
		if a == "create-user" || a == "deactivate-user" || a == "help" {
			return args[i:]
		}
	}
	return nil
}

func main() {

	ctx := context.Background()

	cfg, err := config.LoadStorageConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	var rdb redis.Cmdable
	if cfg.StorageBackend == config.BackendRedis {
		client, err := server.NewRedisClient(ctx, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		defer client.Close()
		rdb = client
	}

	repos, err := admin.OpenRepositories(ctx, cfg, rdb, logging.NewJSONLogger(os.Stderr, cfg.LogLevel))
	if err != nil {
		fmt.Fprintf(os.Stderr, "storage: %v\n", err)
		os.Exit(1)
	}
	defer repos.Close()

	app := admin.NewApp(repos.Users(), auth.NewPasswordHasher(cfg.BcryptCost), os.Stdout)
	if err := app.Run(ctx, commandArgs(os.Args[1:])); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		repos.Close()
		os.Exit(2)
	}

}
