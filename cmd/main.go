package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"showbot/admin"
	"showbot/auth"
	"showbot/handlers"
	"showbot/internal"
	"showbot/moderation"
	"showbot/plugins"
	"showbot/repositories"
	"showbot/runtime"
	"showbot/runtime/workers"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components and manages the process lifecycle. Keeping
// the logic out of main ensures defers execute before the process exits.
func run() error {
	// 1. Configuration & logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Lookup dataset (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.LookupDBPath).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		return fmt.Errorf("lookup database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing lookup database...")
		_ = db.Close()
	}()
	lookup := repositories.NewLookup(db, log)

	// 3. Root context & signals. The admin surface and the shutdown command
	// cancel the same context a SIGTERM does.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Session core
	session := runtime.NewSession(runtime.Options{
		URL:            config.URL(),
		Username:       config.Username,
		Password:       config.Password,
		Avatar:         config.Avatar,
		StatusText:     config.StatusText,
		Rooms:          config.RoomList(),
		MainRoom:       config.MainRoom,
		CommandPrefix:  config.CommandCharacter,
		Administrators: config.AdministratorList(),
	}, log)

	// 5. Handlers, commands, moderation
	blocklist, err := moderation.LoadBlocklist()
	if err != nil {
		return fmt.Errorf("loading moderation blocklist: %w", err)
	}
	moderator, err := moderation.NewModerator(blocklist.Words)
	if err != nil {
		return fmt.Errorf("building moderation matcher: %w", err)
	}
	log.Info("moderation blocklist ready",
		"words", len(blocklist.Words), "languages", blocklist.Languages)

	commands := plugins.NewRegistry(plugins.Deps{Lookup: lookup, Shutdown: stop}, log)
	commands.RegisterBuiltins()

	handlers.RegisterAll(session, handlers.Deps{
		Commands:  commands,
		Login:     auth.NewLoginClient(config.LoginEndpoint, nil),
		Moderator: &moderator,
	})
	registerStartupTasks(session, lookup)

	// 6. Admin surface
	adminServer := admin.NewServer(session, admin.Options{
		Username:     config.AdminUsername,
		PasswordHash: config.AdminPasswordHash,
		Issuer:       auth.NewTokenIssuer(config.AdminTokenSecret, config.AdminTokenDuration),
		Shutdown:     stop,
	}, log)

	// 7. Supervision: the session reconnects through the supervisor's restart
	// policy, the admin surface lives and dies with the context.
	sup := workers.NewSupervisor(log, config.RestartInterval).Add(
		workers.NewSessionWorker(session),
		workers.NewAdminWorker(adminServer, config.AdminAddr),
	)
	sup.Run(ctx)

	log.Info("Shutdown complete")
	return nil
}

// registerStartupTasks wires the tiered pre-connection sequence: storage
// first, derived state later, readiness last.
func registerStartupTasks(session *runtime.Session, lookup repositories.Lookup) {
	session.AddStartupTask(runtime.StartupTask{
		Tier:       1,
		Name:       "seed lookup languages",
		SkipInTest: true,
		Run: func(context.Context, *runtime.Session) error {
			return lookup.SeedDefaults()
		},
	})
	session.AddStartupTask(runtime.StartupTask{
		Tier:       2,
		Name:       "wire language resolver",
		SkipInTest: true,
		Run: func(_ context.Context, s *runtime.Session) error {
			langs, err := lookup.Languages()
			if err != nil {
				return err
			}
			if len(langs) == 0 {
				return fmt.Errorf("lookup dataset has no languages")
			}
			s.Registry().SetLanguageResolver(lookup.LanguageID)
			return nil
		},
	})
	session.AddStartupTask(runtime.StartupTask{
		Tier: 5,
		Name: "announce readiness",
		Run: func(_ context.Context, s *runtime.Session) error {
			s.Logger().Info("startup sequence complete, connecting")
			return nil
		},
	})
}
