package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/rikoimade/elabftw/pkg/command"
	"github.com/rikoimade/elabftw/pkg/config"
	"github.com/rikoimade/elabftw/pkg/logger"
	"github.com/rikoimade/elabftw/pkg/settings"
	"github.com/rikoimade/elabftw/pkg/storage"
	_ "github.com/rikoimade/elabftw/pkg/storage/backblaze"
	_ "github.com/rikoimade/elabftw/pkg/storage/local"
	_ "github.com/rikoimade/elabftw/pkg/storage/s3"
	_ "github.com/rikoimade/elabftw/pkg/storage/sftp"
)

const usage = `usage: elabstore <config.json> <command> [args]

commands:
  path <relative-path>          print storage path and absolute URI
  put <local-file> <path>       upload a file
  get <path>                    write an object to stdout
  cat-uri <uri>                 write the object at an absolute URI to stdout
  ls [pattern]                  list objects, newest first
  stat <path>                   show object metadata
  rm <path>...                  delete objects
  migrate <from> <to> [pattern] copy objects between storage types
`

func main() {
	// Initialize logger with default settings until the config is read
	logger.Init("info", "json")
	log := logger.Get()

	if len(os.Args) < 3 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	configFile := os.Args[1]

	if err := config.Validate(configFile); err != nil {
		log.Fatal().Err(err).Str("config_file", configFile).Msg("invalid config file")
	}
	cfg, err := config.ParseConfig(configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse config file")
	}

	logger.Init(cfg.GetLogLevel(), cfg.GetLogFormat())
	log = logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := cfg.Provider(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load settings")
	}

	if err := run(ctx, provider, os.Args[2], os.Args[3:], os.Stdout, *log); err != nil {
		log.Fatal().Err(err).Str("command", os.Args[2]).Msg("command failed")
	}
}

func run(ctx context.Context, p settings.Provider, cmd string, args []string, stdout io.Writer, log zerolog.Logger) error {
	factory := storage.NewFactory(log)

	if cmd == "migrate" {
		if len(args) < 2 {
			return fmt.Errorf("migrate needs a source and a destination storage type")
		}
		pattern := ""
		if len(args) > 2 {
			pattern = args[2]
		}
		return migrate(ctx, factory, p, args[0], args[1], pattern, log)
	}

	st, err := factory.Create(p)
	if err != nil {
		return err
	}

	switch cmd {
	case "path":
		if len(args) != 1 {
			return fmt.Errorf("path needs exactly one relative path")
		}
		return command.Locate(st, args[0], stdout)
	case "cat-uri":
		if len(args) != 1 {
			return fmt.Errorf("cat-uri needs exactly one uri")
		}
		// Building the adapter registers the stream wrapper for the storage scheme
		a, err := st.Adapter(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		return command.CatURI(ctx, args[0], stdout)
	}

	a, err := st.Adapter(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	switch cmd {
	case "put":
		if len(args) != 2 {
			return fmt.Errorf("put needs a local file and a destination path")
		}
		return command.Put(ctx, a, args[0], args[1], log)
	case "get":
		if len(args) != 1 {
			return fmt.Errorf("get needs exactly one path")
		}
		return command.Get(ctx, a, args[0], stdout)
	case "ls":
		pattern := ""
		if len(args) > 0 {
			pattern = args[0]
		}
		return command.List(ctx, a, pattern, stdout)
	case "stat":
		if len(args) != 1 {
			return fmt.Errorf("stat needs exactly one path")
		}
		return command.Stat(ctx, a, args[0], stdout)
	case "rm":
		if len(args) == 0 {
			return fmt.Errorf("rm needs at least one path")
		}
		return command.Remove(ctx, a, args, log)
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

func migrate(ctx context.Context, factory *storage.Factory, p settings.Provider, from, to, pattern string, log zerolog.Logger) error {
	src, err := factory.Create(settings.Override{Provider: p, Values: map[string]string{storage.SettingStorageType: from}})
	if err != nil {
		return err
	}
	dst, err := factory.Create(settings.Override{Provider: p, Values: map[string]string{storage.SettingStorageType: to}})
	if err != nil {
		return err
	}

	srcAdapter, err := src.Adapter(ctx)
	if err != nil {
		return err
	}
	defer srcAdapter.Close()

	dstAdapter, err := dst.Adapter(ctx)
	if err != nil {
		return err
	}
	defer dstAdapter.Close()

	return command.Migrate(ctx, srcAdapter, dstAdapter, pattern, storage.MigrateOptions{SkipExisting: true}, log)
}
