package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/latchkey/latchkey/ldb"
	"github.com/latchkey/latchkey/lmanage"
	"github.com/latchkey/latchkey/lstore"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	if err := run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "latchkey: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: latchkey <verb> [options]

Verbs:
  init     Create the store and report its location
  append   Store a new entry
  update   Replace an entry's secret or jump server
  remove   Delete an entry by name
  lookup   Show one entry by name
  recall   Show one entry by authority signature
  forget   Delete an entry by authority signature
  list     Show every entry, jump chains grouped
  export   Write the whole store to stdout as a base64 archive
  import   Read a base64 archive from stdin into the store

Run 'latchkey <verb> -h' for verb-specific options.
Config is read from $LATCHKEY_CONFIG or ~/.latchkey/config.toml.
`)
}

func run(verb string, args []string) error {
	cfg, err := lmanage.LoadConfig(configPath())
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Verbose)

	cmd, err := parseCommand(verb, args, cfg)
	if err != nil {
		return err
	}

	holder, err := lstore.OpenBolt(cfg.StorePath)
	if err != nil {
		return err
	}
	defer holder.Close()

	kc := lstore.NewKeychain(holder, logger)
	db := ldb.New(kc, logger)
	mgr := lmanage.NewManager(db, lmanage.ManagerOptions{
		DefaultScheme: cfg.DefaultScheme,
		Logger:        logger,
	})
	return mgr.Run(cmd)
}

func configPath() string {
	if path := os.Getenv("LATCHKEY_CONFIG"); path != "" {
		return path
	}
	return lmanage.DefaultConfigPath()
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func parseCommand(verb string, args []string, cfg lmanage.Config) (lmanage.Command, error) {
	switch verb {
	case "init":
		fs := pflag.NewFlagSet("init", pflag.ExitOnError)
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		return lmanage.Init{Path: cfg.StorePath}, nil

	case "append":
		fs := pflag.NewFlagSet("append", pflag.ExitOnError)
		name := fs.StringP("name", "n", "", "entry name; generated when empty")
		host := fs.StringP("host", "H", "", "hostname or IPv4 address (required)")
		port := fs.IntP("port", "p", 0, "port; inferred from scheme when omitted")
		user := fs.StringP("user", "u", "", "connection user (required)")
		scheme := fs.StringP("scheme", "s", "", "connection scheme; inferred from port when omitted")
		jump := fs.StringP("jump-server", "j", "", "name of the stored entry to bounce through")
		keyFile := fs.StringP("key-file", "k", "", "private key file; prompts for a password when omitted")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if *host == "" || *user == "" {
			return nil, fmt.Errorf("append requires --host and --user")
		}
		return lmanage.Append{
			Name: *name, Host: *host, Port: *port, User: *user,
			Scheme: *scheme, JumpName: *jump, KeyFile: *keyFile,
		}, nil

	case "update":
		fs := pflag.NewFlagSet("update", pflag.ExitOnError)
		name := fs.StringP("name", "n", "", "entry name (required)")
		jump := fs.StringP("jump-server", "j", "", "replace the jump server instead of the secret")
		keyFile := fs.StringP("key-file", "k", "", "private key file; prompts for a password when omitted")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if *name == "" {
			return nil, fmt.Errorf("update requires --name")
		}
		return lmanage.Update{Name: *name, JumpName: *jump, KeyFile: *keyFile}, nil

	case "remove":
		fs := pflag.NewFlagSet("remove", pflag.ExitOnError)
		name := fs.StringP("name", "n", "", "entry name (required)")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if *name == "" {
			return nil, fmt.Errorf("remove requires --name")
		}
		return lmanage.Remove{Name: *name}, nil

	case "lookup":
		fs := pflag.NewFlagSet("lookup", pflag.ExitOnError)
		name := fs.StringP("name", "n", "", "entry name (required)")
		reveal := fs.BoolP("reveal", "r", false, "print the secret in clear instead of masked")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if *name == "" {
			return nil, fmt.Errorf("lookup requires --name")
		}
		return lmanage.Lookup{Name: *name, Reveal: *reveal}, nil

	case "recall":
		fs := pflag.NewFlagSet("recall", pflag.ExitOnError)
		sig := fs.StringP("auth", "a", "", "authority signature (required)")
		reveal := fs.BoolP("reveal", "r", false, "print the secret in clear instead of masked")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if *sig == "" {
			return nil, fmt.Errorf("recall requires --auth")
		}
		return lmanage.Recall{Signature: *sig, Reveal: *reveal}, nil

	case "forget":
		fs := pflag.NewFlagSet("forget", pflag.ExitOnError)
		sig := fs.StringP("auth", "a", "", "authority signature (required)")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if *sig == "" {
			return nil, fmt.Errorf("forget requires --auth")
		}
		return lmanage.Forget{Signature: *sig}, nil

	case "list":
		fs := pflag.NewFlagSet("list", pflag.ExitOnError)
		vertical := fs.BoolP("vertical", "v", false, "one block per entry instead of a table")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		return lmanage.List{Vertical: *vertical}, nil

	case "export":
		fs := pflag.NewFlagSet("export", pflag.ExitOnError)
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		return lmanage.Export{To: os.Stdout}, nil

	case "import":
		fs := pflag.NewFlagSet("import", pflag.ExitOnError)
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		return lmanage.Import{From: os.Stdin}, nil

	default:
		printUsage()
		return nil, fmt.Errorf("unknown verb %q", verb)
	}
}
