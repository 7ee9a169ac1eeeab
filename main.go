package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"pongrank/internal/back"
	"pongrank/internal/config"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
)

// Version holds the build-time version string.
var Version = "unknown" // nolint:gochecknoglobals

func main() {
	flag.Bool(autoAddFlag, false, "create unknown players found in imported files, defaults to AutoAddPlayersDefault")
	limit := flag.Int("limit", 0, "maximum number of history entries to display, 0 for all")
	migrations := flag.String("migrations", "resources/migrations", "directory holding the SQL migrations")
	flag.Parse()

	var err error
	switch flag.Arg(0) {
	case "version":
		fmt.Fprintf(os.Stdout, "pongrank %s\n", Version)
		return
	case "help":
		fmt.Fprint(os.Stdout, help())
		return
	case "serve":
		err = withConfig(serve)
	case "migrate":
		err = withConfig(func(conf *config.Config) error {
			return back.Migrate(conf.DBPath, *migrations)
		})
	case "import-ratings", "import-results":
		err = withConfig(func(conf *config.Config) error {
			autoAdd := autoAddPolicy(flag.CommandLine, conf.AutoAddPlayersDefault)
			return importFile(conf, flag.Arg(0) == "import-results", flag.Arg(1), autoAdd)
		})
	case "history":
		err = withConfig(func(conf *config.Config) error {
			return printHistory(conf, flag.Arg(1), *limit)
		})
	case "dev:fixtures":
		err = withConfig(loadFixtures)
	case "config:write":
		err = withConfig(func(conf *config.Config) error {
			return conf.Write()
		})
	default:
		fmt.Fprint(os.Stderr, help())
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("error: %s", err)
	}
}

const autoAddFlag = "auto-add"

// autoAddPolicy returns the value of the -auto-add flag when it was given on
// the command line, def otherwise.
func autoAddPolicy(fs *flag.FlagSet, def bool) bool {
	ret := def
	fs.Visit(func(f *flag.Flag) {
		if f.Name != autoAddFlag {
			return
		}

		if v, err := strconv.ParseBool(f.Value.String()); err == nil {
			ret = v
		}
	})

	return ret
}

func withConfig(cb func(*config.Config) error) error {
	conf, err := config.NewFromUserConfigDir()
	if err != nil {
		return fmt.Errorf("unable to load configuration: %w", err)
	}

	return cb(conf)
}

func openBack(conf *config.Config) (*back.Back, error) {
	return back.New("sqlite3", conf.DBPath, conf, nil)
}

func help() string {
	return fmt.Sprintf(`
pongrank keeps track of table tennis ratings across tournaments.

Usage: %[1]s [FLAGS] COMMAND [ARGS…]

COMMANDS
    config:write          save the current configuration to the user config dir
    dev:fixtures          create default data for quick testing during development
    help                  display this help
    history NAME          display the rating history of a player
    import-ratings FILE   record a tournament from final ratings (CSV or JSON)
    import-results FILE   record a tournament from match results (CSV or JSON)
    migrate               create or update the database schema
    serve                 start the HTTP API
    version               display the current version

FLAGS
    -auto-add[=BOOL]      create unknown players while importing,
                          overrides AutoAddPlayersDefault when given
    -limit N              only display the N most recent history entries
    -migrations DIR       migrations directory (default "resources/migrations")

Configuration is read from $XDG_CONFIG_HOME/pongrank/config.json and the
PONGRANK_DB_PATH, PONGRANK_HTTP_ADDR, PONGRANK_API_TOKEN and
PONGRANK_SUBMISSIONS_PER_MINUTE environment variables.
`,
		os.Args[0],
	)
}
