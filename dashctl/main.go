package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gravitational/kingpin"
	"github.com/gravitational/trace"

	"github.com/statboard/statboard-cli/lib"
	"github.com/statboard/statboard-cli/lib/dashboard"
	"github.com/statboard/statboard-cli/lib/logger"
)

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "dashctl.toml"
	}
	return filepath.Join(home, ".config", "dashctl.toml")
}

func main() {
	logger.Init()
	app := kingpin.New("dashctl", "Statboard account dashboard CLI.")
	app.Version(Version + "-" + Gitref)

	path := app.Flag("config", "TOML config file path").
		Short('c').
		Default(defaultConfigPath()).
		String()
	debug := app.Flag("debug", "Enable verbose logging to stderr").
		Short('d').
		Bool()

	app.Command("configure", "Prints an example .TOML configuration file.")

	loginCmd := app.Command("login", "Authenticates and persists the session.")
	loginEmail := loginCmd.Flag("email", "Account email. Prompted when omitted.").String()

	app.Command("logout", "Wipes the persisted session.")
	app.Command("whoami", "Prints the account profile.")

	keysCmd := app.Command("keys", "Manages API keys.")
	keysCmd.Command("ls", "Lists the API keys on the account.").Default()
	keysAddCmd := keysCmd.Command("add", "Provisions a new API key.")
	keysAddName := keysAddCmd.Arg("name", "Key name").Required().String()
	keysRmCmd := keysCmd.Command("rm", "Revokes an API key.")
	keysRmID := keysRmCmd.Arg("id", "Key id").Required().String()

	statsCmd := app.Command("stats", "Prints a usage report.")
	statsKey := statsCmd.Flag("key", "Filter by API key id").String()
	statsFrom := statsCmd.Flag("from", "Start date, inclusive (2006-01-02)").String()
	statsTo := statsCmd.Flag("to", "End date, inclusive (2006-01-02)").String()
	statsCategory := statsCmd.Flag("category", "Filter by request category").String()
	statsGranularity := statsCmd.Flag("granularity", "Aggregation step: daily, weekly or monthly").
		Default(string(dashboard.Daily)).
		String()

	app.Command("plan", "Prints the subscription plan.")

	upgradeCmd := app.Command("upgrade", "Creates a checkout session for a plan upgrade.")
	upgradePlan := upgradeCmd.Arg("plan-id", "Target plan id").Required().String()

	selectedCmd, err := app.Parse(os.Args[1:])
	if err != nil {
		lib.Bail(err)
	}

	if selectedCmd == "configure" {
		fmt.Print(exampleConfig)
		return
	}

	conf, err := LoadConfig(*path)
	if err != nil {
		lib.Bail(err)
	}
	if err := conf.Log.Setup(); err != nil {
		lib.Bail(err)
	}
	if *debug {
		debugConf := logger.Config{Output: conf.Log.Output, Severity: "debug"}
		if err := debugConf.Setup(); err != nil {
			lib.Bail(err)
		}
	}

	cli, err := NewApp(*conf)
	if err != nil {
		lib.Bail(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch selectedCmd {
	case "login":
		err = cli.Login(ctx, *loginEmail)
	case "logout":
		err = cli.Logout(ctx)
	case "whoami":
		err = cli.Whoami(ctx)
	case "keys ls":
		err = cli.ListKeys(ctx)
	case "keys add":
		err = cli.AddKey(ctx, *keysAddName)
	case "keys rm":
		err = cli.RemoveKey(ctx, *keysRmID)
	case "stats":
		err = cli.Stats(ctx, dashboard.StatsQuery{
			KeyID:       *statsKey,
			From:        *statsFrom,
			To:          *statsTo,
			Category:    *statsCategory,
			Granularity: dashboard.Granularity(*statsGranularity),
		})
	case "plan":
		err = cli.Plan(ctx)
	case "upgrade":
		err = cli.Upgrade(ctx, *upgradePlan)
	default:
		err = trace.BadParameter("unknown command %q", selectedCmd)
	}
	if err != nil {
		// Interrupting an in-flight command is not a fatal error.
		if lib.IsCanceled(err) {
			os.Exit(130)
		}
		if lib.IsDeadline(err) {
			lib.Bail(trace.Wrap(err, "the command timed out"))
		}
		lib.Bail(err)
	}
}
