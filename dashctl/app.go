package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gravitational/trace"
	"github.com/manifoldco/promptui"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"

	"github.com/statboard/statboard-cli/lib/auth"
	"github.com/statboard/statboard-cli/lib/auth/storage"
	"github.com/statboard/statboard-cli/lib/dashboard"
)

// App wires the configuration, the session store and the dashboard
// client together for the CLI commands.
type App struct {
	conf   Config
	client *dashboard.Client
	out    io.Writer
}

func NewApp(conf Config) (*App, error) {
	store, err := storage.NewDiskvStore(conf.Storage.Dir)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	api, err := auth.NewClient(auth.Config{
		ServerURL: conf.Server.URL,
		Store:     store,
		OnSessionExpired: func() {
			fmt.Fprintln(os.Stderr, "Your session has expired, please run `dashctl login`.")
		},
	})
	if err != nil {
		return nil, trace.Wrap(err)
	}

	client, err := dashboard.NewClient(dashboard.Config{API: api})
	if err != nil {
		return nil, trace.Wrap(err)
	}

	return &App{
		conf:   conf,
		client: client,
		out:    os.Stdout,
	}, nil
}

// Login authenticates against the configured server, prompting for the
// missing credentials, and persists the session.
func (a *App) Login(ctx context.Context, email string) error {
	if email == "" {
		prompt := promptui.Prompt{Label: "Email"}
		value, err := prompt.Run()
		if err != nil {
			return trace.Wrap(err)
		}
		email = strings.TrimSpace(value)
	}

	prompt := promptui.Prompt{Label: "Password", Mask: '*'}
	password, err := prompt.Run()
	if err != nil {
		return trace.Wrap(err)
	}

	user, err := a.client.Login(ctx, email, password)
	if err != nil {
		return trace.Wrap(err)
	}

	name := email
	if user != nil && user.Name != "" {
		name = user.Name
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", name)
	return nil
}

// Logout wipes the persisted session.
func (a *App) Logout(ctx context.Context) error {
	if err := a.client.Logout(ctx); err != nil {
		return trace.Wrap(err)
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// Whoami prints the cached account profile.
func (a *App) Whoami(ctx context.Context) error {
	user, err := a.client.Profile(ctx)
	if err != nil {
		return trace.Wrap(err)
	}

	table := newTable(a.out, "FIELD", "VALUE")
	table.Append([]string{"ID", user.ID})
	table.Append([]string{"Email", user.Email})
	table.Append([]string{"Name", user.Name})
	if user.Company != "" {
		table.Append([]string{"Company", user.Company})
	}
	table.Append([]string{"Member since", user.CreatedAt.Format("2006-01-02")})
	table.Render()
	return nil
}

// ListKeys prints the API keys on the account.
func (a *App) ListKeys(ctx context.Context) error {
	keys, err := a.client.ListAPIKeys(ctx)
	if err != nil {
		return trace.Wrap(err)
	}

	table := newTable(a.out, "ID", "NAME", "PREFIX", "CREATED", "LAST USED")
	for _, key := range keys {
		lastUsed := "never"
		if key.LastUsedAt != nil {
			lastUsed = key.LastUsedAt.Format("2006-01-02 15:04")
		}
		table.Append([]string{
			key.ID,
			key.Name,
			key.Prefix,
			key.CreatedAt.Format("2006-01-02"),
			lastUsed,
		})
	}
	table.Render()
	return nil
}

// AddKey provisions a new API key and prints its secret. The secret is
// shown exactly once.
func (a *App) AddKey(ctx context.Context, name string) error {
	key, err := a.client.CreateAPIKey(ctx, name)
	if err != nil {
		return trace.Wrap(err)
	}

	fmt.Fprintf(a.out, "Created key %s (%s)\n", key.Name, key.ID)
	fmt.Fprintf(a.out, "Secret: %s\n", key.Secret)
	fmt.Fprintln(a.out, "Store it now, it will not be shown again.")
	return nil
}

// RemoveKey revokes an API key.
func (a *App) RemoveKey(ctx context.Context, id string) error {
	if err := a.client.DeleteAPIKey(ctx, id); err != nil {
		return trace.Wrap(err)
	}
	fmt.Fprintf(a.out, "Removed key %s\n", id)
	return nil
}

// Stats prints a usage report.
func (a *App) Stats(ctx context.Context, query dashboard.StatsQuery) error {
	report, err := a.client.QueryStats(ctx, query)
	if err != nil {
		return trace.Wrap(err)
	}

	table := newTable(a.out, "PERIOD", "REQUESTS", "ERRORS")
	for _, point := range report.Points {
		table.Append([]string{
			point.Period,
			strconv.FormatInt(point.Requests, 10),
			strconv.FormatInt(point.Errors, 10),
		})
	}
	table.Render()
	fmt.Fprintf(a.out, "Total requests: %d\n", report.TotalRequests)
	return nil
}

// Plan prints the subscription plan associated with the account.
func (a *App) Plan(ctx context.Context) error {
	plan, err := a.client.Plan(ctx)
	if err != nil {
		return trace.Wrap(err)
	}

	table := newTable(a.out, "PLAN", "PRICE", "REQUEST LIMIT", "RENEWS")
	renews := "-"
	if plan.RenewsAt != nil {
		renews = plan.RenewsAt.Format("2006-01-02")
	}
	table.Append([]string{
		plan.Name,
		formatPrice(plan.PriceCents, plan.Currency),
		strconv.FormatInt(plan.RequestLimit, 10),
		renews,
	})
	table.Render()
	return nil
}

// Upgrade creates a checkout session for the given plan and prints the
// payment page URL. The payment itself happens in the browser.
func (a *App) Upgrade(ctx context.Context, planID string) error {
	session, err := a.client.Checkout(ctx, planID)
	if err != nil {
		return trace.Wrap(err)
	}

	log.WithField("session_id", session.SessionID).Debug("Checkout session created")
	fmt.Fprintf(a.out, "Open the following URL to complete the upgrade:\n%s\n", session.URL)
	return nil
}

func newTable(out io.Writer, headers ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(headers)
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func formatPrice(cents int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", cents/100, cents%100, strings.ToUpper(currency))
}
