// campctl is a one-shot CLI over the camp and subscription APIs.
//
//	campctl camps [-offline]
//	campctl search [-types a,b] [-min-age N] [-max-age N] [-max-cost N]
//	campctl camp <id>
//	campctl plans
//	campctl status
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kidsact-hq/campwatch/internal/config"
	"github.com/kidsact-hq/campwatch/internal/domain"
	"github.com/kidsact-hq/campwatch/internal/logger"
	"github.com/kidsact-hq/campwatch/internal/storage"
	"github.com/kidsact-hq/campwatch/pkg/camps"
	"github.com/kidsact-hq/campwatch/pkg/httpclient"
	"github.com/kidsact-hq/campwatch/pkg/subscriptions"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "campctl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: campctl <camps|search|camp|plans|status> [flags]")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if _, err := logger.Init(cfg); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hc := httpclient.NewRestyClient(cfg.APITimeout)
	if cfg.APIKey != "" {
		hc.SetDefaultHeaders(map[string]string{"Authorization": "Bearer " + cfg.APIKey})
	}
	campClient := camps.New(cfg.APIBaseURL, hc)
	subClient := subscriptions.New(cfg.APIBaseURL, hc)

	switch args[0] {
	case "camps":
		return runCamps(ctx, cfg, campClient, args[1:])
	case "search":
		return runSearch(ctx, campClient, args[1:])
	case "camp":
		return runCamp(ctx, campClient, args[1:])
	case "plans":
		return runPlans(ctx, subClient)
	case "status":
		return runStatus(ctx, subClient)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runCamps(ctx context.Context, cfg *config.Config, client *camps.Client, args []string) error {
	fs := flag.NewFlagSet("camps", flag.ContinueOnError)
	offline := fs.Bool("offline", false, "read the last stored listing instead of the backend")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *offline {
		store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
			CampTTL:         cfg.StorageTTL,
			CleanupInterval: cfg.StorageCleanupInterval,
		})
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer store.Close()

		listing, err := store.LoadListing()
		if err != nil {
			return err
		}
		if len(listing) == 0 {
			return fmt.Errorf("no stored listing; run campwatch or campctl camps first")
		}
		return printJSON(listing)
	}

	listing, err := client.FetchAll(ctx)
	if err != nil {
		return err
	}
	return printJSON(listing)
}

func runSearch(ctx context.Context, client *camps.Client, args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	types := fs.String("types", "", "comma-separated activity types")
	minAge := fs.Int("min-age", -1, "minimum age")
	maxAge := fs.Int("max-age", -1, "maximum age")
	maxCost := fs.Float64("max-cost", -1, "maximum cost")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var filter domain.Filter
	if *types != "" {
		filter.ActivityTypes = strings.Split(*types, ",")
	}
	if *minAge >= 0 {
		filter.MinAge = minAge
	}
	if *maxAge >= 0 {
		filter.MaxAge = maxAge
	}
	if *maxCost >= 0 {
		filter.MaxCost = maxCost
	}

	return printJSON(client.Search(ctx, filter))
}

func runCamp(ctx context.Context, client *camps.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: campctl camp <id>")
	}
	camp := client.GetDetails(ctx, args[0])
	if camp == nil {
		return fmt.Errorf("camp %q not found", args[0])
	}
	return printJSON(camp)
}

func runPlans(ctx context.Context, client *subscriptions.Client) error {
	plans, err := client.Plans(ctx)
	if err != nil {
		return err
	}
	return printJSON(plans)
}

func runStatus(ctx context.Context, client *subscriptions.Client) error {
	view, err := client.Current(ctx)
	if err != nil {
		return err
	}
	return printJSON(view)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
