package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/yourneighborhoodchef/sniper/internal/config"
	"github.com/yourneighborhoodchef/sniper/internal/logging"
	"github.com/yourneighborhoodchef/sniper/internal/proxy"
	"github.com/yourneighborhoodchef/sniper/internal/ratelimit"
	"github.com/yourneighborhoodchef/sniper/internal/roblox"
	"github.com/yourneighborhoodchef/sniper/internal/session"
	"github.com/yourneighborhoodchef/sniper/internal/sniper"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "sniper",
		Short:         "Buys limited collectibles through a pool of proxies.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := logging.Init(cfg.Verbose); err != nil {
				return err
			}
			defer logging.L().Sync()

			return run(cmd.Context(), cfg)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml)")
	cmd.Flags().Int64Slice("items", nil, "catalog asset ids to snipe")
	cmd.Flags().String("proxies-file", "", "file with one proxy route per line")
	cmd.Flags().String("cookies-file", "", "file with one userID:robux:cookie per line")
	cmd.Flags().Float64("target-rps", 5.0, "global purchase attempt rate")
	cmd.Flags().Int("retries", 3, "endpoint switches per intent on recoverable failure")
	cmd.Flags().BoolP("verbose", "v", false, "debug logging")

	v.BindPFlag("items", cmd.Flags().Lookup("items"))
	v.BindPFlag("proxies_file", cmd.Flags().Lookup("proxies-file"))
	v.BindPFlag("cookies_file", cmd.Flags().Lookup("cookies-file"))
	v.BindPFlag("target_rps", cmd.Flags().Lookup("target-rps"))
	v.BindPFlag("retries", cmd.Flags().Lookup("retries"))
	v.BindPFlag("verbose", cmd.Flags().Lookup("verbose"))

	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logging.L()

	routes, err := config.LoadLines(cfg.ProxiesFile)
	if err != nil {
		return fmt.Errorf("load proxies: %w", err)
	}
	working := proxy.CheckAll(routes, cfg.CheckURL)
	log.Info("proxy check done",
		zap.Int("candidates", len(routes)), zap.Int("working", len(working)))

	pool, err := proxy.NewPool(working)
	if err != nil {
		return fmt.Errorf("build pool: %w", err)
	}
	pool.ResetEvery(ctx, cfg.ResetInterval)

	lines, err := config.LoadLines(cfg.CookiesFile)
	if err != nil {
		return fmt.Errorf("load cookies: %w", err)
	}
	var users []*session.User
	for _, line := range lines {
		acct, err := config.ParseAccount(line)
		if err != nil {
			return fmt.Errorf("cookies file: %w", err)
		}
		u, err := session.New(acct.Cookie, acct.UserID, acct.Robux, nil)
		if err != nil {
			return err
		}
		users = append(users, u)
	}
	users = session.FetchAll(users)
	if len(users) == 0 {
		return fmt.Errorf("no usable accounts")
	}
	log.Info("accounts ready", zap.Int("users", len(users)))

	resolver, err := roblox.NewResolver(nil)
	if err != nil {
		return err
	}
	var items []*roblox.Item
	for _, id := range cfg.Items {
		item, err := resolver.Item(id)
		if err != nil {
			return fmt.Errorf("resolve item %d: %w", id, err)
		}
		log.Info("resolved item",
			zap.Uint64("id", id),
			zap.String("collectible_item_id", item.CollectibleItemID),
			zap.Uint64("price", item.Price))
		items = append(items, item)
	}

	jar := ratelimit.NewTokenJar(cfg.TargetRPS, cfg.BurstLimit)
	defer jar.Stop()
	tokens, maxTokens, perRefill, intervalMs := jar.Stats()
	log.Info("pacing ready",
		zap.Int("tokens", tokens),
		zap.Int("burst", maxTokens),
		zap.Int("per_refill", perRefill),
		zap.Int64("refill_interval_ms", intervalMs))

	attempts := sniper.New(pool, users, jar, cfg.Retries).Run(ctx, items)
	for _, a := range attempts {
		switch {
		case a.Err != nil:
			log.Warn("attempt failed",
				zap.Uint64("user_id", a.UserID),
				zap.Uint64("item_id", a.ItemID),
				zap.String("route", a.Route),
				zap.Error(a.Err))
		case a.Verdict.Purchased:
			log.Info("purchased",
				zap.Uint64("user_id", a.UserID),
				zap.Uint64("item_id", a.ItemID),
				zap.String("route", a.Route))
		default:
			reason := ""
			if a.Verdict.ErrorMessage != nil {
				reason = *a.Verdict.ErrorMessage
			} else if a.Verdict.PurchaseResult != nil {
				reason = *a.Verdict.PurchaseResult
			}
			log.Info("declined",
				zap.Uint64("user_id", a.UserID),
				zap.Uint64("item_id", a.ItemID),
				zap.String("route", a.Route),
				zap.String("reason", reason))
		}
	}
	return nil
}

// Execute runs the root command with the given context.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}
