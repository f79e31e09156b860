package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"multidist/internal/api"
	"multidist/internal/app"
	"multidist/internal/config"
	"multidist/internal/database"
	"multidist/internal/ledger"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// EnvPassphrase supplies the snapshot key passphrase without a prompt.
const EnvPassphrase = "MULTIDIST_PASSPHRASE"

var verbose bool

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode lets scripts tell rejected operations apart from failures.
func exitCode(err error) int {
	switch ledger.KindOf(err) {
	case ledger.KindUnknown:
		return 1
	case ledger.KindVaultUnderfunded:
		return 3
	default:
		return 2
	}
}

func loadConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// newApp reads the config and creates a MultidistApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "commit", "claim").
func newApp(ctx context.Context, operation string) (*app.MultidistApp, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewMultidistApp(ctx, cfg, operation, app.Options{Verbose: verbose})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// readPassphrase returns $MULTIDIST_PASSPHRASE or prompts on the terminal.
// confirm asks twice, for creating a new key.
func readPassphrase(confirm bool) (string, error) {
	if p := os.Getenv(EnvPassphrase); p != "" {
		return p, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no terminal to read passphrase from; set %s", EnvPassphrase)
	}

	fmt.Fprint(os.Stderr, "Passphrase: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	if !confirm {
		return string(first), nil
	}

	fmt.Fprint(os.Stderr, "Confirm passphrase: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	if string(first) != string(second) {
		return "", errors.New("passphrases do not match")
	}
	return string(first), nil
}

// closeApp closes a and reports a failed snapshot upload through *err
// unless the command already failed.
func closeApp(a *app.MultidistApp, err *error) {
	if cerr := a.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("closing: %w", cerr)
	}
}

func flagString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func flagUint64(cmd *cobra.Command, name string) uint64 {
	v, _ := cmd.Flags().GetUint64(name)
	return v
}

func printCollection(c *ledger.Collection) {
	fmt.Printf("Collection:   %s\n", c.Address)
	fmt.Printf("Authority:    %s\n", c.Authority)
	fmt.Printf("Base mint:    %s\n", c.BaseMint)
	fmt.Printf("Receipt mint: %s\n", c.ReceiptMint)
	fmt.Printf("Vault:        %s\n", c.Vault)
	fmt.Printf("Counter:      %d\n", c.Counter)
	fmt.Printf("Burn:         %t\n", c.BurnOnCommit)
	fmt.Printf("Collected:    %d / %d (%d remaining)\n", c.LifetimeTokensCollected, c.MaxCollectableTokens, c.Remaining())
}

func printDistribution(d *ledger.Distribution) {
	fmt.Printf("Distribution: %s\n", d.Address)
	fmt.Printf("Collection:   %s\n", d.Collection)
	fmt.Printf("Reward mint:  %s\n", d.RewardMint)
	fmt.Printf("Vault:        %s\n", d.Vault)
	fmt.Printf("Deposited:    %d\n", d.LifetimeDepositedTokens)
	fmt.Printf("Distributed:  %d (%d outstanding)\n", d.DistributedTokens, d.Outstanding())
}

var rootCmd = &cobra.Command{
	Use:          "multidist",
	Short:        "Proportional payout ledger",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration, snapshot keys and database",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		ledgerID := uuid.New().String()
		cfg := config.NewConfig(ledgerID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		var passphrase string
		if app.NeedsPassphrase(cfg) {
			if passphrase, err = readPassphrase(true); err != nil {
				return err
			}
		}
		if err := app.Setup(cmd.Context(), cfg, passphrase); err != nil {
			return err
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Ledger ID: %s\n", ledgerID)
		fmt.Printf("Base Dir:  %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Ledger ID:  %s\n", cfg.LedgerID)
		fmt.Printf("Program ID: %s\n", cfg.ProgramID)
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Database:   %s\n", cfg.Database.Type)
		for _, a := range cfg.Archives {
			fmt.Printf("Archive:    %s (%s)\n", a.Name, a.Type)
		}
		fmt.Printf("Encryption: %s\n", cfg.Encryption.Type)
		fmt.Printf("API:        %s\n", cfg.API.ListenAddr)
		return nil
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the ledger database",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := database.Migrate(cfg.Database, cfg.LedgerID); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
		fmt.Println("Database is up to date.")
		return nil
	},
}

// token command
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage mints and token accounts",
}

var tokenCreateMintCmd = &cobra.Command{
	Use:   "create-mint",
	Short: "Create a mint",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		decimals, _ := cmd.Flags().GetUint8("decimals")

		a, err := newApp(cmd.Context(), "create-mint")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		m, err := a.CreateMint(cmd.Context(), flagString(cmd, "authority"), decimals)
		if err != nil {
			return err
		}
		fmt.Printf("Mint: %s\n", m.Address)
		return nil
	},
}

var tokenMintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Mint tokens to an owner",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd.Context(), "mint")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		acct, err := a.MintTokens(cmd.Context(), flagString(cmd, "mint"), flagString(cmd, "to"), flagString(cmd, "authority"), flagUint64(cmd, "amount"))
		if err != nil {
			return err
		}
		fmt.Printf("Account %s now holds %d\n", acct.Address, acct.Amount)
		return nil
	},
}

var tokenBalanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show an owner's balance of a mint",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd.Context(), "balance")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		bal, err := a.TokenBalance(cmd.Context(), flagString(cmd, "mint"), flagString(cmd, "owner"))
		if err != nil {
			return err
		}
		fmt.Println(bal)
		return nil
	},
}

// collection command
var collectionCmd = &cobra.Command{
	Use:   "collection",
	Short: "Manage collections",
}

var collectionInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a collection",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		burn, _ := cmd.Flags().GetBool("burn")

		a, err := newApp(cmd.Context(), "init-collection")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		c, err := a.InitCollection(cmd.Context(),
			flagString(cmd, "authority"),
			flagString(cmd, "mint"),
			flagUint64(cmd, "counter"),
			flagUint64(cmd, "max"),
			burn)
		if err != nil {
			return err
		}
		printCollection(c)
		return nil
	},
}

var collectionShowCmd = &cobra.Command{
	Use:   "show COLLECTION",
	Short: "Show a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd.Context(), "show-collection")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		c, err := a.GetCollection(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printCollection(c)
		return nil
	},
}

var collectionAuditCmd = &cobra.Command{
	Use:   "audit COLLECTION",
	Short: "Check a collection's bookkeeping against its vaults",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd.Context(), "audit")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		report, err := a.Audit(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Deposits:       %d\n", report.SumDeposited)
		fmt.Printf("Receipt supply: %d\n", report.ReceiptSupply)
		fmt.Printf("Vault balance:  %d\n", report.VaultBalance)
		for _, d := range report.Distributions {
			fmt.Printf("  %s  vault %d  outstanding %d\n", d.Distribution.Address, d.VaultBalance, d.Distribution.Outstanding())
		}
		if report.OK() {
			fmt.Println("OK")
			return nil
		}
		for _, v := range report.Violations {
			fmt.Printf("VIOLATION: %s\n", v)
		}
		return fmt.Errorf("audit found %d violation(s)", len(report.Violations))
	},
}

var collectionWithdrawCmd = &cobra.Command{
	Use:   "withdraw COLLECTION",
	Short: "Sweep a collection's vault to its authority",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd.Context(), "withdraw")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		amount, err := a.WithdrawFromCollection(cmd.Context(), args[0], flagString(cmd, "authority"))
		if err != nil {
			return err
		}
		fmt.Printf("Withdrew %d\n", amount)
		return nil
	},
}

// distribution command
var distributionCmd = &cobra.Command{
	Use:   "distribution",
	Short: "Manage distributions",
}

var distributionInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a distribution for a collection",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd.Context(), "init-distribution")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		d, err := a.InitDistribution(cmd.Context(), flagString(cmd, "collection"), flagString(cmd, "mint"), flagString(cmd, "authority"))
		if err != nil {
			return err
		}
		printDistribution(d)
		return nil
	},
}

var distributionAddCmd = &cobra.Command{
	Use:   "add DISTRIBUTION",
	Short: "Deposit reward tokens into a distribution",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd.Context(), "add-distribution-tokens")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		d, err := a.AddDistributionTokens(cmd.Context(), args[0], flagString(cmd, "authority"), flagUint64(cmd, "amount"))
		if err != nil {
			return err
		}
		printDistribution(d)
		return nil
	},
}

var distributionShowCmd = &cobra.Command{
	Use:   "show DISTRIBUTION",
	Short: "Show a distribution",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd.Context(), "show-distribution")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		d, err := a.GetDistribution(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printDistribution(d)
		return nil
	},
}

var distributionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a collection's distributions",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd.Context(), "list-distributions")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		list, err := a.ListDistributions(cmd.Context(), flagString(cmd, "collection"))
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No distributions.")
			return nil
		}
		for _, d := range list {
			fmt.Printf("%s  %s  deposited %d  distributed %d\n", d.Address, d.RewardMint, d.LifetimeDepositedTokens, d.DistributedTokens)
		}
		return nil
	},
}

// commit command
var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Commit base tokens to a collection",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd.Context(), "commit")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		st, err := a.Commit(cmd.Context(), flagString(cmd, "collection"), flagString(cmd, "user"), flagUint64(cmd, "amount"))
		if err != nil {
			return err
		}
		fmt.Printf("Deposited %d in total\n", st.DepositedAmount)
		return nil
	},
}

// claim command
var claimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Claim rewards from a distribution",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd.Context(), "claim")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		amount, err := a.Claim(cmd.Context(), flagString(cmd, "distribution"), flagString(cmd, "user"))
		if err != nil {
			return err
		}
		fmt.Printf("Claimed %d\n", amount)
		return nil
	},
}

// position command
var positionCmd = &cobra.Command{
	Use:   "position",
	Short: "Show a depositor's share and claimable rewards",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd.Context(), "position")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		p, err := a.Position(cmd.Context(), flagString(cmd, "collection"), flagString(cmd, "user"))
		if err != nil {
			return err
		}
		fmt.Printf("Deposited: %d\n", p.Deposited)
		for _, c := range p.Claims {
			fmt.Printf("  %s  entitled %d  received %d  claimable %d\n",
				c.Distribution.Address, c.Entitlement, c.Received, c.Claimable)
		}
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd.Context(), "history")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		ops, err := a.History(cmd.Context(), limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt != nil {
				duration = op.FinishedAt.Sub(op.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-24s  %s  %-8s  %-8s  %s\n",
				op.ID,
				op.Name,
				op.StartedAt.Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
				op.Parameters,
			)
		}
		return nil
	},
}

// snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage archived ledger snapshots",
}

var snapshotRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Replace the local ledger with the archived snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		var passphrase string
		if app.NeedsPassphrase(cfg) {
			if passphrase, err = readPassphrase(false); err != nil {
				return err
			}
		}

		version, err := app.RestoreSnapshot(cmd.Context(), cfg, passphrase, force)
		if err != nil {
			return err
		}
		fmt.Printf("Restored snapshot taken after operation #%d\n", version)
		return nil
	},
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only HTTP API",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if addr := flagString(cmd, "listen"); addr != "" {
			cfg.API.ListenAddr = addr
		}

		a, err := app.NewMultidistApp(ctx, cfg, "serve", app.Options{Verbose: verbose})
		if err != nil {
			return fmt.Errorf("initializing app: %w", err)
		}
		defer closeApp(a, &err)

		srv := api.NewServer(a.Service(), cfg.API, a.Logger(), a.Metrics(), a.Gatherer())
		return srv.Run(ctx)
	},
}

func requireFlags(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// db subcommands
	dbCmd.AddCommand(dbMigrateCmd)

	// token subcommands
	tokenCreateMintCmd.Flags().String("authority", "", "Mint authority address")
	tokenCreateMintCmd.Flags().Uint8("decimals", 6, "Decimal places")
	requireFlags(tokenCreateMintCmd, "authority")
	tokenMintCmd.Flags().String("mint", "", "Mint address")
	tokenMintCmd.Flags().String("to", "", "Owner to credit")
	tokenMintCmd.Flags().String("authority", "", "Mint authority address")
	tokenMintCmd.Flags().Uint64("amount", 0, "Amount in base units")
	requireFlags(tokenMintCmd, "mint", "to", "authority", "amount")
	tokenBalanceCmd.Flags().String("mint", "", "Mint address")
	tokenBalanceCmd.Flags().String("owner", "", "Owner address")
	requireFlags(tokenBalanceCmd, "mint", "owner")
	tokenCmd.AddCommand(tokenCreateMintCmd, tokenMintCmd, tokenBalanceCmd)

	// collection subcommands
	collectionInitCmd.Flags().String("authority", "", "Collection authority address")
	collectionInitCmd.Flags().String("mint", "", "Base mint address")
	collectionInitCmd.Flags().Uint64("counter", 0, "Distinguishes collections of the same authority and mint")
	collectionInitCmd.Flags().Uint64("max", 0, "Maximum tokens the collection accepts")
	collectionInitCmd.Flags().Bool("burn", false, "Burn committed tokens instead of holding them")
	requireFlags(collectionInitCmd, "authority", "mint", "max")
	collectionWithdrawCmd.Flags().String("authority", "", "Collection authority address")
	requireFlags(collectionWithdrawCmd, "authority")
	collectionCmd.AddCommand(collectionInitCmd, collectionShowCmd, collectionAuditCmd, collectionWithdrawCmd)

	// distribution subcommands
	distributionInitCmd.Flags().String("collection", "", "Collection address")
	distributionInitCmd.Flags().String("mint", "", "Reward mint address")
	distributionInitCmd.Flags().String("authority", "", "Collection authority address")
	requireFlags(distributionInitCmd, "collection", "mint", "authority")
	distributionAddCmd.Flags().String("authority", "", "Collection authority address")
	distributionAddCmd.Flags().Uint64("amount", 0, "Amount in base units")
	requireFlags(distributionAddCmd, "authority", "amount")
	distributionListCmd.Flags().String("collection", "", "Collection address")
	requireFlags(distributionListCmd, "collection")
	distributionCmd.AddCommand(distributionInitCmd, distributionAddCmd, distributionShowCmd, distributionListCmd)

	commitCmd.Flags().String("collection", "", "Collection address")
	commitCmd.Flags().String("user", "", "Depositor address")
	commitCmd.Flags().Uint64("amount", 0, "Amount in base units")
	requireFlags(commitCmd, "collection", "user", "amount")

	claimCmd.Flags().String("distribution", "", "Distribution address")
	claimCmd.Flags().String("user", "", "Depositor address")
	requireFlags(claimCmd, "distribution", "user")

	positionCmd.Flags().String("collection", "", "Collection address")
	positionCmd.Flags().String("user", "", "Depositor address")
	requireFlags(positionCmd, "collection", "user")

	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")

	snapshotRestoreCmd.Flags().Bool("force", false, "Replace an existing local ledger")
	snapshotCmd.AddCommand(snapshotRestoreCmd)

	serveCmd.Flags().String("listen", "", "Listen address, overrides api.listen_addr")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(collectionCmd)
	rootCmd.AddCommand(distributionCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(claimCmd)
	rootCmd.AddCommand(positionCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(serveCmd)
}
