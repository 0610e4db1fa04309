package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"twitnot/internal/app"
	"twitnot/internal/config"
	"twitnot/internal/model"
	"twitnot/internal/twitnot"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer
// a.Close(). operation identifies the CLI command being run.
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:           "twitnot",
	Short:         "Tweet monitor and notification",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration and database",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("getting defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		cfg.ConsumerKey, _ = cmd.Flags().GetString("key")
		if cfg.ConsumerKey == "" {
			cfg.ConsumerKey, err = readLine("Consumer Key")
			if err != nil {
				return err
			}
		}

		cfg.ConsumerSecret, _ = cmd.Flags().GetString("secret")
		if cfg.ConsumerSecret == "" {
			cfg.ConsumerSecret, err = readSecret("Consumer Secret")
			if err != nil {
				return err
			}
		}

		if db, _ := cmd.Flags().GetString("db"); db != "" {
			cfg.DatabaseFile = db
		}

		cfg.NotificationFrom, err = readLine("From Email Address")
		if err != nil {
			return err
		}

		tos, err := readLine("To Email Addresses (comma separated)")
		if err != nil {
			return err
		}
		for _, to := range strings.Split(tos, ",") {
			if to = strings.TrimSpace(to); to != "" {
				cfg.NotificationTos = append(cfg.NotificationTos, to)
			}
		}

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("initializing config: %w", err)
		}

		if err := app.InitializeStore(cfg.DatabaseFile); err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Database: %s\n", cfg.DatabaseFile)
		return nil
	},
}

// add command
var addCmd = &cobra.Command{
	Use:   "add SCREEN_NAME",
	Short: "Track an account and import its recent tweets",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("AddUser")
		if err != nil {
			return err
		}
		defer a.Close()

		count, err := a.AddUser(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("imported %d tweets\n", count)
		return nil
	},
}

// remove command
var removeCmd = &cobra.Command{
	Use:   "remove SCREEN_NAME",
	Short: "Stop tracking an account and delete its imported tweets",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("RemoveUser")
		if err != nil {
			return err
		}
		defer a.Close()

		return a.RemoveUser(cmd.Context(), args[0])
	},
}

// list command
var listCmd = &cobra.Command{
	Use:   "list [SCREEN_NAME]",
	Short: "List tracked accounts, or an account's imported tweets",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		max, _ := cmd.Flags().GetInt("max")

		a, err := newApp("List")
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 0 {
			users, err := a.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			for _, u := range users {
				fmt.Println(u.ScreenName)
			}
			return nil
		}

		tweets, err := a.ListTweets(cmd.Context(), args[0], max)
		if err != nil {
			return err
		}
		for _, t := range tweets {
			fmt.Printf("%d\t%s\t%s\n", t.ID, t.CreatedAt.Format("2006-01-02 15:04:05"), t.Text)
		}
		return nil
	},
}

// check-update command
var checkUpdateCmd = &cobra.Command{
	Use:   "check-update [SCREEN_NAME]",
	Short: "Import new tweets and send notifications",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("CheckUpdate")
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 1 {
			res, err := a.CheckUpdate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s: imported %d tweets and sent %d mails\n", args[0], res.Inserted, res.Notified)
			return nil
		}

		return a.CheckUpdateAll(cmd.Context(), func(u *model.User, res twitnot.SyncResult) {
			fmt.Printf("%s: imported %d tweets and sent %d mails\n", u.ScreenName, res.Inserted, res.Notified)
		})
	},
}

// readLine prompts on stdout and reads one non-empty line from stdin.
func readLine(label string) (string, error) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Printf("put your %s: ", label)
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", label, err)
		}
		if line = strings.TrimSpace(line); line != "" {
			return line, nil
		}
	}
}

// readSecret prompts on stdout and reads without echo.
func readSecret(label string) (string, error) {
	fmt.Printf("put your %s: ", label)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", label, err)
	}
	return strings.TrimSpace(string(secret)), nil
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().String("key", "", "Consumer key")
	configInitCmd.Flags().String("secret", "", "Consumer secret")
	configInitCmd.Flags().String("db", "", "Database file path")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().IntP("max", "n", 20, "Maximum number of tweets to show")
	rootCmd.AddCommand(checkUpdateCmd)
}
