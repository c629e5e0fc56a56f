package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apperrors "github.com/hrygo/repairdesk/internal/errors"
	"github.com/hrygo/repairdesk/internal/profile"
	"github.com/hrygo/repairdesk/plugin/support/session"
	"github.com/hrygo/repairdesk/store"
	"github.com/hrygo/repairdesk/store/db"
)

var version = "dev"

var (
	instanceProfile *profile.Profile

	rootCmd = &cobra.Command{
		Use:   "repairdesk",
		Short: "Repair inquiry assistant: AI chat, diagnosis, cost estimate and shop matching",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadProfile(cmd.ErrOrStderr())
		},
		SilenceUsage: true,
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("mode", "", `mode of the client, can be "prod", "dev" or "demo"`)
	flags.String("data", "", "data directory for local state")
	flags.String("driver", "bolt", "local state driver: bolt, sqlite, redis or memory")
	flags.String("dsn", "", "local state DSN (redis address for the redis driver)")
	flags.String("backend-url", "", "backend base URL, overrides mode based selection")
	flags.String("addr", "", "gateway bind address")
	flags.Int("port", 8081, "gateway port")
	flags.Float64("rate-limit-rps", 10, "gateway requests per second per client")
	flags.Int("rate-limit-burst", 20, "gateway burst per client")
	flags.Bool("verbose", false, "enable debug logging")

	for _, name := range []string{"mode", "data", "driver", "dsn", "backend-url", "addr", "port", "rate-limit-rps", "rate-limit-burst", "verbose"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
	viper.SetEnvPrefix("repairdesk")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(chatCmd, inquireCmd, shopsCmd, casesCmd, gatewayCmd)
}

func loadProfile(logOut io.Writer) error {
	instanceProfile = &profile.Profile{
		Mode:               viper.GetString("mode"),
		Data:               viper.GetString("data"),
		Driver:             viper.GetString("driver"),
		DSN:                viper.GetString("dsn"),
		BackendURL:         viper.GetString("backend-url"),
		Addr:               viper.GetString("addr"),
		Port:               viper.GetInt("port"),
		RateLimitPerSecond: viper.GetFloat64("rate-limit-rps"),
		RateLimitBurst:     viper.GetInt("rate-limit-burst"),
		Version:            version,
	}
	instanceProfile.FromEnv()
	if err := instanceProfile.Validate(); err != nil {
		return err
	}

	level := slog.LevelWarn
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	} else if instanceProfile.IsDev() {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level})))
	return nil
}

// openStore opens the local state store selected by the profile.
func openStore() (*store.Store, error) {
	driver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open local state")
	}
	return store.New(driver), nil
}

// openIdentity returns the store and the session identity backed by it.
func openIdentity() (*store.Store, *session.Identity, error) {
	s, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	return s, session.NewIdentity(s.GetDriver()), nil
}

// userMessage returns the text to show for err.
func userMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.UserMessage()
	}
	return err.Error()
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, userMessage(err))
		os.Exit(1)
	}
}
