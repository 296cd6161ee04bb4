package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eringen/spacetravelling"
)

var cfgFile string
var siteConfig spacetravelling.SiteConfig

var rootCmd = &cobra.Command{
	Use:   "spacetravelling",
	Short: "A blog front-end for the Prismic CMS",
	Long: `spacetravelling renders a post listing and post pages from a Prismic
repository. "serve" regenerates pages in the background as they age;
"build" writes the whole site as static files.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().String("endpoint", "", "Prismic API endpoint, e.g. https://repo.cdn.prismic.io/api/v2")
	rootCmd.PersistentFlags().String("locale", "", "locale of publication dates (default pt-BR)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("spacetravelling %s\n", version)
		},
	})
}

// configKeys lists every key of SiteConfig so environment variables are
// picked up by Unmarshal even without a config file.
var configKeys = []string{
	"name", "url", "description", "addr", "database_path",
	"prismic_endpoint", "prismic_access_token", "post_type", "page_size", "http_timeout",
	"revalidate", "fallback_timeout", "session_secret", "cookie_secure", "revalidate_secret",
	"locale", "time_zone", "htmx_url",
	"comments.repo", "comments.issue_term", "comments.theme", "comments.label",
}

func initializeConfig(cmd *cobra.Command) error {
	v := viper.New()

	for _, key := range configKeys {
		v.SetDefault(key, nil)
	}
	v.SetDefault("name", "spacetraveling")
	v.SetDefault("post_type", "posts")
	v.SetDefault("page_size", 5)
	v.SetDefault("revalidate", "30m")
	v.SetDefault("locale", "pt-BR")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("SPACETRAVELLING")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if cfgFile != "" {
				return fmt.Errorf("config file %s not found: %w", cfgFile, err)
			}
		} else {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		fmt.Println("Using config file:", v.ConfigFileUsed())
	}

	if err := v.BindPFlag("prismic_endpoint", cmd.Flags().Lookup("endpoint")); err != nil {
		return err
	}
	if err := v.BindPFlag("locale", cmd.Flags().Lookup("locale")); err != nil {
		return err
	}
	if f := cmd.Flags().Lookup("addr"); f != nil {
		if err := v.BindPFlag("addr", f); err != nil {
			return err
		}
	}

	if err := v.Unmarshal(&siteConfig); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}
	return nil
}
