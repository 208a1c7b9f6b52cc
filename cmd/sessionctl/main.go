/*
 * Copyright (C) 2025 Sessionry community
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 *
 */

// Command sessionctl performs operational maintenance on a MySQL session
// store: sweeping expired sessions, counting live ones and clearing the table.
// Configuration is read from a YAML file, SESSIONSTORE_* environment variables
// and command line flags, in that order of precedence.
package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sessionry/mysqlstore"
)

const envPrefix = "SESSIONSTORE_"

const storeTimeout = 30 * time.Second

func main() {
	if err := createRootCommand().Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func createRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sessionctl",
		Short:         "Operational maintenance for a MySQL session store.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := cmd.PersistentFlags()
	flags.String("config", "", "path to a YAML config file")
	flags.String("address", "", "host:port of the MySQL server")
	flags.String("user", "", "username used to authenticate")
	flags.String("password", "", "password used to authenticate")
	flags.String("database", "", "name of the database holding the session table")
	flags.String("table", "", "name of the session table")
	cmd.AddCommand(createReapCommand(), createCountCommand(), createClearCommand())
	return cmd
}

func createReapCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reap",
		Short: "Delete all expired sessions",
		RunE: withStore(func(cmd *cobra.Command, store *mysqlstore.Store) error {
			store.Reap(cmd.Context())
			return nil
		}),
	}
}

func createCountCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of live sessions",
		RunE: withStore(func(cmd *cobra.Command, store *mysqlstore.Store) error {
			count, err := store.Length(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Println(count)
			return nil
		}),
	}
}

func createClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all sessions, live or expired",
		RunE: withStore(func(cmd *cobra.Command, store *mysqlstore.Store) error {
			return store.Clear(cmd.Context())
		}),
	}
}

func withStore(fn func(cmd *cobra.Command, store *mysqlstore.Store) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		config, err := loadConfig(cmd.Flags())
		if err != nil {
			return err
		}
		store, err := mysqlstore.New(config)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				logrus.WithError(err).Warn("Failed to close session store")
			}
		}()
		ctx, cancel := context.WithTimeout(cmd.Context(), storeTimeout)
		defer cancel()
		cmd.SetContext(ctx)
		return fn(cmd, store)
	}
}

// loadConfig layers the store defaults, an optional YAML config file,
// SESSIONSTORE_* environment variables and command line flags.
func loadConfig(flags *pflag.FlagSet) (mysqlstore.Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(mysqlstore.DefaultConfig(), "koanf"), nil); err != nil {
		return mysqlstore.Config{}, err
	}
	if configFile, _ := flags.GetString("config"); configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return mysqlstore.Config{}, fmt.Errorf("failed to load config file: %w", err)
		}
	}
	if err := k.Load(env.Provider(envPrefix, ".", func(key string) string {
		return strings.ToLower(strings.TrimPrefix(key, envPrefix))
	}), nil); err != nil {
		return mysqlstore.Config{}, err
	}
	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return mysqlstore.Config{}, err
	}
	var config mysqlstore.Config
	if err := k.Unmarshal("", &config); err != nil {
		return mysqlstore.Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return config, nil
}
