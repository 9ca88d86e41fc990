/*
 *     Copyright 2024 The Dragonfly Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/astroquery/astroquery-go/client/config"
	"github.com/astroquery/astroquery-go/client/tap"
	logger "github.com/astroquery/astroquery-go/internal/aqlog"
)

var loginCmd = &cobra.Command{
	Use:   "login [flags]",
	Short: "log in to the service",
	Long: `Log in to the service with --username. The password is read from the
AQ_PASSWORD environment variable or the keyring; --save stores it in the
keyring after a successful login. The session cookie is kept for later
commands until logout.`,
	Args:              cobra.NoArgs,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAqtapSubcmd(cmd, config.CmdLogin, args)
	},
}

var logoutCmd = &cobra.Command{
	Use:               "logout [flags]",
	Short:             "log out of the service",
	Args:              cobra.NoArgs,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAqtapSubcmd(cmd, config.CmdLogout, args)
	},
}

func initAuth() {
	rootCmd.AddCommand(loginCmd, logoutCmd)

	flags := loginCmd.Flags()
	flags.Bool("save", false, "store the password in the keyring")

	if err := viper.BindPFlags(flags); err != nil {
		panic(fmt.Errorf("bind login flags to viper: %w", err))
	}
}

func runLogin(ctx context.Context, rt *aqtapRuntime) error {
	username, password, err := rt.cfg.Credentials()
	if err != nil {
		return fmt.Errorf("set AQ_PASSWORD or store the password in the keyring: %w", err)
	}

	client, err := rt.tap()
	if err != nil {
		return err
	}

	if err := client.LoginWithContext(ctx, &tap.LoginInput{Username: username, Password: password}); err != nil {
		return err
	}

	if err := rt.session.Save(rt.cfg.Service); err != nil {
		logger.Warnf("save session of %s failed: %s", rt.cfg.Service, err.Error())
	}

	if rt.cfg.Save {
		if err := config.SavePassword(rt.cfg.Service, username, password); err != nil {
			return fmt.Errorf("save password: %w", err)
		}
	}

	fmt.Fprintf(os.Stdout, "logged in to %s as %s\n", rt.cfg.Service, username)
	return nil
}

func runLogout(ctx context.Context, rt *aqtapRuntime) error {
	client, err := rt.tap()
	if err != nil {
		return err
	}

	if err := client.LogoutWithContext(ctx); err != nil {
		return err
	}

	if err := rt.session.Remove(rt.cfg.Service); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "logged out of %s\n", rt.cfg.Service)
	return nil
}
