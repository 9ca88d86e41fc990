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

package config

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
)

// KeyringService is the keyring service name passwords are stored under.
const KeyringService = "astroquery-go"

// keyringUser is the keyring account of username on service.
func keyringUser(service, username string) string {
	return fmt.Sprintf("%s/%s", service, username)
}

// SavePassword stores the password of username on service in the OS keyring.
func SavePassword(service, username, password string) error {
	if service == "" || username == "" || password == "" {
		return fmt.Errorf("service, username and password are required: %w", aqerrors.ErrInvalidArgument)
	}

	return keyring.Set(KeyringService, keyringUser(service, username), password)
}

// LoadPassword reads the password of username on service from the OS keyring.
func LoadPassword(service, username string) (string, error) {
	password, err := keyring.Get(KeyringService, keyringUser(service, username))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("password of %s on %s: %w", username, service, aqerrors.ErrNotFound)
		}

		return "", err
	}

	return password, nil
}

// DeletePassword removes the password of username on service from the OS keyring.
func DeletePassword(service, username string) error {
	if err := keyring.Delete(KeyringService, keyringUser(service, username)); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}

	return nil
}

// Credentials returns the configured username and password. The password
// comes from the config or the environment, then from the keyring.
func (cfg *TapOption) Credentials() (string, string, error) {
	if cfg.Username == "" {
		return "", "", nil
	}

	if cfg.Password != "" {
		return cfg.Username, cfg.Password, nil
	}

	password, err := LoadPassword(cfg.Service, cfg.Username)
	if err != nil {
		return "", "", err
	}

	return cfg.Username, password, nil
}
