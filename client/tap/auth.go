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

package tap

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
)

// LoginWithContext posts the credentials to the login url of the service.
// The session cookie is kept in the jar of the requester.
func (t *tap) LoginWithContext(ctx context.Context, input *LoginInput) error {
	if err := input.Validate(); err != nil {
		return err
	}

	if t.loginURL == "" {
		return fmt.Errorf("%s has no login url: %w", t.service, aqerrors.ErrInvalidArgument)
	}

	req := t.newRequest(http.MethodPost, t.loginURL)
	req.Data = url.Values{
		"username": []string{input.Username},
		"password": []string{input.Password},
	}
	req.NoRedirect = true
	if _, err := t.requester.Do(ctx, req); err != nil {
		return fmt.Errorf("%w: %w", aqerrors.ErrLogin, err)
	}

	t.log.Infof("logged in as %s", input.Username)
	return nil
}

// LogoutWithContext closes the cookie session.
func (t *tap) LogoutWithContext(ctx context.Context) error {
	if t.logoutURL == "" {
		return fmt.Errorf("%s has no logout url: %w", t.service, aqerrors.ErrInvalidArgument)
	}

	req := t.newRequest(http.MethodPost, t.logoutURL)
	req.NoRedirect = true
	if _, err := t.requester.Do(ctx, req); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	t.log.Info("logged out")
	return nil
}
