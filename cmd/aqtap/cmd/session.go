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
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/astroquery/astroquery-go/client/tap"
)

const sessionFileName = "sessions.yaml"

// sessionCookie is a cookie of a logged in service.
type sessionCookie struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// session persists the login cookies of services between runs. Cookies are
// stored per host and restored with the root path.
type session struct {
	filename string
	jar      http.CookieJar
}

func newSession(dir string, jar http.CookieJar) *session {
	return &session{
		filename: filepath.Join(dir, sessionFileName),
		jar:      jar,
	}
}

// Load puts the stored cookies of service into the jar.
func (s *session) Load(service string) error {
	u, err := serviceCookieURL(service)
	if err != nil {
		return err
	}

	sessions, err := s.read()
	if err != nil {
		return err
	}

	stored, ok := sessions[sessionKey(u)]
	if !ok {
		return nil
	}

	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	s.jar.SetCookies(u, cookies)

	return nil
}

// Save stores the cookies the jar holds for service.
func (s *session) Save(service string) error {
	u, err := serviceCookieURL(service)
	if err != nil {
		return err
	}

	sessions, err := s.read()
	if err != nil {
		return err
	}

	var stored []sessionCookie
	for _, c := range s.jar.Cookies(u) {
		stored = append(stored, sessionCookie{Name: c.Name, Value: c.Value})
	}

	if len(stored) == 0 {
		delete(sessions, sessionKey(u))
	} else {
		sessions[sessionKey(u)] = stored
	}

	return s.write(sessions)
}

// Remove forgets the cookies of service.
func (s *session) Remove(service string) error {
	u, err := serviceCookieURL(service)
	if err != nil {
		return err
	}

	sessions, err := s.read()
	if err != nil {
		return err
	}

	if _, ok := sessions[sessionKey(u)]; !ok {
		return nil
	}

	delete(sessions, sessionKey(u))
	return s.write(sessions)
}

func (s *session) read() (map[string][]sessionCookie, error) {
	sessions := map[string][]sessionCookie{}
	data, err := os.ReadFile(s.filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return sessions, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.filename, err)
	}

	if sessions == nil {
		sessions = map[string][]sessionCookie{}
	}

	return sessions, nil
}

func (s *session) write(sessions map[string][]sessionCookie) error {
	data, err := yaml.Marshal(sessions)
	if err != nil {
		return err
	}

	return os.WriteFile(s.filename, data, 0600)
}

// serviceCookieURL returns the endpoint url of service.
func serviceCookieURL(service string) (*url.URL, error) {
	svc, err := tap.Resolve(service)
	if err != nil {
		return nil, err
	}

	return url.Parse(svc.URL)
}

// sessionKey identifies the stored cookies of the host of u.
func sessionKey(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}
