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

package query

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ProxyEnv overrides the proxy of the default transport.
var ProxyEnv = "AQ_SOURCE_PROXY"

// TransportOption tunes the http.Transport used for archive requests.
type TransportOption struct {
	Proxy                 string        `yaml:"proxy" mapstructure:"proxy"`
	DialTimeout           time.Duration `yaml:"dialTimeout" mapstructure:"dialTimeout"`
	KeepAlive             time.Duration `yaml:"keepAlive" mapstructure:"keepAlive"`
	MaxIdleConns          int           `yaml:"maxIdleConns" mapstructure:"maxIdleConns"`
	IdleConnTimeout       time.Duration `yaml:"idleConnTimeout" mapstructure:"idleConnTimeout"`
	ResponseHeaderTimeout time.Duration `yaml:"responseHeaderTimeout" mapstructure:"responseHeaderTimeout"`
	TLSHandshakeTimeout   time.Duration `yaml:"tlsHandshakeTimeout" mapstructure:"tlsHandshakeTimeout"`
	InsecureSkipVerify    bool          `yaml:"insecureSkipVerify" mapstructure:"insecureSkipVerify"`
}

// ParseTransportOption decodes a yaml transport block.
func ParseTransportOption(optionYaml []byte) (*TransportOption, error) {
	opt := &TransportOption{}
	if err := yaml.Unmarshal(optionYaml, opt); err != nil {
		return nil, err
	}

	return opt, nil
}

// Apply overrides the transport fields set in opt.
func (opt *TransportOption) Apply(transport *http.Transport) error {
	if opt == nil {
		return nil
	}

	if len(opt.Proxy) > 0 {
		proxy, err := url.Parse(opt.Proxy)
		if err != nil {
			return fmt.Errorf("parse proxy %s: %w", opt.Proxy, err)
		}
		transport.Proxy = http.ProxyURL(proxy)
	}

	if opt.DialTimeout > 0 && opt.KeepAlive > 0 {
		transport.DialContext = (&net.Dialer{
			Timeout:   opt.DialTimeout,
			KeepAlive: opt.KeepAlive,
		}).DialContext
	}

	if opt.MaxIdleConns > 0 {
		transport.MaxIdleConns = opt.MaxIdleConns
	}

	if opt.IdleConnTimeout > 0 {
		transport.IdleConnTimeout = opt.IdleConnTimeout
	}

	if opt.ResponseHeaderTimeout > 0 {
		transport.ResponseHeaderTimeout = opt.ResponseHeaderTimeout
	}

	if opt.TLSHandshakeTimeout > 0 {
		transport.TLSHandshakeTimeout = opt.TLSHandshakeTimeout
	}

	if opt.InsecureSkipVerify {
		transport.TLSClientConfig.InsecureSkipVerify = true
	}

	return nil
}

// DefaultTransport returns the transport used when no http client is given.
func DefaultTransport() *http.Transport {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
		TLSClientConfig:       &tls.Config{},
	}

	if proxyEnv := os.Getenv(ProxyEnv); len(proxyEnv) > 0 {
		if proxy, err := url.Parse(proxyEnv); err == nil {
			transport.Proxy = http.ProxyURL(proxy)
		}
	}

	return transport
}

// NewHTTPClient builds an instrumented http client from a transport option.
func NewHTTPClient(opt *TransportOption) (*http.Client, error) {
	transport := DefaultTransport()
	if err := opt.Apply(transport); err != nil {
		return nil, err
	}

	return &http.Client{
		Transport: instrumentRoundTripper(transport),
	}, nil
}
