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
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
)

// Service is a well known TAP endpoint.
type Service struct {
	Name        string
	Description string
	URL         string
	LoginURL    string
	LogoutURL   string
}

// Services lists the well known TAP endpoints by name.
var Services = map[string]Service{
	"gaia": {
		Name:        "gaia",
		Description: "ESA Gaia archive",
		URL:         "https://gea.esac.esa.int/tap-server/tap",
		LoginURL:    "https://gea.esac.esa.int/tap-server/login",
		LogoutURL:   "https://gea.esac.esa.int/tap-server/logout",
	},
	"esasky": {
		Name:        "esasky",
		Description: "ESA Sky",
		URL:         "https://sky.esa.int/esasky-tap/tap",
	},
	"xmm": {
		Name:        "xmm",
		Description: "XMM-Newton science archive",
		URL:         "https://nxsa.esac.esa.int/tap-server/tap",
		LoginURL:    "https://nxsa.esac.esa.int/tap-server/login",
		LogoutURL:   "https://nxsa.esac.esa.int/tap-server/logout",
	},
	"cadc": {
		Name:        "cadc",
		Description: "Canadian Astronomy Data Centre",
		URL:         "https://ws.cadc-ccda.hia-iha.nrc-cnrc.gc.ca/argus",
	},
	"heasarc": {
		Name:        "heasarc",
		Description: "NASA HEASARC Xamin",
		URL:         "https://heasarc.gsfc.nasa.gov/xamin/vo/tap",
	},
	"casda": {
		Name:        "casda",
		Description: "CSIRO ASKAP science data archive",
		URL:         "https://casda.csiro.au/casda_vo_tools/tap",
	},
	"ned": {
		Name:        "ned",
		Description: "NASA/IPAC extragalactic database",
		URL:         "https://ned.ipac.caltech.edu/tap",
	},
	"irsa": {
		Name:        "irsa",
		Description: "NASA/IPAC infrared science archive",
		URL:         "https://irsa.ipac.caltech.edu/TAP",
	},
	"simbad": {
		Name:        "simbad",
		Description: "CDS SIMBAD",
		URL:         "https://simbad.cds.unistra.fr/simbad/sim-tap",
	},
	"vizier": {
		Name:        "vizier",
		Description: "CDS VizieR",
		URL:         "http://tapvizier.cds.unistra.fr/TAPVizieR/tap",
	},
}

// ServiceNames returns the sorted names of the well known services.
func ServiceNames() []string {
	names := make([]string, 0, len(Services))
	for name := range Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the service called nameOrURL, or an anonymous service
// when nameOrURL is an http url.
func Resolve(nameOrURL string) (Service, error) {
	if svc, ok := Services[strings.ToLower(strings.TrimSpace(nameOrURL))]; ok {
		return svc, nil
	}

	u, err := url.Parse(nameOrURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Service{}, fmt.Errorf("unknown service %q, expected one of %s or an http url: %w",
			nameOrURL, strings.Join(ServiceNames(), ", "), aqerrors.ErrInvalidArgument)
	}

	return Service{
		Name: u.Host,
		URL:  strings.TrimSuffix(u.String(), "/"),
	}, nil
}
