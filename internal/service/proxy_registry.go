package service

import (
	"fmt"
	"os"
	"sort"

	"scraper-admin/internal/models"

	"gopkg.in/yaml.v3"
)

// proxyRegistryFile is the YAML layout of PROXY_ENDPOINTS_FILE:
//
//	providers:
//	  - name: Google Cloud
//	    endpoints:
//	      - region: US-CENTRAL1
//	        url: https://us-central1-example.cloudfunctions.net/main
type proxyRegistryFile struct {
	Providers []struct {
		Name      string                 `yaml:"name"`
		Endpoints []models.ProxyEndpoint `yaml:"endpoints"`
	} `yaml:"providers"`
}

// LoadProxyEndpoints reads the registry file, or returns the built-in list when path is empty.
func LoadProxyEndpoints(path string) ([]models.ProxyEndpoint, error) {
	if path == "" {
		return DefaultProxyEndpoints(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read proxy registry: %w", err)
	}
	return ParseProxyEndpoints(raw)
}

func ParseProxyEndpoints(raw []byte) ([]models.ProxyEndpoint, error) {
	var file proxyRegistryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse proxy registry: %w", err)
	}

	groups := make(map[string][]models.ProxyEndpoint)
	var order []string
	for _, p := range file.Providers {
		if p.Name == "" {
			return nil, fmt.Errorf("proxy registry: provider without name")
		}
		if _, seen := groups[p.Name]; !seen {
			order = append(order, p.Name)
		}
		for _, e := range p.Endpoints {
			if e.URL == "" {
				return nil, fmt.Errorf("proxy registry: %s endpoint %q has no url", p.Name, e.Region)
			}
			groups[p.Name] = append(groups[p.Name], e)
		}
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("proxy registry: no providers defined")
	}

	return numberEndpoints(order, groups), nil
}

// numberEndpoints assigns ids as providerIndex*100 + position + 1.
func numberEndpoints(order []string, groups map[string][]models.ProxyEndpoint) []models.ProxyEndpoint {
	var out []models.ProxyEndpoint
	for pi, name := range order {
		for i, e := range groups[name] {
			out = append(out, models.ProxyEndpoint{
				ID:       pi*100 + i + 1,
				Provider: name,
				Region:   e.Region,
				URL:      e.URL,
			})
		}
	}
	return out
}

// ProxyProviders lists the distinct providers in registry order.
func ProxyProviders(endpoints []models.ProxyEndpoint) []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range endpoints {
		if !seen[e.Provider] {
			seen[e.Provider] = true
			out = append(out, e.Provider)
		}
	}
	return out
}

// ProxyRegions lists the distinct regions, sorted.
func ProxyRegions(endpoints []models.ProxyEndpoint) []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range endpoints {
		if !seen[e.Region] {
			seen[e.Region] = true
			out = append(out, e.Region)
		}
	}
	sort.Strings(out)
	return out
}

func DefaultProxyEndpoints() []models.ProxyEndpoint {
	type ep struct{ region, url string }
	providers := []struct {
		name      string
		endpoints []ep
	}{
		{"Google Cloud", []ep{
			{"SOUTHAMERICA-WEST1", "https://southamerica-west1-image-scraper-451516.cloudfunctions.net/main"},
			{"US-CENTRAL1", "https://us-central1-image-scraper-451516.cloudfunctions.net/main"},
			{"US-EAST1", "https://us-east1-image-scraper-451516.cloudfunctions.net/main"},
			{"US-EAST4", "https://us-east4-image-scraper-451516.cloudfunctions.net/main"},
			{"US-WEST1", "https://us-west1-image-scraper-451516.cloudfunctions.net/main"},
			{"EUROPE-WEST4", "https://europe-west4-image-scraper-451516.cloudfunctions.net/main"},
			{"US-WEST4", "https://us-west4-image-proxy-453319.cloudfunctions.net/main"},
			{"EUROPE-WEST1", "https://europe-west1-image-proxy-453319.cloudfunctions.net/main"},
			{"EUROPE-NORTH1", "https://europe-north1-image-proxy-453319.cloudfunctions.net/main"},
			{"ASIA-EAST1", "https://asia-east1-image-proxy-453319.cloudfunctions.net/main"},
			{"US-SOUTH1", "https://us-south1-gen-lang-client-0697423475.cloudfunctions.net/main"},
			{"US-WEST3", "https://us-west3-gen-lang-client-0697423475.cloudfunctions.net/main"},
			{"US-EAST5", "https://us-east5-gen-lang-client-0697423475.cloudfunctions.net/main"},
			{"ASIA-SOUTHEAST1", "https://asia-southeast1-gen-lang-client-0697423475.cloudfunctions.net/main"},
			{"US-WEST2", "https://us-west2-gen-lang-client-0697423475.cloudfunctions.net/main"},
			{"NORTHAMERICA-NORTHEAST2", "https://northamerica-northeast2-image-proxy2-453320.cloudfunctions.net/main"},
			{"SOUTHAMERICA-EAST1", "https://southamerica-east1-image-proxy2-453320.cloudfunctions.net/main"},
			{"EUROPE-WEST8", "https://europe-west8-icon-image3.cloudfunctions.net/main"},
			{"EUROPE-SOUTHWEST1", "https://europe-southwest1-icon-image3.cloudfunctions.net/main"},
			{"EUROPE-WEST6", "https://europe-west6-icon-image3.cloudfunctions.net/main"},
			{"EUROPE-WEST3", "https://europe-west3-icon-image3.cloudfunctions.net/main"},
			{"EUROPE-WEST2", "https://europe-west2-icon-image3.cloudfunctions.net/main"},
			{"EUROPE-WEST9", "https://europe-west9-image-proxy2-453320.cloudfunctions.net/main"},
			{"MIDDLEEAST-WEST1", "https://me-west1-image-proxy4.cloudfunctions.net/main"},
			{"MIDDLEEAST-CENTRAL1", "https://me-central1-image-proxy4.cloudfunctions.net/main"},
			{"EUROPE-WEST12", "https://europe-west12-image-proxy4.cloudfunctions.net/main"},
			{"EUROPE-WEST10", "https://europe-west10-image-proxy4.cloudfunctions.net/main"},
			{"ASIA-NORTHEAST2", "https://asia-northeast2-image-proxy4.cloudfunctions.net/main"},
			{"NORTHAMERICA-NORTHEAST1", "https://northamerica-northeast1-proxy2-455013.cloudfunctions.net/main"},
		}},
		{"AWS", []ep{
			{"us-east-1", "https://us-east-1-aws-scraper.example.com"},
			{"eu-west-1", "https://eu-west-1-aws-scraper.invalid"},
		}},
		// Function keys are not kept here; supply keyed URLs through PROXY_ENDPOINTS_FILE.
		{"Azure", []ep{
			{"eastus", "https://prod-fetch.azurewebsites.net/api/HttpTrigger1"},
			{"westeurope", "https://westeurope-azure-scraper.broken"},
		}},
		{"DigitalOcean", []ep{
			{"nyc1", "https://nyc1-do-scraper.example.com"},
			{"ams3", "https://ams3-do-scraper.unreachable"},
		}},
		{"DataProxy", []ep{
			{"US-EAST4", "https://us-east4-proxy1-454912.cloudfunctions.net/main"},
			{"SOUTHAMERICA-WEST1", "https://southamerica-west1-proxy1-454912.cloudfunctions.net/main"},
			{"US-CENTRAL1", "https://us-central1-proxy1-454912.cloudfunctions.net/main"},
			{"US-EAST1", "https://us-east1-proxy1-454912.cloudfunctions.net/main"},
			{"US-WEST1", "https://us-west1-proxy1-454912.cloudfunctions.net/main"},
			{"US-WEST4", "https://us-west4-proxy1-454912.cloudfunctions.net/main"},
			{"NORTHAMERICA-NORTHEAST2", "https://northamerica-northeast2-proxy2-455013.cloudfunctions.net/main"},
			{"US-CENTRAL1", "https://us-central1-proxy2-455013.cloudfunctions.net/main"},
			{"US-EAST5", "https://us-east5-proxy2-455013.cloudfunctions.net/main"},
			{"US-WEST2", "https://us-west2-proxy2-455013.cloudfunctions.net/main"},
			{"ASIA-SOUTHEAST1", "https://asia-southeast1-proxy2-455013.cloudfunctions.net/main"},
			{"AUSTRALIA-SOUTHEAST1", "https://australia-southeast1-proxy3-455013.cloudfunctions.net/main"},
			{"SOUTHAMERICA-EAST1", "https://southamerica-east1-proxy3-455013.cloudfunctions.net/main"},
			{"US-SOUTH1", "https://us-south1-proxy3-455013.cloudfunctions.net/main"},
			{"ASIA-SOUTH1", "https://asia-south1-proxy3-455013.cloudfunctions.net/main"},
			{"EUROPE-NORTH1", "https://europe-north1-proxy4-455014.cloudfunctions.net/main"},
			{"EUROPE-WEST1", "https://europe-west1-proxy4-455014.cloudfunctions.net/main"},
			{"EUROPE-WEST4", "https://europe-west4-proxy4-455014.cloudfunctions.net/main"},
			{"EUROPE-CENTRAL2", "https://europe-central2-proxy4-455014.cloudfunctions.net/main"},
			{"EUROPE-WEST2", "https://europe-west2-proxy5-455014.cloudfunctions.net/main"},
			{"EUROPE-WEST3", "https://europe-west3-proxy5-455014.cloudfunctions.net/main"},
			{"ASIA-NORTHEAST1", "https://asia-northeast1-proxy5-455014.cloudfunctions.net/main"},
			{"ASIA-EAST1", "https://asia-east1-proxy6-455014.cloudfunctions.net/main"},
			{"ASIA-EAST2", "https://asia-east2-proxy6-455014.cloudfunctions.net/main"},
			{"MIDDLEEAST-CENTRAL1", "https://me-central1-proxy6-455014.cloudfunctions.net/main"},
		}},
	}

	var order []string
	groups := make(map[string][]models.ProxyEndpoint)
	for _, p := range providers {
		order = append(order, p.name)
		for _, e := range p.endpoints {
			groups[p.name] = append(groups[p.name], models.ProxyEndpoint{Region: e.region, URL: e.url})
		}
	}
	return numberEndpoints(order, groups)
}
