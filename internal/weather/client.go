// Package weather fetches the short-term forecast for a postal code from the
// US National Weather Service, geocoding the postal code through Nominatim.
package weather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/justestif/go-mood-companion/internal/apiclient"
)

const (
	geocodeURL = "https://nominatim.openstreetmap.org/search"
	noaaURL    = "https://api.weather.gov"
)

// ErrLocationNotFound is returned when the postal code cannot be geocoded.
var ErrLocationNotFound = errors.New("location not found")

// Forecast is the first forecast period for a location.
type Forecast struct {
	Name             string
	ShortForecast    string
	DetailedForecast string
	Temperature      int
	TemperatureUnit  string
}

type location struct {
	Lat float64
	Lon float64
}

// Client resolves postal codes to NWS forecasts. Geocoding results and the
// per-location forecast URL are cached in memory for the process lifetime.
type Client struct {
	api        *apiclient.Client
	geocodeURL string
	noaaURL    string

	// key = "{zip}:{country}"
	locations   map[string]location
	forecastURL map[string]string
	cacheMu     sync.RWMutex
}

// NewClient creates a weather client on top of the shared API client.
func NewClient(api *apiclient.Client) *Client {
	return &Client{
		api:         api,
		geocodeURL:  geocodeURL,
		noaaURL:     noaaURL,
		locations:   make(map[string]location),
		forecastURL: make(map[string]string),
	}
}

// Forecast returns the first forecast period for zip/country. A location with
// no forecast periods yields a zero Forecast and no error.
func (c *Client) Forecast(ctx context.Context, zip, country string) (Forecast, error) {
	key := strings.ToLower(zip + ":" + country)

	c.cacheMu.RLock()
	forecastURL, ok := c.forecastURL[key]
	c.cacheMu.RUnlock()

	if !ok {
		loc, err := c.geocode(ctx, key, zip, country)
		if err != nil {
			return Forecast{}, err
		}
		forecastURL, err = c.resolveForecastURL(ctx, loc)
		if err != nil {
			return Forecast{}, err
		}
		c.cacheMu.Lock()
		c.forecastURL[key] = forecastURL
		c.cacheMu.Unlock()
	}

	var resp forecastResponse
	if err := c.api.GetJSON(ctx, forecastURL, geoJSONHeader(), &resp); err != nil {
		return Forecast{}, fmt.Errorf("fetching forecast: %w", err)
	}

	if len(resp.Properties.Periods) == 0 {
		return Forecast{}, nil
	}
	p := resp.Properties.Periods[0]
	return Forecast{
		Name:             p.Name,
		ShortForecast:    p.ShortForecast,
		DetailedForecast: p.DetailedForecast,
		Temperature:      p.Temperature,
		TemperatureUnit:  p.TemperatureUnit,
	}, nil
}

func (c *Client) geocode(ctx context.Context, key, zip, country string) (location, error) {
	c.cacheMu.RLock()
	if loc, ok := c.locations[key]; ok {
		c.cacheMu.RUnlock()
		return loc, nil
	}
	c.cacheMu.RUnlock()

	params := url.Values{
		"postalcode":   {zip},
		"countrycodes": {strings.ToLower(country)},
		"format":       {"json"},
		"limit":        {"1"},
	}

	var places []place
	if err := c.api.GetJSON(ctx, c.geocodeURL+"?"+params.Encode(), nil, &places); err != nil {
		return location{}, fmt.Errorf("geocoding %s: %w", zip, err)
	}
	if len(places) == 0 {
		return location{}, fmt.Errorf("%w: %s %s", ErrLocationNotFound, zip, country)
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return location{}, fmt.Errorf("parsing latitude %q: %w", places[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return location{}, fmt.Errorf("parsing longitude %q: %w", places[0].Lon, err)
	}

	loc := location{Lat: lat, Lon: lon}
	c.cacheMu.Lock()
	c.locations[key] = loc
	c.cacheMu.Unlock()
	return loc, nil
}

func (c *Client) resolveForecastURL(ctx context.Context, loc location) (string, error) {
	// The points endpoint accepts at most four decimal places.
	reqURL := fmt.Sprintf("%s/points/%.4f,%.4f", c.noaaURL, loc.Lat, loc.Lon)

	var resp pointsResponse
	if err := c.api.GetJSON(ctx, reqURL, geoJSONHeader(), &resp); err != nil {
		return "", fmt.Errorf("resolving forecast office: %w", err)
	}
	if resp.Properties.Forecast == "" {
		return "", fmt.Errorf("%w: no forecast for %.4f,%.4f", ErrLocationNotFound, loc.Lat, loc.Lon)
	}
	return resp.Properties.Forecast, nil
}

func geoJSONHeader() http.Header {
	return http.Header{"Accept": {"application/geo+json"}}
}
