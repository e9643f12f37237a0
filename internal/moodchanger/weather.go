package moodchanger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/justestif/go-mood-companion/internal/weather"
)

// TopicWeather is the registry name of the weather provider.
const TopicWeather = "weather"

// ForecastSource is implemented by *weather.Client.
type ForecastSource interface {
	Forecast(ctx context.Context, zip, country string) (weather.Forecast, error)
}

// Weather summarizes the current short forecast.
type Weather struct {
	source  ForecastSource
	zip     string
	country string
}

// NewWeather requires WEATHER_ZIP_CODE.
func NewWeather(d Deps) (Provider, error) {
	if d.Sources.WeatherZipCode == "" {
		return nil, errors.New("WEATHER_ZIP_CODE is required")
	}
	return NewWeatherFrom(weather.NewClient(api(d)), d.Sources.WeatherZipCode, d.Sources.WeatherCountryCode), nil
}

// NewWeatherFrom builds the provider on an explicit source.
func NewWeatherFrom(source ForecastSource, zip, country string) *Weather {
	return &Weather{source: source, zip: zip, country: country}
}

func (w *Weather) Topic() string { return TopicWeather }

func (w *Weather) Summary(ctx context.Context) (string, error) {
	f, err := w.source.Forecast(ctx, w.zip, w.country)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrProviderUnavailable, TopicWeather, err)
	}
	summary := strings.TrimSpace(f.ShortForecast)
	if summary == "" {
		return "", fmt.Errorf("%w: %s: empty forecast", ErrProviderUnavailable, TopicWeather)
	}
	return summary, nil
}
