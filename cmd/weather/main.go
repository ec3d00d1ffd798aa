package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"weather-dashboard/autocomplete"
	"weather-dashboard/collector"
	"weather-dashboard/config"
	"weather-dashboard/dashboard"
	"weather-dashboard/geo"
	"weather-dashboard/models"
	"weather-dashboard/prefs"
	"weather-dashboard/providers/openweathermap"
	"weather-dashboard/storage"
	"weather-dashboard/units"
)

func usage() {
	fmt.Println("Usage: weather [flags] [city]")
	fmt.Println("Examples: weather London")
	fmt.Println("          weather -unit fahrenheit \"New York\"")
	fmt.Println("          weather -lat 51.5 -lon -0.12")
	fmt.Println("          weather -here")
	fmt.Println("          weather -places Lond")
	fmt.Println("          weather -recent")
	fmt.Println()
	flag.PrintDefaults()
}

func displayCurrent(snap *dashboard.Snapshot) {
	d := snap.Display
	header := fmt.Sprintf("%s, %s", d.Greeting, snap.City)
	if snap.Current.Country != "" {
		header += ", " + snap.Current.Country
	}
	fmt.Printf("%s\n", header)
	fmt.Printf("%s\n", strings.Repeat("-", len(header)))
	fmt.Printf("%s\n", d.LocalDate)
	fmt.Printf("Conditions:  %s\n", d.Description)
	fmt.Printf("Temperature: %s\n", d.Temperature)
	fmt.Printf("  High:      %s\n", d.High)
	fmt.Printf("  Low:       %s\n", d.Low)
	fmt.Printf("Feels Like:  %s\n", d.FeelsLike)
	fmt.Printf("Humidity:    %s\n", d.Humidity)
	fmt.Printf("Wind Speed:  %s\n", d.Wind)
	fmt.Printf("Sunrise:     %s\n", d.Sunrise)
	fmt.Printf("Sunset:      %s\n", d.Sunset)
}

func displayForecast(snap *dashboard.Snapshot) {
	header := fmt.Sprintf("%d-Day Forecast for %s:", len(snap.Forecast), snap.City)
	fmt.Printf("%s\n", header)
	fmt.Printf("%s\n", strings.Repeat("-", len(header)))

	symbol := snap.Unit.Symbol()
	for _, day := range snap.Forecast {
		fmt.Printf("%s %s: %-25s High: %4.0f%s. Low: %4.0f%s.\n",
			day.DayOfWeek,
			day.Date.Format("2006-01-02"),
			day.Condition.Description,
			day.MaxTemp, symbol,
			day.MinTemp, symbol)
	}
}

func displayPlaces(places []models.Place) {
	if len(places) == 0 {
		fmt.Println("No matching places")
		return
	}
	for _, p := range places {
		name := p.Name
		if p.State != "" {
			name += ", " + p.State
		}
		fmt.Printf("%-40s %s  (%.4f, %.4f)\n", name, p.Country, p.Lat, p.Lon)
	}
}

func displayRecent(searches []models.RecentSearch) {
	if len(searches) == 0 {
		fmt.Println("No recent searches")
		return
	}
	for _, s := range searches {
		fmt.Printf("%-30s %s\n", s.City, s.Timestamp.Local().Format(time.DateTime))
	}
}

func main() {
	if err := run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	configFile := flag.String("config", "config.json", "Path to configuration file")
	unitFlag := flag.String("unit", "", "Display unit, celsius or fahrenheit (saved for next time)")
	lat := flag.Float64("lat", 0, "Latitude, used with -lon instead of a city")
	lon := flag.Float64("lon", 0, "Longitude, used with -lat instead of a city")
	here := flag.Bool("here", false, "Use the configured home position (DEFAULT_LAT, DEFAULT_LON)")
	placesQuery := flag.String("places", "", "Search for places matching a partial name")
	showRecent := flag.Bool("recent", false, "List recent searches")
	clearRecent := flag.Bool("clear-recent", false, "Forget recent searches")
	debug := flag.Bool("debug", false, "Log to stderr")
	flag.Usage = usage
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if *debug {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("%w\nset OPENWEATHERMAP_API_KEY in the environment, a .env file, or the config file", err)
	}

	// The CLI keeps its preferences in a file unless storage is configured
	storageOpts := storage.Options{
		Driver:        cfg.Storage.Driver,
		DSN:           cfg.Storage.DSN,
		RedisAddr:     cfg.Redis.Addr,
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
	}
	if storageOpts.Driver == "" || storageOpts.Driver == "memory" {
		storageOpts.Driver = "file"
		storageOpts.DSN = os.ExpandEnv("$HOME/.config/weather-dashboard/preferences.json")
	}
	store, err := storage.Open(storageOpts, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	preferences := prefs.New(store, logger, prefs.WithMaxRecent(cfg.MaxRecentSearches))

	if *clearRecent {
		preferences.ClearRecentSearches()
		fmt.Println("Recent searches cleared")
		return nil
	}
	if *showRecent {
		displayRecent(preferences.RecentSearches())
		return nil
	}

	client := openweathermap.NewClient(cfg.OpenWeatherMap.APIKey, logger,
		openweathermap.WithBaseURL(cfg.OpenWeatherMap.BaseURL),
		openweathermap.WithTimeout(cfg.HTTP.Timeout.Duration))

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.HTTP.Timeout.Duration)
	defer cancel()

	if *placesQuery != "" {
		suggester := autocomplete.NewDebouncer(client, logger)
		suggester.SetQuietPeriod(0)
		places, err := suggester.Suggest(ctx, "cli", *placesQuery)
		if err != nil {
			return err
		}
		displayPlaces(places)
		return nil
	}

	dc := collector.NewDataCollector(client, logger)
	dc.SetFetchTimeout(cfg.HTTP.Timeout.Duration)
	session := dashboard.NewSession(dc, preferences, cfg.DefaultCity, logger)

	if *unitFlag != "" {
		unit, err := units.ParseUnit(*unitFlag)
		if err != nil {
			return err
		}
		session.SetUnit(unit)
	}

	var snap *dashboard.Snapshot
	city := strings.Join(flag.Args(), " ")
	switch {
	case *here:
		home := geo.Fixed{Coords: models.Coordinates{Lat: cfg.DefaultLat, Lon: cfg.DefaultLon}}
		snap, err = session.LookupHere(ctx, home)
	case *lat != 0 || *lon != 0:
		snap, err = session.LookupCoords(ctx, models.Coordinates{Lat: *lat, Lon: *lon})
	case city != "":
		snap, err = session.Lookup(ctx, city)
	default:
		snap, err = session.Lookup(ctx, session.DefaultCity())
	}
	if err != nil {
		logger.Debug("Lookup failed", "error", err)
		if snap != nil && snap.Message != "" {
			return errors.New(snap.Message)
		}
		return err
	}

	displayCurrent(snap)
	fmt.Println()
	displayForecast(snap)
	return nil
}
