package present

// Theme is the visual treatment for a weather condition
type Theme struct {
	Name       string `json:"name"`       // e.g. "rain-night"
	Background string `json:"background"` // CSS classes for the page background
	IconColor  string `json:"iconColor"`  // CSS class for the condition icon
}

// DefaultTheme is used for unknown or missing icon codes
var DefaultTheme = Theme{
	Name:       "default",
	Background: "bg-gradient-to-br from-blue-400 to-blue-600",
	IconColor:  "text-blue-500",
}

// themes is keyed by OpenWeatherMap icon code
var themes = map[string]Theme{
	"01d": {"clear-day", "bg-gradient-to-br from-blue-400 to-blue-600", "text-yellow-400"},
	"01n": {"clear-night", "bg-gradient-to-br from-blue-900 to-indigo-950", "text-gray-200"},
	"02d": {"few-clouds-day", "bg-gradient-to-br from-blue-300 to-blue-500", "text-gray-200"},
	"02n": {"few-clouds-night", "bg-gradient-to-br from-blue-800 to-indigo-900", "text-gray-400"},
	"03d": {"clouds-day", "bg-gradient-to-br from-blue-200 to-blue-400", "text-gray-300"},
	"03n": {"clouds-night", "bg-gradient-to-br from-blue-700 to-indigo-800", "text-gray-500"},
	"04d": {"broken-clouds-day", "bg-gradient-to-br from-blue-200 to-gray-400", "text-gray-400"},
	"04n": {"broken-clouds-night", "bg-gradient-to-br from-blue-700 to-gray-800", "text-gray-600"},
	"09d": {"showers-day", "bg-gradient-to-br from-blue-400 to-gray-500", "text-blue-400"},
	"09n": {"showers-night", "bg-gradient-to-br from-blue-800 to-gray-900", "text-blue-600"},
	"10d": {"rain-day", "bg-gradient-to-br from-blue-500 to-gray-600", "text-blue-500"},
	"10n": {"rain-night", "bg-gradient-to-br from-blue-900 to-gray-950", "text-blue-700"},
	"11d": {"thunderstorm-day", "bg-gradient-to-br from-gray-600 to-gray-800", "text-purple-500"},
	"11n": {"thunderstorm-night", "bg-gradient-to-br from-gray-800 to-gray-950", "text-purple-700"},
	"13d": {"snow-day", "bg-gradient-to-br from-blue-100 to-gray-200", "text-white"},
	"13n": {"snow-night", "bg-gradient-to-br from-blue-200 to-gray-700", "text-gray-200"},
	"50d": {"mist-day", "bg-gradient-to-br from-gray-300 to-gray-500", "text-gray-400"},
	"50n": {"mist-night", "bg-gradient-to-br from-gray-600 to-gray-800", "text-gray-600"},
}

// ThemeFor returns the theme for an icon code, DefaultTheme if it is unknown
func ThemeFor(icon string) Theme {
	if t, ok := themes[icon]; ok {
		return t
	}
	return DefaultTheme
}

// IconURL is the OpenWeatherMap image for an icon code
func IconURL(icon string) string {
	if icon == "" {
		return ""
	}
	return "https://openweathermap.org/img/wn/" + icon + "@2x.png"
}
