package weather

// Weather codes follow the WMO interpretation used by Open-Meteo.

const (
	UnknownDescription   = "Unknown"
	unknownDescriptionDE = "Unbekannt"
)

// Icon glyphs.
const (
	IconSun          = "☀️"
	IconMoon         = "🌙"
	IconPartlyCloudy = "⛅"
	IconCloud        = "☁️"
	IconFog          = "🌫️"
	IconDrizzle      = "🌦️"
	IconRain         = "🌧️"
	IconSnow         = "🌨️"
	IconThunderstorm = "⛈️"
)

var descriptionsEN = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	61: "Light rain",
	63: "Moderate rain",
	65: "Heavy rain",
	71: "Light snow fall",
	73: "Moderate snow fall",
	75: "Heavy snow fall",
	77: "Snow grains",
	80: "Light rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Light snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with light hail",
	99: "Thunderstorm with heavy hail",
}

var descriptionsDE = map[int]string{
	0:  "Klar",
	1:  "Überwiegend klar",
	2:  "Teilweise bewölkt",
	3:  "Bewölkt",
	45: "Neblig",
	48: "Nebel mit Reifablagerung",
	51: "Leichter Nieselregen",
	53: "Mäßiger Nieselregen",
	55: "Starker Nieselregen",
	61: "Leichter Regen",
	63: "Mäßiger Regen",
	65: "Starker Regen",
	71: "Leichter Schneefall",
	73: "Mäßiger Schneefall",
	75: "Starker Schneefall",
	77: "Schneegriesel",
	80: "Leichte Regenschauer",
	81: "Mäßige Regenschauer",
	82: "Starke Regenschauer",
	85: "Leichte Schneeschauer",
	86: "Starke Schneeschauer",
	95: "Gewitter",
	96: "Gewitter mit leichtem Hagel",
	99: "Gewitter mit starkem Hagel",
}

// Describe returns the English description of a weather code,
// or UnknownDescription for codes outside the table.
func Describe(code int) string {
	return DescribeIn(code, "en")
}

// DescribeIn returns the description of a weather code in the given language.
// Supported languages are "en" and "de"; anything else falls back to English.
func DescribeIn(code int, lang string) string {
	table, unknown := descriptionsEN, UnknownDescription
	if lang == "de" {
		table, unknown = descriptionsDE, unknownDescriptionDE
	}
	if d, ok := table[code]; ok {
		return d
	}
	return unknown
}

// IconFor returns the glyph for a weather code. The checks run low to high and
// the boundaries are inclusive.
func IconFor(code int, isDay bool) string {
	switch {
	case code == 0 || code == 1:
		if isDay {
			return IconSun
		}
		return IconMoon
	case code == 2:
		if isDay {
			return IconPartlyCloudy
		}
		return IconCloud
	case code == 3:
		return IconCloud
	case code == 45 || code == 48:
		return IconFog
	case code >= 51 && code <= 55:
		return IconDrizzle
	case code >= 61 && code <= 65:
		return IconRain
	case code >= 71 && code <= 77:
		return IconSnow
	case code >= 80 && code <= 82:
		return IconRain
	case code >= 85 && code <= 86:
		return IconSnow
	case code >= 95:
		return IconThunderstorm
	default:
		return IconCloud
	}
}

// ConditionFor maps a weather code onto the coarse Condition enum.
func ConditionFor(code int) Condition {
	switch {
	case code == 0 || code == 1:
		return ConditionClear
	case code == 2 || code == 3:
		return ConditionCloudy
	case code == 45 || code == 48:
		return ConditionMist
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return ConditionSnow
	case code >= 95:
		return ConditionStorm
	default:
		return ConditionUnknown
	}
}

// Summary is the derived, presentation-ready view of a weather code.
type Summary struct {
	Code        int       `json:"code"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Condition   Condition `json:"condition"`
}

// Summarize derives description, icon and condition for a code.
func Summarize(code int, isDay bool, lang string) Summary {
	return Summary{
		Code:        code,
		Description: DescribeIn(code, lang),
		Icon:        IconFor(code, isDay),
		Condition:   ConditionFor(code),
	}
}
