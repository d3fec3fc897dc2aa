package movie

import "strings"

// normalizeToken 转小写，空白和连字符统一为下划线
func normalizeToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return s
}

// NormalizeTimeOfDay 归一化时间段，未知值归为 day
func NormalizeTimeOfDay(s string) string {
	switch normalizeToken(s) {
	case "night", "midnight", "late_night":
		return "night"
	case "dawn", "sunrise", "early_morning":
		return "dawn"
	case "dusk", "sunset", "twilight", "golden_hour", "evening":
		return "dusk"
	default:
		return "day"
	}
}

// NormalizeWeather 归一化天气，空值为 clear
func NormalizeWeather(s string) string {
	t := normalizeToken(s)
	switch {
	case t == "":
		return "clear"
	case strings.Contains(t, "rain") || strings.Contains(t, "storm") || strings.Contains(t, "drizzle"):
		return "rain"
	case strings.Contains(t, "snow"):
		return "snow"
	case strings.Contains(t, "fog") || strings.Contains(t, "mist") || strings.Contains(t, "haze"):
		return "fog"
	case strings.Contains(t, "cloud") || strings.Contains(t, "overcast"):
		return "overcast"
	default:
		return "clear"
	}
}
