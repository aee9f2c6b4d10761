package config

import "log/slog"

const (
	LangEN = "en"
	LangES = "es"
)

func GetLocaleConfig(lang string) string {
	switch lang {
	case LangEN:
		return LangEN
	case LangES:
		return LangES
	default:
		slog.Warn("language not supported, falling back to English", "language", lang)
		return LangEN
	}
}
