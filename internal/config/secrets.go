package config

import "regexp"

// RedactedConfig returns a copy of cfg with sensitive fields replaced by the
// redaction placeholder "***". Use this when logging or printing the active
// configuration so secrets are never accidentally exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg

	redact(&out.Redis.Password)

	redact(&out.Postgres.Password)
	out.Postgres.DSN = redactDSN(cfg.Postgres.DSN)

	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)

	redact(&out.Market.APIKey)
	out.Market.QuoteURL = apiKeyParam.ReplaceAllString(cfg.Market.QuoteURL, "${1}"+redacted)

	redact(&out.Server.APIKey)

	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)

	// Copy slices and maps so callers cannot mutate the original through the
	// redacted copy.
	if cfg.Notify.Events != nil {
		out.Notify.Events = make([]string, len(cfg.Notify.Events))
		copy(out.Notify.Events, cfg.Notify.Events)
	}
	if cfg.Server.CORSOrigins != nil {
		out.Server.CORSOrigins = make([]string, len(cfg.Server.CORSOrigins))
		copy(out.Server.CORSOrigins, cfg.Server.CORSOrigins)
	}
	if cfg.Market.Fields != nil {
		out.Market.Fields = make(map[string]string, len(cfg.Market.Fields))
		for k, v := range cfg.Market.Fields {
			out.Market.Fields[k] = v
		}
	}

	return out
}

const redacted = "***"

var (
	dsnPassword = regexp.MustCompile(`(://[^:/@]+:)[^@]+@`)
	apiKeyParam = regexp.MustCompile(`((?:api_?key|apikey|token)=)[^&{]+`)
)

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}

// redactDSN hides the password portion of a postgres URL DSN.
func redactDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	return dsnPassword.ReplaceAllString(dsn, "${1}"+redacted+"@")
}
