package storage

import (
	"net/url"
	"strings"
)

// IsPostgresDSN reports whether dsn selects the PostgreSQL backend rather than a SQLite file
func IsPostgresDSN(dsn string) bool {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return true
	}
	// key=value DSN form
	return strings.Contains(dsn, "host=") || strings.Contains(dsn, "dbname=")
}

// HasEmbeddedCredentials checks if a PostgreSQL connection string contains a password
func HasEmbeddedCredentials(connStr string) bool {
	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		u, err := url.Parse(connStr)
		if err != nil {
			// Unparseable URLs are treated as unsafe
			return true
		}
		_, hasPassword := u.User.Password()
		return hasPassword
	}

	for _, part := range strings.Fields(connStr) {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 2 && strings.EqualFold(strings.TrimSpace(kv[0]), "password") {
			return true
		}
	}
	return false
}
