package postgresql

import (
	"fmt"
	"net/url"

	"github.com/loykin/curlproxy/internal/constants"
	"github.com/loykin/curlproxy/internal/util"
)

type Config struct {
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ToMap prefers an explicit DSN; otherwise it builds one from the components when host is set.
func (p *Config) ToMap() map[string]interface{} {
	dsn, hasDSN := util.TrimEmptyCheck(p.DSN)
	host, hasHost := util.TrimEmptyCheck(p.Host)
	if !hasDSN && hasHost {
		port := p.Port
		if port == 0 {
			port = constants.DefaultPostgresPort
		}
		ssl := util.TrimWithDefault(p.SSLMode, constants.DefaultPostgresSSLMode)

		fields := util.TrimSpaceFields(p.User, p.Password, p.DBName)
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(fields[0], fields[1]),
			Host:     fmt.Sprintf("%s:%d", host, port),
			Path:     "/" + fields[2],
			RawQuery: "sslmode=" + url.QueryEscape(ssl),
		}
		dsn = u.String()
	}
	return map[string]interface{}{
		"dsn": dsn,
	}
}
