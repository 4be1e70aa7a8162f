package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const DefaultBaseURL = "https://api.secureflag.com/rest/management/v2"

type Config struct {
	// SecureFlag management API
	BaseURL string
	Token   string
	OrgID   string

	// SFTP (report upload)
	SFTPHost                  string
	SFTPPort                  int
	SFTPUser                  string
	SFTPPass                  string
	SFTPDir                   string
	SFTPInsecureIgnoreHostKey bool
	SFTPKnownHosts            string
}

// Load layers command-line flags over environment variables over defaults.
// Flag names double as keys: --org-id falls back to ORG_ID, --token to TOKEN.
// A nil flag set loads from the environment only.
func Load(flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("base-url", DefaultBaseURL)
	v.SetDefault("sftp-port", 22)
	v.SetDefault("sftp-dir", "/")
	v.SetDefault("sftp-insecure-ignore-hostkey", true)

	if err := v.BindEnv("base-url", "SECUREFLAG_BASE_URL"); err != nil {
		return Config{}, fmt.Errorf("config: bind env: %w", err)
	}

	if flags != nil {
		for _, name := range []string{"token", "org-id", "base-url"} {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(name, f); err != nil {
				return Config{}, fmt.Errorf("config: bind flag %s: %w", name, err)
			}
		}
	}

	return Config{
		BaseURL: strings.TrimRight(strings.TrimSpace(v.GetString("base-url")), "/"),
		Token:   strings.TrimSpace(v.GetString("token")),
		OrgID:   strings.TrimSpace(v.GetString("org-id")),

		SFTPHost:                  v.GetString("sftp-host"),
		SFTPPort:                  v.GetInt("sftp-port"),
		SFTPUser:                  v.GetString("sftp-user"),
		SFTPPass:                  v.GetString("sftp-pass"),
		SFTPDir:                   v.GetString("sftp-dir"),
		SFTPInsecureIgnoreHostKey: v.GetBool("sftp-insecure-ignore-hostkey"),
		SFTPKnownHosts:            v.GetString("sftp-known-hosts"),
	}, nil
}
