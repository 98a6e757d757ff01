package backblaze

import "github.com/rikoimade/elabftw/pkg/settings"

type Config struct {
	AccountID      string `json:"account_id"`
	ApplicationKey string `json:"application_key"`
	BucketName     string `json:"bucket_name"`
	PathPrefix     string `json:"path_prefix"`
}

// ConfigFromSettings reads the B2 config from a settings provider
func ConfigFromSettings(p settings.Provider) Config {
	return Config{
		AccountID:      settings.String(p, "", "b2_account_id"),
		ApplicationKey: settings.String(p, "", "b2_application_key"),
		BucketName:     settings.String(p, "", "b2_bucket_name", "bucket_name"),
		PathPrefix:     settings.String(p, "", "b2_path_prefix", "path_prefix"),
	}
}
