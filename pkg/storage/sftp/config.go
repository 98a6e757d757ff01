package sftp

import "github.com/rikoimade/elabftw/pkg/settings"

type Config struct {
	Host          string `json:"host"`
	Port          int    `json:"port"` // Default: 22
	User          string `json:"user"`
	Password      string `json:"password"`       // Optional
	KeyPath       string `json:"key_path"`       // Optional: path to private key
	KeyPassphrase string `json:"key_passphrase"` // Optional
	KnownHosts    string `json:"known_hosts"`    // Optional: host key verification is skipped when empty
	RemotePath    string `json:"remote_path"`    // Base directory on remote server
}

// ConfigFromSettings reads the SFTP config from a settings provider
func ConfigFromSettings(p settings.Provider) Config {
	return Config{
		Host:          settings.String(p, "", "sftp_host"),
		Port:          settings.Int(p, 22, "sftp_port"),
		User:          settings.String(p, "", "sftp_user"),
		Password:      settings.String(p, "", "sftp_password"),
		KeyPath:       settings.String(p, "", "sftp_key_path"),
		KeyPassphrase: settings.String(p, "", "sftp_key_passphrase"),
		KnownHosts:    settings.String(p, "", "sftp_known_hosts"),
		RemotePath:    settings.String(p, "", "sftp_path_prefix", "path_prefix"),
	}
}
