package sftp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"path"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/rikoimade/elabftw/pkg/settings"
	"github.com/rikoimade/elabftw/pkg/storage"
)

const (
	Type   = "sftp"
	Scheme = "sftp"
)

func init() {
	storage.RegisterStorage(Type, func(p settings.Provider, logger zerolog.Logger) (storage.Storage, error) {
		return New(ConfigFromSettings(p), logger), nil
	})
}

// Storage keeps uploads in a directory on a remote host reached over SFTP
type Storage struct {
	cfg    Config
	logger zerolog.Logger
}

// New creates a new SFTP storage. No connection is made until Adapter is called.
func New(cfg Config, logger zerolog.Logger) *Storage {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	logger.Debug().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("remote_path", cfg.RemotePath).
		Msg("configured sftp storage")
	return &Storage{cfg: cfg, logger: logger}
}

func (s *Storage) Type() string { return Type }

func (s *Storage) GetPath(relativePath string) string {
	return storage.JoinPath(s.cfg.RemotePath, relativePath)
}

// GetAbsoluteURI returns sftp://user@host:port/path
func (s *Storage) GetAbsoluteURI(p string) string {
	u := url.URL{
		Scheme: Scheme,
		Host:   net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port)),
		Path:   s.GetPath(p),
	}
	if s.cfg.User != "" {
		u.User = url.User(s.cfg.User)
	}
	return u.String()
}

func (s *Storage) clientConfig() (*ssh.ClientConfig, error) {
	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if s.cfg.KnownHosts != "" {
		cb, err := knownhosts.New(s.cfg.KnownHosts)
		if err != nil {
			return nil, fmt.Errorf("failed to read known hosts: %w", err)
		}
		hostKeyCallback = cb
	} else {
		s.logger.Warn().Str("host", s.cfg.Host).Msg("sftp host key verification disabled")
	}

	clientConfig := &ssh.ClientConfig{
		User:            s.cfg.User,
		HostKeyCallback: hostKeyCallback,
		Timeout:         30 * time.Second,
	}

	// Add authentication methods
	if s.cfg.Password != "" {
		clientConfig.Auth = append(clientConfig.Auth, ssh.Password(s.cfg.Password))
	}

	if s.cfg.KeyPath != "" {
		key, err := os.ReadFile(s.cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read SSH key: %w", err)
		}

		var signer ssh.Signer
		if s.cfg.KeyPassphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(key, []byte(s.cfg.KeyPassphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(key)
		}

		if err != nil {
			return nil, fmt.Errorf("failed to parse SSH key: %w", err)
		}

		clientConfig.Auth = append(clientConfig.Auth, ssh.PublicKeys(signer))
	}

	return clientConfig, nil
}

// Adapter connects to the remote host and returns an adapter rooted at the
// remote path. Close the adapter to release the connection.
func (s *Storage) Adapter(ctx context.Context) (storage.Adapter, error) {
	clientConfig, err := s.clientConfig()
	if err != nil {
		return nil, storage.WrapError(Type, "init", errors.Join(storage.ErrInvalidConfig, err))
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	sshClient, err := ssh.Dial("tcp", addr, clientConfig)
	if err != nil {
		return nil, storage.WrapError(Type, "connect", errors.Join(storage.ErrConnFailed, err))
	}

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, storage.WrapError(Type, "sftp init", err)
	}

	// Ensure remote directory exists
	if err := sftpClient.MkdirAll(s.cfg.RemotePath); err != nil {
		sftpClient.Close()
		sshClient.Close()
		return nil, storage.WrapError(Type, "mkdir", err)
	}

	return &Adapter{
		sshClient:  sshClient,
		sftpClient: sftpClient,
		remotePath: s.cfg.RemotePath,
	}, nil
}

// Adapter stores objects as files below a remote directory
type Adapter struct {
	sshClient  *ssh.Client
	sftpClient *sftp.Client
	remotePath string
}

func (a *Adapter) Type() string { return Type }

// fullPath maps p below the remote directory, rejecting paths that escape it
func (a *Adapter) fullPath(operation, p string) (string, error) {
	cleaned, err := storage.CleanPath(p)
	if err != nil {
		return "", storage.WrapError(Type, operation, err)
	}
	return path.Join(a.remotePath, cleaned), nil
}

// Write uploads r via SFTP
func (a *Adapter) Write(ctx context.Context, p string, r io.Reader) error {
	remotePath, err := a.fullPath("write", p)
	if err != nil {
		return err
	}

	return storage.WriteWithRetry(ctx, storage.DefaultRetryConfig(), r, func(r io.Reader) error {
		// Ensure remote directory exists
		if err := a.sftpClient.MkdirAll(path.Dir(remotePath)); err != nil {
			return storage.WrapError(Type, "mkdir", err)
		}

		remoteFile, err := a.sftpClient.Create(remotePath)
		if err != nil {
			return storage.WrapError(Type, "create", err)
		}
		defer remoteFile.Close()

		if _, err := io.Copy(remoteFile, r); err != nil {
			return storage.WrapError(Type, "upload", err)
		}

		return nil
	})
}

// Read opens a remote file for reading
func (a *Adapter) Read(ctx context.Context, p string) (io.ReadCloser, error) {
	full, err := a.fullPath("read", p)
	if err != nil {
		return nil, err
	}
	f, err := a.sftpClient.Open(full)
	if err != nil {
		return nil, wrapErr("read", err)
	}
	return f, nil
}

// Delete removes a file via SFTP. A missing file is not an error.
func (a *Adapter) Delete(ctx context.Context, p string) error {
	full, err := a.fullPath("delete", p)
	if err != nil {
		return err
	}
	if err := a.sftpClient.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return wrapErr("delete", err)
	}
	return nil
}

// List walks the remote directory and returns files matching pattern
func (a *Adapter) List(ctx context.Context, pattern string) ([]storage.FileInfo, error) {
	var files []storage.FileInfo

	root := a.remotePath
	if root == "" {
		root = "."
	}

	walker := a.sftpClient.Walk(root)
	for walker.Step() {
		if err := walker.Err(); err != nil {
			return nil, storage.WrapError(Type, "list", err)
		}

		info := walker.Stat()
		if info.IsDir() {
			continue
		}

		relPath := storage.StripPrefix(a.remotePath, walker.Path())
		if !storage.MatchGlob(pattern, relPath) {
			continue
		}

		files = append(files, storage.FileInfo{
			Path:    relPath,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})

	return files, nil
}

// Stat returns file metadata
func (a *Adapter) Stat(ctx context.Context, p string) (*storage.FileInfo, error) {
	full, err := a.fullPath("stat", p)
	if err != nil {
		return nil, err
	}
	info, err := a.sftpClient.Stat(full)
	if err != nil {
		return nil, wrapErr("stat", err)
	}

	return &storage.FileInfo{
		Path:    p,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Exists checks if file exists
func (a *Adapter) Exists(ctx context.Context, p string) (bool, error) {
	_, err := a.Stat(ctx, p)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Close releases resources
func (a *Adapter) Close() error {
	if a.sftpClient != nil {
		a.sftpClient.Close()
	}
	if a.sshClient != nil {
		return a.sshClient.Close()
	}
	return nil
}

func wrapErr(operation string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return storage.NotFound(Type, operation, err)
	}
	return storage.WrapError(Type, operation, err)
}
