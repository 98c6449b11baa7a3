package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
)

// ftpConn is the subset of *ftp.ServerConn the store uses.
type ftpConn interface {
	Login(user, password string) error
	MakeDir(path string) error
	Stor(path string, r io.Reader) error
	Delete(path string) error
	Quit() error
}

type dialFunc func(ctx context.Context, addr string, timeout time.Duration) (ftpConn, error)

func dialFTP(ctx context.Context, addr string, timeout time.Duration) (ftpConn, error) {
	return ftp.Dial(addr, ftp.DialWithTimeout(timeout), ftp.DialWithContext(ctx))
}

// FTPConfig configures the FTP backend.
type FTPConfig struct {
	Addr          string
	User          string
	Password      string
	Bucket        string
	PublicBaseURL string
	Timeout       time.Duration
}

// FTPStore uploads objects to {Bucket}/{key} on an FTP server and returns
// {PublicBaseURL}/{Bucket}/{key}. Each operation uses its own connection.
type FTPStore struct {
	cfg  FTPConfig
	dial dialFunc
}

func NewFTPStore(cfg FTPConfig) (*FTPStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("ftp address is required")
	}
	if cfg.PublicBaseURL == "" {
		return nil, fmt.Errorf("public base url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.Bucket = strings.Trim(cfg.Bucket, "/")
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return &FTPStore{cfg: cfg, dial: dialFTP}, nil
}

func (s *FTPStore) remotePath(key string) string {
	return path.Join("/", s.cfg.Bucket, strings.TrimLeft(key, "/"))
}

func (s *FTPStore) connect(ctx context.Context) (ftpConn, error) {
	conn, err := s.dial(ctx, s.cfg.Addr, s.cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("connect to ftp: %w", err)
	}
	if err := conn.Login(s.cfg.User, s.cfg.Password); err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("login to ftp: %w", err)
	}
	return conn, nil
}

func (s *FTPStore) Put(ctx context.Context, key, _ string, data []byte) (string, error) {
	conn, err := s.connect(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = conn.Quit() }()

	remote := s.remotePath(key)
	// Parent directories may already exist; MakeDir errors are ignored.
	dir := path.Dir(remote)
	var built string
	for _, part := range strings.Split(strings.Trim(dir, "/"), "/") {
		built += "/" + part
		_ = conn.MakeDir(built)
	}
	if err := conn.Stor(remote, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("upload %s: %w", remote, err)
	}
	return s.cfg.PublicBaseURL + remote, nil
}

func (s *FTPStore) Delete(ctx context.Context, key string) error {
	conn, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Quit() }()

	if err := conn.Delete(s.remotePath(key)); err != nil {
		return fmt.Errorf("delete %s: %w", s.remotePath(key), err)
	}
	return nil
}
