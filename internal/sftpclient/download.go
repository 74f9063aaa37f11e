package sftpclient

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// Config points at the SFTP inbox archives are picked up from.
type Config struct {
	Host                  string
	Port                  int
	User                  string
	Pass                  string
	RemoteDir             string
	InsecureIgnoreHostKey bool
	// HostKey pins the server key when InsecureIgnoreHostKey is false.
	HostKey ssh.PublicKey
}

func (cfg Config) withDefaults() (Config, error) {
	if cfg.Host == "" || cfg.User == "" || cfg.Pass == "" {
		return cfg, fmt.Errorf("sftp: missing env SFTP_HOST / SFTP_USER / SFTP_PASS")
	}
	if cfg.Port <= 0 {
		cfg.Port = 22
	}
	if cfg.RemoteDir == "" {
		cfg.RemoteDir = "/"
	}
	return cfg, nil
}

func (cfg Config) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if cfg.InsecureIgnoreHostKey {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	if cfg.HostKey == nil {
		return nil, fmt.Errorf("sftp: host key verification enabled but no host key configured")
	}
	return ssh.FixedHostKey(cfg.HostKey), nil
}

// RemotePath joins name onto the inbox directory. name must be a plain
// file name.
func RemotePath(cfg Config, name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("sftp: invalid remote file name %q", name)
	}
	dir := cfg.RemoteDir
	if dir == "" {
		dir = "/"
	}
	return path.Join(dir, name), nil
}

// Download copies remoteFileName from the inbox to localPath and returns
// the number of bytes written.
func Download(ctx context.Context, cfg Config, remoteFileName, localPath string) (int64, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return 0, err
	}
	remotePath, err := RemotePath(cfg, remoteFileName)
	if err != nil {
		return 0, err
	}

	sshClient, err := dial(ctx, cfg)
	if err != nil {
		return 0, err
	}
	defer sshClient.Close()

	sftpCli, err := sftp.NewClient(sshClient)
	if err != nil {
		return 0, fmt.Errorf("sftp: new client: %w", err)
	}
	defer sftpCli.Close()

	src, err := sftpCli.Open(remotePath)
	if err != nil {
		return 0, fmt.Errorf("sftp: open %s: %w", remotePath, err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return 0, fmt.Errorf("sftp: prepare local dir: %w", err)
	}
	dst, err := os.Create(localPath)
	if err != nil {
		return 0, fmt.Errorf("sftp: create local file: %w", err)
	}
	defer dst.Close()

	n, err := io.Copy(dst, contextReader{ctx: ctx, r: src})
	if err != nil {
		return n, fmt.Errorf("sftp: download copy: %w", err)
	}
	return n, dst.Close()
}

func dial(ctx context.Context, cfg Config) (*ssh.Client, error) {
	cb, err := cfg.hostKeyCallback()
	if err != nil {
		return nil, err
	}
	sshCfg := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{ssh.Password(cfg.Pass)},
		HostKeyCallback: cb,
		Timeout:         20 * time.Second,
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	type dialRes struct {
		client *ssh.Client
		err    error
	}
	ch := make(chan dialRes, 1)
	go func() {
		c, err := ssh.Dial("tcp", addr, sshCfg)
		ch <- dialRes{client: c, err: err}
	}()

	select {
	case <-ctx.Done():
		// Close a connection that arrives after cancellation.
		go func() {
			if r := <-ch; r.client != nil {
				r.client.Close()
			}
		}()
		return nil, fmt.Errorf("sftp: dial canceled: %w", ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("sftp: dial error: %w", r.err)
		}
		return r.client, nil
	}
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
