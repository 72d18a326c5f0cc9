// Package recovery fetches recovery/flash images from a build host over
// SSH, ahead of the console-side upload handled by
// client.SendFileWithCRC.
package recovery

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

// SSHConfig describes how to reach a build host holding a freshly built
// recovery/flash image.
type SSHConfig struct {
	Host     string
	User     string
	Password string
	KeyPath  string
	Port     int
}

// FetchImage opens an SSH session to a build host and reads remotePath
// (e.g. a freshly built xbupdate.xex) before it is pushed to the
// console over the XBDM sendfile/xbupdate!sysfileupd path. This sits
// outside the XBDM wire protocol entirely; the console connection
// itself remains unauthenticated and unencrypted, but the artefact can
// be staged over a secured channel before it is uploaded in the clear.
func FetchImage(ctx context.Context, cfg SSHConfig, remotePath string) ([]byte, error) {
	client, err := dialSSH(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("xbdm: create ssh session: %w", err)
	}
	defer session.Close()

	data, err := session.Output(fmt.Sprintf("cat %s", shellQuote(remotePath)))
	if err != nil {
		return nil, fmt.Errorf("xbdm: read %s over ssh: %w", remotePath, err)
	}
	return data, nil
}

func dialSSH(ctx context.Context, cfg SSHConfig) (*ssh.Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("xbdm: ssh host is required")
	}
	user := cfg.User
	if user == "" {
		user = "root"
	}
	port := cfg.Port
	if port == 0 {
		port = 22
	}

	var auth []ssh.AuthMethod
	if cfg.Password != "" {
		auth = append(auth, ssh.Password(cfg.Password))
	}
	if cfg.KeyPath != "" {
		key, err := os.ReadFile(cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("xbdm: read ssh key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("xbdm: parse ssh key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if len(auth) == 0 {
		return nil, fmt.Errorf("xbdm: no ssh password or key configured")
	}

	config := &ssh.ClientConfig{
		User:            user,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         5 * time.Second,
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, port)
	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("xbdm: dial ssh: %w", err)
	}

	clientConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		return nil, fmt.Errorf("xbdm: establish ssh client: %w", err)
	}
	return ssh.NewClient(clientConn, chans, reqs), nil
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}
