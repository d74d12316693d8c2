// Package remote dials project remote-execution environments over SSH.
package remote

import (
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/crypto/ssh"
)

var (
	ErrSSHConnection     = errors.New("ssh: connection failed")
	ErrSSHAuthentication = errors.New("ssh: authentication failed")
)

type SSHConfig struct {
	Host    string
	Port    int
	User    string
	SSHKey  string // PEM private key; empty means agent-less password-less hosts are rejected
	Timeout time.Duration
}

type SSHClient struct {
	config SSHConfig
}

func NewSSHClient(cfg SSHConfig) *SSHClient {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SSHClient{config: cfg}
}

// Dial opens an SSH connection to the environment. The caller owns the
// returned client and must Close it.
func (c *SSHClient) Dial() (*ssh.Client, error) {
	if c.config.SSHKey == "" {
		return nil, fmt.Errorf("%w: no ssh key configured", ErrSSHAuthentication)
	}
	signer, err := ssh.ParsePrivateKey([]byte(c.config.SSHKey))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid private key", ErrSSHAuthentication)
	}

	sshConfig := &ssh.ClientConfig{
		User:            c.config.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         c.config.Timeout,
	}

	addr := net.JoinHostPort(c.config.Host, fmt.Sprintf("%d", c.config.Port))
	client, err := ssh.Dial("tcp", addr, sshConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSSHConnection, addr, err)
	}
	return client, nil
}

// Check verifies reachability and authentication, then closes the
// connection.
func (c *SSHClient) Check() error {
	client, err := c.Dial()
	if err != nil {
		return err
	}
	return client.Close()
}
