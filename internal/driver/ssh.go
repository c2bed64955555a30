package driver

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// DefaultSSHPort is used when neither the location nor SSHOpts name a port.
const DefaultSSHPort = 22

// SSHOpts configures SSH connection behavior.
type SSHOpts struct {
	Port     int           // 0 = DefaultSSHPort
	KeyFile  string        // override key file path; empty = try defaults
	Password string        // for non-interactive; empty = skip password auth
	Timeout  time.Duration // 0 = no dial timeout
}

// DialSFTP connects to a remote location and returns a driver that owns
// the session. A port in the location overrides opts.Port. The caller must
// Close the driver.
func DialSFTP(loc Location, opts SSHOpts) (*SFTPDriver, error) {
	if !loc.IsRemote() {
		return nil, fmt.Errorf("location %s is not remote", loc)
	}
	if loc.Port != 0 {
		opts.Port = loc.Port
	}
	userName, err := resolveUser(loc.User)
	if err != nil {
		return nil, err
	}

	sshClient, err := DialSSH(loc.Host, userName, opts)
	if err != nil {
		return nil, err
	}

	port := opts.Port
	if port == 0 {
		port = DefaultSSHPort
	}
	id := fmt.Sprintf("sftp://%s@%s", userName, net.JoinHostPort(loc.Host, strconv.Itoa(port)))

	d, err := NewSFTPDriverFromSSH(sshClient, id)
	if err != nil {
		sshClient.Close()
		return nil, err
	}
	return d, nil
}

// DialSSH establishes an SSH connection to host as user.
//
// Auth methods are tried in order:
//  1. SSH agent (if SSH_AUTH_SOCK is set)
//  2. Key files (~/.ssh/id_ed25519, id_ecdsa, id_rsa) or SSHOpts.KeyFile
//  3. Password (if SSHOpts.Password is set)
func DialSSH(host, userName string, opts SSHOpts) (*ssh.Client, error) {
	userName, err := resolveUser(userName)
	if err != nil {
		return nil, err
	}

	port := opts.Port
	if port == 0 {
		port = DefaultSSHPort
	}

	authMethods := buildAuthMethods(opts)
	if len(authMethods) == 0 {
		return nil, errors.New("no SSH auth methods available (set SSH_AUTH_SOCK, provide a key, or password)")
	}

	hostKeyCallback, err := defaultHostKeyCallback()
	if err != nil {
		// Fall back to insecure if known_hosts can't be loaded.
		//nolint:gosec // fallback for systems without known_hosts
		hostKeyCallback = ssh.InsecureIgnoreHostKey()
	}

	config := &ssh.ClientConfig{
		User:            userName,
		Auth:            authMethods,
		HostKeyCallback: hostKeyCallback,
		Timeout:         opts.Timeout,
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, fmt.Errorf("ssh dial %s: %w", addr, err)
	}

	return client, nil
}

func resolveUser(name string) (string, error) {
	if name != "" {
		return name, nil
	}
	u, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("determine current user: %w", err)
	}
	return u.Username, nil
}

func buildAuthMethods(opts SSHOpts) []ssh.AuthMethod {
	var methods []ssh.AuthMethod

	// 1. SSH agent.
	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		conn, err := net.Dial("unix", sock)
		if err == nil {
			agentClient := agent.NewClient(conn)
			methods = append(methods, ssh.PublicKeysCallback(agentClient.Signers))
		}
	}

	// 2. Key files.
	if opts.KeyFile != "" {
		if m := keyFileAuth(opts.KeyFile); m != nil {
			methods = append(methods, m)
		}
	} else if home, err := os.UserHomeDir(); err == nil {
		for _, name := range []string{"id_ed25519", "id_ecdsa", "id_rsa"} {
			if m := keyFileAuth(filepath.Join(home, ".ssh", name)); m != nil {
				methods = append(methods, m)
			}
		}
	}

	// 3. Password.
	if opts.Password != "" {
		methods = append(methods, ssh.Password(opts.Password))
	}

	return methods
}

func keyFileAuth(path string) ssh.AuthMethod {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		return nil
	}
	return ssh.PublicKeys(signer)
}

func defaultHostKeyCallback() (ssh.HostKeyCallback, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return knownhosts.New(filepath.Join(home, ".ssh", "known_hosts"))
}
