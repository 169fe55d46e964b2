package wharf

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
)

// Environment vars read once at startup. Each has a default suitable
// for serving a local www directory.
const (
	EnvStaticRoot      = "STATIC_ROOT"
	EnvDefaultDocument = "DEFAULT_DOCUMENT"
	EnvListenAddress   = "LISTEN_ADDRESS"
	EnvListenPort      = "LISTEN_PORT"
)

const (
	DefaultStaticRoot      = "www"
	DefaultDefaultDocument = "index.html"
	DefaultListenAddress   = "localhost"
	DefaultListenPort      = "5000"
)

// Config holds the process configuration. It is built once at startup
// and passed explicitly to the server; nothing mutates it afterwards.
type Config struct {
	// Root is the absolute path of the directory files are served from.
	Root string
	// DefaultDocument is the file name served for the root path.
	DefaultDocument string
	// Addr is the host:port the file server binds to.
	Addr string
}

// ConfigFromEnv builds a Config from the environment, filling in
// defaults for unset vars. It does not touch the filesystem; call
// Config.Check before serving.
func ConfigFromEnv() Config {
	root := os.Getenv(EnvStaticRoot)
	if root == "" {
		root = DefaultStaticRoot
	}
	doc := os.Getenv(EnvDefaultDocument)
	if doc == "" {
		doc = DefaultDefaultDocument
	}
	host := os.Getenv(EnvListenAddress)
	if host == "" {
		host = DefaultListenAddress
	}
	port := os.Getenv(EnvListenPort)
	if port == "" {
		port = DefaultListenPort
	}
	return Config{
		Root:            root,
		DefaultDocument: doc,
		Addr:            net.JoinHostPort(host, port),
	}
}

// Check validates the configuration and makes Root absolute.
// It returns an error when the root is not an existing directory or
// the default document is not a bare file name.
func (c *Config) Check() error {
	root, err := filepath.Abs(c.Root)
	if err != nil {
		return fmt.Errorf("static root %q: %v", c.Root, err)
	}
	fi, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("static root %q: %v", c.Root, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("static root %q is not a directory", c.Root)
	}
	c.Root = root

	doc := c.DefaultDocument
	if doc == "" || doc == "." || doc == ".." || strings.ContainsAny(doc, `/\`) {
		return fmt.Errorf("default document %q is not a file name", doc)
	}
	return nil
}
