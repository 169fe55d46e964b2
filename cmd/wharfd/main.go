package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"

	"github.com/wharfd/wharf"
	"github.com/wharfd/wharf/admin"
)

const (
	// Environnement var for the addr of the admin service.
	envAdminAddr = "WHARF_ADMIN_ADDR"
	// Environnement var for the base URL of the admin service.
	envAdminURL = "WHARF_URL"
	// Default value of WHARF_ADMIN_ADDR
	defaultAdminAddr = "localhost:5214"
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr,
			`Usage: wharfd

wharfd serves the files of a single directory over HTTP. Requests for
the root path are served the default document.

Environment vars
----------------

wharfd takes no arguments and is configured through the following environment variables:

    %s: Directory to serve files from; defaults to %q
    %s: File served for the root path; defaults to %q
    %s: Address to bind to; defaults to %q
    %s: Port to listen on; defaults to %s
    %s: Address of the admin API; defaults to %s
    %s: URL on which the admin API is accessible; defaults to http://{%s}

See wharfctl for a command-line client of the admin API.
`,
			wharf.EnvStaticRoot, wharf.DefaultStaticRoot,
			wharf.EnvDefaultDocument, wharf.DefaultDefaultDocument,
			wharf.EnvListenAddress, wharf.DefaultListenAddress,
			wharf.EnvListenPort, wharf.DefaultListenPort,
			envAdminAddr, defaultAdminAddr,
			envAdminURL, envAdminAddr)
	}
	flag.Parse()
}

func main() {
	log.SetOutput(os.Stdout)
	cfg := wharf.ConfigFromEnv()
	if err := cfg.Check(); err != nil {
		log.Fatal(err)
	}

	srv := wharf.NewServer(cfg)
	ah := admin.NewHandler(srv)

	go func() {
		// A bind failure must not leave the process running.
		log.Fatal(srv.ListenAndServe(os.Stdout))
	}()
	<-srv.Started
	log.Printf("serving %s on http://%s", cfg.Root, srv.Addr)

	adminAddr := defaultAdminAddr
	if envVal := os.Getenv(envAdminAddr); envVal != "" {
		adminAddr = envVal
	}
	ln, err := net.Listen("tcp", adminAddr)
	if err != nil {
		log.Fatal(err)
	}

	var (
		adminURL *url.URL
		urlErr   error
	)
	adminURL, urlErr = url.Parse(fmt.Sprintf("http://%s", ln.Addr()))
	if envVal := os.Getenv(envAdminURL); envVal != "" {
		adminURL, urlErr = url.Parse(envVal)
	}
	if urlErr != nil {
		log.Fatal(urlErr)
	}
	ah.SetBaseURL(adminURL)

	asrv := &http.Server{
		Handler: ah,
	}
	log.Printf("admin API available on %s", ah.BaseURL())
	log.Fatal(asrv.Serve(ln))
}
