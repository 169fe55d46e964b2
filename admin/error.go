package admin

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	wharfhandlers "github.com/wharfd/wharf/handlers"
)

type APIErrorType string

const (
	apiErrTypeBadRequest  APIErrorType = "bad_request_error"
	apiErrTypeAPIInternal APIErrorType = "api_internal_error"
)

type APIError struct {
	Type APIErrorType `json:"type"`
	Msg  string       `json:"msg"`
}

func (e *APIError) String() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Msg)
}

func (e *APIError) Error() string {
	return e.Msg
}

// jsonRewriter rewrites responses which are 4xx or 5xx into APIError
// JSON bodies, so every error the API surfaces has the same shape.
type jsonRewriter struct{}

func (jr jsonRewriter) RewriteIf(header http.Header, status int, r *http.Request) bool {
	return status >= 400 /* 4xx and 5xx */ &&
		!strings.HasPrefix(header.Get("Content-Type"), "application/json") &&
		(r.Method != "HEAD" && r.Method != "OPTIONS")
}

func (jr jsonRewriter) RewriteHeader(header http.Header, status int) {
	header.Set("Content-Type", "application/json; charset=utf-8")
}

func (jr jsonRewriter) Rewrite(w io.Writer, body []byte, status int) {
	aerr := APIError{Msg: strings.TrimSpace(string(body))}
	if status >= 500 {
		aerr.Type = apiErrTypeAPIInternal
	} else {
		aerr.Type = apiErrTypeBadRequest
	}
	b, err := json.MarshalIndent(aerr, "", "  ")
	if err != nil {
		log.Print(err)
		return
	}
	fmt.Fprint(w, string(b))
}

func jsonResponseRewriteHandler(h http.Handler) http.Handler {
	return wharfhandlers.RewriteHandler(jsonRewriter{}, h)
}
