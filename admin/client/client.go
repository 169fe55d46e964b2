// Package client accesses the wharfd admin API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/wharfd/wharf"
	"github.com/wharfd/wharf/admin"
)

const (
	statusPath = "/api/status"
	statsPath  = "/api/stats"
	eventsPath = "/api/events"
)

// Client defines methods to access the wharfd admin API.
type Client struct {
	C   http.Client // HTTP Client
	url *url.URL
}

// New returns a Client which will hit the API at apiURL.
func New(apiURL *url.URL) *Client {
	return &Client{
		C:   http.Client{},
		url: apiURL,
	}
}

func (c *Client) newRequest(method string, path string, v interface{}) (*http.Request, error) {
	u := *c.url
	u.Path = path
	var body io.Reader
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}
	r, err := http.NewRequest(method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if v != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	return r, nil
}

func (c *Client) doRequest(method string, path string, v interface{}) (*http.Response, error) {
	r, err := c.newRequest(method, path, v)
	if err != nil {
		return nil, err
	}
	resp, err := c.C.Do(r)
	if err != nil {
		return nil, err
	}
	return resp, err
}

func (c *Client) checkCode(resp *http.Response, code int) error {
	if resp.StatusCode == code {
		return nil
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var aerr admin.APIError
	if err := json.Unmarshal(b, &aerr); err == nil && aerr.Msg != "" {
		return &aerr
	}
	return fmt.Errorf("error %d: %s", resp.StatusCode, b)
}

func (c *Client) doRequestAndDecodeResponse(method string, path string, reqData interface{}, code int, respData interface{}) error {
	resp, err := c.doRequest(method, path, reqData)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkCode(resp, code); err != nil {
		return err
	}
	if respData == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(&respData); err != nil {
		return err
	}
	return nil
}

func (c *Client) Status() (*admin.Status, error) {
	var status admin.Status
	if err := c.doRequestAndDecodeResponse(
		"GET",
		statusPath,
		nil,
		http.StatusOK,
		&status,
	); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) Stats() (*wharf.StatsData, error) {
	var data wharf.StatsData
	if err := c.doRequestAndDecodeResponse(
		"GET",
		statsPath,
		nil,
		http.StatusOK,
		&data,
	); err != nil {
		return nil, err
	}
	return &data, nil
}

// ResetStats zeroes the server's counters and returns their values
// prior to the reset.
func (c *Client) ResetStats() (*wharf.StatsData, error) {
	var data wharf.StatsData
	if err := c.doRequestAndDecodeResponse(
		"DELETE",
		statsPath,
		nil,
		http.StatusOK,
		&data,
	); err != nil {
		return nil, err
	}
	return &data, nil
}

// EventsURL returns the websocket URL of the event stream.
func (c *Client) EventsURL() *url.URL {
	u := *c.url
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = eventsPath
	return &u
}
