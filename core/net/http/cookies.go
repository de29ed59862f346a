package http

import (
	"net/http"
	"net/url"
)

// Cookie returns the value of the named cookie the jar would send to the base URL.
func (cli *Client) Cookie(name string) (string, bool) {
	for _, c := range cli.cookies() {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

// ExportCookies snapshots the cookies scoped to the base URL as name/value pairs.
func (cli *Client) ExportCookies() map[string]string {
	out := make(map[string]string)
	for _, c := range cli.cookies() {
		out[c.Name] = c.Value
	}
	return out
}

// ImportCookies restores cookies previously returned by ExportCookies.
func (cli *Client) ImportCookies(values map[string]string) {
	if cli.baseURL == nil || len(values) == 0 {
		return
	}

	cookies := make([]*http.Cookie, 0, len(values))
	for name, value := range values {
		cookies = append(cookies, &http.Cookie{Name: name, Value: value, Path: "/"})
	}
	cli.client.Jar.SetCookies(cli.rootURL(), cookies)
}

// ClearCookies expires every cookie scoped to the base URL.
func (cli *Client) ClearCookies() {
	existing := cli.cookies()
	if len(existing) == 0 {
		return
	}

	expired := make([]*http.Cookie, 0, len(existing))
	for _, c := range existing {
		expired = append(expired, &http.Cookie{Name: c.Name, Path: "/", MaxAge: -1})
	}
	cli.client.Jar.SetCookies(cli.rootURL(), expired)
}

func (cli *Client) cookies() []*http.Cookie {
	if cli.baseURL == nil || cli.client.Jar == nil {
		return nil
	}
	return cli.client.Jar.Cookies(cli.rootURL())
}

func (cli *Client) rootURL() *url.URL {
	u := *cli.baseURL
	u.Path = "/"
	u.RawQuery = ""
	return &u
}
