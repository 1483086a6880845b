// Package httpengine implements the orchestrator's session engine on top of
// a plain http client. There is no visible window: the login step is
// satisfied by importing cookies from a session profile, so it suits portals
// whose authentication can be completed out of band. It is also the engine
// the cli and the tests run against.
package httpengine

import (
	"context"
	"encoding/json"
	"fmt"
	"medharvest-backend/lib/restyutil"
	"medharvest-backend/lib/telemetry"
	"medharvest-backend/services/orchestrator"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"sync"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

var debugOutput restyutil.DebugOutput

// SetDebugOutput enables request/response dumps for every session the
// engine launches from here on.
func SetDebugOutput(output restyutil.DebugOutput) {
	debugOutput = output
}

type Engine struct{}

func New() Engine {
	return Engine{}
}

// ProfileCookie is one entry of a session profile file: a json array of
// cookies exported from an authenticated browser session.
type ProfileCookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain"`
	Path   string `json:"path"`
}

func (e Engine) LaunchSession(ctx context.Context, config orchestrator.SessionConfig) (orchestrator.SessionHandle, error) {
	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", userAgent)
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "orchestrator/httpengine")
	restyutil.AttachDebugOutput(client, debugOutput)

	session := &Session{client: client}
	if config.Profile != "" {
		err = session.loadProfile(config.Profile)
		if err != nil {
			return nil, fmt.Errorf("load session profile: %w", err)
		}
	}
	return session, nil
}

type Session struct {
	client *resty.Client

	mu   sync.Mutex
	html string
}

func (s *Session) loadProfile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var cookies []ProfileCookie
	err = json.Unmarshal(data, &cookies)
	if err != nil {
		return err
	}

	byDomain := map[string][]*http.Cookie{}
	for _, c := range cookies {
		byDomain[c.Domain] = append(byDomain[c.Domain], &http.Cookie{
			Name:  c.Name,
			Value: c.Value,
			Path:  c.Path,
		})
	}
	jar := s.client.GetClient().Jar
	for domain, domainCookies := range byDomain {
		u, err := url.Parse("https://" + domain)
		if err != nil {
			return err
		}
		jar.SetCookies(u, domainCookies)
	}
	return nil
}

func (s *Session) Navigate(ctx context.Context, target string) error {
	res, err := s.client.R().
		SetContext(ctx).
		Get(target)
	if err != nil {
		return err
	}
	if res.StatusCode() >= 400 {
		return fmt.Errorf("got status %d from %s", res.StatusCode(), target)
	}

	s.mu.Lock()
	s.html = string(res.Body())
	s.mu.Unlock()
	return nil
}

func (s *Session) PageHTML(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.html == "" {
		return "", fmt.Errorf("no page has been loaded")
	}
	return s.html, nil
}

func (s *Session) Release() {
	s.client.GetClient().CloseIdleConnections()
}
