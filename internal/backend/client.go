// Package backend talks to the legacy field-operations web server. The
// server has no token API: it hands out CSRF tokens inside HTML pages
// and authenticates with session cookies and an optional bearer token,
// so the client scrapes what it needs and echoes it back on every
// state-changing request.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"example.com/fieldops/internal/models"
	"example.com/fieldops/internal/session"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	loginPath        = "/login"
	companiesPath    = "/companies"
	groupsPathFmt    = "/company-groups-limited/%d"
	locationsPathFmt = "/locations-limited/%d"
	submitPath       = "/update-status"

	defaultTimeout = 30 * time.Second
	userAgent      = "fieldops-client/1.0 (field operations scanner)"
)

// Client issues authenticated requests against the backend and maps
// transport and status outcomes onto the package error taxonomy.
type Client struct {
	baseURL    *url.URL
	session    session.Store
	httpClient *http.Client
	log        *logrus.Logger

	inFlight atomic.Int32
}

// NewClient builds a client for the given server address. Addresses
// without a scheme are assumed to be https.
func NewClient(address string, sess session.Store, log *logrus.Logger) (*Client, error) {
	base, err := normalizeAddress(address)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.New()
	}

	return &Client{
		baseURL: base,
		session: sess,
		log:     log,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			// Login success is signalled by a redirect; report it
			// instead of following it.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

func normalizeAddress(address string) (*url.URL, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrInvalidAddress
	}
	if !strings.Contains(address, "://") {
		address = "https://" + address
	}
	u, err := url.Parse(address)
	if err != nil || u.Host == "" {
		return nil, ErrInvalidAddress
	}
	u.Path = strings.TrimRight(u.Path, "/")
	return u, nil
}

// SetTimeout overrides the default request timeout
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.httpClient.Timeout = d
	}
}

// Endpoint resolves a server-relative path against the configured base
// address. Exposed for the diagnostics surface.
func (c *Client) Endpoint(path string) string {
	return c.baseURL.String() + path
}

// SubmitEndpoint is the fully derived scan-submission URL
func (c *Client) SubmitEndpoint() string { return c.Endpoint(submitPath) }

// InFlight reports whether a request is currently outstanding, for the
// UI busy indicator.
func (c *Client) InFlight() bool { return c.inFlight.Load() > 0 }

// track marks a request as in flight and returns the paired release.
// Callers defer the release so every exit path resets the gauge.
func (c *Client) track() func() {
	c.inFlight.Add(1)
	return func() { c.inFlight.Add(-1) }
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.Endpoint(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", uuid.New().String())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.session.CSRFToken(); token != "" {
		req.Header.Set("X-CSRF-TOKEN", token)
	}
	if bearer := c.session.BearerToken(); bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	return resp, nil
}

// failStatus maps a non-success status to a ServerError. A 401 from
// any authenticated endpoint force-logs-out first so stale credentials
// cannot be reused on a later call.
func (c *Client) failStatus(code int) error {
	if code == http.StatusUnauthorized {
		c.log.Warn("Server rejected credentials, clearing session")
		if err := c.session.Logout(); err != nil {
			c.log.WithError(err).Error("Failed to clear session after 401")
		}
	}
	return &ServerError{StatusCode: code}
}

var optionPattern = regexp.MustCompile(`<option[^>]*value="([^"]*)"[^>]*>([^<]*)</option>`)

// Option text of the form "Name (addr@host)" carries the account email
var optionEmailPattern = regexp.MustCompile(`^(.*?)\s*\(([^()\s]+@[^()\s]+)\)$`)

// FetchUsers GETs the login page and scrapes its username <select> into
// a user list, de-duplicated by (name, email) with zero-based ordinals
// in first-seen order. A CSRF token found in the same page is
// opportunistically persisted to the session.
func (c *Client) FetchUsers(ctx context.Context) ([]models.User, error) {
	release := c.track()
	defer release()

	req, err := c.newRequest(ctx, http.MethodGet, loginPath, nil, "")
	if err != nil {
		return nil, err
	}
	// The login page is HTML, not JSON
	req.Header.Set("Accept", "text/html")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.failStatus(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if len(body) == 0 {
		return nil, ErrNoData
	}
	page := string(body)

	if token, ok := ExtractToken(page); ok {
		if err := c.session.SetCSRFToken(token); err != nil {
			c.log.WithError(err).Warn("Failed to persist CSRF token")
		} else {
			c.log.Debug("Harvested CSRF token from login page")
		}
	}

	users := parseUserOptions(page)
	c.log.WithField("count", len(users)).Debug("Scraped user list from login page")
	return users, nil
}

func parseUserOptions(page string) []models.User {
	var users []models.User
	seen := make(map[models.User]bool)

	for _, m := range optionPattern.FindAllStringSubmatch(page, -1) {
		value := strings.TrimSpace(m[1])
		if value == "" || value == "disabled" || value == "selected" {
			continue
		}

		text := strings.TrimSpace(html.UnescapeString(m[2]))
		if text == "" {
			continue
		}

		u := models.User{Name: text}
		if em := optionEmailPattern.FindStringSubmatch(text); em != nil {
			u.Name = strings.TrimSpace(em[1])
			u.Email = em[2]
		}

		key := models.User{Name: u.Name, Email: u.Email}
		if seen[key] {
			continue
		}
		seen[key] = true

		u.Ordinal = len(users)
		users = append(users, u)
	}

	return users
}

// Login POSTs the username (and the held CSRF token, if any) as a form
// body. The backend answers a successful login with 200 or a redirect;
// both persist the username and logged-in flag.
func (c *Client) Login(ctx context.Context, username string) error {
	release := c.track()
	defer release()

	form := url.Values{}
	form.Set("username", username)
	if token := c.session.CSRFToken(); token != "" {
		form.Set("_token", token)
	}

	req, err := c.newRequest(ctx, http.MethodPost, loginPath,
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusFound {
		return c.failStatus(resp.StatusCode)
	}

	if err := c.session.SetCredentials(username); err != nil {
		return fmt.Errorf("failed to persist credentials: %w", err)
	}
	c.log.WithField("username", username).Info("Logged in")
	return nil
}

// getJSON performs an authenticated JSON GET and decodes the response
// into out
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	release := c.track()
	defer release()

	req, err := c.newRequest(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.failStatus(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &DecodeError{Err: err}
	}
	if len(body) == 0 {
		return ErrNoData
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}

// FetchCompanies lists the companies the logged-in user may select
func (c *Client) FetchCompanies(ctx context.Context) ([]models.Company, error) {
	var companies []models.Company
	if err := c.getJSON(ctx, companiesPath, &companies); err != nil {
		return nil, err
	}
	return companies, nil
}

// FetchGroups lists the groups belonging to a company
func (c *Client) FetchGroups(ctx context.Context, companyID int) ([]models.Group, error) {
	var groups []models.Group
	if err := c.getJSON(ctx, fmt.Sprintf(groupsPathFmt, companyID), &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// FetchLocations lists the locations belonging to a group
func (c *Client) FetchLocations(ctx context.Context, groupID int) ([]models.Location, error) {
	var locations []models.Location
	if err := c.getJSON(ctx, fmt.Sprintf(locationsPathFmt, groupID), &locations); err != nil {
		return nil, err
	}
	return locations, nil
}

// SubmitRequest carries one accepted scan plus the workflow context it
// was read under
type SubmitRequest struct {
	Code     string
	Process  models.ProcessType
	Company  *models.Company
	Group    *models.Group
	Location *models.Location
	UserName string
	Note     string
}

// The wire payload mirrors the legacy HTML form: numeric ids are
// stringified and absent selections become empty strings.
type submitPayload struct {
	QRCode   string `json:"qr_code"`
	Process  string `json:"process"`
	Company  string `json:"company"`
	Group    string `json:"group"`
	Location string `json:"location"`
	UserName string `json:"userName"`
	Note     string `json:"note"`
}

// SubmitScan POSTs one accepted scan to the status-update endpoint and
// decodes the backend's verdict.
func (c *Client) SubmitScan(ctx context.Context, sr SubmitRequest) (*models.ScanResult, error) {
	release := c.track()
	defer release()

	payload := submitPayload{
		QRCode:   sr.Code,
		Process:  string(sr.Process),
		UserName: sr.UserName,
		Note:     sr.Note,
	}
	if sr.Company != nil {
		payload.Company = strconv.Itoa(sr.Company.ID)
	}
	if sr.Group != nil {
		payload.Group = strconv.Itoa(sr.Group.ID)
	}
	if sr.Location != nil {
		payload.Location = strconv.Itoa(sr.Location.ID)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode submission: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, submitPath,
		bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.failStatus(resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if len(raw) == 0 {
		return nil, ErrNoData
	}

	var result models.ScanResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return &result, nil
}
