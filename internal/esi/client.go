// Package esi talks to the EVE Swagger Interface on behalf of the refresh token's owner.
package esi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"fuelbot/internal/config"
	"fuelbot/internal/models"
)

// Client implements the structure source and location resolver against ESI.
type Client struct {
	http      *http.Client
	baseURL   string
	loginURL  string
	userAgent string

	mu            sync.Mutex
	corporationID int64
}

// New builds a Client whose requests are authorised with an access token refreshed from the
// configured refresh token.
func New(ctx context.Context, cfg config.Config) *Client {
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   cfg.ESI.LoginURL + "/oauth/authorize",
			TokenURL:  cfg.ESI.LoginURL + "/oauth/token",
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
	base := &http.Client{Timeout: cfg.ESI.Timeout}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	ts := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
	httpClient := oauth2.NewClient(ctx, ts)
	httpClient.Timeout = cfg.ESI.Timeout

	return NewWithHTTPClient(httpClient, cfg.ESI.BaseURL, cfg.ESI.LoginURL, cfg.ESI.UserAgent)
}

// NewWithHTTPClient builds a Client on an already authorised HTTP client.
func NewWithHTTPClient(httpClient *http.Client, baseURL, loginURL, userAgent string) *Client {
	return &Client{
		http:      httpClient,
		baseURL:   baseURL,
		loginURL:  loginURL,
		userAgent: userAgent,
	}
}

type verifyResponse struct {
	CharacterID   int64  `json:"CharacterID"`
	CharacterName string `json:"CharacterName"`
}

type characterResponse struct {
	CorporationID int64 `json:"corporation_id"`
}

type structureResponse struct {
	StructureID int64      `json:"structure_id"`
	SystemID    int64      `json:"system_id"`
	TypeID      int64      `json:"type_id"`
	Name        string     `json:"name"`
	FuelExpires *time.Time `json:"fuel_expires"`
}

type publicStructureResponse struct {
	Name          string `json:"name"`
	SolarSystemID int64  `json:"solar_system_id"`
	TypeID        int64  `json:"type_id"`
}

type idsResponse struct {
	Systems []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"systems"`
}

// CorporationID resolves the corporation of the character that owns the token.
func (c *Client) CorporationID(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.corporationID != 0 {
		return c.corporationID, nil
	}

	var who verifyResponse
	if _, err := c.do(ctx, http.MethodGet, c.loginURL+"/oauth/verify", nil, &who); err != nil {
		return 0, fmt.Errorf("failed to verify token owner: %w", err)
	}
	if who.CharacterID == 0 {
		return 0, fmt.Errorf("token verification returned no character")
	}

	var character characterResponse
	if _, err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/characters/%d/", c.baseURL, who.CharacterID), nil, &character); err != nil {
		return 0, fmt.Errorf("failed to get character %d: %w", who.CharacterID, err)
	}
	c.corporationID = character.CorporationID
	return c.corporationID, nil
}

// ListStructures returns every structure of the token owner's corporation, following pagination.
func (c *Client) ListStructures(ctx context.Context) ([]models.Structure, error) {
	corpID, err := c.CorporationID(ctx)
	if err != nil {
		return nil, err
	}

	var out []models.Structure
	for page, pages := 1, 1; page <= pages; page++ {
		var batch []structureResponse
		url := fmt.Sprintf("%s/corporations/%d/structures/?page=%d", c.baseURL, corpID, page)
		header, err := c.do(ctx, http.MethodGet, url, nil, &batch)
		if err != nil {
			return nil, fmt.Errorf("failed to list structures of corporation %d: %w", corpID, err)
		}
		if n, err := strconv.Atoi(header.Get("X-Pages")); err == nil && n > pages {
			pages = n
		}
		for _, s := range batch {
			st := models.Structure{
				ID:       s.StructureID,
				SystemID: s.SystemID,
				TypeID:   s.TypeID,
				Name:     s.Name,
			}
			if s.FuelExpires != nil {
				st.FuelExpires = *s.FuelExpires
			}
			out = append(out, st)
		}
	}
	return out, nil
}

// StructureName returns the public display name of a structure.
func (c *Client) StructureName(ctx context.Context, id int64) (string, error) {
	var pub publicStructureResponse
	if _, err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/universe/structures/%d/", c.baseURL, id), nil, &pub); err != nil {
		return "", fmt.Errorf("failed to get structure %d: %w", id, err)
	}
	return pub.Name, nil
}

// ResolveSystemIDs maps solar system names to IDs. Names ESI does not know are skipped.
func (c *Client) ResolveSystemIDs(ctx context.Context, names []string) ([]int64, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var resp idsResponse
	if _, err := c.do(ctx, http.MethodPost, c.baseURL+"/universe/ids/", names, &resp); err != nil {
		return nil, fmt.Errorf("failed to resolve systems %v: %w", names, err)
	}
	ids := make([]int64, 0, len(resp.Systems))
	for _, s := range resp.Systems {
		ids = append(ids, s.ID)
	}
	return ids, nil
}

func (c *Client) do(ctx context.Context, method, url string, body, out interface{}) (http.Header, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ESI returned status %d for %s: %s", resp.StatusCode, url, bytes.TrimSpace(msg))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return resp.Header, nil
}
