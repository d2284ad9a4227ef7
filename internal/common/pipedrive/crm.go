package pipedrive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	commonhttp "uwizard-workers/internal/common/http"
)

const defaultBaseURL = "https://api.pipedrive.com/v1"

type Client struct {
	apiToken   string
	baseURL    string
	httpClient *commonhttp.Client
}

// ContactValue is how Pipedrive returns phone and email entries on organizations
// and persons. Older records may carry a bare string instead; UnmarshalJSON
// accepts both shapes.
type ContactValue struct {
	Value   string `json:"value"`
	Primary bool   `json:"primary"`
}

func (c *ContactValue) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		c.Value = s
		c.Primary = true
		return nil
	}
	type plain ContactValue
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = ContactValue(p)
	return nil
}

type Organization struct {
	ID      int            `json:"id"`
	Name    string         `json:"name"`
	Address string         `json:"address"`
	Phone   []ContactValue `json:"phone"`
	Email   []ContactValue `json:"email"`
}

// PrimaryPhone returns the primary phone entry, or the first one if none is
// flagged primary.
func (o Organization) PrimaryPhone() string {
	return primaryValue(o.Phone)
}

func (o Organization) PrimaryEmail() string {
	return primaryValue(o.Email)
}

func primaryValue(values []ContactValue) string {
	for _, v := range values {
		if v.Primary {
			return v.Value
		}
	}
	if len(values) > 0 {
		return values[0].Value
	}
	return ""
}

type Deal struct {
	ID       int     `json:"id"`
	Title    string  `json:"title"`
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
	Status   string  `json:"status"`
	OrgID    int     `json:"org_id,omitempty"`
}

type apiResponse struct {
	Success        bool            `json:"success"`
	Error          string          `json:"error,omitempty"`
	Data           json.RawMessage `json:"data"`
	AdditionalData struct {
		Pagination struct {
			MoreItemsInCollection bool `json:"more_items_in_collection"`
			NextStart             int  `json:"next_start"`
		} `json:"pagination"`
	} `json:"additional_data"`
}

func NewClient(apiToken, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiToken:   apiToken,
		baseURL:    baseURL,
		httpClient: commonhttp.NewClient(30 * time.Second),
	}
}

// IsConfigured reports whether the client has an API token.
func (c *Client) IsConfigured() bool {
	return c.apiToken != ""
}

// GetOrganization fetches a single organization by its Pipedrive id.
func (c *Client) GetOrganization(ctx context.Context, orgID int) (*Organization, error) {
	raw, err := c.get(ctx, fmt.Sprintf("organizations/%d", orgID), nil)
	if err != nil {
		return nil, err
	}

	var org Organization
	if err := json.Unmarshal(raw, &org); err != nil {
		return nil, fmt.Errorf("failed to unmarshal organization: %w", err)
	}
	return &org, nil
}

// ListDeals fetches all deals for an organization, following pagination.
func (c *Client) ListDeals(ctx context.Context, orgID int) ([]Deal, error) {
	var deals []Deal
	start := 0

	for {
		params := url.Values{}
		params.Set("start", strconv.Itoa(start))
		params.Set("limit", "500")

		raw, more, nextStart, err := c.getPage(ctx, fmt.Sprintf("organizations/%d/deals", orgID), params)
		if err != nil {
			return nil, err
		}

		var page []Deal
		if len(raw) > 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, &page); err != nil {
				return nil, fmt.Errorf("failed to unmarshal deals page: %w", err)
			}
		}
		deals = append(deals, page...)

		if !more {
			return deals, nil
		}
		start = nextStart
	}
}

// CreateDeal creates a deal attached to an organization and returns its id.
func (c *Client) CreateDeal(ctx context.Context, deal *Deal) (int, error) {
	payload := map[string]interface{}{
		"title":    deal.Title,
		"value":    deal.Value,
		"currency": deal.Currency,
	}
	if deal.OrgID != 0 {
		payload["org_id"] = deal.OrgID
	}

	raw, err := c.post(ctx, "deals", payload)
	if err != nil {
		return 0, err
	}

	var created Deal
	if err := json.Unmarshal(raw, &created); err != nil {
		return 0, fmt.Errorf("failed to unmarshal created deal: %w", err)
	}
	return created.ID, nil
}

// UpdateDealValue updates the monetary value and status of an existing deal.
func (c *Client) UpdateDealValue(ctx context.Context, dealID int, value float64, status string) error {
	payload := map[string]interface{}{
		"value": value,
	}
	if status != "" {
		payload["status"] = status
	}

	_, err := c.put(ctx, fmt.Sprintf("deals/%d", dealID), payload)
	return err
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	raw, _, _, err := c.getPage(ctx, path, params)
	return raw, err
}

func (c *Client) getPage(ctx context.Context, path string, params url.Values) (json.RawMessage, bool, int, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiToken)

	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, 0, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, false, 0, fmt.Errorf("pipedrive request failed (status %d): %s", resp.StatusCode, string(body))
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, false, 0, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if !envelope.Success {
		return nil, false, 0, fmt.Errorf("pipedrive API error: %s", envelope.Error)
	}

	pagination := envelope.AdditionalData.Pagination
	return envelope.Data, pagination.MoreItemsInCollection, pagination.NextStart, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) (json.RawMessage, error) {
	return c.send(ctx, http.MethodPost, path, payload)
}

func (c *Client) put(ctx context.Context, path string, payload interface{}) (json.RawMessage, error) {
	return c.send(ctx, http.MethodPut, path, payload)
}

func (c *Client) send(ctx context.Context, method, path string, payload interface{}) (json.RawMessage, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	reqURL := fmt.Sprintf("%s/%s?api_token=%s", c.baseURL, path, url.QueryEscape(c.apiToken))
	req, err := http.NewRequestWithContext(ctx, method, reqURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("pipedrive request failed (status %d): %s", resp.StatusCode, string(body))
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if !envelope.Success {
		return nil, fmt.Errorf("pipedrive API error: %s", envelope.Error)
	}

	return envelope.Data, nil
}
