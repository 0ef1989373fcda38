package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const mondayAPIURL = "https://api.monday.com/v2"

// MondayClient creates items on a Monday.com board via its GraphQL API.
type MondayClient struct {
	apiURL  string
	token   string
	boardID string
	client  *http.Client
}

func NewMondayClient(token, boardID string) *MondayClient {
	return &MondayClient{
		apiURL:  mondayAPIURL,
		token:   strings.TrimSpace(token),
		boardID: strings.TrimSpace(boardID),
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// NewMondayClientWithURL points the client at a test server.
func NewMondayClientWithURL(apiURL, token, boardID string) *MondayClient {
	c := NewMondayClient(token, boardID)
	c.apiURL = apiURL
	return c
}

type mondayResponse struct {
	Data struct {
		CreateItem struct {
			ID string `json:"id"`
		} `json:"create_item"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *MondayClient) CreateLead(ctx context.Context, lead Lead) (string, error) {
	itemName := lead.Name
	if itemName == "" {
		itemName = "Lead " + lead.SessionID
	}

	columns := map[string]string{
		"email":   lead.Email,
		"phone":   lead.Phone,
		"city":    lead.City,
		"package": lead.Package,
		"sqm":     strconv.FormatFloat(lead.SquareMeters, 'f', -1, 64),
		"budget":  strconv.Itoa(lead.Budget),
		"score":   strconv.Itoa(lead.Score),
		"session": lead.SessionID,
	}
	columnJSON, err := json.Marshal(columns)
	if err != nil {
		return "", fmt.Errorf("crm: encode columns: %w", err)
	}

	query := `mutation ($board: ID!, $name: String!, $columns: JSON) {
		create_item(board_id: $board, item_name: $name, column_values: $columns) { id }
	}`
	payload, err := json.Marshal(map[string]any{
		"query": query,
		"variables": map[string]any{
			"board":   c.boardID,
			"name":    itemName,
			"columns": string(columnJSON),
		},
	})
	if err != nil {
		return "", fmt.Errorf("crm: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("crm: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.token)

	res, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("crm: send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return "", fmt.Errorf("crm: monday status %d: %s", res.StatusCode, string(body))
	}

	var out mondayResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("crm: decode response: %w", err)
	}
	if len(out.Errors) > 0 {
		return "", fmt.Errorf("crm: monday error: %s", out.Errors[0].Message)
	}
	if out.Data.CreateItem.ID == "" {
		return "", fmt.Errorf("crm: monday returned no item id")
	}
	return out.Data.CreateItem.ID, nil
}
