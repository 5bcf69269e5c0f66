package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"diet-planner/internal/models"
)

// PostgRESTStore queries a Supabase-style REST endpoint for the foods table.
type PostgRESTStore struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewPostgRESTStore(baseURL, apiKey string, timeout time.Duration) (*PostgRESTStore, error) {
	if baseURL == "" || apiKey == "" {
		return nil, ErrNotConfigured
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PostgRESTStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// foodRow mirrors the foods table. Order links exist as camelCase columns in
// older catalogs and snake_case in ours.
type foodRow struct {
	ID          rowID    `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Type        string   `json:"type"`
	Calories    float64  `json:"calories"`
	Protein     float64  `json:"protein"`
	Carbs       float64  `json:"carbs"`
	Fat         float64  `json:"fat"`
	Fiber       float64  `json:"fiber"`
	Price       float64  `json:"price"`
	Image       string   `json:"image"`
	SwiggyURL   *string  `json:"swiggyUrl"`
	ZomatoURL   *string  `json:"zomatoUrl"`
	SwiggyURL2  *string  `json:"swiggy_url"`
	ZomatoURL2  *string  `json:"zomato_url"`
	Description *string  `json:"description"`
	Benefits    benefits `json:"benefits"`
}

// rowID accepts both serial and uuid primary keys.
type rowID string

func (id *rowID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = rowID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid food id %s: %w", data, err)
	}
	*id = rowID(n.String())
	return nil
}

// benefits accepts either a JSON array or a delimited string.
type benefits []string

func (b *benefits) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*b = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*b = SplitBenefits(s)
	return nil
}

// SplitBenefits splits a "a; b | c" style tag list.
func SplitBenefits(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == '|' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// deref returns the first non-nil value.
func deref(values ...*string) string {
	for _, s := range values {
		if s != nil {
			return *s
		}
	}
	return ""
}

func (r foodRow) toModel() models.FoodItem {
	return models.FoodItem{
		ID:          string(r.ID),
		Name:        r.Name,
		Category:    models.Category(r.Category),
		Type:        models.DietType(r.Type),
		Calories:    r.Calories,
		Protein:     r.Protein,
		Carbs:       r.Carbs,
		Fat:         r.Fat,
		Fiber:       r.Fiber,
		Price:       r.Price,
		Image:       r.Image,
		SwiggyURL:   deref(r.SwiggyURL, r.SwiggyURL2),
		ZomatoURL:   deref(r.ZomatoURL, r.ZomatoURL2),
		Description: deref(r.Description),
		Benefits:    r.Benefits,
	}
}

func (s *PostgRESTStore) newRequest(ctx context.Context, params url.Values) (*http.Request, error) {
	reqURL, err := url.Parse(s.baseURL + "/rest/v1/foods")
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	reqURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (s *PostgRESTStore) fetch(ctx context.Context, params url.Values) ([]models.FoodItem, error) {
	params.Set("select", "*")
	params.Set("order", "id")

	req, err := s.newRequest(ctx, params)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("catalog returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var rows []foodRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode foods: %w", err)
	}
	foods := make([]models.FoodItem, 0, len(rows))
	for _, r := range rows {
		foods = append(foods, r.toModel())
	}
	return foods, nil
}

func (s *PostgRESTStore) FilterFoods(ctx context.Context, f Filter) ([]models.FoodItem, error) {
	params := url.Values{}
	params.Set("category", "eq."+string(f.Category))
	if f.Diet != models.PreferBoth {
		params.Set("type", "eq."+string(f.Diet))
	}
	params.Set("price", "lte."+strconv.FormatFloat(f.MaxPrice, 'f', -1, 64))
	return s.fetch(ctx, params)
}

func (s *PostgRESTStore) FoodsByCategory(ctx context.Context, category models.Category) ([]models.FoodItem, error) {
	params := url.Values{}
	params.Set("category", "eq."+string(category))
	return s.fetch(ctx, params)
}

func (s *PostgRESTStore) AllFoods(ctx context.Context) ([]models.FoodItem, error) {
	return s.fetch(ctx, url.Values{})
}

// CountFoods asks for an exact count via the Content-Range header.
func (s *PostgRESTStore) CountFoods(ctx context.Context) (int64, error) {
	params := url.Values{}
	params.Set("select", "id")
	req, err := s.newRequest(ctx, params)
	if err != nil {
		return 0, err
	}
	req.Method = http.MethodHead
	req.Header.Set("Prefer", "count=exact")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return 0, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	// Content-Range: 0-24/512 or */0
	cr := resp.Header.Get("Content-Range")
	i := strings.LastIndex(cr, "/")
	if i < 0 {
		return 0, fmt.Errorf("missing count in Content-Range %q", cr)
	}
	n, err := strconv.ParseInt(cr[i+1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid count in Content-Range %q: %w", cr, err)
	}
	return n, nil
}
