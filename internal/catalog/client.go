package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var ErrFetchFailure = errors.New("catalog fetch failed")

type Client struct {
	URL    string
	Client *http.Client
}

func NewClient(productsURL string, timeout time.Duration) *Client {
	return &Client{
		URL:    strings.TrimRight(productsURL, "/"),
		Client: &http.Client{Timeout: timeout},
	}
}

// FetchProducts performs a single GET of the full catalog. Every failure wraps ErrFetchFailure.
func (c *Client) FetchProducts(ctx context.Context) ([]Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailure, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status=%d", ErrFetchFailure, resp.StatusCode)
	}

	var products []Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrFetchFailure, err)
	}
	if products == nil {
		return nil, fmt.Errorf("%w: expected a product array", ErrFetchFailure)
	}
	if err := validate(products); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailure, err)
	}
	return products, nil
}

func validate(products []Product) error {
	seen := make(map[int]struct{}, len(products))
	for _, p := range products {
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("duplicate product id %d", p.ID)
		}
		seen[p.ID] = struct{}{}
		if p.Price.IsNegative() {
			return fmt.Errorf("negative price for product %d", p.ID)
		}
	}
	return nil
}
