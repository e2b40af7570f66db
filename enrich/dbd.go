package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"github.com/valyala/fasthttp"

	"leadflow/utils"
)

// RegistryRecord is what the DBD (Thai Department of Business Development)
// open API knows about a juristic person.
type RegistryRecord struct {
	RegistrationID string `json:"juristic_id"`
	Name           string `json:"juristic_name"`
	SectorCode     string `json:"objective_code"`
	Province       string `json:"province"`
	Address        string `json:"register_address"`
}

type dbdResponse struct {
	Status struct {
		Code string `json:"code"`
	} `json:"status"`
	Data []RegistryRecord `json:"data"`
}

// DBDClient looks companies up in the DBD registry. Best effort: a miss
// returns (nil, nil), only infrastructure failures return errors.
type DBDClient struct {
	baseURL string
	client  *fasthttp.Client
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
}

func NewDBDClient(baseURL string, timeout time.Duration) *DBDClient {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &DBDClient{
		baseURL: baseURL,
		client: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		timeout: timeout,
		breaker: utils.NewBreaker("dbd"),
	}
}

// Lookup searches the registry by company name and returns the first match,
// or nil when the registry has nothing.
func (c *DBDClient) Lookup(ctx context.Context, company string) (*RegistryRecord, error) {
	uri := fmt.Sprintf("%s/v1/juristic-persons?name=%s", c.baseURL, url.QueryEscape(company))

	var record *RegistryRecord
	err := utils.RetryWithBreaker(ctx, c.breaker, func(ctx context.Context) error {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		req.SetRequestURI(uri)
		req.Header.SetMethod(fasthttp.MethodGet)
		req.Header.Set("Accept", "application/json")

		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			return utils.Transient("dbd request", err)
		}

		switch code := resp.StatusCode(); {
		case code == fasthttp.StatusNotFound:
			return nil // unknown company, normal outcome
		case code >= 500:
			return utils.Transient("dbd request", fmt.Errorf("status %d", code))
		case code != fasthttp.StatusOK:
			return fmt.Errorf("dbd request: unexpected status %d", code)
		}

		var parsed dbdResponse
		if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
			return fmt.Errorf("dbd response: %w", err)
		}
		if len(parsed.Data) > 0 {
			record = &parsed.Data[0]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}
