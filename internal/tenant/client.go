package tenant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// RemoteObject is one inventory entry: an object that exists on the tenant,
// summarized just enough for the planner to classify changes.
type RemoteObject struct {
	Family string `json:"family"`
	Key    string `json:"key"`
	Name   string `json:"name"`
	// Digest is the tenant's digest of the object's canonical document,
	// comparable to a locally computed document digest.
	Digest string `json:"digest"`
}

// Client talks to one tenant over its REST API. All methods take a context
// and propagate cancellation into the underlying request; the client itself
// imposes no timeouts beyond the transport default.
type Client struct {
	creds Credentials
	http  *http.Client
}

// NewClient creates a client for the tenant identified by creds.
func NewClient(creds Credentials) *Client {
	return &Client{
		creds: creds,
		http:  &http.Client{},
	}
}

// Credentials returns the credentials the client was built with. The
// progress stream needs them to open its own connection.
func (c *Client) Credentials() Credentials {
	return c.creds
}

// ListObjects returns the tenant's inventory for one object family.
func (c *Client) ListObjects(ctx context.Context, family string) ([]RemoteObject, error) {
	var out []RemoteObject
	err := timed(ctx, "list_objects", func() error {
		query := url.Values{"family": {family}}
		return c.getJSON(ctx, "/api/v1/objects?"+query.Encode(), &out)
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s objects: %w", family, err)
	}
	return out, nil
}

// ImportObjects exports the canonical documents of the named objects.
func (c *Client) ImportObjects(ctx context.Context, family string, keys []string) ([]json.RawMessage, error) {
	req := struct {
		Family string   `json:"family"`
		Keys   []string `json:"keys"`
	}{Family: family, Keys: keys}

	var resp struct {
		Documents []json.RawMessage `json:"documents"`
	}
	err := timed(ctx, "import_objects", func() error {
		return c.postJSON(ctx, "/api/v1/objects/import", req, &resp, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("importing %s objects: %w", family, err)
	}
	return resp.Documents, nil
}

// ImportSettings exports the canonical document of one configuration type.
func (c *Client) ImportSettings(ctx context.Context, configType string) (json.RawMessage, error) {
	var out json.RawMessage
	err := timed(ctx, "import_settings", func() error {
		return c.getJSON(ctx, "/api/v1/settings/"+url.PathEscape(configType), &out)
	})
	if err != nil {
		return nil, fmt.Errorf("importing settings %s: %w", configType, err)
	}
	return out, nil
}

// ListFeatures returns the tenant's current feature toggle state.
func (c *Client) ListFeatures(ctx context.Context) (map[string]bool, error) {
	var out map[string]bool
	err := timed(ctx, "list_features", func() error {
		return c.getJSON(ctx, "/api/v1/features", &out)
	})
	if err != nil {
		return nil, fmt.Errorf("listing features: %w", err)
	}
	return out, nil
}

// SubmitBundle submits one bundle for atomic validation and application.
// It returns nil on acceptance, a typed Failure when the tenant classified
// the rejection, and an ordinary error otherwise. The call blocks until the
// tenant finishes or ctx is cancelled.
func (c *Client) SubmitBundle(ctx context.Context, bundle *Bundle, opts SubmitOptions) error {
	return timed(ctx, "submit_bundle", func() error {
		body, err := json.Marshal(bundle)
		if err != nil {
			return fmt.Errorf("encoding bundle: %w", err)
		}

		target := c.creds.Endpoint + "/api/v1/bundles"
		if opts.ValidateOnly {
			target += "?validate_only=true"
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
		if err != nil {
			return err
		}
		c.setHeaders(req)
		if opts.RunID != "" {
			req.Header.Set("X-Run-Id", opts.RunID)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("submitting bundle: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusAccepted:
			return nil
		case resp.StatusCode == http.StatusUnprocessableEntity:
			raw, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("reading rejection body: %w", err)
			}
			failure, err := decodeFailure(raw)
			if err != nil {
				// Unclassifiable rejection: surface as an ordinary error.
				return fmt.Errorf("bundle rejected: %w", err)
			}
			return failure
		default:
			return c.statusError(resp)
		}
	})
}

// setHeaders applies the auth and account headers every request carries.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.creds.Token)
	req.Header.Set("X-Tenant-Account", c.creds.Account)
	req.Header.Set("Content-Type", "application/json")
}

// getJSON performs a GET against path and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.creds.Endpoint+path, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.statusError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// postJSON performs a POST with a JSON body and decodes the response.
func (c *Client) postJSON(ctx context.Context, path string, in, out any, headers map[string]string) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.creds.Endpoint+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.setHeaders(req)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.statusError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// statusError summarizes an unexpected HTTP response, keeping a short body
// excerpt for diagnosis.
func (c *Client) statusError(resp *http.Response) error {
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	return fmt.Errorf("tenant returned %s: %s", resp.Status, bytes.TrimSpace(excerpt))
}
