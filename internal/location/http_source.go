package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"leavenow/internal/model"
)

// HTTPSource queries a companion endpoint (phone tracker, OwnTracks
// bridge, ...) that answers GET with a {"lat":..,"lon":..} document.
type HTTPSource struct {
	client  *http.Client
	baseURL string
	token   string
}

// NewHTTPSource builds an HTTPSource for baseURL. token, if non-empty,
// is sent as a bearer token.
func NewHTTPSource(baseURL, token string) *HTTPSource {
	return &HTTPSource{
		client:  &http.Client{Timeout: 5 * time.Second},
		baseURL: baseURL,
		token:   token,
	}
}

// CurrentPosition fetches a live fix. The accuracy hint is forwarded
// as the "acc" query parameter so the companion can pick a cheap
// coarse fix over a slow precise one.
func (s *HTTPSource) CurrentPosition(ctx context.Context, accuracyMeters int) (model.Position, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return model.Position{}, err
	}
	q := u.Query()
	q.Set("acc", strconv.Itoa(accuracyMeters))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return model.Position{}, err
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return model.Position{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Position{}, fmt.Errorf("position endpoint returned %s", resp.Status)
	}

	var pos model.Position
	if err := json.NewDecoder(resp.Body).Decode(&pos); err != nil {
		return model.Position{}, err
	}
	return pos, nil
}
