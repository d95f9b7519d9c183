package upstream

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// NameDecoder expands abbreviated teacher names into full names.
type NameDecoder interface {
	Decode(ctx context.Context, raw []string) []string
}

// DecodeClient calls the bearer-authenticated name decoding service.
type DecodeClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewDecodeClient builds a decoder. An empty baseURL disables decoding and
// every name is returned unchanged.
func NewDecodeClient(baseURL, token string, client *http.Client) *DecodeClient {
	return &DecodeClient{baseURL: strings.TrimSpace(baseURL), token: strings.TrimSpace(token), client: client}
}

type decodedName struct {
	RawName           string `json:"rawName"`
	PossibleFullNames []struct {
		LastName   string `json:"lastName"`
		FirstName  string `json:"firstName"`
		MiddleName string `json:"middleName"`
	} `json:"possibleFullNames"`
}

// Resolve looks up full names and reports, per raw name, whether exactly one
// candidate was found. Names without a unique candidate map to themselves.
func (c *DecodeClient) Resolve(ctx context.Context, raw []string) (map[string]string, error) {
	out := make(map[string]string, len(raw))
	if c.baseURL == "" || len(raw) == 0 {
		return out, nil
	}

	q := url.Values{}
	q.Set("rawNames", strings.Join(raw, ","))
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	var payload []decodedName
	if err := getJSON(ctx, c.client, "get_full_teacher_name", joinURL(c.baseURL, "get-full-teacher-name")+"?"+q.Encode(), header, &payload); err != nil {
		return nil, err
	}
	for _, d := range payload {
		if len(d.PossibleFullNames) != 1 {
			continue
		}
		n := d.PossibleFullNames[0]
		parts := make([]string, 0, 3)
		for _, p := range []string{n.LastName, n.FirstName, n.MiddleName} {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			continue
		}
		out[d.RawName] = strings.Join(parts, " ")
	}
	return out, nil
}

// Decode returns one display name per input; failures fall back to the raw name.
func (c *DecodeClient) Decode(ctx context.Context, raw []string) []string {
	resolved, err := c.Resolve(ctx, raw)
	return collapse(raw, resolved, err)
}

func collapse(raw []string, resolved map[string]string, err error) []string {
	out := make([]string, len(raw))
	for i, r := range raw {
		out[i] = r
		if err != nil {
			continue
		}
		if full, ok := resolved[r]; ok {
			out[i] = full
		}
	}
	return out
}
