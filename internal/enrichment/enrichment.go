// Package enrichment fetches supplementary question fields from the external
// script service, keyed by description URL.
package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/thoughtcode/tca-backend/internal/model"
)

// maxResponseBytes caps how much of the service response is read.
const maxResponseBytes = 4 << 20

// ErrUnexpectedStatus is returned when the service answers with a non-2xx code.
var ErrUnexpectedStatus = errors.New("enrichment service returned unexpected status")

// Enricher returns supplementary fields for a set of description URLs.
// URLs without an entry are simply absent from the result.
type Enricher interface {
	Enrich(ctx context.Context, urls []string) (map[string]model.Enrichment, error)
}

// Enabled reports whether e performs real enrichment.
func Enabled(e Enricher) bool {
	if e == nil {
		return false
	}
	_, nop := e.(NopEnricher)
	return !nop
}

// NopEnricher is used when no enrichment service is configured.
type NopEnricher struct{}

func (NopEnricher) Enrich(context.Context, []string) (map[string]model.Enrichment, error) {
	return map[string]model.Enrichment{}, nil
}

// HTTPEnricher posts the URL list to the script endpoint as a JSON array.
type HTTPEnricher struct {
	endpoint string
	client   *http.Client
	log      zerolog.Logger
}

// NewHTTPEnricher creates an HTTPEnricher. A nil client uses http.DefaultClient;
// deadlines come from the caller's context.
func NewHTTPEnricher(endpoint string, client *http.Client, log zerolog.Logger) *HTTPEnricher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPEnricher{
		endpoint: endpoint,
		client:   client,
		log:      log.With().Str("component", "enrichment_client").Logger(),
	}
}

func (e *HTTPEnricher) Enrich(ctx context.Context, urls []string) (map[string]model.Enrichment, error) {
	if len(urls) == 0 {
		return map[string]model.Enrichment{}, nil
	}

	payload, err := json.Marshal(urls)
	if err != nil {
		return nil, fmt.Errorf("encode urls: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call enrichment service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	result, skipped, err := Decode(body)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		e.log.Warn().Int("skipped", skipped).Msg("Enrichment entries without usable descriptionURL")
	}

	e.log.Debug().
		Int("requested", len(urls)).
		Int("received", len(result)).
		Msg("Enrichment fetched")

	return result, nil
}

// Decode parses a service response: a JSON array whose elements are either
// objects or strings holding an encoded object. Each object is keyed by its
// descriptionURL (or descriptionUrl) field. It returns how many elements
// were dropped for lacking a key or failing to parse.
func Decode(body []byte) (map[string]model.Enrichment, int, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, 0, fmt.Errorf("decode response array: %w", err)
	}

	result := make(map[string]model.Enrichment, len(items))
	skipped := 0
	for _, raw := range items {
		obj, ok := decodeItem(raw)
		if !ok {
			skipped++
			continue
		}
		key := urlKey(obj)
		if key == "" {
			skipped++
			continue
		}
		result[key] = obj
	}
	return result, skipped, nil
}

func decodeItem(raw json.RawMessage) (model.Enrichment, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil, false
		}
		raw = []byte(encoded)
	}
	var obj model.Enrichment
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func urlKey(obj model.Enrichment) string {
	for _, k := range []string{"descriptionURL", "descriptionUrl"} {
		if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
