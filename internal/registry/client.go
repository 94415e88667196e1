package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"medgate/internal/platform/metrics"
	dErrors "medgate/pkg/domain-errors"
)

// ErrNotFound means the registry authoritatively does not know the national ID.
var ErrNotFound = errors.New("patient not found in registry")

var tracer = otel.Tracer("medgate/registry")

// Client talks to the national patient registry over HTTP. Concurrent
// lookups for the same national ID are collapsed into a single upstream
// call via singleflight.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	metrics    *metrics.Metrics
	group      singleflight.Group
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithMetrics sets the metrics instance for the client.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func NewClient(baseURL, apiKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// snapshotResponse is the registry's wire shape for a patient record. A 200
// carries the demographic object flat at the top level; only the 404 body is
// wrapped in a "data" envelope.
type snapshotResponse struct {
	PatientID        string `json:"patient_id"`
	NationalID       string `json:"national_id"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	DateOfBirth      string `json:"date_of_birth"`
	Gender           string `json:"gender"`
	Phone            string `json:"phone"`
	Email            string `json:"email"`
	Address          string `json:"address"`
	EmergencyContact string `json:"emergency_contact"`
}

// Lookup fetches the registry snapshot for a national ID. A registry 404 is
// ErrNotFound; every other failure mode (network, timeout, 5xx, bad payload)
// surfaces as a transport error so callers can distinguish "the registry
// said no" from "we could not ask".
func (c *Client) Lookup(ctx context.Context, nationalID string) (*Snapshot, error) {
	// Detach the collapsed call from the first caller's context so a caller
	// that hangs up cannot fail the flight for everyone waiting on it. The
	// per-call timeout in doLookup still bounds the request.
	result, err, _ := c.group.Do(nationalID, func() (any, error) {
		return c.lookup(context.WithoutCancel(ctx), nationalID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Snapshot), nil
}

func (c *Client) lookup(ctx context.Context, nationalID string) (*Snapshot, error) {
	ctx, span := tracer.Start(ctx, "registry.Lookup", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	start := time.Now()
	snapshot, err := c.doLookup(ctx, nationalID)
	c.metrics.ObserveRegistryLookupLatency(time.Since(start))

	switch {
	case err == nil:
		c.metrics.IncrementRegistryLookup("ok")
		span.SetAttributes(attribute.String("registry.patient_id", snapshot.PatientID))
	case errors.Is(err, ErrNotFound):
		c.metrics.IncrementRegistryLookup("not_found")
		span.SetStatus(codes.Error, "not found")
	default:
		c.metrics.IncrementRegistryLookup("transport_error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
	}
	return snapshot, err
}

func (c *Client) doLookup(ctx context.Context, nationalID string) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/api/registry/patients?national_id=%s", c.baseURL, url.QueryEscape(nationalID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTransport, "failed to create registry request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, dErrors.Wrap(err, dErrors.CodeTransport, "registry request timed out")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeTransport, "registry unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTransport, "failed to read registry response")
	}

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to parse
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, dErrors.New(dErrors.CodeTransport,
			fmt.Sprintf("unexpected registry status: %d", resp.StatusCode))
	}

	var wire snapshotResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTransport, "failed to parse registry response")
	}
	if wire.PatientID == "" {
		return nil, dErrors.New(dErrors.CodeTransport, "registry response missing patient_id")
	}

	dob, err := time.Parse("2006-01-02", wire.DateOfBirth)
	if err != nil {
		dob = time.Time{}
	}

	return &Snapshot{
		PatientID:        wire.PatientID,
		NationalID:       wire.NationalID,
		FirstName:        wire.FirstName,
		LastName:         wire.LastName,
		DateOfBirth:      dob,
		Gender:           wire.Gender,
		Phone:            wire.Phone,
		Email:            wire.Email,
		Address:          wire.Address,
		EmergencyContact: wire.EmergencyContact,
	}, nil
}
