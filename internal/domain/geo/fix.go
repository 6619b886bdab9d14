package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	SourceDevice     = "device"
	SourceIPFallback = "ip_fallback"
)

var (
	ErrDenied  = errors.New("location permission denied")
	ErrTimeout = errors.New("location acquisition timed out")
)

// Fix is one captured location sample. All fields are nullable because a
// capture attempt is recorded even when it fails; Err then carries the reason.
type Fix struct {
	Lat        *float64   `json:"lat"`
	Lng        *float64   `json:"lng"`
	Accuracy   *float64   `json:"accuracy"`
	Source     *string    `json:"source"`
	CapturedAt *time.Time `json:"capturedAt"`
	Err        *string    `json:"error"`
}

// HasCoordinates reports whether the fix carries a usable coordinate pair.
func (f Fix) HasCoordinates() bool {
	return f.Lat != nil && f.Lng != nil
}

// Denied reports whether the fix failed because the user refused the
// platform permission prompt. Callers branch to a permission-help flow
// instead of retrying silently.
func (f Fix) Denied() bool {
	return f.Err != nil && strings.Contains(strings.ToLower(*f.Err), "denied")
}

// FailedFix records a capture failure without coordinates.
func FailedFix(reason string, at time.Time) Fix {
	return Fix{CapturedAt: &at, Err: &reason}
}

// DeviceFix wraps coordinates reported by the caller's device.
func DeviceFix(lat, lng float64, accuracy *float64, at time.Time) Fix {
	source := SourceDevice
	return Fix{Lat: &lat, Lng: &lng, Accuracy: accuracy, Source: &source, CapturedAt: &at}
}

// Acquirer obtains a location fix with a bounded wait. Implementations must
// return rather than hang: a timeout surfaces as ErrTimeout.
type Acquirer interface {
	Acquire(ctx context.Context) (Fix, error)
}

// IPFallbackAcquirer resolves an approximate fix from the caller's IP
// address through an external lookup service. Used when a device fix is
// unavailable and the project does not require device location.
type IPFallbackAcquirer struct {
	BaseURL string
	Client  *http.Client
	Timeout time.Duration
}

func NewIPFallbackAcquirer(baseURL string, timeout time.Duration) *IPFallbackAcquirer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &IPFallbackAcquirer{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
		Timeout: timeout,
	}
}

type ipLookupResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (a *IPFallbackAcquirer) Acquire(ctx context.Context) (Fix, error) {
	return a.AcquireForIP(ctx, "")
}

// AcquireForIP resolves the given IP, or the caller's own when ip is empty.
func (a *IPFallbackAcquirer) AcquireForIP(ctx context.Context, ip string) (Fix, error) {
	ctx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	url := a.BaseURL + "/json/"
	if ip != "" {
		url = fmt.Sprintf("%s/%s/json/", a.BaseURL, ip)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return FailedFix(err.Error(), time.Now().UTC()), err
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return FailedFix(ErrTimeout.Error(), time.Now().UTC()), ErrTimeout
		}
		return FailedFix(err.Error(), time.Now().UTC()), err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		reason := fmt.Sprintf("ip lookup failed with status %d", resp.StatusCode)
		return FailedFix(reason, time.Now().UTC()), errors.New(reason)
	}

	var payload ipLookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return FailedFix(err.Error(), time.Now().UTC()), err
	}

	now := time.Now().UTC()
	source := SourceIPFallback
	return Fix{
		Lat:        &payload.Latitude,
		Lng:        &payload.Longitude,
		Source:     &source,
		CapturedAt: &now,
	}, nil
}
