package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const verifierTimeout = 10 * time.Second

// VerifierError represents an error reply from the username verification
// provider.
type VerifierError struct {
	Code     string
	Message  string
	HTTPCode int
}

func (e *VerifierError) Error() string {
	return fmt.Sprintf("verifier error [%s]: %s", e.Code, e.Message)
}

// VerifyResult is the provider's answer for one (platform, username) pair.
// ProfileData is stored opaquely on the submission when present.
type VerifyResult struct {
	IsValid     bool                   `json:"is_valid"`
	ProfileData map[string]interface{} `json:"profile_data,omitempty"`
}

type verifyResponse struct {
	VerifyResult
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// VerifyPlatformUsername asks the external provider whether the username
// exists on the platform. Callers skip this entirely for the "website"
// platform. When VERIFIER_BASE_URL is unset the check is disabled and every
// username passes; useful for local development.
func VerifyPlatformUsername(ctx context.Context, platform, username string) (*VerifyResult, error) {
	base := strings.TrimRight(os.Getenv("VERIFIER_BASE_URL"), "/")
	if base == "" {
		return &VerifyResult{IsValid: true}, nil
	}

	payload, err := json.Marshal(map[string]string{
		"platform": platform,
		"username": username,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, verifierTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/v1/usernames/verify", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if key := os.Getenv("VERIFIER_API_KEY"); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verifier request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("verifier response read failed: %w", err)
	}

	var parsed verifyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("verifier returned malformed response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		verr := &VerifierError{Code: "unknown", Message: http.StatusText(resp.StatusCode), HTTPCode: resp.StatusCode}
		if parsed.Error != nil {
			verr.Code = parsed.Error.Code
			verr.Message = parsed.Error.Message
		}
		return nil, verr
	}

	return &parsed.VerifyResult, nil
}
