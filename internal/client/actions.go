package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bazarr-bulk/bb/internal/apperrors"
	"github.com/bazarr-bulk/bb/internal/models"
)

const subtitlesEndpoint = "subtitles"

// ApplyAction sends PATCH /subtitles?action=<code> with the request as JSON body.
// Non-2xx answers after retries are returned as *apperrors.StatusError.
func (c *client) ApplyAction(ctx context.Context, req models.ActionRequest) error {
	code := req.Action.Code()
	if code == "" {
		return fmt.Errorf("unknown action %d", req.Action)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode action request: %w", err)
	}

	target := c.endpoint(subtitlesEndpoint, url.Values{"action": {code}})
	resp, err := c.do(ctx, http.MethodPatch, subtitlesEndpoint, target, body)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return apperrors.NewStatusError(http.MethodPatch, target, resp.StatusCode, resp.Body)
	}
	return nil
}
