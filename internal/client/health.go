package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bazarr-bulk/bb/internal/apperrors"
	"github.com/bazarr-bulk/bb/internal/config"
	"github.com/bazarr-bulk/bb/internal/models"
)

const statusEndpoint = "system/status"

// CheckHealth asks the remote service for its status.
//
// A 401 returns apperrors.ErrUnauthorized. Any transport failure is reported as an
// *apperrors.ConnectionError since nothing else can work without connectivity.
// Other non-2xx answers return an *apperrors.StatusError that callers may treat as a warning.
func (c *client) CheckHealth(ctx context.Context) (*models.SystemStatus, error) {
	target := c.endpoint(statusEndpoint, nil)
	resp, err := c.do(ctx, http.MethodGet, statusEndpoint, target, nil)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, &apperrors.ConnectionError{}) {
			return nil, err
		}
		return nil, &apperrors.ConnectionError{Op: http.MethodGet, URL: target, Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, apperrors.ErrUnauthorized
	}
	if !resp.OK() {
		return nil, apperrors.NewStatusError(http.MethodGet, target, resp.StatusCode, resp.Body)
	}

	var envelope struct {
		Data models.SystemStatus `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		logger := config.GetLogger()
		logger.Debug().Err(err).Msg("Unrecognised system status payload")
		return &models.SystemStatus{}, nil
	}
	return &envelope.Data, nil
}
