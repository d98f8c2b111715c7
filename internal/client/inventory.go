package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bazarr-bulk/bb/internal/apperrors"
	"github.com/bazarr-bulk/bb/internal/config"
	"github.com/bazarr-bulk/bb/internal/metrics"
	"github.com/bazarr-bulk/bb/internal/models"
)

const (
	moviesEndpoint   = "movies"
	seriesEndpoint   = "series"
	episodesEndpoint = "episodes"
)

// ListQuery builds the query parameters of a list request.
// A non-empty ID set wins over pagination. An offset without a limit asks for an
// unbounded page (length=-1). Without either, no parameters are sent.
func ListQuery(idParam string, filter models.Filter) url.Values {
	query := url.Values{}
	if len(filter.IDs) > 0 {
		for _, id := range filter.IDs {
			query.Add(idParam, strconv.Itoa(id))
		}
		return query
	}
	if !filter.Paginated() {
		return query
	}

	query.Set("start", strconv.Itoa(filter.Offset))
	if filter.Limit != nil {
		query.Set("length", strconv.Itoa(*filter.Limit))
	} else {
		query.Set("length", "-1")
	}
	return query
}

// ListMovies fetches movies with their subtitles.
func (c *client) ListMovies(ctx context.Context, filter models.Filter) ([]models.Movie, error) {
	return getList[models.Movie](ctx, c, moviesEndpoint, ListQuery("radarrid[]", filter))
}

// ListSeries fetches series. Subtitles live on episodes.
func (c *client) ListSeries(ctx context.Context, filter models.Filter) ([]models.Show, error) {
	return getList[models.Show](ctx, c, seriesEndpoint, ListQuery("seriesid[]", filter))
}

// ListEpisodes fetches every episode of one series.
func (c *client) ListEpisodes(ctx context.Context, seriesID int) ([]models.Episode, error) {
	query := url.Values{"seriesid[]": {strconv.Itoa(seriesID)}}
	return getList[models.Episode](ctx, c, episodesEndpoint, query)
}

// getList performs a GET on a list endpoint, going through the cache when one is configured.
func getList[T any](ctx context.Context, c *client, endpoint string, query url.Values) ([]T, error) {
	logger := config.GetLogger()
	target := c.endpoint(endpoint, query)

	if c.cache != nil {
		body, ok := c.cache.Get(ctx, target)
		if !ok {
			metrics.InventoryCacheTotal.WithLabelValues(metrics.CacheMiss).Inc()
		} else {
			var envelope models.ListResponse[T]
			if err := json.Unmarshal(body, &envelope); err == nil {
				metrics.InventoryCacheTotal.WithLabelValues(metrics.CacheHit).Inc()
				logger.Debug().Str("url", target).Int("count", len(envelope.Data)).Msg("Served list from cache")
				return envelope.Data, nil
			}
			metrics.InventoryCacheTotal.WithLabelValues(metrics.CacheStale).Inc()
			c.cache.Delete(ctx, target)
		}
	}

	resp, err := c.do(ctx, http.MethodGet, endpoint, target, nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, apperrors.NewStatusError(http.MethodGet, target, resp.StatusCode, resp.Body)
	}

	var envelope models.ListResponse[T]
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", endpoint, err)
	}

	if c.cache != nil {
		c.cache.Set(ctx, target, resp.Body)
	}
	logger.Debug().Str("url", target).Int("count", len(envelope.Data)).Msg("Fetched list")
	return envelope.Data, nil
}
