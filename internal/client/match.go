package client

import (
	"context"
	"errors"

	"github.com/insightmap/insightmap/internal/model"
)

// MatchRequest is the body of POST /api/insights/match
type MatchRequest struct {
	Insights   []model.GeneratedInsight `json:"insights"`
	JourneyMap *model.JourneyMap        `json:"journeyMap"`
}

// MatchResponse is the success body of POST /api/insights/match
type MatchResponse struct {
	Insights []model.GeneratedInsight `json:"insights"`
}

// Match asks the service to rank journey-map placements for the given draft
// insights. On success every returned insight keeps its tempId and carries
// suggestedPlacements sorted descending by confidence. A throttled request
// returns *RateLimitError.
func (c *Client) Match(ctx context.Context, insights []model.GeneratedInsight, journeyMap *model.JourneyMap) ([]model.GeneratedInsight, error) {
	req := MatchRequest{Insights: insights, JourneyMap: journeyMap}

	var resp MatchResponse
	if err := c.post(ctx, "/api/insights/match", req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Insights) == 0 {
		return nil, errors.New("matching returned no insights")
	}
	return resp.Insights, nil
}
