package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/insightmap/insightmap/internal/model"
)

// GenerateRequest is the body of POST /api/insights/generate
type GenerateRequest struct {
	JourneyID  string                 `json:"journeyId"`
	SourceType model.ArtifactType     `json:"sourceType"`
	Data       *model.CombinedDataset `json:"data"`
	JourneyMap *model.JourneyMap      `json:"journeyMap"`
}

// GenerateResponse is the success body of POST /api/insights/generate
type GenerateResponse struct {
	Success  bool                     `json:"success"`
	Insights []model.GeneratedInsight `json:"insights"`
	Errors   []string                 `json:"errors,omitempty"`
}

// ErrNoInsights is returned when the service succeeded but produced nothing
// usable. The pipeline treats this the same as a reported failure.
var ErrNoInsights = errors.New("the service could not generate any insights from the selected sources")

// Generate asks the service to produce draft insights from the combined
// dataset, with the journey map as context. A throttled request returns
// *RateLimitError; a service-reported failure returns the first error
// message the service supplied, or a generic fallback.
func (c *Client) Generate(ctx context.Context, data *model.CombinedDataset, journeyMap *model.JourneyMap) ([]model.GeneratedInsight, error) {
	req := GenerateRequest{
		JourneyID:  journeyMap.ID,
		SourceType: data.PrimaryType,
		Data:       data,
		JourneyMap: journeyMap,
	}

	var resp GenerateResponse
	if err := c.post(ctx, "/api/insights/generate", req, &resp); err != nil {
		return nil, err
	}

	if !resp.Success {
		if len(resp.Errors) > 0 {
			return nil, fmt.Errorf("generation failed: %s", resp.Errors[0])
		}
		return nil, errors.New("generation failed")
	}
	if len(resp.Insights) == 0 {
		return nil, ErrNoInsights
	}
	return resp.Insights, nil
}
