package httpapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/daklaw/nba-pickem-backend/internal/domain/game"
	"github.com/daklaw/nba-pickem-backend/internal/usecase"
)

const dateLayout = time.DateOnly

type gameResultRequest struct {
	ExternalID string     `json:"external_id" validate:"required,max=64"`
	SeasonID   string     `json:"season_id" validate:"required,max=64"`
	HomeTeamID string     `json:"home_team_id" validate:"required,max=64"`
	AwayTeamID string     `json:"away_team_id" validate:"required,max=64,nefield=HomeTeamID"`
	HomeScore  *int       `json:"home_score" validate:"omitempty,min=0"`
	AwayScore  *int       `json:"away_score" validate:"omitempty,min=0"`
	Status     string     `json:"status" validate:"omitempty,max=32"`
	Date       string     `json:"date" validate:"required_without=StartsAt,omitempty,datetime=2006-01-02"`
	StartsAt   *time.Time `json:"starts_at"`
}

func (r gameResultRequest) toDomain() (game.Game, error) {
	item := game.Game{
		ExternalID: r.ExternalID,
		SeasonID:   r.SeasonID,
		HomeTeamID: r.HomeTeamID,
		AwayTeamID: r.AwayTeamID,
		HomeScore:  r.HomeScore,
		AwayScore:  r.AwayScore,
		Status:     r.Status,
		StartsAt:   r.StartsAt,
	}
	if item.Status == "" {
		item.Status = game.StatusFinal
	}
	if date := strings.TrimSpace(r.Date); date != "" {
		parsed, err := time.Parse(dateLayout, date)
		if err != nil {
			return game.Game{}, fmt.Errorf("%w: invalid date %q", usecase.ErrInvalidInput, r.Date)
		}
		item.Date = parsed
	}
	return item, nil
}

type gameResultBatchRequest struct {
	Games []gameResultRequest `json:"games" validate:"required,min=1,max=500,dive"`
}

type gameScoreRequest struct {
	HomeScore *int `json:"home_score" validate:"required,min=0"`
	AwayScore *int `json:"away_score" validate:"required,min=0"`
}
