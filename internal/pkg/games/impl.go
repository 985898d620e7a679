package games

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/samber/do/v2"
	"github.com/vreid/gambit/internal/pkg/common"
	"github.com/vreid/gambit/internal/pkg/execution"
	"github.com/vreid/gambit/internal/pkg/sequencer"
	"github.com/vreid/gambit/internal/pkg/transaction"
)

type GamesService struct {
	Sessions  SessionReader
	Submitter sequencer.Submitter
}

func NewGamesService(i do.Injector) (*GamesService, error) {
	sessions := do.MustInvoke[*execution.ExecutionService](i)
	submitter := do.MustInvoke[sequencer.Submitter](i)

	result := &GamesService{
		Sessions:  sessions,
		Submitter: submitter,
	}

	echoService, err := do.Invoke[*common.EchoService](i)
	if err != nil {
		return nil, fmt.Errorf("failed to create echo service: %w", err)
	}

	echoService.Register(result.RegisterRoutes)

	return result, nil
}

func (s *GamesService) RegisterRoutes(e *echo.Echo) {
	apiGroup := e.Group("/api")

	gamesGroup := apiGroup.Group("/games")

	gamesGroup.POST("", s.PostGame)
	gamesGroup.GET("/:id", s.GetGame)
	gamesGroup.POST("/:id/moves", s.PostMove)
}

func (s *GamesService) GetGame(c echo.Context) error {
	gameID, err := parseGameID(c)
	if err != nil {
		return err
	}

	session, ok := s.Sessions.GameSession(gameID)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "game not found")
	}

	//nolint:wrapcheck
	return c.JSON(http.StatusOK, session)
}

func (s *GamesService) PostGame(c echo.Context) error {
	var req StartGameRequest

	err := c.Bind(&req)
	if err != nil || req.GameID == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	return s.submit(c, transaction.StartGame{GameID: *req.GameID})
}

func (s *GamesService) PostMove(c echo.Context) error {
	gameID, err := parseGameID(c)
	if err != nil {
		return err
	}

	var req MakeMoveRequest

	err = c.Bind(&req)
	if err != nil || req.Move == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	return s.submit(c, transaction.MakeMove{GameID: gameID, Move: req.Move})
}

func (s *GamesService) submit(c echo.Context, tx transaction.Transaction) error {
	ack, err := s.Submitter.Submit(c.Request().Context(), transaction.Encode(tx))
	if err != nil {
		if errors.Is(err, sequencer.ErrDisabled) || errors.Is(err, sequencer.ErrQueueFull) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		}

		return echo.NewHTTPError(http.StatusBadGateway, "failed to submit transaction")
	}

	//nolint:wrapcheck
	return c.JSON(http.StatusAccepted, ack)
}

func parseGameID(c echo.Context) (uint32, error) {
	gameID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid game id")
	}

	return uint32(gameID), nil
}
