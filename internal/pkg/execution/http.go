package execution

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *ExecutionService) RegisterRoutes(e *echo.Echo) {
	apiGroup := e.Group("/api")

	executionGroup := apiGroup.Group("/execution")

	executionGroup.GET("/genesis-info", s.GetGenesisInfoHandler)
	executionGroup.POST("/get-block", s.GetBlockHandler)
	executionGroup.POST("/batch-get-blocks", s.BatchGetBlocksHandler)
	executionGroup.POST("/execute-block", s.ExecuteBlockHandler)
	executionGroup.GET("/commitment-state", s.GetCommitmentStateHandler)
	executionGroup.POST("/update-commitment-state", s.UpdateCommitmentStateHandler)
}

func (s *ExecutionService) GetGenesisInfoHandler(c echo.Context) error {
	//nolint:wrapcheck
	return c.JSON(http.StatusOK, s.GenesisInfo())
}

func (s *ExecutionService) GetBlockHandler(c echo.Context) error {
	var req GetBlockRequest

	err := c.Bind(&req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.Identifier == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing block identifier")
	}

	block, err := s.GetBlock(*req.Identifier)
	if err != nil {
		return toHTTPError(err)
	}

	//nolint:wrapcheck
	return c.JSON(http.StatusOK, block)
}

func (s *ExecutionService) BatchGetBlocksHandler(c echo.Context) error {
	var req BatchGetBlocksRequest

	err := c.Bind(&req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	blocks, err := s.BatchGetBlocks(req.Identifiers)
	if err != nil {
		return toHTTPError(err)
	}

	//nolint:wrapcheck
	return c.JSON(http.StatusOK, BatchGetBlocksResponse{Blocks: blocks})
}

func (s *ExecutionService) ExecuteBlockHandler(c echo.Context) error {
	var req ExecuteBlockRequest

	err := c.Bind(&req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	block, err := s.ExecuteBlock(req)
	if err != nil {
		return toHTTPError(err)
	}

	//nolint:wrapcheck
	return c.JSON(http.StatusOK, block)
}

func (s *ExecutionService) GetCommitmentStateHandler(c echo.Context) error {
	//nolint:wrapcheck
	return c.JSON(http.StatusOK, s.CommitmentState())
}

func (s *ExecutionService) UpdateCommitmentStateHandler(c echo.Context) error {
	var req UpdateCommitmentStateRequest

	err := c.Bind(&req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.CommitmentState == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing commitment state")
	}

	state, err := s.UpdateCommitmentState(*req.CommitmentState)
	if err != nil {
		return toHTTPError(err)
	}

	//nolint:wrapcheck
	return c.JSON(http.StatusOK, state)
}

func toHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrUnimplemented):
		return echo.NewHTTPError(http.StatusNotImplemented, err.Error())
	case errors.Is(err, ErrInvalidArgument):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
