package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/usersvc/usersvc/common/apiutil"
	"github.com/usersvc/usersvc/pkg/models"
)

// userIDParam parses the id path parameter. On failure it writes a
// validation error response and reports false.
func (s *Server) userIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apiutil.WriteErrorResponse(c, http.StatusUnprocessableEntity, "validation_error", "user id must be a positive integer", nil)
		return 0, false
	}
	return uint(id), true
}

// handleCreateUser handles user creation
func (s *Server) handleCreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiutil.WriteErrorResponse(c, http.StatusUnprocessableEntity, "validation_error", "invalid request body", apiutil.BindingErrorDetails(err))
		return
	}

	user, err := s.usersSvc.CreateUser(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// handleListUsers handles listing users with pagination
func (s *Server) handleListUsers(c *gin.Context) {
	var query models.ListUsersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		apiutil.WriteErrorResponse(c, http.StatusUnprocessableEntity, "validation_error", "invalid query parameters", apiutil.BindingErrorDetails(err))
		return
	}

	page, total, err := s.usersSvc.ListUsers(c.Request.Context(), query.Limit, query.Offset)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.UserListResponse{
		Users:  page,
		Total:  total,
		Limit:  query.Limit,
		Offset: query.Offset,
	})
}

// handleGetUser handles fetching a single user
func (s *Server) handleGetUser(c *gin.Context) {
	id, ok := s.userIDParam(c)
	if !ok {
		return
	}

	user, err := s.usersSvc.GetUser(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// handleUpdateUser handles partial user updates
func (s *Server) handleUpdateUser(c *gin.Context) {
	id, ok := s.userIDParam(c)
	if !ok {
		return
	}

	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiutil.WriteErrorResponse(c, http.StatusUnprocessableEntity, "validation_error", "invalid request body", apiutil.BindingErrorDetails(err))
		return
	}

	user, err := s.usersSvc.UpdateUser(c.Request.Context(), id, req.Name, req.Email)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// handleDeleteUser handles user deletion
func (s *Server) handleDeleteUser(c *gin.Context) {
	id, ok := s.userIDParam(c)
	if !ok {
		return
	}

	if err := s.usersSvc.DeleteUser(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
