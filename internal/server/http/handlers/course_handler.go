package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/coursemart/internal/server/http/dto"
)

// CourseHandler serves the public catalog.
type CourseHandler struct {
	facade CourseFacade
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(facade CourseFacade) *CourseHandler {
	return &CourseHandler{facade: facade}
}

// List handles GET /api/courses.
func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.facade.Courses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.CourseResponse, 0, len(courses))
	for _, course := range courses {
		resp = append(resp, dto.CourseResponse{ID: course.ID, Title: course.Title, Price: course.Price})
	}
	c.JSON(http.StatusOK, dto.OK("", resp))
}
