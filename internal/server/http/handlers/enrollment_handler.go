package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/coursemart/internal/domain/model"
	"github.com/polkiloo/coursemart/internal/server/http/dto"
)

// EnrollmentHandler manages checkout, verification and enrollment maintenance endpoints.
type EnrollmentHandler struct {
	facade EnrollmentFacade
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(facade EnrollmentFacade) *EnrollmentHandler {
	return &EnrollmentHandler{facade: facade}
}

// Create handles POST /api/enrollment/create.
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "courseId is required")
		return
	}

	order, err := h.facade.CreateOrder(c.Request.Context(), CurrentUserID(c), req.CourseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.OK("", dto.NewCheckoutResponse(order)))
}

// Verify handles POST /api/enrollment/verify.
func (h *EnrollmentHandler) Verify(c *gin.Context) {
	var req dto.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "gatewayOrderId, gatewayPaymentId, signature and enrollmentId are required")
		return
	}
	id, _ := parseEnrollmentID(req.EnrollmentID)

	result, err := h.facade.VerifyPayment(c.Request.Context(), CurrentUserID(c), model.PaymentVerification{
		EnrollmentID: id,
		OrderID:      req.GatewayOrderID,
		PaymentID:    req.GatewayPaymentID,
		Signature:    req.Signature,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymentEnvelope(result))
}

// Reconcile handles POST /api/enrollment/reconcile.
func (h *EnrollmentHandler) Reconcile(c *gin.Context) {
	var req dto.EnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "enrollmentId is required")
		return
	}
	id, _ := parseEnrollmentID(req.EnrollmentID)

	result, err := h.facade.Reconcile(c.Request.Context(), CurrentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymentEnvelope(result))
}

// PartialPayment handles POST /api/enrollment/partial-payment.
func (h *EnrollmentHandler) PartialPayment(c *gin.Context) {
	var req dto.PartialPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "enrollmentId and a non-negative amount are required")
		return
	}
	id, _ := parseEnrollmentID(req.EnrollmentID)

	order, err := h.facade.CreatePartialPaymentOrder(c.Request.Context(), CurrentUserID(c), id, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.OK("", dto.NewCheckoutResponse(order)))
}

// Cancel handles DELETE /api/enrollment/:id.
func (h *EnrollmentHandler) Cancel(c *gin.Context) {
	id, ok := parseEnrollmentID(c.Param("id"))
	if !ok {
		badRequest(c, "invalid enrollment id")
		return
	}

	if err := h.facade.CancelEnrollment(c.Request.Context(), CurrentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK("Enrollment cancelled", nil))
}

// Cleanup handles DELETE /api/enrollment/cleanup.
func (h *EnrollmentHandler) Cleanup(c *gin.Context) {
	result, err := h.facade.CleanupStale(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK("Stale enrollments removed", dto.CleanupResponse{Deleted: result.Deleted, Cutoff: result.Cutoff}))
}

// List handles GET /api/enrollment.
func (h *EnrollmentHandler) List(c *gin.Context) {
	enrollments, err := h.facade.Enrollments(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.EnrollmentResponse, 0, len(enrollments))
	for _, e := range enrollments {
		item := dto.NewEnrollmentResponse(e.Enrollment, e.Remaining())
		item.CourseTitle = e.CourseTitle
		resp = append(resp, item)
	}
	c.JSON(http.StatusOK, dto.OK("", resp))
}

// Payments handles GET /api/enrollment/:id/payments.
func (h *EnrollmentHandler) Payments(c *gin.Context) {
	id, ok := parseEnrollmentID(c.Param("id"))
	if !ok {
		badRequest(c, "invalid enrollment id")
		return
	}

	payments, err := h.facade.Payments(c.Request.Context(), CurrentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		resp = append(resp, dto.PaymentResponse{
			PaymentID:  p.PaymentID,
			OrderID:    p.OrderID,
			Amount:     p.Amount,
			Source:     string(p.Source),
			RecordedAt: p.RecordedAt,
		})
	}
	c.JSON(http.StatusOK, dto.OK("", resp))
}

func paymentEnvelope(result *model.PaymentResult) dto.Envelope {
	env := dto.Envelope{Success: result.Success, Message: result.Message}
	if result.Enrollment != nil {
		env.Data = dto.NewEnrollmentResponse(*result.Enrollment, result.Remaining)
	}
	return env
}
