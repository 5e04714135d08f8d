package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-space-reservation/internal/booking"
	"github.com/iliyamo/campus-space-reservation/internal/model"
	"github.com/iliyamo/campus-space-reservation/internal/repository"
	"github.com/iliyamo/campus-space-reservation/internal/service"
)

// ReservationHandler exposes the reservation operations: create, list,
// inspect, reschedule, cancel, admin status changes and availability
// queries. Business rules live in the service; this layer only binds,
// validates fields and maps errors.
type ReservationHandler struct {
	Svc          *service.ReservationService
	Reservations *repository.ReservationRepo
}

// NewReservationHandler constructs a ReservationHandler. Both
// dependencies must be non-nil.
func NewReservationHandler(svc *service.ReservationService, reservations *repository.ReservationRepo) *ReservationHandler {
	if svc == nil || reservations == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{Svc: svc, Reservations: reservations}
}

// ----- DTOs -----

type createReservationReq struct {
	SpaceID     uint64  `json:"space_id"`
	StartsAt    string  `json:"starts_at"` // RFC3339
	EndsAt      string  `json:"ends_at"`   // RFC3339
	Purpose     string  `json:"purpose"`
	Description string  `json:"description"`
	Attendees   *uint32 `json:"attendees"`
}

type updateIntervalReq struct {
	StartsAt string `json:"starts_at"`
	EndsAt   string `json:"ends_at"`
}

type setStatusReq struct {
	Status string `json:"status"`
}

type reservationResp struct {
	ID          uint64    `json:"id"`
	UserID      uint64    `json:"user_id"`
	SpaceID     uint64    `json:"space_id"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Purpose     string    `json:"purpose"`
	Description string    `json:"description,omitempty"`
	Attendees   *uint32   `json:"attendees,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func reservationToResp(r model.Reservation) reservationResp {
	return reservationResp{
		ID:          r.ID,
		UserID:      r.UserID,
		SpaceID:     r.SpaceID,
		StartsAt:    r.StartsAt,
		EndsAt:      r.EndsAt,
		Purpose:     r.Purpose,
		Description: r.Description,
		Attendees:   r.Attendees,
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt,
	}
}

func reservationsToResp(rs []model.Reservation) []reservationResp {
	out := make([]reservationResp, 0, len(rs))
	for _, r := range rs {
		out = append(out, reservationToResp(r))
	}
	return out
}

// CreateReservation handles POST /v1/reservations. The requester books
// a space; the reservation starts out pending.
func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.SpaceID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "space_id is required"})
	}
	starts, err1 := parseRFC3339(req.StartsAt)
	ends, err2 := parseRFC3339(req.EndsAt)
	if err1 != nil || err2 != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at/ends_at must be RFC3339 timestamps"})
	}
	if !model.ValidPurpose(req.Purpose) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid purpose"})
	}
	if len(req.Description) > model.MaxDescriptionLen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "description too long"})
	}
	if req.Attendees != nil && *req.Attendees == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "attendees must be at least 1"})
	}

	res, err := h.Svc.Create(c.Request().Context(), actor, service.CreateInput{
		SpaceID:     req.SpaceID,
		StartsAt:    starts,
		EndsAt:      ends,
		Purpose:     req.Purpose,
		Description: strings.TrimSpace(req.Description),
		Attendees:   req.Attendees,
	})
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, reservationToResp(res))
}

// ListReservations handles GET /v1/reservations. Standard users see
// their own reservations; administrators see everything.
func (h *ReservationHandler) ListReservations(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	limit, offset := pageParams(c)

	var items []model.Reservation
	if actor.IsAdmin() {
		items, err = h.Reservations.ListAll(c.Request().Context(), limit, offset)
	} else {
		items, err = h.Reservations.ListByUser(c.Request().Context(), actor.UserID, limit, offset)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list reservations failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": reservationsToResp(items), "count": len(items)})
}

// ListSpaceReservations handles GET /v1/spaces/:id/reservations.
func (h *ReservationHandler) ListSpaceReservations(c echo.Context) error {
	spaceID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid space id"})
	}
	limit, offset := pageParams(c)
	items, err := h.Reservations.ListBySpace(c.Request().Context(), spaceID, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list reservations failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": reservationsToResp(items), "count": len(items)})
}

// GetReservation handles GET /v1/reservations/:id. Only the owner or an
// administrator may view a reservation.
func (h *ReservationHandler) GetReservation(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	res, err := h.Reservations.GetByID(c.Request().Context(), id)
	if err != nil {
		return bookingError(c, err)
	}
	if !actor.IsAdmin() && actor.UserID != res.UserID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, reservationToResp(res))
}

// UpdateReservationInterval handles PATCH /v1/reservations/:id/interval.
// The owner (or an administrator) reschedules a pending or approved
// reservation; schedule and conflict checks re-run against the new
// interval.
func (h *ReservationHandler) UpdateReservationInterval(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req updateIntervalReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	starts, err1 := parseRFC3339(req.StartsAt)
	ends, err2 := parseRFC3339(req.EndsAt)
	if err1 != nil || err2 != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at/ends_at must be RFC3339 timestamps"})
	}

	res, err := h.Svc.UpdateInterval(c.Request().Context(), actor, id, starts, ends)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, reservationToResp(res))
}

// SetReservationStatus handles PATCH /v1/admin/reservations/:id/status.
// Administrators may drive any edge of the lifecycle table.
func (h *ReservationHandler) SetReservationStatus(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req setStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	next := booking.Status(strings.ToLower(strings.TrimSpace(req.Status)))
	if !next.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	res, err := h.Svc.SetStatus(c.Request().Context(), actor, id, next)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, reservationToResp(res))
}

// CancelReservation handles DELETE /v1/reservations/:id. Owners cancel
// their own reservations; cancelling a terminal reservation fails.
func (h *ReservationHandler) CancelReservation(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	res, err := h.Svc.Cancel(c.Request().Context(), actor, id)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, reservationToResp(res))
}

// CheckAvailability handles GET /v1/spaces/:id/availability with start
// and end query parameters. It is public, read-only and cacheable.
func (h *ReservationHandler) CheckAvailability(c echo.Context) error {
	spaceID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid space id"})
	}
	starts, err1 := parseRFC3339(c.QueryParam("start"))
	ends, err2 := parseRFC3339(c.QueryParam("end"))
	if err1 != nil || err2 != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start/end must be RFC3339 timestamps"})
	}

	avail, err := h.Svc.CheckAvailability(c.Request().Context(), spaceID, starts, ends)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"available":   avail.Available,
		"conflicting": reservationsToResp(avail.Conflicting),
	})
}

func pageParams(c echo.Context) (limit, offset int) {
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
