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
)

// SpaceHandler exposes administration and browsing of bookable spaces.
// Mutating endpoints are gated to the ADMIN role by middleware; the
// list and detail endpoints are public.
type SpaceHandler struct {
	Spaces *repository.SpaceRepo
}

// NewSpaceHandler constructs a SpaceHandler. The repository must be
// non-nil.
func NewSpaceHandler(spaces *repository.SpaceRepo) *SpaceHandler {
	if spaces == nil {
		panic("nil repository passed to NewSpaceHandler")
	}
	return &SpaceHandler{Spaces: spaces}
}

// ----- DTOs -----

type windowDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type locationDTO struct {
	Building string `json:"building"`
	Floor    int32  `json:"floor"`
}

type equipmentDTO struct {
	Name        string `json:"name"`
	Quantity    uint32 `json:"quantity"`
	Description string `json:"description,omitempty"`
}

type spaceReq struct {
	Name         string                 `json:"name"`
	Description  string                 `json:"description"`
	Capacity     uint32                 `json:"capacity"`
	Type         string                 `json:"type"`
	Location     locationDTO            `json:"location"`
	Status       string                 `json:"status"`
	Availability map[string][]windowDTO `json:"availability"`
	Equipment    []equipmentDTO         `json:"equipment"`
}

type spaceResp struct {
	ID           uint64                 `json:"id"`
	Name         string                 `json:"name"`
	Description  string                 `json:"description"`
	Capacity     uint32                 `json:"capacity"`
	Type         string                 `json:"type"`
	Location     locationDTO            `json:"location"`
	Status       string                 `json:"status"`
	Availability map[string][]windowDTO `json:"availability"`
	Equipment    []equipmentDTO         `json:"equipment"`
	CreatedAt    time.Time              `json:"created_at"`
}

// dayNames maps the JSON day keys of the availability object onto
// time.Weekday values.
var dayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func weekdayName(d time.Weekday) string {
	return strings.ToLower(d.String())
}

// parseAvailability validates the day keys and "HH:MM" window bounds of
// a request and converts them into a WeeklySchedule.
func parseAvailability(in map[string][]windowDTO) (booking.WeeklySchedule, string) {
	sched := booking.WeeklySchedule{}
	for day, wins := range in {
		wd, ok := dayNames[strings.ToLower(strings.TrimSpace(day))]
		if !ok {
			return nil, "unknown day: " + day
		}
		for _, w := range wins {
			start, err1 := time.Parse("15:04", w.Start)
			end, err2 := time.Parse("15:04", w.End)
			if err1 != nil || err2 != nil {
				return nil, "availability windows must use HH:MM times"
			}
			if !end.After(start) {
				return nil, "availability window end must be after start"
			}
			sched[wd] = append(sched[wd], booking.Window{Start: w.Start, End: w.End})
		}
	}
	return sched, ""
}

func spaceToResp(s model.Space) spaceResp {
	avail := map[string][]windowDTO{}
	for day, wins := range s.Availability {
		for _, w := range wins {
			avail[weekdayName(day)] = append(avail[weekdayName(day)], windowDTO{Start: w.Start, End: w.End})
		}
	}
	eq := make([]equipmentDTO, 0, len(s.Equipment))
	for _, e := range s.Equipment {
		eq = append(eq, equipmentDTO{Name: e.Name, Quantity: e.Quantity, Description: e.Description})
	}
	return spaceResp{
		ID:           s.ID,
		Name:         s.Name,
		Description:  s.Description,
		Capacity:     s.Capacity,
		Type:         s.Type,
		Location:     locationDTO{Building: s.Building, Floor: s.Floor},
		Status:       string(s.Status),
		Availability: avail,
		Equipment:    eq,
		CreatedAt:    s.CreatedAt,
	}
}

// bindSpace validates a create/update body and builds the model. The
// returned message is empty when the body is valid.
func bindSpace(c echo.Context) (model.Space, string) {
	var req spaceReq
	if err := c.Bind(&req); err != nil {
		return model.Space{}, "invalid body"
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return model.Space{}, "name is required"
	}
	if req.Capacity == 0 {
		return model.Space{}, "capacity must be positive"
	}
	if !model.ValidSpaceType(req.Type) {
		return model.Space{}, "invalid space type"
	}
	if strings.TrimSpace(req.Location.Building) == "" {
		return model.Space{}, "location.building is required"
	}
	status := booking.SpaceStatus(req.Status)
	if req.Status == "" {
		status = booking.SpaceAvailable
	} else if status != booking.SpaceAvailable && status != booking.SpaceMaintenance && status != booking.SpaceUnavailable {
		return model.Space{}, "invalid status"
	}
	sched, msg := parseAvailability(req.Availability)
	if msg != "" {
		return model.Space{}, msg
	}
	eq := make([]model.Equipment, 0, len(req.Equipment))
	for _, e := range req.Equipment {
		if strings.TrimSpace(e.Name) == "" {
			return model.Space{}, "equipment name is required"
		}
		if e.Quantity == 0 {
			e.Quantity = 1
		}
		eq = append(eq, model.Equipment{Name: e.Name, Quantity: e.Quantity, Description: e.Description})
	}
	return model.Space{
		Name:         req.Name,
		Description:  req.Description,
		Capacity:     req.Capacity,
		Type:         req.Type,
		Building:     strings.TrimSpace(req.Location.Building),
		Floor:        req.Location.Floor,
		Status:       status,
		Availability: sched,
		Equipment:    eq,
	}, ""
}

// CreateSpace handles POST /v1/admin/spaces.
func (h *SpaceHandler) CreateSpace(c echo.Context) error {
	s, msg := bindSpace(c)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if err := h.Spaces.Create(c.Request().Context(), &s); err != nil {
		if err == repository.ErrSpaceNameExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "space name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create space failed"})
	}
	return c.JSON(http.StatusCreated, spaceToResp(s))
}

// UpdateSpace handles PUT /v1/admin/spaces/:id. The whole definition is
// replaced, availability windows and equipment included.
func (h *SpaceHandler) UpdateSpace(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid space id"})
	}
	s, msg := bindSpace(c)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	s.ID = id
	if err := h.Spaces.Update(c.Request().Context(), &s); err != nil {
		if err == repository.ErrSpaceNameExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "space name already exists"})
		}
		return bookingError(c, err)
	}
	updated, err := h.Spaces.GetByID(c.Request().Context(), id)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, spaceToResp(updated))
}

// UpdateSpaceStatus handles PATCH /v1/admin/spaces/:id/status with a
// body of {"status": "maintenance"}.
func (h *SpaceHandler) UpdateSpaceStatus(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid space id"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := booking.SpaceStatus(body.Status)
	if status != booking.SpaceAvailable && status != booking.SpaceMaintenance && status != booking.SpaceUnavailable {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}
	if err := h.Spaces.UpdateStatus(c.Request().Context(), id, status); err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": string(status)})
}

// DeleteSpace handles DELETE /v1/admin/spaces/:id. Spaces that still
// have blocking reservations cannot be removed.
func (h *SpaceHandler) DeleteSpace(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid space id"})
	}
	if err := h.Spaces.Delete(c.Request().Context(), id); err != nil {
		return bookingError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListSpaces handles GET /v1/spaces with optional type, status,
// building, limit and offset query parameters.
func (h *SpaceHandler) ListSpaces(c echo.Context) error {
	f := repository.ListFilter{
		Type:     c.QueryParam("type"),
		Status:   c.QueryParam("status"),
		Building: c.QueryParam("building"),
	}
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			f.Limit = n
		}
	}
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			f.Offset = n
		}
	}
	spaces, err := h.Spaces.List(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list spaces failed"})
	}
	items := make([]spaceResp, 0, len(spaces))
	for _, s := range spaces {
		items = append(items, spaceToResp(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

// GetSpace handles GET /v1/spaces/:id.
func (h *SpaceHandler) GetSpace(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid space id"})
	}
	s, err := h.Spaces.GetByID(c.Request().Context(), id)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, spaceToResp(s))
}
