package patient

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/careward/careward/internal/platform/auth"
	"github.com/careward/careward/internal/platform/blobstore"
	"github.com/careward/careward/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patients", h.Register)
	api.GET("/patients", h.List)
	api.GET("/patients/:patientId", h.Get)
	api.DELETE("/patients/:patientId", h.Deactivate)

	api.POST("/patients/:patientId/visits", h.AddVisit)
	api.GET("/patients/:patientId/visits", h.ListVisits)

	api.POST("/patients/:patientId/documents", h.UploadDocuments)
	api.GET("/patients/:patientId/documents", h.ListDocuments)
	api.GET("/patients/:patientId/documents/:docId/download", h.DownloadDocument)
	api.PATCH("/patients/:patientId/documents/:docId", h.RenameDocument)
	api.DELETE("/patients/:patientId/documents/:docId", h.DeleteDocument)

	api.POST("/patients/:patientId/profile", h.UploadProfile)
	api.GET("/patients/:patientId/photo", h.GetPhoto)
	api.DELETE("/patients/:patientId/photo", h.DeletePhoto)
	api.GET("/patients/:patientId/idproof", h.GetIDProof)
	api.DELETE("/patients/:patientId/idproof", h.DeleteIDProof)
}

func (h *Handler) Register(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Register(c.Request().Context(), &p); err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) Get(c echo.Context) error {
	p, err := h.svc.Get(c.Request().Context(), c.Param("patientId"))
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	activeOnly := c.QueryParam("active") != "false"

	patients, total, err := h.svc.List(c.Request().Context(), activeOnly, pg.Limit, pg.Offset)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, total, pg.Limit, pg.Offset))
}

func (h *Handler) Deactivate(c echo.Context) error {
	if err := h.svc.Deactivate(c.Request().Context(), c.Param("patientId")); err != nil {
		return domainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) AddVisit(c echo.Context) error {
	var v Visit
	if err := c.Bind(&v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	recordedBy := ""
	if nurse := auth.NurseFromContext(c); nurse != nil {
		recordedBy = nurse.NurseID
	}

	visit, err := h.svc.AddVisit(c.Request().Context(), c.Param("patientId"), v, recordedBy)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, visit)
}

func (h *Handler) ListVisits(c echo.Context) error {
	visits, err := h.svc.ListVisits(c.Request().Context(), c.Param("patientId"))
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, visits)
}

func (h *Handler) UploadDocuments(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart form required")
	}
	files := form.File["documents"]
	if len(files) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no documents in form")
	}

	uploads, closers, err := openUploads(files)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer closers()

	uploadedBy := ""
	if nurse := auth.NurseFromContext(c); nurse != nil {
		uploadedBy = nurse.NurseID
	}

	docs, err := h.svc.UploadDocuments(c.Request().Context(), c.Param("patientId"), uploads, uploadedBy)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, docs)
}

func openUploads(files []*multipart.FileHeader) ([]Upload, func(), error) {
	var uploads []Upload
	var opened []multipart.File
	closers := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			closers()
			return nil, func() {}, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		opened = append(opened, f)
		uploads = append(uploads, Upload{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Content:     f,
		})
	}
	return uploads, closers, nil
}

func (h *Handler) ListDocuments(c echo.Context) error {
	docs, err := h.svc.ListDocuments(c.Request().Context(), c.Param("patientId"))
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, docs)
}

func (h *Handler) DownloadDocument(c echo.Context) error {
	doc, rc, err := h.svc.OpenDocument(c.Request().Context(), c.Param("patientId"), c.Param("docId"))
	if err != nil {
		return domainError(err)
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.Name))
	return c.Stream(http.StatusOK, doc.ContentType, rc)
}

func (h *Handler) RenameDocument(c echo.Context) error {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.RenameDocument(c.Request().Context(), c.Param("patientId"), c.Param("docId"), body.Name); err != nil {
		return domainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DeleteDocument(c echo.Context) error {
	if err := h.svc.DeleteDocument(c.Request().Context(), c.Param("patientId"), c.Param("docId")); err != nil {
		return domainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadProfile accepts "photo" and/or "idProof" form files in one request.
func (h *Handler) UploadProfile(c echo.Context) error {
	patientID := c.Param("patientId")
	result := map[string]*Attachment{}
	uploaded := false

	if fh, err := c.FormFile("photo"); err == nil {
		att, err := h.uploadOne(c, patientID, fh, h.svc.UploadPhoto)
		if err != nil {
			return err
		}
		result["photo"] = att
		uploaded = true
	}
	if fh, err := c.FormFile("idProof"); err == nil {
		att, err := h.uploadOne(c, patientID, fh, h.svc.UploadIDProof)
		if err != nil {
			return err
		}
		result["idProof"] = att
		uploaded = true
	}
	if !uploaded {
		return echo.NewHTTPError(http.StatusBadRequest, "photo or idProof file required")
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) uploadOne(
	c echo.Context,
	patientID string,
	fh *multipart.FileHeader,
	store func(ctx context.Context, id string, f Upload) (*Attachment, error),
) (*Attachment, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer f.Close()

	att, err := store(c.Request().Context(), patientID, Upload{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Content:     f,
	})
	if err != nil {
		return nil, domainError(err)
	}
	return att, nil
}

func (h *Handler) GetPhoto(c echo.Context) error {
	att, rc, err := h.svc.OpenPhoto(c.Request().Context(), c.Param("patientId"))
	if err != nil {
		return domainError(err)
	}
	defer rc.Close()
	return c.Stream(http.StatusOK, att.ContentType, rc)
}

func (h *Handler) GetIDProof(c echo.Context) error {
	att, rc, err := h.svc.OpenIDProof(c.Request().Context(), c.Param("patientId"))
	if err != nil {
		return domainError(err)
	}
	defer rc.Close()
	return c.Stream(http.StatusOK, att.ContentType, rc)
}

func (h *Handler) DeletePhoto(c echo.Context) error {
	if err := h.svc.DeletePhoto(c.Request().Context(), c.Param("patientId")); err != nil {
		return domainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DeleteIDProof(c echo.Context) error {
	if err := h.svc.DeleteIDProof(c.Request().Context(), c.Param("patientId")); err != nil {
		return domainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// domainError maps service errors onto HTTP status codes.
func domainError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, blobstore.ErrInvalidHandle):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, blobstore.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicateID),
		errors.Is(err, blobstore.ErrWriteFailed),
		errors.Is(err, blobstore.ErrReadFailed):
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
