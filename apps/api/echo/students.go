package echoapi

import (
	"bytes"
	"encoding/json"
	"io"
	"io/ioutil"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-web/core/backend"
)

const (
	importFileField      = "file"
	templateFilename     = "students_import_template.csv"
	studentsImportPath   = "/students/import/"
	studentsTemplatePath = "/students/import/template/"
)

func registerStudentFiles(g *echo.Group, p *proxy) {
	g.POST("/students/import", p.importStudents)
	g.GET("/students/import/template", p.downloadStudentsTemplate)
}

// importStudents forwards the uploaded CSV to the backend and answers with the backend's status as is.
func (p *proxy) importStudents(ctx echo.Context) error {
	form, err := ctx.MultipartForm()
	if err != nil || len(form.File[importFileField]) == 0 {
		return errMissingFile
	}
	fh := form.File[importFileField][0]

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, vals := range form.Value {
		for _, val := range vals {
			if err = mw.WriteField(name, val); err != nil {
				return errors.Wrap(err, "writing form field")
			}
		}
	}
	src, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer src.Close()
	dst, err := mw.CreateFormFile(importFileField, fh.Filename)
	if err != nil {
		return errors.Wrap(err, "creating form file")
	}
	if _, err = io.Copy(dst, src); err != nil {
		return errors.Wrap(err, "copying uploaded file")
	}
	if err = mw.Close(); err != nil {
		return errors.Wrap(err, "closing multipart writer")
	}

	resp, err := p.client.Transfer(ctx.Request().Context(), contextSession(ctx), backend.TransferRequest{
		Method:      http.MethodPost,
		Path:        studentsImportPath,
		Body:        &body,
		ContentType: mw.FormDataContentType(),
		Accept:      backend.MIMEApplicationJSON,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "reading import response")
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return ctx.JSON(resp.StatusCode, echo.Map{"error": backend.MessageFromBody(raw, resp.StatusCode)})
	}
	raw = bytes.TrimSpace(raw)
	if !json.Valid(raw) {
		raw = []byte("{}")
	}
	return ctx.JSONBlob(resp.StatusCode, raw)
}

// downloadStudentsTemplate streams the backend's CSV template as an attachment.
func (p *proxy) downloadStudentsTemplate(ctx echo.Context) error {
	resp, err := p.client.Transfer(ctx.Request().Context(), contextSession(ctx), backend.TransferRequest{
		Path:   studentsTemplatePath,
		Accept: "text/csv",
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := ioutil.ReadAll(resp.Body)
		return ctx.JSON(resp.StatusCode, echo.Map{"error": backend.MessageFromBody(raw, resp.StatusCode)})
	}

	contentType := resp.Header.Get(echo.HeaderContentType)
	if contentType == "" || contentType == backend.MIMEApplicationJSON {
		contentType = "text/csv; charset=utf-8"
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+templateFilename+`"`)
	return ctx.Stream(http.StatusOK, contentType, resp.Body)
}
