package proxy

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"floorplan/internal/common/middleware"
	"floorplan/internal/floorplan/models"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"
)

// ============================================================
// Proxy Handler
// ============================================================

// forwardHeaders заголовки запроса, которые передаются апстриму.
var forwardHeaders = []string{"Accept", middleware.OrgHeader}

type Proxy struct {
	upstream string
	client   *http.Client
}

func New(upstream string, timeout time.Duration) *Proxy {
	return &Proxy{
		upstream: strings.TrimRight(upstream, "/"),
		client:   &http.Client{Timeout: timeout},
	}
}

// Handler проксирует запрос на апстрим с тем же путем и query.
func (p *Proxy) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		return p.Forward(c, p.upstream+c.OriginalURL())
	}
}

// Forward проксирует запрос по переданному URL с учетом multipart/raw.
func (p *Proxy) Forward(c fiber.Ctx, targetURL string) error {
	log.Debugf("[PROXY] %s %s -> %s (%d bytes)", c.Method(), c.Path(), targetURL, len(c.Body()))

	contentType := c.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		return p.sendRaw(c, targetURL, contentType)
	}
	return p.sendMultipart(c, targetURL)
}

func (p *Proxy) sendRaw(c fiber.Ctx, targetURL, contentType string) error {
	var body io.Reader
	if len(c.Body()) > 0 {
		body = bytes.NewReader(c.Body())
	}
	req, err := http.NewRequestWithContext(c.Context(), c.Method(), targetURL, body)
	if err != nil {
		log.Errorf("[PROXY] build request error: %v", err)
		return fail(c, http.StatusInternalServerError, "proxy failed")
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return p.do(c, req)
}

func (p *Proxy) sendMultipart(c fiber.Ctx, targetURL string) error {
	form, err := c.MultipartForm()
	if err != nil {
		log.Warnf("[PROXY] Failed to parse multipart: %v", err)
		return fail(c, http.StatusBadRequest, "invalid multipart data")
	}

	body := &bytes.Buffer{}
	contentType, err := writeForm(body, form)
	if err != nil {
		log.Errorf("[PROXY] rebuild multipart error: %v", err)
		return fail(c, http.StatusInternalServerError, "proxy failed")
	}

	req, err := http.NewRequestWithContext(c.Context(), c.Method(), targetURL, bytes.NewReader(body.Bytes()))
	if err != nil {
		log.Errorf("[PROXY] build multipart request error: %v", err)
		return fail(c, http.StatusInternalServerError, "proxy failed")
	}

	req.Header.Set("Content-Type", contentType)
	return p.do(c, req)
}

// writeForm пересобирает multipart форму в w и возвращает Content-Type с boundary.
// Любая ошибка чтения файла или записи прерывает пересылку, чтобы апстрим не получил обрезанное тело.
func writeForm(w io.Writer, form *multipart.Form) (string, error) {
	writer := multipart.NewWriter(w)

	for key, files := range form.File {
		for _, fileHeader := range files {
			if err := writeFile(writer, key, fileHeader); err != nil {
				return "", fmt.Errorf("file %s: %w", fileHeader.Filename, err)
			}
		}
	}

	for key, values := range form.Value {
		for _, value := range values {
			if err := writer.WriteField(key, value); err != nil {
				return "", fmt.Errorf("field %s: %w", key, err)
			}
		}
	}

	if err := writer.Close(); err != nil {
		return "", err
	}
	return writer.FormDataContentType(), nil
}

func writeFile(writer *multipart.Writer, key string, fileHeader *multipart.FileHeader) error {
	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, key, fileHeader.Filename))
	h.Set("Content-Type", fileHeader.Header.Get("Content-Type"))

	part, err := writer.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}

func (p *Proxy) do(c fiber.Ctx, req *http.Request) error {
	for _, key := range forwardHeaders {
		if v := c.Get(key); v != "" {
			req.Header.Set(key, v)
		}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		log.Errorf("[PROXY] Error: %v", err)
		return fail(c, http.StatusBadGateway, "failed to reach upstream service")
	}
	defer resp.Body.Close()

	return copyResponse(c, resp)
}

func copyResponse(c fiber.Ctx, resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Errorf("[PROXY] Read response error: %v", err)
		return fail(c, http.StatusBadGateway, "invalid upstream response")
	}

	for key, values := range resp.Header {
		if len(values) > 0 {
			c.Set(key, values[0])
		}
	}

	c.Status(resp.StatusCode)
	return c.Send(data)
}

func fail(c fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(models.Envelope{Message: msg})
}
