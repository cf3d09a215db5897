package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/amishk599/coldmail/internal/model"
	"github.com/amishk599/coldmail/internal/progress"
)

// GenerateEmailPath is the service route for email generation.
const GenerateEmailPath = "/generate-email"

// Multipart field names expected by the service.
const (
	resumeField  = "resume"
	jobDescField = "job_desc"
)

// Ensure Client implements model.EmailGenerator.
var _ model.EmailGenerator = (*Client)(nil)

// Client talks to the email generation service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	reporter   progress.Reporter
	logger     *slog.Logger
}

// NewClient creates a client for the service at baseURL.
// reporter may be nil.
func NewClient(baseURL string, httpClient *http.Client, reporter progress.Reporter, logger *slog.Logger) *Client {
	if reporter == nil {
		reporter = progress.Silent{}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		reporter:   reporter,
		logger:     logger,
	}
}

// Endpoint returns the full generate-email URL.
func (c *Client) Endpoint() string {
	return c.baseURL + GenerateEmailPath
}

// successResponse is the body of a 2xx reply.
type successResponse struct {
	Email *string `json:"email"`
}

// GenerateEmail uploads the résumé and job description and returns the generated email.
func (c *Client) GenerateEmail(ctx context.Context, resume model.Resume, jobDescription string) (string, error) {
	body, contentType, err := encodeForm(resume, jobDescription)
	if err != nil {
		return "", fmt.Errorf("encode generate-email form: %w", err)
	}

	payload := body.Bytes()
	total := int64(len(payload))
	// Each (re)send of the body restarts the bar, including the replay
	// net/http performs when following a 307 or 308.
	newBody := func() io.ReadCloser {
		c.reporter.Begin(resume.Name, total)
		return io.NopCloser(progress.Body(bytes.NewReader(payload), c.reporter))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), newBody())
	if err != nil {
		return "", &model.TransportError{Err: fmt.Errorf("create generate-email request: %w", err)}
	}
	req.ContentLength = total
	req.GetBody = func() (io.ReadCloser, error) {
		return newBody(), nil
	}
	req.Header.Set("Content-Type", contentType)

	c.logger.Debug("sending generate-email request",
		"url", req.URL.String(),
		"resume", resume.Name,
		"resume_bytes", resume.Size(),
		"job_desc_chars", len(jobDescription),
	)

	resp, err := c.httpClient.Do(req)
	c.reporter.Done()
	if err != nil {
		return "", &model.TransportError{Err: fmt.Errorf("generate-email request: %w", err)}
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &model.TransportError{Err: fmt.Errorf("read generate-email response: %w", err)}
	}

	c.logger.Debug("generate-email response", "status", resp.StatusCode, "bytes", len(respBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &model.ServiceError{
			StatusCode: resp.StatusCode,
			Detail:     parseDetail(respBytes),
		}
	}

	var ok successResponse
	if err := json.Unmarshal(respBytes, &ok); err != nil {
		return "", &model.MalformedResponseError{StatusCode: resp.StatusCode, Err: err}
	}
	if ok.Email == nil || *ok.Email == "" {
		return "", &model.MalformedResponseError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("missing email field"),
		}
	}
	return *ok.Email, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeForm builds the two-part multipart body.
func encodeForm(resume model.Resume, jobDescription string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(resumeField), quoteEscaper.Replace(resume.Name)))
	mediaType := resume.MediaType
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	h.Set("Content-Type", mediaType)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(resume.Data); err != nil {
		return nil, "", err
	}

	if err := w.WriteField(jobDescField, jobDescription); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// parseDetail pulls a string detail out of an error body, or returns "".
// It accepts FastAPI's {"detail": ...} and the nested {"error": {"detail": ...}}.
// Non-string details such as validation arrays are ignored.
func parseDetail(body []byte) string {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return ""
	}
	if d := rawString(top["detail"]); d != "" {
		return d
	}
	var nested map[string]json.RawMessage
	if err := json.Unmarshal(top["error"], &nested); err != nil {
		return ""
	}
	return rawString(nested["detail"])
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
