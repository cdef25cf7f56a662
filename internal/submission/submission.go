// Package submission posts a selected video to the commentary service and
// returns the generated artifact.
package submission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"

	"sidelines/internal/intake"
	"sidelines/internal/logging"
	"sidelines/internal/services"
)

// Multipart field names understood by the service.
const (
	FieldVideo         = "video"
	FieldLanguage      = "language"
	FieldClientID      = "client_id"
	FieldTrickshotName = "trickshot_name"
)

const errorBodyLimit = 512

// Params are the text fields sent alongside the video.
type Params struct {
	ClientID      string
	Language      string
	TrickshotName string
}

// Result is the fully read success payload.
type Result struct {
	Body        []byte
	ContentType string
	Filename    string
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	status := strings.TrimSpace(e.Status)
	if status == "" {
		status = fmt.Sprintf("%d %s", e.Code, http.StatusText(e.Code))
	}
	return "upload failed: " + status
}

// Is lets callers match StatusError against services.ErrSubmission.
func (e *StatusError) Is(target error) bool {
	return target == services.ErrSubmission
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout bounds the whole request including the upload. Zero disables it.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client issues submission requests to a single endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// NewClient constructs a client posting to endpoint.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:   strings.TrimSpace(endpoint),
		httpClient: http.DefaultClient,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.logger = logging.NewComponentLogger(c.logger, "submission")
	return c
}

// Endpoint returns the URL requests are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Submit uploads file with params and waits for the service to finish.
// The video is streamed; the response body is read in full before returning.
func (c *Client) Submit(ctx context.Context, file *intake.File, params Params) (*Result, error) {
	if file == nil {
		return nil, services.Wrap(services.ErrValidation, "submission", "submit", "no file selected", nil)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	video, err := file.Open()
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "submission", "open video", file.Name, err)
	}
	defer video.Close()

	body, contentType := encodeMultipart(video, file, params)
	defer body.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, "submission", "build request", c.endpoint, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "video/*, */*")

	logger := logging.WithContext(services.WithCorrelationID(ctx, params.ClientID), c.logger)
	started := time.Now()
	logger.Info("submitting video",
		logging.String("file", file.Name),
		logging.Int64("bytes", file.Size),
		logging.String("language", params.Language),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, "post", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		statusErr := &StatusError{
			Code:   resp.StatusCode,
			Status: resp.Status,
			Body:   strings.TrimSpace(string(excerpt)),
		}
		logger.Warn("submission rejected",
			logging.Int("status", resp.StatusCode),
			logging.String("body", statusErr.Body),
		)
		return nil, statusErr
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(ctx, "read response", err)
	}
	result := &Result{
		Body:        payload,
		ContentType: resp.Header.Get("Content-Type"),
		Filename:    dispositionFilename(resp.Header.Get("Content-Disposition")),
	}
	logger.Info("submission completed",
		logging.Int("bytes", len(payload)),
		logging.String("content_type", result.ContentType),
		logging.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

func (c *Client) transportError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(ctxErr, context.Canceled) {
		return services.Wrap(services.ErrCanceled, "submission", op, c.endpoint, ctxErr)
	}
	return services.Wrap(services.ErrTransport, "submission", op, c.endpoint, err)
}

// encodeMultipart streams the form through a pipe so large videos are never
// buffered in memory.
func encodeMultipart(video io.Reader, file *intake.File, params Params) (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeForm(mw, video, file, params))
	}()
	return pr, mw.FormDataContentType()
}

func writeForm(mw *multipart.Writer, video io.Reader, file *intake.File, params Params) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     FieldVideo,
		"filename": file.Name,
	}))
	header.Set("Content-Type", file.Type)
	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, video); err != nil {
		return fmt.Errorf("stream video: %w", err)
	}
	if err := mw.WriteField(FieldLanguage, params.Language); err != nil {
		return err
	}
	if err := mw.WriteField(FieldClientID, params.ClientID); err != nil {
		return err
	}
	if name := strings.TrimSpace(params.TrickshotName); name != "" {
		if err := mw.WriteField(FieldTrickshotName, name); err != nil {
			return err
		}
	}
	return mw.Close()
}

func dispositionFilename(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(value)
	if err != nil {
		return ""
	}
	name := filepath.Base(strings.TrimSpace(params["filename"]))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
