package submission_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sidelines/internal/intake"
	"sidelines/internal/services"
	"sidelines/internal/submission"
)

type capturedForm struct {
	fields      map[string][]string
	video       string
	filename    string
	contentType string
}

func selectVideo(t *testing.T, content string) *intake.File {
	t.Helper()
	file, err := intake.New().Select(intake.FromBytes("trick.mp4", "video/mp4", []byte(content)))
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	return file
}

func captureServer(t *testing.T, captured *capturedForm, respond http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		captured.fields = r.MultipartForm.Value
		if files := r.MultipartForm.File[submission.FieldVideo]; len(files) == 1 {
			captured.filename = files[0].Filename
			captured.contentType = files[0].Header.Get("Content-Type")
			f, err := files[0].Open()
			if err == nil {
				data, _ := io.ReadAll(f)
				f.Close()
				captured.video = string(data)
			}
		}
		respond(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSubmitSendsMultipartAndReturnsPayload(t *testing.T) {
	var captured capturedForm
	srv := captureServer(t, &captured, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Content-Disposition", `attachment; filename="commentated_trick.mp4"`)
		_, _ = w.Write([]byte("rendered"))
	})

	client := submission.NewClient(srv.URL + "/generate-commentary")
	result, err := client.Submit(context.Background(), selectVideo(t, "raw-bytes"), submission.Params{
		ClientID:      "id-1",
		Language:      "fr",
		TrickshotName: "  Backflip  ",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if string(result.Body) != "rendered" || result.ContentType != "video/mp4" || result.Filename != "commentated_trick.mp4" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if captured.video != "raw-bytes" || captured.filename != "trick.mp4" || captured.contentType != "video/mp4" {
		t.Fatalf("unexpected video part: %+v", captured)
	}
	want := map[string]string{
		submission.FieldLanguage:      "fr",
		submission.FieldClientID:      "id-1",
		submission.FieldTrickshotName: "Backflip",
	}
	for key, value := range want {
		if got := captured.fields[key]; len(got) != 1 || got[0] != value {
			t.Fatalf("field %s = %v, want %q", key, got, value)
		}
	}
}

func TestSubmitOmitsBlankTrickshotName(t *testing.T) {
	var captured capturedForm
	srv := captureServer(t, &captured, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	_, err := submission.NewClient(srv.URL).Submit(context.Background(), selectVideo(t, "x"), submission.Params{
		ClientID:      "id-2",
		Language:      "en",
		TrickshotName: "   ",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, ok := captured.fields[submission.FieldTrickshotName]; ok {
		t.Fatalf("expected trickshot_name to be omitted, got %v", captured.fields)
	}
}

func TestSubmitReportsStatusError(t *testing.T) {
	var captured capturedForm
	srv := captureServer(t, &captured, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "pipeline exploded", http.StatusInternalServerError)
	})
	_, err := submission.NewClient(srv.URL).Submit(context.Background(), selectVideo(t, "x"), submission.Params{ClientID: "id", Language: "en"})
	var statusErr *submission.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusInternalServerError || statusErr.Status != "500 Internal Server Error" {
		t.Fatalf("unexpected status: %+v", statusErr)
	}
	if statusErr.Body != "pipeline exploded" {
		t.Fatalf("unexpected body excerpt %q", statusErr.Body)
	}
	if !errors.Is(err, services.ErrSubmission) || services.Classify(err) != services.KindSubmission {
		t.Fatalf("expected submission classification, got %v", err)
	}
	if !strings.Contains(err.Error(), "Internal Server Error") {
		t.Fatalf("expected status description in message, got %q", err.Error())
	}
}

func TestSubmitReportsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	_, err := submission.NewClient(endpoint).Submit(context.Background(), selectVideo(t, "x"), submission.Params{ClientID: "id"})
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestSubmitCanceled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	_, err := submission.NewClient(srv.URL).Submit(ctx, selectVideo(t, "x"), submission.Params{ClientID: "id"})
	if services.Classify(err) != services.KindCanceled {
		t.Fatalf("expected canceled, got %v", err)
	}
}

func TestSubmitRequiresFile(t *testing.T) {
	_, err := submission.NewClient("http://127.0.0.1:1").Submit(context.Background(), nil, submission.Params{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStatusErrorFallsBackToCodeText(t *testing.T) {
	err := &submission.StatusError{Code: http.StatusBadGateway}
	if err.Error() != "upload failed: 502 Bad Gateway" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
