package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// unsigned uploadを使う
type CloudinaryHost struct {
	baseURL   string
	cloudName string
	preset    string
	client    *http.Client
}

func NewCloudinaryHost(baseURL, cloudName, preset string) *CloudinaryHost {
	return &CloudinaryHost{
		baseURL:   strings.TrimRight(baseURL, "/"),
		cloudName: cloudName,
		preset:    preset,
		client:    &http.Client{Timeout: 60 * time.Second},
	}
}

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (h *CloudinaryHost) Upload(ctx context.Context, f File) (Result, error) {
	if len(f.Data) == 0 {
		return Result{}, ErrEmptyFile
	}
	if h.cloudName == "" || h.preset == "" {
		return Result{}, fmt.Errorf("cloudinary is not configured")
	}

	resource := "image"
	if f.IsVideo() {
		resource = "video"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", f.Name)
	if err != nil {
		return Result{}, err
	}
	if _, err := part.Write(f.Data); err != nil {
		return Result{}, err
	}
	if err := mw.WriteField("upload_preset", h.preset); err != nil {
		return Result{}, err
	}
	if err := mw.Close(); err != nil {
		return Result{}, err
	}

	url := fmt.Sprintf("%s/v1_1/%s/%s/upload", h.baseURL, h.cloudName, resource)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := h.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("cloudinary upload failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, err
	}

	var out cloudinaryResponse
	_ = json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if out.Error != nil && out.Error.Message != "" {
			return Result{}, fmt.Errorf("cloudinary upload failed: %s", out.Error.Message)
		}
		return Result{}, fmt.Errorf("cloudinary upload failed: status %d", resp.StatusCode)
	}
	if out.SecureURL == "" {
		return Result{}, fmt.Errorf("cloudinary upload failed: no url in response")
	}
	return Result{URL: out.SecureURL}, nil
}
