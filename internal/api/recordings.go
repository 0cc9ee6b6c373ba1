// ABOUTME: Recording endpoints for the onboarding backend
// ABOUTME: Multipart upload, extraction metadata polling target and deletion

package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
)

// UploadRecording transfers a captured blob to the backend, returning a
// durable reference. The multipart payload carries the binary under
// "file" and the target step index under "step_index". No retry is
// performed; the caller decides whether the user retries manually.
func (c *Client) UploadRecording(ctx context.Context, blob io.Reader, stepIndex int) (*UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", fmt.Sprintf("step-%d.webm", stepIndex+1))
	if err != nil {
		return nil, fmt.Errorf("building upload payload: %w", err)
	}
	if _, err := io.Copy(part, blob); err != nil {
		return nil, fmt.Errorf("reading recording: %w", err)
	}
	if err := mw.WriteField("step_index", strconv.Itoa(stepIndex)); err != nil {
		return nil, fmt.Errorf("building upload payload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("building upload payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/recordings/upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("uploading recording: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp, "failed to upload recording")
	}

	var result UploadResult
	if err := jsonDecode(resp.Body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RecordingMetadata fetches extraction status for an uploaded recording.
func (c *Client) RecordingMetadata(ctx context.Context, fileID string) (*RecordingMetadata, error) {
	var meta RecordingMetadata
	err := c.do(ctx, http.MethodGet, "/recordings/"+fileID+"/metadata", nil, &meta,
		"failed to fetch recording status")
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// DeleteRecording removes a recording resource. The reference may be a
// bare ID or the full URL the backend handed out at upload time.
func (c *Client) DeleteRecording(ctx context.Context, ref string) error {
	id := c.recordingID(ref)
	return c.do(ctx, http.MethodDelete, "/recordings/"+id, nil, nil, "failed to delete recording")
}

// recordingID strips the backend's recording URL prefix when present.
func (c *Client) recordingID(ref string) string {
	prefix := c.baseURL + "/recordings/"
	if strings.HasPrefix(ref, prefix) {
		return strings.TrimPrefix(ref, prefix)
	}
	return ref
}
