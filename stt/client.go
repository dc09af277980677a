// Package stt implements the one-shot speech-to-text upload path used by
// push-to-talk dictation.
package stt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/mavoice/mavoice/audio"
	"github.com/mavoice/mavoice/internal/mvtypes"
)

// UploadTimeout bounds a single transcription attempt.
const UploadTimeout = 20 * time.Second

// Client transcribes a WavBuffer via the configured STT provider.
type Client struct {
	sdk *openai.Client
}

// NewClient builds a Client. baseURL may be empty to use the provider's
// default endpoint.
func NewClient(apiKey, baseURL string) *Client {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	sdk := openai.NewClient(opts...)
	return &Client{sdk: &sdk}
}

// Transcribe uploads wav for transcription, retrying exactly once on a
// network-level failure or non-4xx API error (never on a 4xx response).
func (c *Client) Transcribe(ctx context.Context, wav mvtypes.WavBuffer, cfg mvtypes.Config) (string, error) {
	data := audio.EncodeWAV(wav)

	text, err := c.attempt(ctx, data, cfg)
	if err == nil {
		return text, nil
	}
	if !isRetryable(err) {
		return "", err
	}

	text, err = c.attempt(ctx, data, cfg)
	if err != nil {
		return "", fmt.Errorf("stt: transcribe after retry: %w", err)
	}
	return text, nil
}

func (c *Client) attempt(ctx context.Context, wavData []byte, cfg mvtypes.Config) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, UploadTimeout)
	defer cancel()

	model := cfg.SttModel
	if model == "" {
		model = "whisper-1"
	}

	params := openai.AudioTranscriptionNewParams{
		File:  bytes.NewReader(wavData),
		Model: openai.AudioModel(model),
	}
	if cfg.Language != "" && cfg.Language != "auto" {
		params.Language = openai.String(cfg.Language)
	}
	if cfg.Dictionary != "" {
		params.Prompt = openai.String(cfg.Dictionary)
	}
	if cfg.Temperature != 0 {
		params.Temperature = openai.Float(cfg.Temperature)
	}

	resp, err := c.sdk.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		kind := mvtypes.NetworkError
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			kind = mvtypes.AuthError
		}
		return "", mvtypes.NewError(kind, "stt", err)
	}
	return resp.Text, nil
}

// isRetryable allows exactly one retry for transport-level failures, never
// for a 4xx response from the API.
func isRetryable(err error) bool {
	var appErr *mvtypes.AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == mvtypes.NetworkError
	}
	return false
}
