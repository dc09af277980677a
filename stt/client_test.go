package stt

import (
	"errors"
	"testing"

	"github.com/mavoice/mavoice/internal/mvtypes"
)

func TestIsRetryableOnlyForNetworkErrors(t *testing.T) {
	networkErr := mvtypes.NewError(mvtypes.NetworkError, "stt", errors.New("dial tcp: timeout"))
	if !isRetryable(networkErr) {
		t.Fatal("expected network error to be retryable")
	}

	authErr := mvtypes.NewError(mvtypes.AuthError, "stt", errors.New("401 unauthorized"))
	if isRetryable(authErr) {
		t.Fatal("expected auth error to not be retryable")
	}

	if isRetryable(errors.New("plain error")) {
		t.Fatal("expected non-AppError to not be retryable")
	}
}
