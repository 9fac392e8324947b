package kuro

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "connection refused", err: errors.New("dial tcp: connection refused"), want: true},
		{name: "reset", err: fmt.Errorf("request: %w", errors.New("connection reset by peer")), want: true},
		{name: "timeout pattern", err: errors.New("read tcp: i/o timeout"), want: true},
		{name: "api error", err: &APIError{Code: 500}, want: false},
		{name: "challenge", err: &ChallengeRequiredError{Code: retWebChallenge}, want: false},
		{name: "region mismatch", err: &RegionMismatchError{Op: "GameLogin", Want: RegionOverseas, Have: RegionChinese}, want: false},
		{name: "unrelated", err: errors.New("invalid argument"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsRetryableError(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	require.Equal(t, "kuro: api error 500: boom", (&APIError{Code: 500, Message: "boom"}).Error())
	require.Equal(t, "kuro: api error 500", (&APIError{Code: 500}).Error())

	re := &RegionMismatchError{Op: "GetGameToken", Want: RegionOverseas, Have: RegionChinese}
	require.Contains(t, re.Error(), "GetGameToken")
	require.Contains(t, re.Error(), `"os"`)
	require.Contains(t, re.Error(), `"cn"`)
}

func TestMalformedResponseUnwrap(t *testing.T) {
	inner := errors.New("unexpected end of JSON input")
	err := &MalformedResponseError{Reason: "decoding envelope", Err: inner}
	require.ErrorIs(t, err, inner)

	bare := &MalformedResponseError{Reason: "response carries no result code"}
	require.Nil(t, errors.Unwrap(bare))
}

func TestWrappedAPIErrorDetection(t *testing.T) {
	err := fmt.Errorf("logging in: %w", &APIError{Code: 242})
	require.True(t, IsAPIError(err))
	require.False(t, IsChallengeRequired(err))
}
