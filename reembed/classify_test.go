package reembed

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/casalio/revec/core"
	"github.com/casalio/revec/embedding"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want core.EmbeddingStatus
	}{
		{
			name: "request timeout",
			err:  &embedding.Error{StatusCode: http.StatusRequestTimeout},
			want: core.StatusFailed,
		},
		{
			name: "throttled",
			err:  &embedding.Error{StatusCode: http.StatusTooManyRequests},
			want: core.StatusFailed,
		},
		{
			name: "server error",
			err:  &embedding.Error{StatusCode: http.StatusInternalServerError},
			want: core.StatusFailed,
		},
		{
			name: "service unavailable",
			err:  &embedding.Error{StatusCode: http.StatusServiceUnavailable},
			want: core.StatusFailed,
		},
		{
			name: "bad request",
			err:  &embedding.Error{StatusCode: http.StatusBadRequest},
			want: core.StatusFatal,
		},
		{
			name: "not found",
			err:  &embedding.Error{StatusCode: http.StatusNotFound},
			want: core.StatusFatal,
		},
		{
			name: "payload too large",
			err:  &embedding.Error{StatusCode: http.StatusRequestEntityTooLarge},
			want: core.StatusFatal,
		},
		{
			name: "wrapped service error",
			err:  fmt.Errorf("batch: %w", &embedding.Error{StatusCode: http.StatusBadGateway}),
			want: core.StatusFailed,
		},
		{
			name: "empty embedding",
			err:  embedding.ErrEmptyEmbedding,
			want: core.StatusFatal,
		},
		{
			name: "count mismatch",
			err:  fmt.Errorf("%w: expected 8, got 3", embedding.ErrResultCountMismatch),
			want: core.StatusFatal,
		},
		{
			name: "transport failure",
			err:  errors.New("connection refused"),
			want: core.StatusFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}
}

func TestClassifyResult(t *testing.T) {
	tests := []struct {
		name     string
		res      embedding.Result
		wantDims int
		want     core.EmbeddingStatus
	}{
		{
			name:     "valid vector",
			res:      embedding.Result{Vector: []float32{1, 2, 3}},
			wantDims: 3,
			want:     core.StatusSuccess,
		},
		{
			name:     "dimension check disabled",
			res:      embedding.Result{Vector: []float32{1, 2, 3}},
			wantDims: 0,
			want:     core.StatusSuccess,
		},
		{
			name:     "wrong dimensionality",
			res:      embedding.Result{Vector: []float32{1, 2, 3}},
			wantDims: 1024,
			want:     core.StatusFatal,
		},
		{
			name:     "empty vector",
			res:      embedding.Result{Vector: []float32{}},
			wantDims: 0,
			want:     core.StatusFatal,
		},
		{
			name:     "per-text transient error",
			res:      embedding.Result{Err: &embedding.Error{StatusCode: http.StatusServiceUnavailable}},
			wantDims: 3,
			want:     core.StatusFailed,
		},
		{
			name:     "per-text empty embedding",
			res:      embedding.Result{Err: embedding.ErrEmptyEmbedding},
			wantDims: 3,
			want:     core.StatusFatal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyResult(tt.res, tt.wantDims))
		})
	}
}
