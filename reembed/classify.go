package reembed

import (
	"errors"

	"github.com/casalio/revec/core"
	"github.com/casalio/revec/embedding"
)

// ClassifyError maps an embedding failure onto the stored status: failed
// for outcomes a later attempt might fix, failed_permanently for the rest.
// Errors this package cannot identify count as transient, so a flaky
// network never permanently buries a listing.
func ClassifyError(err error) core.EmbeddingStatus {
	var svcErr *embedding.Error
	if errors.As(err, &svcErr) {
		if svcErr.Temporary() {
			return core.StatusFailed
		}
		return core.StatusFatal
	}

	if errors.Is(err, embedding.ErrEmptyEmbedding) || errors.Is(err, embedding.ErrResultCountMismatch) {
		return core.StatusFatal
	}

	return core.StatusFailed
}

// ClassifyResult maps one embedding outcome onto the stored status. A
// wantDims of zero disables the dimension check.
func ClassifyResult(res embedding.Result, wantDims int) core.EmbeddingStatus {
	if res.Err != nil {
		return ClassifyError(res.Err)
	}
	if len(res.Vector) == 0 {
		return core.StatusFatal
	}
	if wantDims > 0 && len(res.Vector) != wantDims {
		return core.StatusFatal
	}
	return core.StatusSuccess
}
