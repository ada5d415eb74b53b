package service

import (
	"errors"

	"DocPilot/internal/modules/rag/domain/document"
	"DocPilot/pkg/xerr"
)

// toCodeError 领域错误 → 对外错误码；未识别的错误原样透出信息（内部工具）
func toCodeError(err error) error {
	if err == nil {
		return nil
	}
	var ce *xerr.CodeError
	if errors.As(err, &ce) {
		return ce
	}

	var partial *document.PartialIngestionError
	if errors.As(err, &partial) {
		return xerr.New(xerr.PartialIngestion, partial.Error()).
			WithExtra("document_id", partial.DocumentID).
			WithExtra("stored", partial.Stored).
			WithExtra("total", partial.Total)
	}

	switch {
	case errors.Is(err, document.ErrUnsupportedFormat),
		errors.Is(err, document.ErrExtractionFailed),
		errors.Is(err, document.ErrEmptyDocument),
		errors.Is(err, document.ErrEmptyQuestion):
		return xerr.New(xerr.BadRequest, err.Error())
	}

	var pe *document.ProviderError
	if errors.As(err, &pe) {
		return xerr.New(xerr.InternalServerError, pe.Error())
	}
	return xerr.New(xerr.InternalServerError, err.Error())
}
