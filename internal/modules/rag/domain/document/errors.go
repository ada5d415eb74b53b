package document

import (
	"errors"
	"fmt"
	"strings"
)

// 客户端错误（4xx）
var (
	ErrUnsupportedFormat = errors.New("unsupported file type")
	ErrExtractionFailed  = errors.New("could not extract text from file")
	ErrEmptyDocument     = errors.New("no content to process")
	ErrEmptyQuestion     = errors.New("message is required")
)

// ProviderError embedding / 向量库 / 生成模型调用失败（5xx，不重试）
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func NewProviderError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Op: op, Err: err}
}

// BatchFailure 一个写入批次的失败信息；Attempted=false 表示前序批次失败后未发起
type BatchFailure struct {
	Index     int
	ChunkIDs  []string
	Err       error
	Attempted bool
}

// UpsertResult 区分全部成功、部分成功与全部失败
type UpsertResult struct {
	Total         int
	Stored        int
	FailedBatches []BatchFailure
}

func (r *UpsertResult) Succeeded() bool { return r != nil && r.Stored == r.Total && len(r.FailedBatches) == 0 }

func (r *UpsertResult) Partial() bool { return r != nil && r.Stored > 0 && r.Stored < r.Total }

// FirstError 返回第一个真正发起且失败的批次错误
func (r *UpsertResult) FirstError() error {
	if r == nil {
		return nil
	}
	for _, f := range r.FailedBatches {
		if f.Attempted && f.Err != nil {
			return f.Err
		}
	}
	return nil
}

// PartialIngestionError 多批次写入中途失败：文档处于部分可查询状态
type PartialIngestionError struct {
	DocumentID    string
	Filename      string
	Stored        int
	Total         int
	FailedBatches []BatchFailure
}

func (e *PartialIngestionError) Error() string {
	var causes []string
	for _, f := range e.FailedBatches {
		if f.Attempted && f.Err != nil {
			causes = append(causes, fmt.Sprintf("batch %d: %v", f.Index, f.Err))
		}
	}
	return fmt.Sprintf("partial ingestion of %s: stored %d/%d chunks (%s)", e.DocumentID, e.Stored, e.Total, strings.Join(causes, "; "))
}
