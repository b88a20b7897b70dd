package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"grindhouse/scoreboard/internal/common"
	"grindhouse/scoreboard/internal/constants"
	"grindhouse/scoreboard/internal/logging"
	"grindhouse/scoreboard/internal/models/dtos"
	gormModels "grindhouse/scoreboard/internal/models/gorm"
	"grindhouse/scoreboard/internal/storage"

	"github.com/google/uuid"
)

// ProofService stores uploaded proof payloads and hands out signed links to them.
type ProofService struct {
	blobs  storage.BlobStore
	signer *common.URLSignerService
}

func NewProofService(blobs storage.BlobStore, signer *common.URLSignerService) *ProofService {
	return &ProofService{blobs: blobs, signer: signer}
}

// Store writes raw proof bytes and returns the blob key.
func (p *ProofService) Store(ctx context.Context, taskID string, proofType constants.ProofType, data []byte) (string, error) {
	key := fmt.Sprintf("%s-%s.%s", taskID, uuid.NewString(), proofType.FileExtension())
	if err := p.blobs.Put(ctx, key, data); err != nil {
		return "", fmt.Errorf("failed to store proof: %w", err)
	}
	return key, nil
}

// Discard removes a blob written for an update that did not commit.
func (p *ProofService) Discard(ctx context.Context, key string) {
	if err := p.blobs.Delete(ctx, key); err != nil {
		logging.Warn("Failed to discard proof blob", "key", key, "error", err.Error())
	}
}

// ProofURL is the link clients should follow for a task's proof.
func (p *ProofService) ProofURL(task gormModels.Task) string {
	if task.ProofBlobKey == "" {
		return task.ProofURL
	}
	signed, err := p.signer.GeneratePresignedURL(task.ProofBlobKey)
	if err != nil {
		logging.Error("Failed to sign proof URL", "task_id", task.ID, "error", err.Error())
		return ""
	}
	return signed
}

// TaskResponse maps a task with its proof link resolved.
func (p *ProofService) TaskResponse(task gormModels.Task) dtos.TaskResponse {
	return dtos.NewTaskResponse(task, p.ProofURL(task))
}

func (p *ProofService) TaskResponses(tasks []gormModels.Task) []dtos.TaskResponse {
	out := make([]dtos.TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, p.TaskResponse(t))
	}
	return out
}

// Open validates a signed link and returns the blob behind it.
func (p *ProofService) Open(ctx context.Context, key, token string) (io.ReadCloser, error) {
	if token == "" {
		return nil, common.NewForbidden(constants.MsgInvalidProofToken)
	}
	if _, err := p.signer.ValidateToken(token, key); err != nil {
		return nil, common.NewForbidden(constants.MsgInvalidProofToken)
	}

	rc, err := p.blobs.Open(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			return nil, common.NewNotFound(constants.MsgProofNotFound)
		}
		return nil, storeFailure(err)
	}
	return rc, nil
}
