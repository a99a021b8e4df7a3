package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/yukikurage/solver-marketplace-api/internal/authz"
	"github.com/yukikurage/solver-marketplace-api/internal/constants"
	apierrors "github.com/yukikurage/solver-marketplace-api/internal/errors"
	"github.com/yukikurage/solver-marketplace-api/internal/models"
	"github.com/yukikurage/solver-marketplace-api/internal/storage"
	"go.uber.org/zap"
)

var ErrStorageNotConfigured = errors.New("file storage is not configured")

// UploadService stores deliverables and optionally submits them on a task.
type UploadService struct {
	store    storage.ObjectStore
	tasks    *TaskService
	maxBytes int64
	log      *zap.Logger
	now      func() time.Time
}

// NewUploadService creates a new UploadService. store may be nil.
func NewUploadService(store storage.ObjectStore, tasks *TaskService, maxBytes int64, log *zap.Logger) *UploadService {
	if maxBytes <= 0 {
		maxBytes = constants.DefaultMaxUploadBytes
	}
	return &UploadService{
		store:    store,
		tasks:    tasks,
		maxBytes: maxBytes,
		log:      log,
		now:      time.Now,
	}
}

// UploadInput describes one uploaded file
type UploadInput struct {
	// TaskID, when set, submits the stored file on that task.
	TaskID      string
	Filename    string
	Size        int64
	ContentType string
	Body        io.Reader
}

// UploadResult is the stored object and the submitted task, if any
type UploadResult struct {
	Object *storage.Object
	Task   *models.Task
}

// MaxBytes returns the upload size limit
func (s *UploadService) MaxBytes() int64 {
	return s.maxBytes
}

// UploadDeliverable validates and stores a .zip deliverable
func (s *UploadService) UploadDeliverable(ctx context.Context, actor authz.Actor, input UploadInput) (*UploadResult, error) {
	if s.store == nil {
		return nil, ErrStorageNotConfigured
	}

	name := filepath.Base(strings.TrimSpace(input.Filename))
	if name == "." || name == "/" || name == "" {
		return nil, apierrors.Validation("no file provided")
	}
	if !strings.EqualFold(filepath.Ext(name), constants.UploadExtension) {
		return nil, apierrors.Validation("only ZIP files are allowed")
	}
	if input.Size <= 0 {
		return nil, apierrors.Validation("file is empty")
	}
	if input.Size > s.maxBytes {
		return nil, apierrors.Newf(apierrors.KindValidation, "file too large, maximum size is %dMB", s.maxBytes/(1024*1024))
	}

	if input.TaskID != "" {
		// Check before storing so a denied submission leaves no orphan file.
		task, err := s.tasks.GetTask(ctx, input.TaskID)
		if err != nil {
			return nil, err
		}
		if err := authz.Authorize(actor, authz.ActionSubmitTask, authz.Resource{Task: task}); err != nil {
			return nil, err
		}
	}

	contentType := input.ContentType
	if contentType == "" {
		contentType = "application/zip"
	}

	key := fmt.Sprintf("%s/%d_%s", constants.UploadKeyPrefix, s.now().UnixNano(), sanitizeFilename(name))
	object, err := s.store.Put(ctx, key, input.Body, input.Size, contentType)
	if err != nil {
		s.log.Error("Upload failed", zap.String("key", key), zap.Error(err))
		return nil, apierrors.StoreUnavailable("store file", err)
	}

	s.log.Info("Deliverable stored",
		zap.String("key", object.Key),
		zap.Int64("size", object.Size),
		zap.String("actor_id", actor.ID),
	)

	result := &UploadResult{Object: object}
	if input.TaskID != "" {
		task, err := s.tasks.SubmitTask(ctx, actor, input.TaskID, object.URL)
		if err != nil {
			return nil, err
		}
		result.Task = task
	}
	return result, nil
}

func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
}
