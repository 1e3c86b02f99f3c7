package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/cloudnotes/internal/common"
	"github.com/dmitrijs2005/cloudnotes/internal/logging"
	"github.com/dmitrijs2005/cloudnotes/internal/server/blob"
	"github.com/dmitrijs2005/cloudnotes/internal/server/config"
	"github.com/dmitrijs2005/cloudnotes/internal/server/models"
	"github.com/dmitrijs2005/cloudnotes/internal/server/repositories/repomanager"
)

const (
	msgNoFile          = "No file provided"
	msgUploadDisabled  = "File upload is not configured. AWS S3 credentials are required."
	msgFileNotFound    = "File not found"
	msgMetadataFailed  = "File uploaded but its record could not be saved"
	msgFileNameTooLong = "File name must be at most 255 characters"
	defaultUploadName  = "upload"
	defaultContentType = "application/octet-stream"

	// maxFileNameLen matches files.file_name; maxFileNameBytes keeps the
	// whole object key under the S3 limit of 1024 bytes.
	maxFileNameLen   = 255
	maxFileNameBytes = 900
)

// UploadInput describes one file to store. Size is optional.
type UploadInput struct {
	Body        io.Reader
	Size        int64
	FileName    string
	ContentType string
	IsPublic    bool
}

// UploadResult describes a stored file. File is nil when metadata
// recording is disabled.
type UploadResult struct {
	File     *models.File
	FileName string
	FileKey  string
	IsPublic bool
	URL      string
}

// UploadService writes files to the object store and optionally records
// them in the files table.
type UploadService struct {
	db             *sql.DB
	repomanager    repomanager.RepositoryManager
	store          blob.Store
	logger         logging.Logger
	storeTimeout   time.Duration
	s3Timeout      time.Duration
	recordMetadata bool
	now            func() time.Time
}

func NewUploadService(db *sql.DB, m repomanager.RepositoryManager, store blob.Store, logger logging.Logger, cfg *config.Config) *UploadService {
	return &UploadService{
		db:             db,
		repomanager:    m,
		store:          store,
		logger:         logger,
		storeTimeout:   cfg.StoreTimeout,
		s3Timeout:      cfg.S3Timeout,
		recordMetadata: cfg.RecordUploadMetadata,
		now:            time.Now,
	}
}

// ObjectKey builds the object key for a file uploaded by ownerID at t.
func ObjectKey(ownerID int64, fileName string, public bool, t time.Time) string {
	name := sanitizeFileName(fileName)
	if public {
		return fmt.Sprintf("public/%d-%s", t.UnixMilli(), name)
	}
	return fmt.Sprintf("private/user-uploads/%d/%d-%s", ownerID, t.UnixMilli(), name)
}

func sanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == "" {
		return defaultUploadName
	}
	return name
}

// Upload stores in.Body and returns where it can be fetched. When the
// metadata insert fails after the blob write the blob is left in place and
// logged as orphaned.
func (s *UploadService) Upload(ctx context.Context, ownerID int64, in UploadInput) (*UploadResult, error) {
	if in.Body == nil {
		return nil, common.NewError(common.KindUnconfigured, msgNoFile)
	}
	fileName := sanitizeFileName(in.FileName)
	if utf8.RuneCountInString(fileName) > maxFileNameLen || len(fileName) > maxFileNameBytes {
		return nil, common.ValidationError(msgFileNameTooLong,
			common.FieldError{Field: "file", Message: msgFileNameTooLong})
	}
	if !s.store.Configured() {
		return nil, common.NewError(common.KindUnconfigured, msgUploadDisabled)
	}

	key := ObjectKey(ownerID, fileName, in.IsPublic, s.now())
	contentType := in.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	url, err := s.putAndResolve(ctx, blob.Object{
		Key:         key,
		Body:        in.Body,
		Size:        in.Size,
		ContentType: contentType,
		Public:      in.IsPublic,
	})
	if err != nil {
		return nil, err
	}

	result := &UploadResult{FileName: fileName, FileKey: key, IsPublic: in.IsPublic, URL: url}
	if !s.recordMetadata {
		return result, nil
	}

	dbCtx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	file, err := s.repomanager.Files(s.db).Create(dbCtx, &models.File{
		UserID:   ownerID,
		FileKey:  key,
		FileName: fileName,
		IsPublic: in.IsPublic,
	})
	if err != nil {
		s.logger.Error(ctx, "orphaned blob", "key", key, "user_id", ownerID, "error", err)
		return nil, common.WrapError(common.KindUpstream, msgMetadataFailed, err)
	}

	result.File = file
	return result, nil
}

// FileURL returns the owner's file record with a URL: the direct URL for
// public files, a newly signed one for private files.
func (s *UploadService) FileURL(ctx context.Context, ownerID, fileID int64) (*UploadResult, error) {
	dbCtx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	file, err := s.repomanager.Files(s.db).GetByID(dbCtx, ownerID, fileID)
	if err != nil {
		return nil, storeError(err, msgFileNotFound)
	}

	url, err := s.resolveURL(ctx, file.FileKey, file.IsPublic)
	if err != nil {
		return nil, err
	}

	return &UploadResult{
		File:     file,
		FileName: file.FileName,
		FileKey:  file.FileKey,
		IsPublic: file.IsPublic,
		URL:      url,
	}, nil
}

func (s *UploadService) putAndResolve(ctx context.Context, obj blob.Object) (string, error) {
	s3Ctx, cancel := withTimeout(ctx, s.s3Timeout)
	defer cancel()

	if err := s.store.Put(s3Ctx, obj); err != nil {
		return "", s.upstreamError(ctx, err)
	}
	return s.resolveURL(ctx, obj.Key, obj.Public)
}

func (s *UploadService) resolveURL(ctx context.Context, key string, public bool) (string, error) {
	if public {
		return s.store.PublicURL(key), nil
	}
	if !s.store.Configured() {
		return "", common.NewError(common.KindUnconfigured, msgUploadDisabled)
	}

	s3Ctx, cancel := withTimeout(ctx, s.s3Timeout)
	defer cancel()

	url, err := s.store.PresignGet(s3Ctx, key)
	if err != nil {
		return "", s.upstreamError(ctx, err)
	}
	return url, nil
}

func (s *UploadService) upstreamError(ctx context.Context, err error) error {
	if isTimeout(err) {
		return common.WrapError(common.KindUnavailable, msgUnavailable, err)
	}
	cause := blob.Classify(err)
	s.logger.Error(ctx, "object store error", "cause", string(cause), "error", err)
	return &common.Error{
		Kind:    common.KindUpstream,
		Message: cause.Message(),
		Cause:   string(cause),
		Err:     err,
	}
}
