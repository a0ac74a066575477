package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/observability"
	appErrors "github.com/noah-isme/learnhub-api/pkg/errors"
)

// FileStorage abstracts upload destinations.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// ArtifactService validates uploads by size and type and hands them to the storage backend.
type ArtifactService interface {
	Store(ctx context.Context, file *multipart.FileHeader) (dto.ArtifactResponse, error)
}

type artifactService struct {
	storage FileStorage
	logger  zerolog.Logger
	maxSize int64
	tracer  trace.Tracer
}

// NewArtifactService constructs an artifact service.
func NewArtifactService(storage FileStorage, maxSizeMB int, logger zerolog.Logger) ArtifactService {
	if maxSizeMB <= 0 {
		maxSizeMB = 50
	}
	return &artifactService{
		storage: storage,
		logger:  logger.With().Str("component", "artifact_service").Logger(),
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		tracer:  otel.Tracer("github.com/noah-isme/learnhub-api/internal/service/artifact"),
	}
}

func (s *artifactService) Store(ctx context.Context, file *multipart.FileHeader) (dto.ArtifactResponse, error) {
	ctx, span := s.tracer.Start(ctx, "artifact.store")
	defer span.End()

	start := time.Now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	if file == nil {
		span.SetAttributes(attribute.Bool("artifact.file_present", false))
		span.SetStatus(codes.Error, "missing file")
		return dto.ArtifactResponse{}, appErrors.ErrMissingArtifact
	}

	span.SetAttributes(
		attribute.String("artifact.original_name", strings.TrimSpace(file.Filename)),
		attribute.Int64("artifact.request_size", file.Size),
		attribute.Int64("artifact.max_bytes", s.maxSize),
	)

	if file.Size > s.maxSize {
		observability.UploadRejected().WithLabelValues("size").Inc()
		span.SetStatus(codes.Error, "payload too large")
		return dto.ArtifactResponse{}, appErrors.ErrUploadTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return dto.ArtifactResponse{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return dto.ArtifactResponse{}, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(buf.Len()) > s.maxSize {
		observability.UploadRejected().WithLabelValues("size").Inc()
		span.SetStatus(codes.Error, "payload too large")
		return dto.ArtifactResponse{}, appErrors.ErrUploadTooLarge
	}
	if buf.Len() == 0 {
		observability.UploadRejected().WithLabelValues("empty").Inc()
		span.SetStatus(codes.Error, "empty payload")
		return dto.ArtifactResponse{}, appErrors.Clone(appErrors.ErrMissingArtifact, "uploaded file is empty")
	}

	detected := mimetype.Detect(buf.Bytes())
	span.SetAttributes(attribute.String("artifact.detected_mime", detected.String()))
	if !isAllowedArtifact(detected) {
		observability.UploadRejected().WithLabelValues("type").Inc()
		span.SetStatus(codes.Error, "type not allowed")
		return dto.ArtifactResponse{}, appErrors.Clone(appErrors.ErrUploadType, "file type not allowed: "+detected.String())
	}

	checksum := sha256.Sum256(buf.Bytes())
	storedName := storageFileName(file.Filename, detected.Extension())

	url, err := s.storage.Upload(ctx, storedName, bytes.NewReader(buf.Bytes()))
	if err != nil {
		observability.UploadRejected().WithLabelValues("storage").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		s.logger.Error().Err(err).Str("file_name", storedName).Msg("failed to store artifact")
		return dto.ArtifactResponse{}, appErrors.WithCause(appErrors.ErrStorage, err)
	}

	span.SetStatus(codes.Ok, "stored")

	return dto.ArtifactResponse{
		URL:              url,
		OriginalFilename: file.Filename,
		MimeType:         detected.String(),
		SizeBytes:        int64(buf.Len()),
		Checksum:         hex.EncodeToString(checksum[:]),
	}, nil
}

func isAllowedArtifact(detected *mimetype.MIME) bool {
	for mime := detected; mime != nil; mime = mime.Parent() {
		value := strings.ToLower(mime.String())
		if strings.HasPrefix(value, "video/") || strings.HasPrefix(value, "image/") {
			return true
		}
		if strings.HasPrefix(value, "application/pdf") {
			return true
		}
	}
	return false
}

// storageFileName keeps a readable, lowercase stem and appends a timestamp so stored names never collide.
// The extension always comes from the sniffed type, never from the client name, since static
// serving derives Content-Type from it.
func storageFileName(name, detectedExt string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.ToLower(base)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-")
	if base == "" {
		base = "submission"
	}

	ext := strings.ToLower(detectedExt)
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("%s-%d%s", base, time.Now().UnixNano(), ext)
}
